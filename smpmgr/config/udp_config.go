/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package config

import (
	"net"
	"strings"

	"mynewt.apache.org/newt/util"

	"github.com/hilsdk/smpmgr/smpxact/smpudp"
)

// Parses a UDP connstring: "addr=<host>:<port>", or just "<host>:<port>".
func ParseUdpConnString(cs string) (*smpudp.XportCfg, error) {
	uc := smpudp.NewXportCfg()

	cs = strings.TrimSpace(cs)
	kv := strings.SplitN(cs, "=", 2)
	switch {
	case len(kv) == 1:
		uc.PeerAddr = kv[0]
	case kv[0] == "addr":
		uc.PeerAddr = kv[1]
	default:
		return nil, util.FmtNewtError(
			"Invalid UDP connstring; Unrecognized key: %s", kv[0])
	}

	if _, _, err := net.SplitHostPort(uc.PeerAddr); err != nil {
		return nil, util.FmtNewtError(
			"Invalid UDP connstring; bad address \"%s\": %s",
			uc.PeerAddr, err.Error())
	}

	return uc, nil
}
