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
	"fmt"
	"strconv"
	"strings"

	"mynewt.apache.org/newt/util"

	"github.com/hilsdk/smpmgr/smpmgr/smputil"
	"github.com/hilsdk/smpmgr/smpxact/smpserial"
)

func einvalSerialConnString(f string, args ...interface{}) error {
	suffix := fmt.Sprintf(f, args...)
	return util.FmtNewtError("Invalid serial connstring; %s", suffix)
}

// Parses a serial connstring: "dev=<path>[,baud=<int>][,mtu=<int>]".  A
// single token without an '=' is interpreted as the device path.
func ParseSerialConnString(cs string) (*smpserial.XportCfg, error) {
	sc := smpserial.NewXportCfg()
	if smputil.Timeout > 0 {
		sc.ReadTimeout = smputil.TxOptions().Timeout
	}

	parts := strings.Split(cs, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		// Handle old-style conn string (single token indicating dev file).
		if len(kv) == 1 {
			kv = []string{"dev", kv[0]}
		}

		k := kv[0]
		v := kv[1]

		switch k {
		case "dev":
			sc.DevPath = v

		case "baud":
			var err error
			sc.Baud, err = strconv.Atoi(v)
			if err != nil || sc.Baud <= 0 {
				return nil, einvalSerialConnString("Invalid baud: %s", v)
			}

		case "mtu":
			var err error
			sc.Mtu, err = strconv.Atoi(v)
			if err != nil || sc.Mtu < serialMinMtu {
				return nil, einvalSerialConnString("Invalid mtu: %s", v)
			}

		default:
			return nil, einvalSerialConnString("Unrecognized key: %s", k)
		}
	}

	if sc.DevPath == "" {
		return nil, einvalSerialConnString("dev not specified")
	}

	return sc, nil
}

// An SMP packet must at least hold a header.
const serialMinMtu = 8
