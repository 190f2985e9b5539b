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

	"github.com/hilsdk/smpmgr/smpxact/simtarget"
	"github.com/hilsdk/smpmgr/smpxact/xport"
)

// Settings for the in-process simulated target.
type SimConfig struct {
	// Notification size limit; zero delivers each response whole.
	Mtu   int
	FwRev string
}

func einvalSimConnString(f string, args ...interface{}) error {
	suffix := fmt.Sprintf(f, args...)
	return util.FmtNewtError("Invalid sim connstring; %s", suffix)
}

func ParseSimConnString(cs string) (*SimConfig, error) {
	sc := &SimConfig{}

	if strings.TrimSpace(cs) == "" {
		return sc, nil
	}

	for _, p := range strings.Split(cs, ",") {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return nil, einvalSimConnString("no '=' in: %s", p)
		}

		switch kv[0] {
		case "mtu":
			var err error
			sc.Mtu, err = strconv.Atoi(kv[1])
			if err != nil || sc.Mtu < 0 {
				return nil, einvalSimConnString("Invalid mtu: %s", kv[1])
			}
		case "fwrev":
			sc.FwRev = kv[1]
		default:
			return nil, einvalSimConnString("Unrecognized key: %s", kv[0])
		}
	}

	return sc, nil
}

func BuildSimTarget(sc *SimConfig) *simtarget.Target {
	t := simtarget.NewTarget()
	t.SetMtu(sc.Mtu)
	if sc.FwRev != "" {
		t.SetChr(xport.DIS_FW_REV_UUID, []byte(sc.FwRev))
	}

	return t
}
