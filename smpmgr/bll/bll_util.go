//go:build !windows
// +build !windows

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

package bll

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/JuulLabs-OSS/ble"
	log "github.com/sirupsen/logrus"
)

const BLE_ATT_MTU_DFLT = 23
const BLE_ATT_ATTR_MAX_LEN = 512

// Size of an ATT notification header (opcode plus attribute handle).
const NOTIFY_CMD_BASE_SZ = 3

func exchangeMtu(cln ble.Client, preferredMtu uint16) (uint16, error) {
	log.Debugf("Exchanging MTU")

	// macOS ignores MTU exchange requests and reports whatever it has
	// negotiated so far.  A report of 23 means the OS exchange hasn't
	// completed yet; wait and requery.
	var mtu int
	for i := 0; i < 3; i++ {
		var err error
		mtu, err = cln.ExchangeMTU(int(preferredMtu))
		if err != nil {
			return 0, err
		}

		if runtime.GOOS != "darwin" {
			break
		}

		if mtu != BLE_ATT_MTU_DFLT {
			break
		}

		log.Debugf("macOS reports an MTU of 23.  " +
			"Assume exchange hasn't completed; wait and requery.")
		time.Sleep(time.Second)
	}

	log.Debugf("Exchanged MTU; ATT MTU = %d", mtu)
	return uint16(mtu), nil
}

// Converts an ATT MTU to the largest SMP write payload.
func mtuFromAttMtu(attMtu uint16) int {
	mtu := int(attMtu) - NOTIFY_CMD_BASE_SZ
	if mtu < 0 {
		return 0
	}
	if mtu > BLE_ATT_ATTR_MAX_LEN {
		return BLE_ATT_ATTR_MAX_LEN
	}
	return mtu
}

func normUuid(uuid string) string {
	return strings.ToUpper(uuid)
}

// Locates a characteristic by UUID in any of the profile's services.
func findChr(profile *ble.Profile, chrUuid string) (*ble.Characteristic, error) {
	want, err := ble.Parse(chrUuid)
	if err != nil {
		return nil, fmt.Errorf("invalid characteristic UUID: %s", chrUuid)
	}

	if profile == nil {
		return nil, fmt.Errorf("peer profile not discovered")
	}

	for _, s := range profile.Services {
		for _, c := range s.Characteristics {
			if c.UUID.Equal(want) {
				return c, nil
			}
		}
	}

	return nil, fmt.Errorf("peer lacks characteristic %s", chrUuid)
}
