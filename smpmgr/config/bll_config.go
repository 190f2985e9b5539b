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

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JuulLabs-OSS/ble"

	"mynewt.apache.org/newt/util"

	"github.com/hilsdk/smpmgr/smpmgr/bll"
	"github.com/hilsdk/smpmgr/smpmgr/smputil"
)

type BllConfig struct {
	CtlrName string
	PeerId   string
	PeerName string

	// Connection timeout, in seconds.
	ConnTimeout float64
	ConnTries   int
	WriteRsp    bool
}

func NewBllConfig() *BllConfig {
	return &BllConfig{
		ConnTimeout: smputil.Timeout,
		ConnTries:   1,
		WriteRsp:    smputil.BleWriteRsp,
	}
}

func einvalBllConnString(f string, args ...interface{}) error {
	suffix := fmt.Sprintf(f, args...)
	return util.FmtNewtError("Invalid BLE connstring; %s", suffix)
}

func ParseBllConnString(cs string) (*BllConfig, error) {
	bc := NewBllConfig()

	if strings.TrimSpace(cs) == "" {
		return bc, nil
	}

	parts := strings.Split(cs, ",")
	for _, p := range parts {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return nil, einvalBllConnString("expected comma-separated "+
				"key=value pairs; no '=' in: %s", p)
		}

		k := strings.TrimSpace(kv[0])
		v := strings.TrimSpace(kv[1])

		switch k {
		case "ctlr_name":
			bc.CtlrName = v
		case "peer_id":
			bc.PeerId = v
		case "peer_name":
			bc.PeerName = v
		case "conn_timeout":
			var err error
			bc.ConnTimeout, err = strconv.ParseFloat(v, 64)
			if err != nil || bc.ConnTimeout <= 0 {
				return nil, einvalBllConnString("Invalid conn_timeout: %s", v)
			}
		case "conn_tries":
			var err error
			bc.ConnTries, err = strconv.Atoi(v)
			if err != nil || bc.ConnTries < 1 {
				return nil, einvalBllConnString("Invalid conn_tries: %s", v)
			}
		case "write_rsp":
			var err error
			bc.WriteRsp, err = strconv.ParseBool(v)
			if err != nil {
				return nil, einvalBllConnString("Invalid write_rsp: %s", v)
			}

		default:
			return nil, einvalBllConnString("Unrecognized key: %s", k)
		}
	}

	return bc, nil
}

func (bc *BllConfig) ConnTimeoutDuration() time.Duration {
	return time.Duration(bc.ConnTimeout * float64(time.Second))
}

// Builds a transport configuration from a parsed connstring.  The --name
// flag overrides the profile's peer name.
func BuildBllXportCfg(bc *BllConfig) (bll.XportCfg, error) {
	if smputil.DeviceName != "" {
		bc.PeerName = smputil.DeviceName
	}

	xc := bll.NewXportCfg()
	if bc.CtlrName != "" {
		xc.CtlrName = bc.CtlrName
	}

	if bc.PeerName != "" {
		name := bc.PeerName
		xc.AdvFilter = func(a ble.Advertisement) bool {
			return a.LocalName() == name
		}
	} else if bc.PeerId != "" {
		id := strings.ToLower(bc.PeerId)
		xc.AdvFilter = func(a ble.Advertisement) bool {
			return strings.ToLower(a.Addr().String()) == id
		}
	} else {
		return xc, util.NewNewtError("BLE connection lacks a peer specifier")
	}

	return xc, nil
}
