//go:build windows
// +build windows

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
	"time"

	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
	"github.com/hilsdk/smpmgr/smpxact/xport"
)

type XportCfg struct {
	CtlrName     string
	PreferredMtu uint16
}

func NewXportCfg() XportCfg {
	return XportCfg{}
}

type BllXport struct {
	cfg XportCfg
}

func NewBllXport(cfg XportCfg) *BllXport {
	return &BllXport{cfg: cfg}
}

func errUnsupported() error {
	return smpxutil.NewXportError("BLE not supported on Windows")
}

func (bx *BllXport) Stop() error { return nil }
func (bx *BllXport) DisconnectChan() chan interface{} { return make(chan interface{}) }
func (bx *BllXport) Disconnect() error { return nil }
func (bx *BllXport) IsConnected() bool { return false }
func (bx *BllXport) IsSubscribed(chrUuid string) bool { return false }
func (bx *BllXport) Mtu() int { return 0 }
func (bx *BllXport) ReadChr(chrUuid string) ([]byte, error) { return nil, errUnsupported() }

func (bx *BllXport) Connect(timeout time.Duration, tries int) error {
	return errUnsupported()
}

func (bx *BllXport) WriteChr(chrUuid string, data []byte, ack bool) error {
	return errUnsupported()
}

func (bx *BllXport) Subscribe(chrUuid string, fn xport.NotifyFn) error {
	return errUnsupported()
}
