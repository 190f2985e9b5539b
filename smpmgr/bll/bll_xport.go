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

// Package bll implements an SMP transport over the host machine's native BLE
// support.
package bll

import (
	"fmt"
	"sync"
	"time"

	"github.com/JuulLabs-OSS/ble"
	"github.com/JuulLabs-OSS/ble/examples/lib/dev"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
	"github.com/hilsdk/smpmgr/smpxact/xport"
)

type XportCfg struct {
	CtlrName     string
	AdvFilter    ble.AdvFilter
	PreferredMtu uint16
}

func NewXportCfg() XportCfg {
	return XportCfg{
		CtlrName:     "default",
		PreferredMtu: 512,
	}
}

// A GATT client transport.  Characteristics are located by UUID in the
// profile discovered at connect time.
type BllXport struct {
	cfg XportCfg

	// All accesses must be protected by the mutex.
	cln     ble.Client
	profile *ble.Profile
	attMtu  uint16
	subs    map[string]bool

	devUp bool
	disc  smpxutil.Bcaster
	mtx   sync.Mutex
}

func NewBllXport(cfg XportCfg) *BllXport {
	return &BllXport{
		cfg:  cfg,
		subs: map[string]bool{},
	}
}

func (bx *BllXport) startDev() error {
	if bx.devUp {
		return nil
	}

	d, err := dev.NewDevice(bx.cfg.CtlrName)
	if err != nil {
		return smpxutil.NewXportError(
			"failed to open BLE controller: " + err.Error())
	}
	ble.SetDefaultDevice(d)

	bx.devUp = true
	return nil
}

// Shuts down the BLE controller.  The transport cannot be used afterwards.
func (bx *BllXport) Stop() error {
	bx.mtx.Lock()
	defer bx.mtx.Unlock()

	if !bx.devUp {
		return nil
	}

	bx.devUp = false
	return ble.Stop()
}

func (bx *BllXport) getCln() (ble.Client, error) {
	bx.mtx.Lock()
	defer bx.mtx.Unlock()

	if bx.cln == nil {
		return nil, smpxutil.NewXportError("disconnected")
	}

	return bx.cln, nil
}

// Returns a channel that receives a value when the current connection
// drops.
func (bx *BllXport) DisconnectChan() chan interface{} {
	return bx.disc.Listen()
}

func (bx *BllXport) listenDisconnect(cln ble.Client) {
	go func() {
		<-cln.Disconnected()

		bx.mtx.Lock()
		if bx.cln == cln {
			bx.cln = nil
			bx.profile = nil
			bx.subs = map[string]bool{}
		}
		bx.mtx.Unlock()

		log.Debugf("BLE peer disconnected")
		bx.disc.SendAndClear(nil)
	}()
}

func (bx *BllXport) connectOnce(timeout time.Duration) (ble.Client, error) {
	ctx := ble.WithSigHandler(context.WithTimeout(context.Background(),
		timeout))

	cln, err := ble.Connect(ctx, bx.cfg.AdvFilter)
	if err != nil {
		if err == context.DeadlineExceeded ||
			ctx.Err() == context.DeadlineExceeded {

			return nil, smpxutil.NewRspTimeoutError(fmt.Sprintf(
				"Failed to connect to peer after %s", timeout.String()))
		}
		return nil, smpxutil.NewXportError(err.Error())
	}

	return cln, nil
}

func (bx *BllXport) Connect(timeout time.Duration, tries int) error {
	bx.mtx.Lock()
	defer bx.mtx.Unlock()

	if bx.cln != nil {
		return nil
	}

	if bx.cfg.AdvFilter == nil {
		return smpxutil.NewXportError("BLE transport lacks a peer specifier")
	}

	if err := bx.startDev(); err != nil {
		return err
	}

	if tries < 1 {
		tries = 1
	}

	var cln ble.Client
	var err error
	for i := 0; i < tries; i++ {
		log.Debugf("Connecting to peer (attempt %d/%d)", i+1, tries)
		cln, err = bx.connectOnce(timeout)
		if err == nil {
			break
		}
		if !smpxutil.IsRspTimeout(err) {
			return err
		}
	}
	if err != nil {
		return err
	}

	mtu, err := exchangeMtu(cln, bx.cfg.PreferredMtu)
	if err != nil {
		cln.CancelConnection()
		return smpxutil.NewXportError(err.Error())
	}

	log.Debugf("Discovering profile")
	p, err := cln.DiscoverProfile(true)
	if err != nil {
		cln.CancelConnection()
		return smpxutil.NewXportError(err.Error())
	}

	if _, err := findChr(p, xport.SMP_CHR_UUID); err != nil {
		cln.CancelConnection()
		return smpxutil.NewXportError(err.Error())
	}

	bx.cln = cln
	bx.profile = p
	bx.attMtu = mtu
	bx.subs = map[string]bool{}
	bx.listenDisconnect(cln)

	return nil
}

func (bx *BllXport) Disconnect() error {
	bx.mtx.Lock()
	cln := bx.cln
	bx.cln = nil
	bx.profile = nil
	bx.subs = map[string]bool{}
	bx.mtx.Unlock()

	if cln == nil {
		return nil
	}

	return cln.CancelConnection()
}

func (bx *BllXport) IsConnected() bool {
	_, err := bx.getCln()
	return err == nil
}

func (bx *BllXport) chr(chrUuid string) (ble.Client, *ble.Characteristic, error) {
	bx.mtx.Lock()
	defer bx.mtx.Unlock()

	if bx.cln == nil {
		return nil, nil, smpxutil.NewXportError("disconnected")
	}

	c, err := findChr(bx.profile, chrUuid)
	if err != nil {
		return nil, nil, err
	}

	return bx.cln, c, nil
}

func (bx *BllXport) ReadChr(chrUuid string) ([]byte, error) {
	cln, c, err := bx.chr(chrUuid)
	if err != nil {
		return nil, err
	}

	return cln.ReadCharacteristic(c)
}

func (bx *BllXport) WriteChr(chrUuid string, data []byte, ack bool) error {
	cln, c, err := bx.chr(chrUuid)
	if err != nil {
		return err
	}

	if err := cln.WriteCharacteristic(c, data, !ack); err != nil {
		return smpxutil.NewXportError(err.Error())
	}

	return nil
}

func (bx *BllXport) Subscribe(chrUuid string, fn xport.NotifyFn) error {
	cln, c, err := bx.chr(chrUuid)
	if err != nil {
		return err
	}

	log.Debugf("Subscribing to characteristic %s", chrUuid)

	onNotify := func(data []byte) {
		fn(chrUuid, data)
	}
	if err := cln.Subscribe(c, false, onNotify); err != nil {
		return smpxutil.NewXportError(err.Error())
	}

	bx.mtx.Lock()
	bx.subs[normUuid(chrUuid)] = true
	bx.mtx.Unlock()

	return nil
}

func (bx *BllXport) IsSubscribed(chrUuid string) bool {
	bx.mtx.Lock()
	defer bx.mtx.Unlock()

	return bx.subs[normUuid(chrUuid)]
}

func (bx *BllXport) Mtu() int {
	bx.mtx.Lock()
	defer bx.mtx.Unlock()

	return mtuFromAttMtu(bx.attMtu)
}
