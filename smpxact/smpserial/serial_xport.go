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

// Package smpserial carries SMP over a serial console.  Packets are base64
// encoded with a length prefix and CRC, and split into newline-terminated
// lines.
package smpserial

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"

	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
	"github.com/hilsdk/smpmgr/smpxact/xport"
)

type OpenFn func(cfg *XportCfg) (io.ReadWriteCloser, error)

type XportCfg struct {
	DevPath     string
	Baud        int
	Mtu         int
	ReadTimeout time.Duration

	// Pause between the lines of a multi-line packet.  Slow targets have
	// small receive buffers.
	FrameDelay time.Duration

	// Opens the underlying port; defaults to a real serial device.
	Open OpenFn
}

func NewXportCfg() *XportCfg {
	return &XportCfg{
		Baud:        115200,
		ReadTimeout: 10 * time.Second,
		Mtu:         512,
		FrameDelay:  20 * time.Millisecond,
		Open:        openSerialPort,
	}
}

func openSerialPort(cfg *XportCfg) (io.ReadWriteCloser, error) {
	c := &serial.Config{
		Name:        cfg.DevPath,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	}

	port, err := serial.OpenPort(c)
	if err != nil {
		return nil, err
	}

	if err := port.Flush(); err != nil {
		port.Close()
		return nil, err
	}

	return port, nil
}

// A serial console transport.  The console behaves as a single SMP
// characteristic; it has no readable attributes.
type SerialXport struct {
	cfg  *XportCfg
	port io.ReadWriteCloser
	fns  map[string]xport.NotifyFn

	wg      sync.WaitGroup
	txMtx   sync.Mutex
	mtx     sync.Mutex
	closing bool
}

func NewSerialXport(cfg *XportCfg) *SerialXport {
	return &SerialXport{
		cfg: cfg,
		fns: map[string]xport.NotifyFn{},
	}
}

func (sx *SerialXport) Connect(timeout time.Duration, tries int) error {
	sx.mtx.Lock()
	defer sx.mtx.Unlock()

	if sx.port != nil {
		return nil
	}

	if tries < 1 {
		tries = 1
	}

	open := sx.cfg.Open
	if open == nil {
		open = openSerialPort
	}

	var err error
	for i := 0; i < tries; i++ {
		var port io.ReadWriteCloser
		port, err = open(sx.cfg)
		if err == nil {
			sx.port = port
			sx.closing = false
			sx.startRx(port)
			return nil
		}

		log.Debugf("failed to open %s (try %d/%d): %s",
			sx.cfg.DevPath, i+1, tries, err.Error())
	}

	return smpxutil.FmtXportError("failed to open serial port %s: %s",
		sx.cfg.DevPath, err.Error())
}

func (sx *SerialXport) startRx(port io.ReadWriteCloser) {
	sx.wg.Add(1)
	go func() {
		defer sx.wg.Done()

		d := NewDecoder()
		for {
			// A read timeout ends the scan; start over with a fresh
			// scanner.
			scanner := bufio.NewScanner(port)
			for scanner.Scan() {
				pkt, err := d.RxLine(scanner.Bytes())
				if err != nil {
					log.Debugf("serial rx: %s", err.Error())
					continue
				}
				if pkt != nil {
					sx.dispatch(pkt)
				}
			}

			sx.mtx.Lock()
			closing := sx.closing
			sx.mtx.Unlock()

			if closing {
				return
			}

			// A nil error indicates the read timed out.
			if err := scanner.Err(); err != nil {
				log.Printf("serial rx error: %s", err.Error())
				return
			}
		}
	}()
}

func (sx *SerialXport) dispatch(pkt []byte) {
	log.Debugf("Decoded serial input:\n%s", hex.Dump(pkt))

	sx.mtx.Lock()
	fn := sx.fns[strings.ToUpper(xport.SMP_CHR_UUID)]
	sx.mtx.Unlock()

	if fn == nil {
		log.Debugf("no subscriber for serial SMP packet")
		return
	}

	fn(xport.SMP_CHR_UUID, pkt)
}

func (sx *SerialXport) Disconnect() error {
	sx.mtx.Lock()
	port := sx.port
	if port == nil {
		sx.mtx.Unlock()
		return smpxutil.NewXportError("serial port not open")
	}

	sx.closing = true
	sx.port = nil
	sx.fns = map[string]xport.NotifyFn{}
	sx.mtx.Unlock()

	err := port.Close()
	sx.wg.Wait()
	return err
}

func (sx *SerialXport) IsConnected() bool {
	sx.mtx.Lock()
	defer sx.mtx.Unlock()

	return sx.port != nil
}

func (sx *SerialXport) ReadChr(chrUuid string) ([]byte, error) {
	return nil, smpxutil.FmtXportError(
		"serial transport cannot read characteristic %s", chrUuid)
}

func (sx *SerialXport) Subscribe(chrUuid string, fn xport.NotifyFn) error {
	sx.mtx.Lock()
	defer sx.mtx.Unlock()

	if sx.port == nil {
		return smpxutil.NewXportError("serial port not open")
	}

	sx.fns[strings.ToUpper(chrUuid)] = fn
	return nil
}

func (sx *SerialXport) IsSubscribed(chrUuid string) bool {
	sx.mtx.Lock()
	defer sx.mtx.Unlock()

	return sx.fns[strings.ToUpper(chrUuid)] != nil
}

// Serial packets are never split by the caller; the console framing handles
// long packets.
func (sx *SerialXport) Mtu() int {
	return 0
}

func (sx *SerialXport) txRaw(port io.Writer, b []byte) error {
	log.Debugf("Tx serial\n%s", hex.Dump(b))

	_, err := port.Write(b)
	return err
}

func (sx *SerialXport) WriteChr(chrUuid string, data []byte, ack bool) error {
	if !strings.EqualFold(chrUuid, xport.SMP_CHR_UUID) {
		return smpxutil.FmtXportError(
			"serial transport cannot write characteristic %s", chrUuid)
	}

	if sx.cfg.Mtu > 0 && len(data) > sx.cfg.Mtu {
		return smpxutil.FmtXportError(
			"serial packet too large; len=%d mtu=%d", len(data), sx.cfg.Mtu)
	}

	sx.mtx.Lock()
	port := sx.port
	sx.mtx.Unlock()

	if port == nil {
		return smpxutil.NewXportError("serial port not open")
	}

	sx.txMtx.Lock()
	defer sx.txMtx.Unlock()

	for i, line := range EncodeFrames(data) {
		if i > 0 && sx.cfg.FrameDelay > 0 {
			time.Sleep(sx.cfg.FrameDelay)
		}

		if err := sx.txRaw(port, line); err != nil {
			return smpxutil.NewXportError(fmt.Sprintf(
				"serial write failed: %s", err.Error()))
		}
	}

	return nil
}
