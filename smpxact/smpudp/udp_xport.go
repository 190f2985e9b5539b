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

// Package smpudp carries SMP over UDP.  Each datagram holds exactly one SMP
// packet.
package smpudp

import (
	"encoding/hex"
	"net"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
	"github.com/hilsdk/smpmgr/smpxact/xport"
)

const MAX_PACKET_SIZE = 2048

type XportCfg struct {
	// Target address in host:port form.
	PeerAddr string
}

func NewXportCfg() *XportCfg {
	return &XportCfg{}
}

type UdpXport struct {
	cfg  *XportCfg
	addr *net.UDPAddr
	conn *net.UDPConn
	fns  map[string]xport.NotifyFn

	wg  sync.WaitGroup
	mtx sync.Mutex
}

func NewUdpXport(cfg *XportCfg) *UdpXport {
	return &UdpXport{
		cfg: cfg,
		fns: map[string]xport.NotifyFn{},
	}
}

func listen(peerString string) (*net.UDPConn, *net.UDPAddr, error) {
	addr, err := net.ResolveUDPAddr("udp", peerString)
	if err != nil {
		return nil, nil, smpxutil.FmtXportError(
			"Failure resolving name for UDP transport: %s", err.Error())
	}

	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, nil, smpxutil.FmtXportError(
			"Failed to listen for UDP responses: %s", err.Error())
	}

	return conn, addr, nil
}

// UDP is connectionless; connecting only binds a local socket.  The timeout
// and tries arguments are unused.
func (ux *UdpXport) Connect(timeout time.Duration, tries int) error {
	ux.mtx.Lock()
	defer ux.mtx.Unlock()

	if ux.conn != nil {
		return nil
	}

	conn, addr, err := listen(ux.cfg.PeerAddr)
	if err != nil {
		return err
	}

	ux.conn = conn
	ux.addr = addr
	ux.startRx(conn)

	return nil
}

func (ux *UdpXport) startRx(conn *net.UDPConn) {
	ux.wg.Add(1)
	go func() {
		defer ux.wg.Done()

		data := make([]byte, MAX_PACKET_SIZE)
		for {
			nr, srcAddr, err := conn.ReadFromUDP(data)
			if err != nil {
				// Connection closed or read error.
				return
			}

			log.Debugf("Received UDP message from %v:\n%s", srcAddr,
				hex.Dump(data[:nr]))

			ux.mtx.Lock()
			fn := ux.fns[strings.ToUpper(xport.SMP_CHR_UUID)]
			ux.mtx.Unlock()

			if fn != nil {
				fn(xport.SMP_CHR_UUID, append([]byte{}, data[:nr]...))
			}
		}
	}()
}

func (ux *UdpXport) Disconnect() error {
	ux.mtx.Lock()
	conn := ux.conn
	if conn == nil {
		ux.mtx.Unlock()
		return smpxutil.NewXportError("UDP transport not connected")
	}

	ux.conn = nil
	ux.addr = nil
	ux.fns = map[string]xport.NotifyFn{}
	ux.mtx.Unlock()

	err := conn.Close()
	ux.wg.Wait()
	return err
}

func (ux *UdpXport) IsConnected() bool {
	ux.mtx.Lock()
	defer ux.mtx.Unlock()

	return ux.conn != nil
}

func (ux *UdpXport) ReadChr(chrUuid string) ([]byte, error) {
	return nil, smpxutil.FmtXportError(
		"UDP transport cannot read characteristic %s", chrUuid)
}

func (ux *UdpXport) Subscribe(chrUuid string, fn xport.NotifyFn) error {
	ux.mtx.Lock()
	defer ux.mtx.Unlock()

	if ux.conn == nil {
		return smpxutil.NewXportError("UDP transport not connected")
	}

	ux.fns[strings.ToUpper(chrUuid)] = fn
	return nil
}

func (ux *UdpXport) IsSubscribed(chrUuid string) bool {
	ux.mtx.Lock()
	defer ux.mtx.Unlock()

	return ux.fns[strings.ToUpper(chrUuid)] != nil
}

// A datagram carries a whole packet; packets are never split.
func (ux *UdpXport) Mtu() int {
	return 0
}

func (ux *UdpXport) WriteChr(chrUuid string, data []byte, ack bool) error {
	if !strings.EqualFold(chrUuid, xport.SMP_CHR_UUID) {
		return smpxutil.FmtXportError(
			"UDP transport cannot write characteristic %s", chrUuid)
	}

	if len(data) > MAX_PACKET_SIZE {
		return smpxutil.FmtXportError(
			"UDP packet too large; len=%d max=%d", len(data), MAX_PACKET_SIZE)
	}

	ux.mtx.Lock()
	conn := ux.conn
	addr := ux.addr
	ux.mtx.Unlock()

	if conn == nil {
		return smpxutil.NewXportError("UDP transport not connected")
	}

	log.Debugf("Tx UDP to %v:\n%s", addr, hex.Dump(data))
	if _, err := conn.WriteToUDP(data, addr); err != nil {
		return smpxutil.NewXportError(err.Error())
	}

	return nil
}
