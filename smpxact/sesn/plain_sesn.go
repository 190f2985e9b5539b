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

package sesn

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/hilsdk/smpmgr/smpxact/mgmt"
	"github.com/hilsdk/smpmgr/smpxact/smp"
	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
	"github.com/hilsdk/smpmgr/smpxact/xport"
)

// A session carrying unencrypted SMP over a single transport characteristic.
type PlainSesn struct {
	cfg  SesnCfg
	x    xport.Xport
	tr   *mgmt.Transceiver
	open bool
	mtx  sync.Mutex
}

func NewPlainSesn(x xport.Xport, cfg SesnCfg) *PlainSesn {
	return &PlainSesn{
		cfg: cfg,
		x:   x,
		tr:  mgmt.NewTransceiver(x, cfg.Mgmt),
	}
}

func (s *PlainSesn) Open() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.open && s.x.IsConnected() {
		return smpxutil.NewSesnAlreadyOpenError(
			"Attempt to open an already-open SMP session")
	}

	if !s.x.IsConnected() {
		log.Debugf("Connecting transport; timeout=%s tries=%d",
			s.cfg.ConnTimeout, s.cfg.ConnTries)
		if err := s.x.Connect(s.cfg.ConnTimeout, s.cfg.ConnTries); err != nil {
			return err
		}
	}

	if err := s.tr.SubscribeOnce(); err != nil {
		return err
	}

	s.open = true
	return nil
}

func (s *PlainSesn) Close() error {
	s.mtx.Lock()

	if !s.open {
		s.mtx.Unlock()
		return smpxutil.NewSesnClosedError(
			"Attempt to close an unopened SMP session")
	}
	s.open = false
	s.mtx.Unlock()

	s.tr.ErrorAll(smpxutil.NewSesnClosedError("SMP session closed"))
	err := s.x.Disconnect()

	if s.cfg.OnCloseCb != nil {
		s.cfg.OnCloseCb(s, err)
	}

	return err
}

// Indicates whether the session is currently open.  A session whose
// transport has dropped is not open.
func (s *PlainSesn) IsOpen() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.open && s.x.IsConnected()
}

func (s *PlainSesn) AbortRx() error {
	s.tr.AbortRx()
	return nil
}

func (s *PlainSesn) ReadChr(chrUuid string) ([]byte, error) {
	if !s.IsOpen() {
		return nil, smpxutil.NewSesnClosedError(
			"Attempt to read from closed SMP session")
	}

	return s.x.ReadChr(chrUuid)
}

func (s *PlainSesn) TxSmpOnce(m *smp.Msg, opt TxOptions) (*smp.Rsp, error) {
	if !s.IsOpen() {
		return nil, smpxutil.NewSesnClosedError(
			"Attempt to transmit over closed SMP session")
	}

	return s.tr.TxRxMgmt(m, opt.Timeout)
}
