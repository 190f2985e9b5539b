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
	"fmt"
	"testing"
	"time"

	"github.com/hilsdk/smpmgr/smpxact/simtarget"
	"github.com/hilsdk/smpmgr/smpxact/smp"
	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
)

// Fails a fixed number of transmissions before succeeding.
type flakySesn struct {
	fails int
	err   error
	txs   int
}

func (s *flakySesn) Open() error { return nil }
func (s *flakySesn) Close() error { return nil }
func (s *flakySesn) IsOpen() bool { return true }
func (s *flakySesn) AbortRx() error { return nil }
func (s *flakySesn) ReadChr(chrUuid string) ([]byte, error) { return nil, nil }

func (s *flakySesn) TxSmpOnce(m *smp.Msg, opt TxOptions) (*smp.Rsp, error) {
	s.txs++
	if s.txs <= s.fails {
		return nil, s.err
	}

	return &smp.Rsp{Hdr: m.Hdr}, nil
}

func TestTxSmpRetries(t *testing.T) {
	tmo := smpxutil.NewRspTimeoutError("timeout")
	other := fmt.Errorf("other")

	tests := []struct {
		fails   int
		err     error
		tries   int
		wantTxs int
		wantErr bool
	}{
		{0, tmo, 1, 1, false},
		{1, tmo, 1, 1, true},
		{1, tmo, 2, 2, false},
		{2, tmo, 2, 2, true},
		{1, other, 3, 1, true},
	}

	for i, tt := range tests {
		s := &flakySesn{fails: tt.fails, err: tt.err}
		opt := TxOptions{Timeout: time.Second, Tries: tt.tries}

		_, err := TxSmp(s, smp.NewEchoReq().Msg(), opt)
		if (err != nil) != tt.wantErr {
			t.Errorf("case %d: err=%v, wantErr=%v", i, err, tt.wantErr)
		}
		if s.txs != tt.wantTxs {
			t.Errorf("case %d: txs=%d, want %d", i, s.txs, tt.wantTxs)
		}
	}
}

func TestPlainSesnOpenClose(t *testing.T) {
	tg := simtarget.NewTarget()
	s := NewPlainSesn(tg, NewSesnCfg())

	if s.IsOpen() {
		t.Fatalf("new session is open")
	}
	if err := s.Close(); !smpxutil.IsSesnClosed(err) {
		t.Errorf("close unopened: got %v", err)
	}

	if err := s.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if !tg.IsConnected() {
		t.Errorf("open did not connect transport")
	}
	if err := s.Open(); !smpxutil.IsSesnAlreadyOpen(err) {
		t.Errorf("second open: got %v", err)
	}

	closed := false
	s.cfg.OnCloseCb = func(cs Sesn, err error) { closed = true }
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !closed {
		t.Errorf("close callback not called")
	}
	if tg.IsConnected() {
		t.Errorf("close did not disconnect transport")
	}

	if _, err := s.TxSmpOnce(smp.NewEchoReq().Msg(), NewTxOptions()); !smpxutil.IsSesnClosed(err) {
		t.Errorf("tx on closed session: got %v", err)
	}
}

func TestPlainSesnReopenAfterDrop(t *testing.T) {
	tg := simtarget.NewTarget()
	s := NewPlainSesn(tg, NewSesnCfg())
	if err := s.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}

	// Link drops underneath the session.
	tg.Disconnect()
	if s.IsOpen() {
		t.Fatalf("session open after link loss")
	}

	if err := s.Open(); err != nil {
		t.Fatalf("reopen: %v", err)
	}

	r := smp.NewEchoReq()
	r.Payload = "x"
	rsp, err := TxSmp(s, r.Msg(), NewTxOptions())
	if err != nil {
		t.Fatalf("tx after reopen: %v", err)
	}
	if p, _ := rsp.Text("r"); p != "x" {
		t.Errorf("echo: got %q", p)
	}
}
