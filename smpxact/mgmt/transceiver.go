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

package mgmt

import (
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hilsdk/smpmgr/smpxact/smp"
	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
	"github.com/hilsdk/smpmgr/smpxact/xport"
)

type TransceiverCfg struct {
	// Characteristic used for both requests and responses.
	ChrUuid string

	// Whether requests are written with link-level acknowledgment.
	WriteRsp bool

	LenPolicy LenPolicy
}

func NewTransceiverCfg() TransceiverCfg {
	return TransceiverCfg{
		ChrUuid:   xport.SMP_CHR_UUID,
		WriteRsp:  false,
		LenPolicy: LEN_POLICY_IGNORE,
	}
}

// Receives the response to a single outstanding request.  A listener is used
// for exactly one request and then discarded.
type Listener struct {
	Seq     uint8
	RspChan chan *smp.Rsp
	ErrChan chan error
}

func NewListener(seq uint8) *Listener {
	return &Listener{
		Seq:     seq,
		RspChan: make(chan *smp.Rsp, 1),
		ErrChan: make(chan error, 1),
	}
}

func (nl *Listener) deliverRsp(rsp *smp.Rsp) bool {
	select {
	case nl.RspChan <- rsp:
		return true
	default:
		return false
	}
}

func (nl *Listener) deliverErr(err error) bool {
	select {
	case nl.ErrChan <- err:
		return true
	default:
		return false
	}
}

// Converts the notification-driven transport into request/response calls.
// At most one request may be outstanding; a second request issued before the
// first resolves is rejected with a BusyError.
type Transceiver struct {
	x   xport.Xport
	cfg TransceiverCfg

	seq uint8
	nl  *Listener
	ra  *smp.Reassembler
	mtx sync.Mutex
}

func NewTransceiver(x xport.Xport, cfg TransceiverCfg) *Transceiver {
	return &Transceiver{
		x:   x,
		cfg: cfg,
		ra:  smp.NewReassembler(),
	}
}

func (t *Transceiver) Cfg() TransceiverCfg {
	return t.cfg
}

// Registers for notifications on the SMP characteristic unless already
// registered for the current connection.
func (t *Transceiver) SubscribeOnce() error {
	if t.x.IsSubscribed(t.cfg.ChrUuid) {
		return nil
	}

	if err := t.x.Subscribe(t.cfg.ChrUuid, t.onNotify); err != nil {
		return err
	}

	log.Debugf("subscribed to SMP characteristic %s", t.cfg.ChrUuid)
	return nil
}

func (t *Transceiver) addListener() (*Listener, error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if t.nl != nil {
		return nil, smpxutil.NewBusyError(fmt.Sprintf(
			"SMP request already outstanding; seq=%d", t.nl.Seq))
	}

	nl := NewListener(t.seq)
	t.seq++

	t.nl = nl
	t.ra.Reset()

	return nl, nil
}

func (t *Transceiver) removeListener(nl *Listener) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if t.nl == nl {
		t.nl = nil
	}
}

// Sends a request and waits for the matching response.  The request's
// sequence number is assigned here; any value set by the caller is
// overwritten.
func (t *Transceiver) TxRxMgmt(req *smp.Msg, timeout time.Duration) (
	*smp.Rsp, error) {

	nl, err := t.addListener()
	if err != nil {
		return nil, err
	}
	defer t.removeListener(nl)

	if err := t.SubscribeOnce(); err != nil {
		return nil, err
	}

	req.Hdr.Seq = nl.Seq
	b, err := smp.EncodeMsg(req)
	if err != nil {
		return nil, err
	}

	log.Debugf("Tx SMP request: %s %v\n%s", req.Hdr, req.Fields(),
		hex.Dump(b))

	for _, frag := range smpxutil.Fragment(b, t.x.Mtu()) {
		if err := t.x.WriteChr(t.cfg.ChrUuid, frag, t.cfg.WriteRsp); err != nil {
			return nil, err
		}
	}

	timer := time.NewTimer(timeout)
	defer smpxutil.StopAndDrainTimer(timer)

	select {
	case err := <-nl.ErrChan:
		return nil, err
	case rsp := <-nl.RspChan:
		log.Debugf("Rx SMP response: %s %v", rsp.Hdr, rsp.Map)
		return rsp, nil
	case <-timer.C:
		return nil, smpxutil.FmtRspTimeoutError(
			"SMP timeout; seq=%d group=%d id=%d",
			nl.Seq, req.Hdr.Group, req.Hdr.Id)
	}
}

// Fails the outstanding request, if any.
func (t *Transceiver) AbortRx() {
	t.ErrorAll(fmt.Errorf("rx aborted"))
}

// Fails the outstanding request, if any, with the specified error.
func (t *Transceiver) ErrorAll(err error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if t.nl != nil {
		t.nl.deliverErr(err)
	}
}

func (t *Transceiver) onNotify(chrUuid string, data []byte) {
	smpxutil.ListenDebugf("Rx notification on %s:\n%s", chrUuid,
		hex.Dump(data))

	t.mtx.Lock()
	defer t.mtx.Unlock()

	pkt := data
	if t.cfg.LenPolicy == LEN_POLICY_REASSEMBLE {
		pkt = t.ra.RxFrag(data)
		if pkt == nil {
			return
		}
	}

	hdr, err := smp.DecodeHdr(pkt)
	if err != nil {
		if t.nl != nil {
			t.nl.deliverErr(smpxutil.NewMalformedRspError(err.Error()))
		} else {
			log.Printf("Failure decoding SMP header: %s", err.Error())
		}
		return
	}

	// Ignore incoming non-responses.  Some targets echo received requests.
	if !isRspOp(hdr.Op) {
		log.Debugf("Ignoring non-response SMP packet: %s", hdr)
		return
	}

	nl := t.nl
	if nl == nil {
		log.Printf("No listener for incoming SMP response: %s", hdr)
		return
	}

	if hdr.Seq != nl.Seq {
		log.Warnf("Dropping SMP response with unexpected seq; "+
			"have=%d want=%d", hdr.Seq, nl.Seq)
		return
	}

	rsp, err := decodeMgmtRsp(hdr, pkt, t.cfg.LenPolicy)
	if err != nil {
		log.Printf("Failure decoding SMP rsp: %s\npacket=\n%s",
			err.Error(), hex.Dump(pkt))
		nl.deliverErr(err)
		return
	}

	if !nl.deliverRsp(rsp) {
		log.Debugf("Dropping duplicate SMP response: %s", hdr)
	}
}
