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

// Package simtarget implements an in-process SMP target.  The target behaves
// like a dual-slot MCUboot device with image, shell and OS management
// handlers, and is reachable through the xport.Xport interface.
package simtarget

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hilsdk/smpmgr/smpxact/mcuboot"
	"github.com/hilsdk/smpmgr/smpxact/smp"
	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
	"github.com/hilsdk/smpmgr/smpxact/xport"
)

const NUM_SLOTS = 2

// The slot that receives uploads.
const UPLOAD_SLOT = 1

// Overrides the offset reported in an upload response.  reqOff is the offset
// the client sent; nextOff is the offset the target would report.
type UploadOffFn func(reqOff int, nextOff int) int

// Executes a shell command; returns the captured output and the command's
// return code.
type ShellFn func(argv []string) (string, int)

type Slot struct {
	Data      []byte
	Hash      []byte
	Version   string
	Bootable  bool
	Pending   bool
	Confirmed bool
	Active    bool
	Permanent bool
}

type upload struct {
	total int
	sha   []byte
	buf   []byte
}

type Target struct {
	// Hooks; set before the target is connected.
	UploadOffFn UploadOffFn
	ShellFn     ShellFn

	slots     [NUM_SLOTS]*Slot
	up        *upload
	chunks    []int
	resets    int
	mute      bool
	connected bool
	mtu       int
	chrs      map[string][]byte
	fns       map[string]xport.NotifyFn
	ra        *smp.Reassembler
	mtx       sync.Mutex
}

func normUuid(uuid string) string {
	return strings.ToUpper(uuid)
}

func newSlot(data []byte) *Slot {
	sum := sha256.Sum256(data)
	s := &Slot{
		Data:     data,
		Hash:     sum[:],
		Bootable: true,
	}

	if hdr, err := mcuboot.ParseImageHdr(data); err == nil {
		s.Version = hdr.Vers.String()
	}

	return s
}

// Creates a target running a confirmed 1.0.0 image from slot 0.
func NewTarget() *Target {
	t := &Target{
		chrs: map[string][]byte{},
		fns:  map[string]xport.NotifyFn{},
		ra:   smp.NewReassembler(),
	}

	s := newSlot(mcuboot.EncodeImageHdr(mcuboot.ImageVersion{Major: 1}, 0))
	s.Active = true
	s.Confirmed = true
	s.Permanent = true
	t.slots[0] = s

	return t
}

func DefaultShellFn(argv []string) (string, int) {
	if len(argv) == 0 {
		return "", smp.SMP_ERR_EINVAL
	}

	if argv[0] == "echo" {
		return strings.Join(argv[1:], " ") + "\n", 0
	}

	return fmt.Sprintf("%s: command not found\n", argv[0]), -8
}

// Sets the value returned by reads of the specified characteristic.
func (t *Target) SetChr(chrUuid string, val []byte) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	t.chrs[normUuid(chrUuid)] = val
}

// Limits the size of each response notification; larger responses are
// split.  Zero disables splitting.
func (t *Target) SetMtu(mtu int) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	t.mtu = mtu
}

// While muted, the target silently discards all requests.
func (t *Target) SetMute(mute bool) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	t.mute = mute
}

// Returns a copy of the specified slot, or nil if the slot is empty.
func (t *Target) Slot(idx int) *Slot {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if idx < 0 || idx >= NUM_SLOTS || t.slots[idx] == nil {
		return nil
	}

	s := *t.slots[idx]
	return &s
}

// Sizes of all upload chunks received, in order.
func (t *Target) Chunks() []int {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	return append([]int{}, t.chunks...)
}

func (t *Target) NumResets() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	return t.resets
}

func (t *Target) activeSlotNoLock() int {
	for i, s := range t.slots {
		if s != nil && s.Active {
			return i
		}
	}

	return -1
}

// Exchanges the primary and secondary slots.  The primary slot is always the
// one that runs.
func (t *Target) swapNoLock() {
	t.slots[0], t.slots[1] = t.slots[1], t.slots[0]

	if s := t.slots[0]; s != nil {
		s.Active = true
		s.Pending = false
		s.Permanent = s.Confirmed
	}
	if s := t.slots[1]; s != nil {
		s.Active = false
		s.Pending = false
		s.Permanent = false
	}
}

// Simulates a reboot.  A slot scheduled for test is booted once; a running
// image that was never confirmed is reverted.
func (t *Target) Reset() {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	t.resetNoLock()
}

func (t *Target) resetNoLock() {
	t.resets++
	t.up = nil

	cur := t.slots[0]
	alt := t.slots[1]
	if alt == nil {
		return
	}

	if cur != nil && !cur.Confirmed && alt.Confirmed {
		log.Debugf("simtarget: reverting to previous image")
		t.swapNoLock()
		return
	}

	if alt.Pending || alt.Permanent {
		log.Debugf("simtarget: booting image in slot 1")
		t.swapNoLock()
	}
}

func (t *Target) Connect(timeout time.Duration, tries int) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	t.connected = true
	return nil
}

func (t *Target) Disconnect() error {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if !t.connected {
		return smpxutil.NewXportError("simtarget not connected")
	}

	t.connected = false
	t.fns = map[string]xport.NotifyFn{}
	t.ra.Reset()
	return nil
}

func (t *Target) IsConnected() bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	return t.connected
}

func (t *Target) Mtu() int {
	return 0
}

func (t *Target) ReadChr(chrUuid string) ([]byte, error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if !t.connected {
		return nil, smpxutil.NewXportError("simtarget not connected")
	}

	uuid := normUuid(chrUuid)
	if uuid == normUuid(xport.DIS_FW_REV_UUID) {
		if _, ok := t.chrs[uuid]; !ok {
			if a := t.activeSlotNoLock(); a >= 0 {
				return []byte(t.slots[a].Version), nil
			}
		}
	}

	val, ok := t.chrs[uuid]
	if !ok {
		return nil, smpxutil.FmtXportError(
			"simtarget has no characteristic %s", chrUuid)
	}

	return append([]byte{}, val...), nil
}

func (t *Target) Subscribe(chrUuid string, fn xport.NotifyFn) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if !t.connected {
		return smpxutil.NewXportError("simtarget not connected")
	}

	t.fns[normUuid(chrUuid)] = fn
	return nil
}

func (t *Target) IsSubscribed(chrUuid string) bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	return t.fns[normUuid(chrUuid)] != nil
}

func (t *Target) WriteChr(chrUuid string, data []byte, ack bool) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if !t.connected {
		return smpxutil.NewXportError("simtarget not connected")
	}

	uuid := normUuid(chrUuid)
	if uuid != normUuid(xport.SMP_CHR_UUID) {
		t.chrs[uuid] = append([]byte{}, data...)
		return nil
	}

	pkt := t.ra.RxFrag(append([]byte{}, data...))
	if pkt == nil {
		return nil
	}

	if t.mute {
		log.Debugf("simtarget: muted; dropping request")
		return nil
	}

	rsp := t.handlePkt(pkt)
	if rsp == nil {
		return nil
	}

	fn := t.fns[uuid]
	if fn == nil {
		log.Debugf("simtarget: no subscriber; dropping response")
		return nil
	}

	frags := smpxutil.Fragment(rsp, t.mtu)
	go func() {
		for _, frag := range frags {
			fn(chrUuid, frag)
		}
	}()

	return nil
}
