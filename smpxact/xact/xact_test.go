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

package xact

import (
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hilsdk/smpmgr/smpxact/mcuboot"
	"github.com/hilsdk/smpmgr/smpxact/sesn"
	"github.com/hilsdk/smpmgr/smpxact/simtarget"
	"github.com/hilsdk/smpmgr/smpxact/smp"
	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
)

func newTestSesn(t *testing.T, tg *simtarget.Target) sesn.Sesn {
	s := sesn.NewPlainSesn(tg, sesn.NewSesnCfg())
	if err := s.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}

	return s
}

func testTxOptions() sesn.TxOptions {
	return sesn.TxOptions{
		Timeout: time.Second,
		Tries:   1,
	}
}

func testImage(minor uint8, size int) []byte {
	img := mcuboot.EncodeImageHdr(
		mcuboot.ImageVersion{Major: 1, Minor: minor}, uint32(size))
	for len(img) < size {
		img = append(img, byte(len(img)))
	}
	return img
}

func writeTestImage(t *testing.T, img []byte) string {
	path := filepath.Join(t.TempDir(), "app.img")
	if err := os.WriteFile(path, img, 0644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	return path
}

type progress struct {
	off   int
	total int
}

func TestImageUpload(t *testing.T) {
	tg := simtarget.NewTarget()
	s := newTestSesn(t, tg)

	path := writeTestImage(t, testImage(1, 300))

	var calls []progress
	cmd := NewImageUploadCmd()
	cmd.Path = path
	cmd.SetTxOptions(testTxOptions())
	cmd.ProgressCb = func(off int, total int) {
		calls = append(calls, progress{off, total})
	}

	res, err := cmd.Run(s)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	ures := res.(*ImageUploadResult)

	if ures.Status() != smp.SMP_ERR_OK || ures.Off != 300 {
		t.Errorf("result: status=%d off=%d", ures.Status(), ures.Off)
	}
	if len(ures.Sha) != 16 {
		t.Errorf("session token: got %d bytes, want 16", len(ures.Sha))
	}

	if chunks := tg.Chunks(); !reflect.DeepEqual(chunks, []int{128, 128, 44}) {
		t.Errorf("chunks: got %v", chunks)
	}

	want := []progress{{128, 300}, {256, 300}, {300, 300}}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("progress: got %v, want %v", calls, want)
	}

	s1 := tg.Slot(1)
	if s1 == nil || s1.Version != "1.1.0" {
		t.Errorf("uploaded slot: %+v", s1)
	}
}

func TestImageUploadStalled(t *testing.T) {
	tg := simtarget.NewTarget()
	tg.UploadOffFn = func(reqOff int, nextOff int) int { return 0 }
	s := newTestSesn(t, tg)

	cmd := NewImageUploadCmd()
	cmd.Data = testImage(1, 300)
	cmd.SetTxOptions(testTxOptions())

	done := make(chan error, 1)
	go func() {
		_, err := cmd.Run(s)
		done <- err
	}()

	select {
	case err := <-done:
		if !smpxutil.IsStalledXfer(err) {
			t.Fatalf("got %v, want stalled transfer error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("upload did not terminate")
	}

	if n := len(tg.Chunks()); n != IMAGE_UPLOAD_DFLT_MAX_STALLS+1 {
		t.Errorf("chunks sent: got %d, want %d",
			n, IMAGE_UPLOAD_DFLT_MAX_STALLS+1)
	}
}

func TestImageUploadIterLimit(t *testing.T) {
	tg := simtarget.NewTarget()

	// Alternates between advancing and rewinding; never stalls for long
	// but never finishes.
	tg.UploadOffFn = func(reqOff int, nextOff int) int {
		if reqOff == 0 {
			return 128
		}
		return 0
	}
	s := newTestSesn(t, tg)

	cmd := NewImageUploadCmd()
	cmd.Data = testImage(1, 300)
	cmd.MaxIters = 10
	cmd.SetTxOptions(testTxOptions())

	_, err := cmd.Run(s)
	if !smpxutil.IsStalledXfer(err) {
		t.Fatalf("got %v, want stalled transfer error", err)
	}
	if n := len(tg.Chunks()); n != 10 {
		t.Errorf("chunks sent: got %d, want 10", n)
	}
}

func TestImageUploadRetransmit(t *testing.T) {
	tg := simtarget.NewTarget()

	rewound := false
	tg.UploadOffFn = func(reqOff int, nextOff int) int {
		if reqOff == 128 && !rewound {
			rewound = true
			return 128
		}
		return nextOff
	}
	s := newTestSesn(t, tg)

	cmd := NewImageUploadCmd()
	cmd.Data = testImage(1, 300)
	cmd.SetTxOptions(testTxOptions())

	res, err := cmd.Run(s)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if off := res.(*ImageUploadResult).Off; off != 300 {
		t.Errorf("final offset: got %d", off)
	}

	chunks := tg.Chunks()
	if !reflect.DeepEqual(chunks, []int{128, 128, 128, 44}) {
		t.Errorf("chunks: got %v", chunks)
	}
}

func TestImageUploadBadOffset(t *testing.T) {
	tg := simtarget.NewTarget()
	tg.UploadOffFn = func(reqOff int, nextOff int) int { return 1000 }
	s := newTestSesn(t, tg)

	cmd := NewImageUploadCmd()
	cmd.Data = testImage(1, 300)
	cmd.SetTxOptions(testTxOptions())

	if _, err := cmd.Run(s); !smpxutil.IsMalformedRsp(err) {
		t.Fatalf("got %v, want malformed response error", err)
	}
}

func TestImageUploadMissingFile(t *testing.T) {
	tg := simtarget.NewTarget()
	s := newTestSesn(t, tg)

	cmd := NewImageUploadCmd()
	cmd.Path = filepath.Join(os.TempDir(), "does-not-exist.img")

	if _, err := cmd.Run(s); !smpxutil.IsFile(err) {
		t.Fatalf("got %v, want file error", err)
	}
	if n := len(tg.Chunks()); n != 0 {
		t.Errorf("sent %d chunks for missing file", n)
	}
}

func TestImageUploadTimeout(t *testing.T) {
	tg := simtarget.NewTarget()
	s := newTestSesn(t, tg)
	tg.SetMute(true)

	cmd := NewImageUploadCmd()
	cmd.Data = testImage(1, 300)
	cmd.SetTxOptions(sesn.TxOptions{
		Timeout: 50 * time.Millisecond,
		Tries:   1,
	})

	_, err := cmd.Run(s)
	if !smpxutil.IsRspTimeout(err) {
		t.Fatalf("got %v, want timeout", err)
	}
	if tg.Slot(1) != nil {
		t.Errorf("upload completed despite timeout")
	}
}

// Counts single transmissions made through a session.
type countingSesn struct {
	sesn.Sesn
	txs int32
}

func (s *countingSesn) TxSmpOnce(m *smp.Msg,
	opt sesn.TxOptions) (*smp.Rsp, error) {

	atomic.AddInt32(&s.txs, 1)
	return s.Sesn.TxSmpOnce(m, opt)
}

func TestImageUploadTimeoutNoRetry(t *testing.T) {
	tg := simtarget.NewTarget()
	s := &countingSesn{Sesn: newTestSesn(t, tg)}
	tg.SetMute(true)

	cmd := NewImageUploadCmd()
	cmd.Data = testImage(1, 300)
	cmd.SetTxOptions(sesn.TxOptions{
		Timeout: 30 * time.Millisecond,
		Tries:   3,
	})

	_, err := cmd.Run(s)
	if !smpxutil.IsRspTimeout(err) {
		t.Fatalf("got %v, want timeout", err)
	}
	if n := atomic.LoadInt32(&s.txs); n != 1 {
		t.Errorf("chunk sent %d times, want 1", n)
	}
}

func TestImageUploadAbort(t *testing.T) {
	tg := simtarget.NewTarget()
	s := newTestSesn(t, tg)
	tg.SetMute(true)

	cmd := NewImageUploadCmd()
	cmd.Data = testImage(1, 300)
	cmd.SetTxOptions(sesn.TxOptions{
		Timeout: 5 * time.Second,
		Tries:   1,
	})

	go func() {
		time.Sleep(50 * time.Millisecond)
		cmd.Abort()
	}()

	start := time.Now()
	_, err := cmd.Run(s)
	if err == nil {
		t.Fatalf("aborted upload succeeded")
	}
	if smpxutil.IsRspTimeout(err) {
		t.Fatalf("upload timed out instead of aborting: %v", err)
	}
	if d := time.Since(start); d > 2*time.Second {
		t.Errorf("abort took %s", d)
	}

	// An aborted command sends nothing further.
	if _, err := cmd.Run(s); err == nil {
		t.Errorf("aborted command ran again")
	}

	// The session remains usable.
	tg.SetMute(false)
	ec := NewEchoCmd()
	ec.Payload = "still here"
	ec.SetTxOptions(testTxOptions())
	res, err := ec.Run(s)
	if err != nil {
		t.Fatalf("echo after abort: %v", err)
	}
	if got := res.(*EchoResult).Rsp.Payload; got != "still here" {
		t.Errorf("echo after abort: got %q", got)
	}
}

func TestImageUpgradeUploadSettings(t *testing.T) {
	tg := simtarget.NewTarget()
	s := newTestSesn(t, tg)

	cmd := NewImageUpgradeCmd()
	cmd.Data = testImage(1, 300)
	cmd.ChunkSize = 100
	cmd.SetTxOptions(testTxOptions())

	if _, err := cmd.Run(s); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if got := tg.Chunks(); !reflect.DeepEqual(got, []int{100, 100, 100}) {
		t.Errorf("chunk sizes: got %v, want [100 100 100]", got)
	}

	tg = simtarget.NewTarget()
	tg.UploadOffFn = func(reqOff int, nextOff int) int { return 0 }
	s = newTestSesn(t, tg)

	cmd = NewImageUpgradeCmd()
	cmd.Data = testImage(2, 300)
	cmd.NoErase = true
	cmd.MaxRestarts = 0
	cmd.MaxStalls = 2
	cmd.SetTxOptions(testTxOptions())

	_, err := cmd.Run(s)
	if !smpxutil.IsStalledXfer(err) {
		t.Fatalf("got %v, want stalled transfer", err)
	}
	if n := len(tg.Chunks()); n != 3 {
		t.Errorf("chunks sent: got %d, want 3", n)
	}
}

func TestImageStateConfirm(t *testing.T) {
	tg := simtarget.NewTarget()
	s := newTestSesn(t, tg)

	ucmd := NewImageUploadCmd()
	ucmd.Data = testImage(4, 1000)
	ucmd.SetTxOptions(testTxOptions())
	if _, err := ucmd.Run(s); err != nil {
		t.Fatalf("upload: %v", err)
	}

	rcmd := NewImageStateReadCmd()
	res, err := rcmd.Run(s)
	if err != nil {
		t.Fatalf("state read: %v", err)
	}
	img := res.(*ImageStateReadResult).Rsp.Slot(1)
	if img == nil {
		t.Fatalf("uploaded image not reported")
	}
	if img.Version != "1.4.0" || img.Pending || img.Confirmed {
		t.Errorf("uploaded image state: %+v", img)
	}

	wcmd := NewImageStateWriteCmd()
	wcmd.Hash = img.Hash
	wcmd.Confirm = true
	wres, err := wcmd.Run(s)
	if err != nil {
		t.Fatalf("state write: %v", err)
	}
	if wres.Status() != smp.SMP_ERR_OK {
		t.Fatalf("state write: status=%d", wres.Status())
	}

	res, err = NewImageStateReadCmd().Run(s)
	if err != nil {
		t.Fatalf("state read: %v", err)
	}
	img = res.(*ImageStateReadResult).Rsp.Slot(1)
	if !img.Permanent || img.Pending {
		t.Errorf("confirmed image state: %+v", img)
	}
}

func TestImageStateTestRequiresHash(t *testing.T) {
	tg := simtarget.NewTarget()
	s := newTestSesn(t, tg)

	cmd := NewImageStateWriteCmd()
	if _, err := cmd.Run(s); err == nil {
		t.Fatalf("test without hash succeeded")
	}
}

func TestImageEraseActive(t *testing.T) {
	tg := simtarget.NewTarget()
	s := newTestSesn(t, tg)

	cmd := NewImageEraseCmd()
	cmd.Slot = 0
	res, err := cmd.Run(s)
	if err != nil {
		t.Fatalf("erase: %v", err)
	}
	if res.Status() != smp.SMP_ERR_EBADSTATE {
		t.Errorf("erase active: status=%d", res.Status())
	}
}

func TestImageUpgrade(t *testing.T) {
	tg := simtarget.NewTarget()
	s := newTestSesn(t, tg)

	cmd := NewImageUpgradeCmd()
	cmd.Data = testImage(5, 700)
	cmd.Reset = true
	cmd.SetTxOptions(testTxOptions())

	res, err := cmd.Run(s)
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if res.Status() != smp.SMP_ERR_OK {
		t.Fatalf("upgrade: status=%d", res.Status())
	}

	s0 := tg.Slot(0)
	if s0.Version != "1.5.0" || !s0.Active || s0.Confirmed {
		t.Errorf("running image after test boot: %+v", s0)
	}

	// Revert: the test image was never confirmed.
	if _, err := NewResetCmd().Run(s); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if v := tg.Slot(0).Version; v != "1.0.0" {
		t.Errorf("running image after revert: %s", v)
	}
}

func TestShellExec(t *testing.T) {
	tg := simtarget.NewTarget()
	s := newTestSesn(t, tg)

	cmd := NewShellExecCmd()
	cmd.Argv = []string{"echo", "hi"}
	res, err := cmd.Run(s)
	if err != nil {
		t.Fatalf("shell: %v", err)
	}

	rsp := res.(*ShellExecResult).Rsp
	if rsp.O != "hi\n" || rsp.Ret != 0 {
		t.Errorf("shell: got o=%q ret=%d", rsp.O, rsp.Ret)
	}
}

func TestEcho(t *testing.T) {
	tg := simtarget.NewTarget()
	s := newTestSesn(t, tg)

	cmd := NewEchoCmd()
	cmd.Payload = "hello"
	res, err := cmd.Run(s)
	if err != nil {
		t.Fatalf("echo: %v", err)
	}
	if p := res.(*EchoResult).Rsp.Payload; p != "hello" {
		t.Errorf("echo: got %q", p)
	}
}

func TestGetImageVersion(t *testing.T) {
	path := writeTestImage(t, testImage(7, 64))

	v, err := GetImageVersion(path)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v.String() != "1.7.0" {
		t.Errorf("version: got %s", v)
	}

	short := writeTestImage(t, make([]byte, 10))
	if _, err := GetImageVersion(short); !smpxutil.IsFile(err) {
		t.Errorf("short image: got %v, want file error", err)
	}

	if _, err := GetImageVersion(path + ".missing"); !smpxutil.IsFile(err) {
		t.Errorf("missing image: got %v, want file error", err)
	}
}

func TestReadFwRev(t *testing.T) {
	tg := simtarget.NewTarget()
	s := newTestSesn(t, tg)

	rev, err := ReadFwRev(s)
	if err != nil || rev != "1.0.0" {
		t.Errorf("fw rev: got %q (%v)", rev, err)
	}
}

func TestClosedSesn(t *testing.T) {
	tg := simtarget.NewTarget()
	s := newTestSesn(t, tg)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := NewEchoCmd().Run(s); !smpxutil.IsSesnClosed(err) {
		t.Errorf("got %v, want session closed error", err)
	}
}
