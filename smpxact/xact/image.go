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
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/hilsdk/smpmgr/smpxact/sesn"
	"github.com/hilsdk/smpmgr/smpxact/smp"
	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
)

//////////////////////////////////////////////////////////////////////////////
// $upload                                                                  //
//////////////////////////////////////////////////////////////////////////////

const IMAGE_UPLOAD_CHUNK_SIZE = 128
const IMAGE_UPLOAD_DFLT_IMAGE = 1
const IMAGE_UPLOAD_DFLT_MAX_STALLS = 8

type ImageUploadProgressFn func(off int, total int)

// Uploads an image in fixed size chunks.  The offset reported by the target
// is authoritative; the target may request retransmission by reporting an
// earlier offset.  The upload fails with a StalledXferError if the target
// stops making progress.  Chunks are sent once; TxOptions.Tries does not
// apply, and a chunk that times out fails the upload.
type ImageUploadCmd struct {
	CmdBase

	// Image source; if Data is nil, the image is read from Path.
	Path string
	Data []byte

	ImageNum  int
	ChunkSize int

	// Maximum number of consecutive responses that do not advance the
	// offset.
	MaxStalls int

	// Maximum number of chunks sent.  Zero selects a limit derived from the
	// image size.
	MaxIters int

	// Upload duration limit.  Zero means no limit.
	Timeout time.Duration

	ProgressCb ImageUploadProgressFn
}

type ImageUploadResult struct {
	Rsps  []*smp.ImageUploadRsp
	Sha   []byte
	Off   int
	Total int
}

func NewImageUploadCmd() *ImageUploadCmd {
	return &ImageUploadCmd{
		CmdBase:   NewCmdBase(),
		ImageNum:  IMAGE_UPLOAD_DFLT_IMAGE,
		ChunkSize: IMAGE_UPLOAD_CHUNK_SIZE,
		MaxStalls: IMAGE_UPLOAD_DFLT_MAX_STALLS,
	}
}

func newImageUploadResult() *ImageUploadResult {
	return &ImageUploadResult{}
}

func (r *ImageUploadResult) Status() int {
	if len(r.Rsps) > 0 {
		return r.Rsps[len(r.Rsps)-1].Rc
	} else if r.Off == r.Total {
		return smp.SMP_ERR_OK
	} else {
		return smp.SMP_ERR_EUNKNOWN
	}
}

// Opens the image source.  The returned closer must be called when the upload
// completes.
func (c *ImageUploadCmd) openImage() (io.ReaderAt, int, func(), error) {
	if c.Data != nil {
		return bytes.NewReader(c.Data), len(c.Data), func() {}, nil
	}

	f, err := os.Open(c.Path)
	if err != nil {
		return nil, 0, nil, smpxutil.NewFileError(c.Path, err.Error())
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, nil, smpxutil.NewFileError(c.Path, err.Error())
	}
	if !fi.Mode().IsRegular() {
		f.Close()
		return nil, 0, nil, smpxutil.NewFileError(c.Path, "not a regular file")
	}

	return f, int(fi.Size()), func() { f.Close() }, nil
}

func (c *ImageUploadCmd) maxIters(total int) int {
	if c.MaxIters > 0 {
		return c.MaxIters
	}

	chunks := (total + c.ChunkSize - 1) / c.ChunkSize
	return 2*chunks + c.MaxStalls
}

func readChunk(r io.ReaderAt, off int, sz int) ([]byte, error) {
	buf := make([]byte, sz)
	n, err := r.ReadAt(buf, int64(off))
	if n == sz {
		return buf, nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}

	return nil, err
}

// Interprets a chunk response.  Returns the offset the target reported.
func parseUploadRsp(rsp *smp.Rsp, total int) (*smp.ImageUploadRsp, error) {
	rc, err := rsp.Rc()
	if err != nil {
		return nil, smpxutil.FmtMalformedRspError(
			"image upload response has invalid rc: %s", err.Error())
	}
	if rc != smp.SMP_ERR_OK {
		return &smp.ImageUploadRsp{Rc: rc}, smpxutil.NewSmpRcError(rc,
			"image upload rejected: "+smp.StatusString(rc))
	}

	off, err := rsp.Int("off")
	if err != nil {
		return nil, smpxutil.NewMalformedRspError(err.Error())
	}
	if off < 0 || off > total {
		return nil, smpxutil.FmtMalformedRspError(
			"image upload response has invalid offset; off=%d total=%d",
			off, total)
	}

	return &smp.ImageUploadRsp{Rc: rc, Off: uint32(off)}, nil
}

func (c *ImageUploadCmd) Run(s sesn.Sesn) (Result, error) {
	if c.ChunkSize <= 0 {
		return nil, fmt.Errorf("invalid chunk size: %d", c.ChunkSize)
	}

	r, total, closeFn, err := c.openImage()
	if err != nil {
		return nil, err
	}
	defer closeFn()

	// Identifies this upload to the target; a restarted upload gets a new
	// token.
	token := uuid.New()

	res := newImageUploadResult()
	res.Sha = token[:]
	res.Total = total

	var deadline time.Time
	if c.Timeout > 0 {
		deadline = time.Now().Add(c.Timeout)
	}

	maxIters := c.maxIters(total)
	stalls := 0
	off := 0
	for iters := 0; off != total; iters++ {
		if iters >= maxIters {
			return nil, smpxutil.NewStalledXferError(off, total, iters,
				"image upload exceeded iteration limit")
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, smpxutil.NewStalledXferError(off, total, iters,
				"image upload timed out")
		}

		sz := c.ChunkSize
		if total-off < sz {
			sz = total - off
		}

		chunk, err := readChunk(r, off, sz)
		if err != nil {
			return nil, smpxutil.NewFileError(c.Path, err.Error())
		}

		req := smp.NewImageUploadReq()
		req.Image = c.ImageNum
		req.Len = uint32(total)
		req.Off = uint32(off)
		req.DataSha = res.Sha
		req.Data = chunk
		req.Upgrade = false

		// Chunks are never resent on timeout; the whole upload fails.
		rsp, err := txReqOnce(s, req.Msg(), &c.CmdBase)
		if err != nil {
			return nil, errors.Wrapf(err, "image upload failed at off=%d",
				off)
		}

		irsp, err := parseUploadRsp(rsp, total)
		if irsp != nil {
			res.Rsps = append(res.Rsps, irsp)
		}
		if err != nil {
			return nil, err
		}

		next := int(irsp.Off)
		if next <= off {
			stalls++
			log.Debugf("image upload not advancing; off=%d next=%d "+
				"stalls=%d", off, next, stalls)
			if stalls > c.MaxStalls {
				return nil, smpxutil.NewStalledXferError(next, total,
					iters+1, "image upload stalled")
			}
		} else {
			stalls = 0
		}

		off = next
		res.Off = off

		if c.ProgressCb != nil {
			c.ProgressCb(off, total)
		}
	}

	return res, nil
}

//////////////////////////////////////////////////////////////////////////////
// $upgrade                                                                 //
//////////////////////////////////////////////////////////////////////////////

// Image upgrade combines the image erase, upload and state write commands
// into a single command:
// 1. Unless NoErase is set, erase the upload slot.  If the connection drops
//    during the erase, reopen the session and continue.
// 2. Upload the image.  If the connection drops, reopen the session and
//    restart the upload from the beginning, at most MaxRestarts times.
// 3. Read image state and locate the uploaded image.
// 4. Mark the uploaded image for test, or confirm it if Confirm is set.
// 5. If Reset is set, reset the target so that the new image boots.
type ImageUpgradeCmd struct {
	CmdBase
	Path        string
	Data        []byte
	NoErase     bool
	Confirm     bool
	Reset       bool
	MaxRestarts int

	// Passed through to the upload; see ImageUploadCmd.
	ChunkSize  int
	MaxStalls  int
	Timeout    time.Duration
	ProgressCb ImageUploadProgressFn
}

type ImageUpgradeResult struct {
	EraseRes  *ImageEraseResult
	UploadRes *ImageUploadResult
	StateRes  *ImageStateWriteResult
	ResetRes  *ResetResult
	Hash      []byte
}

func NewImageUpgradeCmd() *ImageUpgradeCmd {
	return &ImageUpgradeCmd{
		CmdBase:     NewCmdBase(),
		MaxRestarts: 1,
		ChunkSize:   IMAGE_UPLOAD_CHUNK_SIZE,
		MaxStalls:   IMAGE_UPLOAD_DFLT_MAX_STALLS,
	}
}

func newImageUpgradeResult() *ImageUpgradeResult {
	return &ImageUpgradeResult{}
}

func (r *ImageUpgradeResult) Status() int {
	if r.StateRes != nil {
		return r.StateRes.Status()
	} else if r.UploadRes != nil {
		return r.UploadRes.Status()
	} else if r.EraseRes != nil {
		return r.EraseRes.Status()
	} else {
		return smp.SMP_ERR_EUNKNOWN
	}
}

// Attempts to recover from a disconnect.
func (c *ImageUpgradeCmd) rescue(s sesn.Sesn, err error) error {
	if err != nil {
		if !s.IsOpen() {
			if oerr := s.Open(); oerr == nil {
				log.Debugf("reopened session after error: %s", err.Error())
				return nil
			}
		}
	}

	return err
}

func (c *ImageUpgradeCmd) runErase(s sesn.Sesn) (*ImageEraseResult, error) {
	cmd := NewImageEraseCmd()
	cmd.Slot = IMAGE_UPLOAD_DFLT_IMAGE
	cmd.SetTxOptions(c.TxOptions())
	res, err := cmd.Run(s)

	if err := c.rescue(s, err); err != nil {
		return nil, err
	}

	if res == nil {
		// We didn't get a response back but we rescued ourselves from the
		// disconnect.
		res = newImageEraseResult()
	}

	return res.(*ImageEraseResult), nil
}

func (c *ImageUpgradeCmd) runUpload(s sesn.Sesn) (*ImageUploadResult, error) {
	for i := 0; ; i++ {
		cmd := NewImageUploadCmd()
		cmd.Path = c.Path
		cmd.Data = c.Data
		cmd.ChunkSize = c.ChunkSize
		cmd.MaxStalls = c.MaxStalls
		cmd.Timeout = c.Timeout
		cmd.ProgressCb = c.ProgressCb
		cmd.SetTxOptions(c.TxOptions())

		res, err := cmd.Run(s)
		if err == nil {
			return res.(*ImageUploadResult), nil
		}

		if i >= c.MaxRestarts {
			return nil, err
		}

		if err := c.rescue(s, err); err != nil {
			// Still connected, or disconnected and couldn't recover.
			return nil, err
		}

		log.Debugf("restarting image upload")
	}
}

func (c *ImageUpgradeCmd) uploadedHash(s sesn.Sesn) ([]byte, error) {
	cmd := NewImageStateReadCmd()
	cmd.SetTxOptions(c.TxOptions())

	res, err := cmd.Run(s)
	if err != nil {
		return nil, err
	}
	srsp := res.(*ImageStateReadResult).Rsp

	img := srsp.Slot(IMAGE_UPLOAD_DFLT_IMAGE)
	if img == nil || len(img.Hash) == 0 {
		return nil, fmt.Errorf("uploaded image not reported by target")
	}

	return img.Hash, nil
}

func (c *ImageUpgradeCmd) Run(s sesn.Sesn) (Result, error) {
	upgradeRes := newImageUpgradeResult()

	if c.NoErase == false {
		eres, err := c.runErase(s)
		if err != nil {
			return nil, err
		}
		upgradeRes.EraseRes = eres
	}

	ures, err := c.runUpload(s)
	if err != nil {
		return nil, err
	}
	upgradeRes.UploadRes = ures

	hash, err := c.uploadedHash(s)
	if err != nil {
		return nil, err
	}
	upgradeRes.Hash = hash

	wcmd := NewImageStateWriteCmd()
	wcmd.Hash = hash
	wcmd.Confirm = c.Confirm
	wcmd.SetTxOptions(c.TxOptions())
	wres, err := wcmd.Run(s)
	if err != nil {
		return nil, err
	}
	upgradeRes.StateRes = wres.(*ImageStateWriteResult)
	if rc := upgradeRes.StateRes.Status(); rc != smp.SMP_ERR_OK {
		return upgradeRes, nil
	}

	if c.Reset {
		rcmd := NewResetCmd()
		rcmd.SetTxOptions(c.TxOptions())
		rres, err := rcmd.Run(s)
		if err != nil {
			return nil, err
		}
		upgradeRes.ResetRes = rres.(*ResetResult)
	}

	return upgradeRes, nil
}

//////////////////////////////////////////////////////////////////////////////
// $state read                                                              //
//////////////////////////////////////////////////////////////////////////////

type ImageStateReadCmd struct {
	CmdBase
}

type ImageStateReadResult struct {
	Rsp *smp.ImageStateRsp
}

func NewImageStateReadCmd() *ImageStateReadCmd {
	return &ImageStateReadCmd{
		CmdBase: NewCmdBase(),
	}
}

func newImageStateReadResult() *ImageStateReadResult {
	return &ImageStateReadResult{}
}

func (r *ImageStateReadResult) Status() int {
	return r.Rsp.Rc
}

func (c *ImageStateReadCmd) Run(s sesn.Sesn) (Result, error) {
	r := smp.NewImageStateReadReq()

	rsp, err := txReq(s, r.Msg(), &c.CmdBase)
	if err != nil {
		return nil, err
	}

	srsp := &smp.ImageStateRsp{}
	if err := decodeRsp(rsp, srsp); err != nil {
		return nil, err
	}
	if _, ok := rsp.Map["images"]; !ok && srsp.Rc == smp.SMP_ERR_OK {
		return nil, smpxutil.NewMalformedRspError(
			"image state response lacks \"images\" field")
	}

	res := newImageStateReadResult()
	res.Rsp = srsp
	return res, nil
}

//////////////////////////////////////////////////////////////////////////////
// $state write                                                             //
//////////////////////////////////////////////////////////////////////////////

// Marks an image for test (Confirm=false) or confirms it permanently
// (Confirm=true).  When confirming, an empty hash refers to the running
// image.
type ImageStateWriteCmd struct {
	CmdBase
	Hash    []byte
	Confirm bool
}

type ImageStateWriteResult struct {
	Rsp *smp.ImageStateRsp
}

func NewImageStateWriteCmd() *ImageStateWriteCmd {
	return &ImageStateWriteCmd{
		CmdBase: NewCmdBase(),
	}
}

func newImageStateWriteResult() *ImageStateWriteResult {
	return &ImageStateWriteResult{}
}

func (r *ImageStateWriteResult) Status() int {
	return r.Rsp.Rc
}

func (c *ImageStateWriteCmd) Run(s sesn.Sesn) (Result, error) {
	if !c.Confirm && len(c.Hash) == 0 {
		return nil, fmt.Errorf("image hash required to mark image for test")
	}

	r := smp.NewImageStateWriteReq()
	r.Hash = c.Hash
	r.Confirm = c.Confirm

	rsp, err := txReq(s, r.Msg(), &c.CmdBase)
	if err != nil {
		return nil, err
	}

	srsp := &smp.ImageStateRsp{}
	if err := decodeRsp(rsp, srsp); err != nil {
		return nil, err
	}

	res := newImageStateWriteResult()
	res.Rsp = srsp
	return res, nil
}

//////////////////////////////////////////////////////////////////////////////
// $erase                                                                   //
//////////////////////////////////////////////////////////////////////////////

type ImageEraseCmd struct {
	CmdBase
	Slot int
}

type ImageEraseResult struct {
	Rsp *smp.ImageEraseRsp
}

func NewImageEraseCmd() *ImageEraseCmd {
	return &ImageEraseCmd{
		CmdBase: NewCmdBase(),
		Slot:    IMAGE_UPLOAD_DFLT_IMAGE,
	}
}

func newImageEraseResult() *ImageEraseResult {
	return &ImageEraseResult{
		Rsp: &smp.ImageEraseRsp{},
	}
}

func (r *ImageEraseResult) Status() int {
	return r.Rsp.Rc
}

func (c *ImageEraseCmd) Run(s sesn.Sesn) (Result, error) {
	r := smp.NewImageEraseReq()
	r.Slot = c.Slot

	rsp, err := txReq(s, r.Msg(), &c.CmdBase)
	if err != nil {
		return nil, err
	}

	srsp := &smp.ImageEraseRsp{}
	if err := decodeRsp(rsp, srsp); err != nil {
		return nil, err
	}

	res := newImageEraseResult()
	res.Rsp = srsp
	return res, nil
}
