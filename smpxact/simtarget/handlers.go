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

package simtarget

import (
	"bytes"
	"encoding/hex"

	"github.com/fxamacker/cbor/v2"
	log "github.com/sirupsen/logrus"

	"github.com/hilsdk/smpmgr/smpxact/smp"
)

type uploadReq struct {
	Image   int    `cbor:"image"`
	Len     int    `cbor:"len"`
	Off     int    `cbor:"off"`
	Sha     []byte `cbor:"sha"`
	Data    []byte `cbor:"data"`
	Upgrade bool   `cbor:"upgrade"`
}

type stateWriteReq struct {
	Hash    interface{} `cbor:"hash"`
	Confirm bool        `cbor:"confirm"`
}

type eraseReq struct {
	Slot *int `cbor:"slot"`
}

type shellExecReq struct {
	Argv []string `cbor:"argv"`
}

type echoReq struct {
	D string `cbor:"d"`
}

type rspMap map[string]interface{}

func rcRsp(rc int) rspMap {
	return rspMap{"rc": rc}
}

// Processes a single request packet.  Returns the encoded response, or nil if
// no response is to be sent.  Called with the lock held.
func (t *Target) handlePkt(pkt []byte) []byte {
	hdr, err := smp.DecodeHdr(pkt)
	if err != nil {
		log.Debugf("simtarget: bad request header: %s", err.Error())
		return nil
	}

	if hdr.Op != smp.SMP_OP_READ && hdr.Op != smp.SMP_OP_WRITE {
		return nil
	}

	body := pkt[smp.SMP_HDR_SIZE:]
	log.Debugf("simtarget: rx %s", hdr)

	var rsp rspMap
	switch hdr.Group {
	case smp.SMP_GROUP_DEFAULT:
		rsp = t.handleOs(hdr, body)
	case smp.SMP_GROUP_IMAGE:
		rsp = t.handleImage(hdr, body)
	case smp.SMP_GROUP_SHELL:
		rsp = t.handleShell(hdr, body)
	default:
		rsp = rcRsp(smp.SMP_ERR_ENOTSUP)
	}

	b, err := cbor.Marshal(rsp)
	if err != nil {
		log.Printf("simtarget: failed to encode response: %s", err.Error())
		return nil
	}

	out := smp.EncodeHdr(hdr.Op+1, uint16(len(b)), hdr.Group, hdr.Seq,
		hdr.Id)
	out = append(out, b...)

	if hdr.Group == smp.SMP_GROUP_DEFAULT && hdr.Id == smp.SMP_ID_DEF_RESET {
		t.resetNoLock()
	}

	return out
}

func (t *Target) handleOs(hdr *smp.Hdr, body []byte) rspMap {
	switch hdr.Id {
	case smp.SMP_ID_DEF_ECHO:
		var req echoReq
		if err := cbor.Unmarshal(body, &req); err != nil {
			return rcRsp(smp.SMP_ERR_EINVAL)
		}
		return rspMap{"r": req.D}

	case smp.SMP_ID_DEF_RESET:
		return rspMap{}

	default:
		return rcRsp(smp.SMP_ERR_ENOTSUP)
	}
}

func (t *Target) handleImage(hdr *smp.Hdr, body []byte) rspMap {
	switch hdr.Id {
	case smp.SMP_ID_IMAGE_STATE:
		if hdr.Op == smp.SMP_OP_READ {
			return t.stateRsp()
		}
		return t.stateWrite(body)

	case smp.SMP_ID_IMAGE_UPLOAD:
		return t.upload(body)

	case smp.SMP_ID_IMAGE_ERASE:
		return t.erase(body)

	default:
		return rcRsp(smp.SMP_ERR_ENOTSUP)
	}
}

func (t *Target) stateRsp() rspMap {
	images := []interface{}{}
	for i, s := range t.slots {
		if s == nil {
			continue
		}

		images = append(images, map[string]interface{}{
			"image":     0,
			"slot":      i,
			"version":   s.Version,
			"hash":      s.Hash,
			"bootable":  s.Bootable,
			"pending":   s.Pending,
			"confirmed": s.Confirmed,
			"active":    s.Active,
			"permanent": s.Permanent,
		})
	}

	return rspMap{"images": images}
}

func (t *Target) findSlot(hash []byte) int {
	for i, s := range t.slots {
		if s != nil && bytes.Equal(s.Hash, hash) {
			return i
		}
	}

	return -1
}

func (t *Target) stateWrite(body []byte) rspMap {
	var req stateWriteReq
	if err := cbor.Unmarshal(body, &req); err != nil {
		return rcRsp(smp.SMP_ERR_EINVAL)
	}

	var hash []byte
	switch h := req.Hash.(type) {
	case nil:
	case []byte:
		hash = h
	case string:
		b, err := hex.DecodeString(h)
		if err != nil {
			return rcRsp(smp.SMP_ERR_EINVAL)
		}
		hash = b
	default:
		return rcRsp(smp.SMP_ERR_EINVAL)
	}

	idx := -1
	if len(hash) == 0 {
		if !req.Confirm {
			return rcRsp(smp.SMP_ERR_EINVAL)
		}
		idx = t.activeSlotNoLock()
	} else {
		idx = t.findSlot(hash)
	}
	if idx < 0 {
		return rcRsp(smp.SMP_ERR_ENOENT)
	}

	s := t.slots[idx]
	if req.Confirm {
		for i, o := range t.slots {
			if o != nil && i != idx {
				o.Permanent = false
			}
		}
		s.Confirmed = true
		s.Permanent = true
		s.Pending = false
	} else {
		if s.Active {
			return rcRsp(smp.SMP_ERR_EBADSTATE)
		}
		s.Pending = true
	}

	return t.stateRsp()
}

func (t *Target) upload(body []byte) rspMap {
	var req uploadReq
	if err := cbor.Unmarshal(body, &req); err != nil {
		return rcRsp(smp.SMP_ERR_EINVAL)
	}

	t.chunks = append(t.chunks, len(req.Data))

	if req.Off == 0 {
		if req.Len <= 0 {
			return rcRsp(smp.SMP_ERR_EINVAL)
		}
		t.slots[UPLOAD_SLOT] = nil
		t.up = &upload{
			total: req.Len,
			sha:   req.Sha,
		}
	}

	if t.up == nil {
		return rcRsp(smp.SMP_ERR_EINVAL)
	}

	// Out of order chunks are not written; the reported offset asks the
	// client to resume from where the target actually is.
	if req.Off == len(t.up.buf) {
		room := t.up.total - len(t.up.buf)
		data := req.Data
		if len(data) > room {
			data = data[:room]
		}
		t.up.buf = append(t.up.buf, data...)
	}

	next := len(t.up.buf)
	if next == t.up.total {
		log.Debugf("simtarget: upload complete; %d bytes", next)
		t.slots[UPLOAD_SLOT] = newSlot(t.up.buf)
		t.up = nil
	}

	off := next
	if t.UploadOffFn != nil {
		off = t.UploadOffFn(req.Off, next)
	}

	return rspMap{"rc": smp.SMP_ERR_OK, "off": off}
}

func (t *Target) erase(body []byte) rspMap {
	var req eraseReq
	if len(body) > 0 {
		if err := cbor.Unmarshal(body, &req); err != nil {
			return rcRsp(smp.SMP_ERR_EINVAL)
		}
	}

	slot := UPLOAD_SLOT
	if req.Slot != nil {
		slot = *req.Slot
	}
	if slot < 0 || slot >= NUM_SLOTS {
		return rcRsp(smp.SMP_ERR_EINVAL)
	}

	if s := t.slots[slot]; s != nil && s.Active {
		return rcRsp(smp.SMP_ERR_EBADSTATE)
	}

	t.slots[slot] = nil
	t.up = nil

	return rcRsp(smp.SMP_ERR_OK)
}

func (t *Target) handleShell(hdr *smp.Hdr, body []byte) rspMap {
	if hdr.Id != smp.SMP_ID_SHELL_EXEC {
		return rcRsp(smp.SMP_ERR_ENOTSUP)
	}

	var req shellExecReq
	if err := cbor.Unmarshal(body, &req); err != nil {
		return rcRsp(smp.SMP_ERR_EINVAL)
	}

	fn := t.ShellFn
	if fn == nil {
		fn = DefaultShellFn
	}

	o, ret := fn(req.Argv)
	return rspMap{"o": o, "ret": ret}
}
