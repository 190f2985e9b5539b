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

package smp

import (
	"bytes"
	"testing"
)

func TestHdrRoundTrip(t *testing.T) {
	tests := []struct {
		op    uint8
		len   uint16
		group uint16
		seq   uint8
		id    uint8
	}{
		{SMP_OP_READ, 0, SMP_GROUP_IMAGE, 0, SMP_ID_IMAGE_STATE},
		{SMP_OP_WRITE, 1, SMP_GROUP_SHELL, 1, SMP_ID_SHELL_EXEC},
		{SMP_OP_WRITE, 0x1234, 0xabcd, 0xff, 0x7f},
		{SMP_OP_READ, 0xffff, 0xffff, 128, 0},
	}

	for _, tt := range tests {
		b := EncodeHdr(tt.op, tt.len, tt.group, tt.seq, tt.id)
		if len(b) != SMP_HDR_SIZE {
			t.Fatalf("header size: got %d, want %d", len(b), SMP_HDR_SIZE)
		}
		if b[0]&SMP_HDR_OP_FLAG == 0 {
			t.Errorf("op=%d: flag bit not set in 0x%02x", tt.op, b[0])
		}
		if b[1] != 0 {
			t.Errorf("op=%d: reserved byte is 0x%02x", tt.op, b[1])
		}

		hdr, err := DecodeHdr(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		want := Hdr{Op: tt.op, Len: tt.len, Group: tt.group, Seq: tt.seq,
			Id: tt.id}
		if *hdr != want {
			t.Errorf("round trip: got %+v, want %+v", *hdr, want)
		}
	}
}

func TestHdrLayout(t *testing.T) {
	b := EncodeHdr(SMP_OP_WRITE, 0x0102, 0x0009, 0x33, 0x00)
	want := []byte{0x0a, 0x00, 0x01, 0x02, 0x00, 0x09, 0x33, 0x00}
	if !bytes.Equal(b, want) {
		t.Errorf("got % x, want % x", b, want)
	}
}

func TestDecodeHdrShort(t *testing.T) {
	if _, err := DecodeHdr([]byte{0x01, 0x00, 0x00}); err == nil {
		t.Errorf("expected error for short header")
	}
}

func TestDecodeHdrMasksOp(t *testing.T) {
	hdr, err := DecodeHdr([]byte{0x0b, 0, 0, 0, 0, 1, 5, 1})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hdr.Op != SMP_OP_WRITE_RSP {
		t.Errorf("op: got %d, want %d", hdr.Op, SMP_OP_WRITE_RSP)
	}
}

func TestEncodeMsgSetsLen(t *testing.T) {
	r := NewEchoReq()
	r.Payload = "hello"
	m := r.Msg()
	m.Hdr.Seq = 7

	b, err := EncodeMsg(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if int(m.Hdr.Len) != len(b)-SMP_HDR_SIZE {
		t.Errorf("len: got %d, want %d", m.Hdr.Len, len(b)-SMP_HDR_SIZE)
	}

	rsp, err := DecodeRsp(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rsp.Hdr.Seq != 7 || rsp.Hdr.Group != SMP_GROUP_DEFAULT {
		t.Errorf("unexpected header: %s", rsp.Hdr)
	}
	s, err := rsp.Text("d")
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if s != "hello" {
		t.Errorf("payload: got %q, want %q", s, "hello")
	}
}

func TestEncodeEmptyStateRead(t *testing.T) {
	b, err := EncodeMsg(NewImageStateReadReq().Msg())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := []byte{0x08, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xa0}
	if !bytes.Equal(b, want) {
		t.Errorf("got % x, want % x", b, want)
	}
}

func TestRspFields(t *testing.T) {
	r := NewImageUploadReq()
	r.Off = 128
	r.Len = 300
	r.Data = make([]byte, 128)
	b, err := EncodeMsg(r.Msg())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	rsp, err := DecodeRsp(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	off, err := rsp.Int("off")
	if err != nil || off != 128 {
		t.Errorf("off: got %d (%v), want 128", off, err)
	}
	if _, err := rsp.Int("missing"); err == nil {
		t.Errorf("expected error for missing key")
	}
	if _, err := rsp.Int("data"); err == nil {
		t.Errorf("expected error for non-integer key")
	}

	rc, err := rsp.Rc()
	if err != nil || rc != SMP_ERR_OK {
		t.Errorf("absent rc: got %d (%v)", rc, err)
	}

	var req ImageUploadReq
	if err := rsp.Decode(&req); err != nil {
		t.Fatalf("typed decode: %v", err)
	}
	if req.Len != 300 || len(req.Data) != 128 {
		t.Errorf("typed decode: len=%d data=%d", req.Len, len(req.Data))
	}

	fields := r.Msg().Fields()
	if fields["data"] != "<128 bytes>" {
		t.Errorf("fields: data=%v", fields["data"])
	}
}

func TestDecodeRspInvalidBody(t *testing.T) {
	pkt := append(EncodeHdr(SMP_OP_READ_RSP, 2, 1, 0, 0), 0xa1, 0x61)
	if _, err := DecodeRsp(pkt); err == nil {
		t.Errorf("expected error for invalid body")
	}
}

func TestReassembler(t *testing.T) {
	r := NewEchoReq()
	r.Payload = "abcdefghijklmnopqrstuvwxyz"
	pkt, err := EncodeMsg(r.Msg())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	ra := NewReassembler()
	if out := ra.RxFrag(pkt[:5]); out != nil {
		t.Fatalf("premature packet after partial header")
	}
	if out := ra.RxFrag(pkt[5:20]); out != nil {
		t.Fatalf("premature packet after partial body")
	}
	out := ra.RxFrag(pkt[20:])
	if !bytes.Equal(out, pkt) {
		t.Errorf("reassembled: got % x, want % x", out, pkt)
	}

	// Too much data discards the packet.
	long := append(append([]byte{}, pkt...), 0x00)
	if out := ra.RxFrag(long); out != nil {
		t.Errorf("expected oversized packet to be discarded")
	}
	if out := ra.RxFrag(pkt); !bytes.Equal(out, pkt) {
		t.Errorf("reassembler did not recover after discard")
	}
}
