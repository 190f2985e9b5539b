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
	"encoding/binary"
	"fmt"
	"math"

	"github.com/fatih/structs"
	"github.com/ugorji/go/codec"
)

const SMP_HDR_SIZE = 8

// Byte slices longer than this are summarized in logged field maps.
const fieldsMaxBytes = 16

type Hdr struct {
	Op    uint8 // 3 bits of opcode
	Len   uint16
	Group uint16
	Seq   uint8
	Id    uint8
}

type Msg struct {
	Hdr  Hdr
	Body interface{}
}

// SMP request.
type Req interface {
	Hdr() *Hdr
	SetHdr(hdr *Hdr)

	Msg() *Msg
}

type Base struct {
	hdr Hdr
}

func (b *Base) Hdr() *Hdr {
	return &b.hdr
}

func (b *Base) SetHdr(h *Hdr) {
	b.hdr = *h
}

func MsgFromReq(r Req) *Msg {
	return &Msg{
		Hdr:  *r.Hdr(),
		Body: r,
	}
}

func fillReq(req Req, op uint8, group uint16, id uint8) {
	hdr := Hdr{
		Op:    op,
		Len:   0,
		Group: group,
		Seq:   0,
		Id:    id,
	}

	req.SetHdr(&hdr)
}

func (hdr *Hdr) Bytes() []byte {
	buf := make([]byte, SMP_HDR_SIZE)

	buf[0] = hdr.Op | SMP_HDR_OP_FLAG
	buf[1] = 0
	binary.BigEndian.PutUint16(buf[2:4], hdr.Len)
	binary.BigEndian.PutUint16(buf[4:6], hdr.Group)
	buf[6] = hdr.Seq
	buf[7] = hdr.Id

	return buf
}

// Encodes a standalone header; the flag bit is always set in the first byte.
func EncodeHdr(op uint8, length uint16, group uint16, seq uint8,
	id uint8) []byte {

	hdr := Hdr{
		Op:    op,
		Len:   length,
		Group: group,
		Seq:   seq,
		Id:    id,
	}
	return hdr.Bytes()
}

func DecodeHdr(data []byte) (*Hdr, error) {
	if len(data) < SMP_HDR_SIZE {
		return nil, fmt.Errorf("Invalid SMP header; expected %d bytes, "+
			"have %d", SMP_HDR_SIZE, len(data))
	}

	return &Hdr{
		Op:    data[0] & SMP_HDR_OP_MASK,
		Len:   binary.BigEndian.Uint16(data[2:4]),
		Group: binary.BigEndian.Uint16(data[4:6]),
		Seq:   data[6],
		Id:    data[7],
	}, nil
}

func (hdr Hdr) String() string {
	return fmt.Sprintf("op=%s(%d) group=%d id=%d seq=%d len=%d",
		OpString(hdr.Op), hdr.Op, hdr.Group, hdr.Id, hdr.Seq, hdr.Len)
}

// Encodes the message body as CBOR and prepends the header.  The header's
// length field is filled in with the size of the encoded body.
func EncodeMsg(m *Msg) ([]byte, error) {
	payload := []byte{}

	if m.Body != nil {
		enc := codec.NewEncoderBytes(&payload, cborHandle)
		if err := enc.Encode(m.Body); err != nil {
			return nil, fmt.Errorf("Failed to encode SMP message: %s",
				err.Error())
		}
	}

	if len(payload) > math.MaxUint16 {
		return nil, fmt.Errorf("SMP payload too large: %d bytes",
			len(payload))
	}

	m.Hdr.Len = uint16(len(payload))

	b := m.Hdr.Bytes()
	return append(b, payload...), nil
}

// Converts the message body into a map keyed by the body's codec tags.  Long
// byte strings are summarized.
func (m *Msg) Fields() map[string]interface{} {
	if m.Body == nil || !structs.IsStruct(m.Body) {
		return nil
	}

	s := structs.New(m.Body)
	s.TagName = "codec"

	fields := s.Map()
	for k, v := range fields {
		if b, ok := v.([]byte); ok && len(b) > fieldsMaxBytes {
			fields[k] = fmt.Sprintf("<%d bytes>", len(b))
		}
	}

	return fields
}
