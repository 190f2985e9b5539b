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
	"fmt"
	"reflect"

	"github.com/spf13/cast"
	"github.com/ugorji/go/codec"
)

var cborHandle = newCborHandle()

func newCborHandle() *codec.CborHandle {
	h := new(codec.CborHandle)

	// Nested maps in generically decoded responses use string keys.
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))

	return h
}

// A decoded SMP response.  The body is kept in raw form so that it can be
// decoded a second time into a typed response struct.
type Rsp struct {
	Hdr  Hdr
	Body []byte
	Map  map[string]interface{}
}

func DecodeRspBody(hdr *Hdr, body []byte) (*Rsp, error) {
	r := &Rsp{
		Hdr:  *hdr,
		Body: body,
		Map:  map[string]interface{}{},
	}

	if len(body) == 0 {
		return r, nil
	}

	dec := codec.NewDecoderBytes(body, cborHandle)
	if err := dec.Decode(&r.Map); err != nil {
		return nil, fmt.Errorf("Invalid response: %s", err.Error())
	}

	return r, nil
}

// Decodes a full SMP packet (header followed by CBOR map).  Any bytes after
// the header are treated as the body regardless of the header's length field.
func DecodeRsp(pkt []byte) (*Rsp, error) {
	hdr, err := DecodeHdr(pkt)
	if err != nil {
		return nil, err
	}

	return DecodeRspBody(hdr, pkt[SMP_HDR_SIZE:])
}

// Decodes the response body into the specified typed response.
func (r *Rsp) Decode(v interface{}) error {
	if len(r.Body) == 0 {
		return nil
	}

	dec := codec.NewDecoderBytes(r.Body, cborHandle)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("Invalid response: %s", err.Error())
	}

	return nil
}

// Retrieves the response's "rc" field; an absent field indicates success.
func (r *Rsp) Rc() (int, error) {
	v, ok := r.Map["rc"]
	if !ok {
		return SMP_ERR_OK, nil
	}

	return cast.ToIntE(v)
}

func (r *Rsp) Int(key string) (int, error) {
	v, ok := r.Map[key]
	if !ok {
		return 0, fmt.Errorf("SMP response lacks \"%s\" field", key)
	}

	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("SMP response has invalid \"%s\" field: %s",
			key, err.Error())
	}

	return i, nil
}

func (r *Rsp) Text(key string) (string, error) {
	v, ok := r.Map[key]
	if !ok {
		return "", fmt.Errorf("SMP response lacks \"%s\" field", key)
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("SMP response has invalid \"%s\" field: %s",
			key, err.Error())
	}

	return s, nil
}
