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

package mcuboot

import (
	"testing"
)

func TestParseImageHdr(t *testing.T) {
	b := []byte{
		0x3d, 0xb8, 0xf3, 0x96, // magic
		0x00, 0x00, 0x00, 0x00, // load addr
		0x00, 0x02, // hdr size
		0x00, 0x00, // protected tlv size
		0x10, 0x27, 0x00, 0x00, // img size
		0x00, 0x00, 0x00, 0x00, // flags
		0x01, 0x02, 0x03, 0x01, 0x2a, 0x00, 0x00, 0x00, // version
		0x00, 0x00, 0x00, 0x00, // pad
	}

	hdr, err := ParseImageHdr(b)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if hdr.Magic != IMAGE_MAGIC {
		t.Errorf("magic: got 0x%08x", hdr.Magic)
	}
	if hdr.HdrSize != 0x200 || hdr.ImgSize != 10000 {
		t.Errorf("sizes: hdr=%d img=%d", hdr.HdrSize, hdr.ImgSize)
	}

	want := ImageVersion{Major: 1, Minor: 2, Revision: 259, Build: 42}
	if hdr.Vers != want {
		t.Errorf("version: got %+v, want %+v", hdr.Vers, want)
	}
	if s := hdr.Vers.String(); s != "1.2.259.42" {
		t.Errorf("version string: got %s", s)
	}
}

func TestParseImageHdrShort(t *testing.T) {
	if _, err := ParseImageHdr(make([]byte, IMAGE_HEADER_SIZE-1)); err == nil {
		t.Errorf("expected error for short header")
	}
}

func TestEncodeImageHdr(t *testing.T) {
	vers := ImageVersion{Major: 3, Minor: 0, Revision: 7}
	hdr, err := ParseImageHdr(EncodeImageHdr(vers, 1234))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if hdr.Vers != vers || hdr.ImgSize != 1234 || hdr.Magic != IMAGE_MAGIC {
		t.Errorf("unexpected header: %+v", hdr)
	}
	if s := hdr.Vers.String(); s != "3.0.7" {
		t.Errorf("version string: got %s", s)
	}
}
