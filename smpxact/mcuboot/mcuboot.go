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

// Package mcuboot parses the fixed header that prefixes every MCUboot image.
package mcuboot

import (
	"encoding/binary"
	"fmt"
)

const (
	IMAGE_MAGIC          = 0x96f3b83d
	IMAGE_HEADER_SIZE    = 32
	IMAGE_VERSION_OFFSET = 20
	IMAGE_VERSION_SIZE   = 8
)

type ImageVersion struct {
	Major    uint8
	Minor    uint8
	Revision uint16
	Build    uint32
}

// Formats the version the way targets report it in image state responses.
// The build number is omitted when it is zero.
func (v ImageVersion) String() string {
	if v.Build == 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
	}

	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Revision, v.Build)
}

type ImageHdr struct {
	Magic          uint32
	LoadAddr       uint32
	HdrSize        uint16
	ProtectTlvSize uint16
	ImgSize        uint32
	Flags          uint32
	Vers           ImageVersion
}

// Parses the header at the start of an image.  The magic number is not
// verified; callers that care can inspect ImageHdr.Magic.
func ParseImageHdr(b []byte) (ImageHdr, error) {
	hdr := ImageHdr{}

	if len(b) < IMAGE_HEADER_SIZE {
		return hdr, fmt.Errorf("image header too short; have=%d want=%d",
			len(b), IMAGE_HEADER_SIZE)
	}

	hdr.Magic = binary.LittleEndian.Uint32(b[0:4])
	hdr.LoadAddr = binary.LittleEndian.Uint32(b[4:8])
	hdr.HdrSize = binary.LittleEndian.Uint16(b[8:10])
	hdr.ProtectTlvSize = binary.LittleEndian.Uint16(b[10:12])
	hdr.ImgSize = binary.LittleEndian.Uint32(b[12:16])
	hdr.Flags = binary.LittleEndian.Uint32(b[16:20])

	v := b[IMAGE_VERSION_OFFSET : IMAGE_VERSION_OFFSET+IMAGE_VERSION_SIZE]
	hdr.Vers = ImageVersion{
		Major:    v[0],
		Minor:    v[1],
		Revision: binary.LittleEndian.Uint16(v[2:4]),
		Build:    binary.LittleEndian.Uint32(v[4:8]),
	}

	return hdr, nil
}

// Builds an image header carrying the specified version and payload size.
// Used to produce test images.
func EncodeImageHdr(vers ImageVersion, imgSize uint32) []byte {
	b := make([]byte, IMAGE_HEADER_SIZE)

	binary.LittleEndian.PutUint32(b[0:4], IMAGE_MAGIC)
	binary.LittleEndian.PutUint16(b[8:10], IMAGE_HEADER_SIZE)
	binary.LittleEndian.PutUint32(b[12:16], imgSize)

	v := b[IMAGE_VERSION_OFFSET:]
	v[0] = vers.Major
	v[1] = vers.Minor
	binary.LittleEndian.PutUint16(v[2:4], vers.Revision)
	binary.LittleEndian.PutUint32(v[4:8], vers.Build)

	return b
}
