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

package smpserial

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/joaojeronimo/go-crc16"
)

// Line markers.  The first line of a packet begins with a start marker; any
// remaining lines begin with a continuation marker.
var frameStart = []byte{6, 9}
var frameCont = []byte{4, 20}

// Base64 characters per line.  Leaves room for the marker and line ending
// within a 128 byte console buffer; must be a multiple of 4.
const FRAME_MAX_B64 = 124

// Splits an SMP packet into console lines.  Each line includes its marker
// and trailing newline.
func EncodeFrames(pkt []byte) [][]byte {
	body := make([]byte, 2, len(pkt)+4)
	binary.BigEndian.PutUint16(body, uint16(len(pkt)+2))
	body = append(body, pkt...)

	crc := make([]byte, 2)
	binary.BigEndian.PutUint16(crc, crc16.Crc16(pkt))
	body = append(body, crc...)

	b64 := make([]byte, base64.StdEncoding.EncodedLen(len(body)))
	base64.StdEncoding.Encode(b64, body)

	lines := [][]byte{}
	for written := 0; written < len(b64); {
		marker := frameCont
		if written == 0 {
			marker = frameStart
		}

		n := len(b64) - written
		if n > FRAME_MAX_B64 {
			n = FRAME_MAX_B64
		}

		line := make([]byte, 0, len(marker)+n+1)
		line = append(line, marker...)
		line = append(line, b64[written:written+n]...)
		line = append(line, '\n')
		lines = append(lines, line)

		written += n
	}

	return lines
}

// Accumulates console lines into SMP packets.
type Decoder struct {
	buf    []byte
	expLen int
	active bool
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func hasMarker(line []byte, marker []byte) bool {
	return len(line) >= 2 && line[0] == marker[0] && line[1] == marker[1]
}

// Processes a single line, without its line ending.  Returns a complete
// packet if this line finished one; nil otherwise.  Lines that are not part of
// an SMP frame are ignored.
func (d *Decoder) RxLine(line []byte) ([]byte, error) {
	for len(line) > 1 && line[0] == '\r' {
		line = line[1:]
	}
	for len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}

	start := hasMarker(line, frameStart)
	if !start && !hasMarker(line, frameCont) {
		return nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(string(line[2:]))
	if err != nil {
		d.reset()
		return nil, fmt.Errorf("Couldn't decode base64 string: %s",
			string(line[2:]))
	}

	if start {
		if len(data) < 2 {
			d.reset()
			return nil, nil
		}

		d.expLen = int(binary.BigEndian.Uint16(data[0:2]))
		d.buf = make([]byte, 0, d.expLen)
		d.active = true
		data = data[2:]
	}

	if !d.active {
		return nil, nil
	}

	d.buf = append(d.buf, data...)
	if len(d.buf) < d.expLen {
		return nil, nil
	}

	b := d.buf
	expLen := d.expLen
	d.reset()

	if len(b) > expLen {
		return nil, fmt.Errorf("serial packet overrun; have=%d want=%d",
			len(b), expLen)
	}
	if len(b) < 2 || crc16.Crc16(b) != 0 {
		return nil, fmt.Errorf("CRC error")
	}

	return b[:len(b)-2], nil
}

func (d *Decoder) reset() {
	d.buf = nil
	d.expLen = 0
	d.active = false
}
