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

package mgmt

import (
	"fmt"

	"github.com/hilsdk/smpmgr/smpxact/smp"
	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
)

// Determines how a response's declared payload length is treated.
type LenPolicy int

const (
	// Decode whatever follows the header; the declared length is not
	// checked.
	LEN_POLICY_IGNORE LenPolicy = iota

	// A declared length that differs from the received payload size is a
	// malformed response.
	LEN_POLICY_STRICT

	// Notifications are buffered until the declared length has been
	// received.
	LEN_POLICY_REASSEMBLE
)

var lenPolicyNames = map[LenPolicy]string{
	LEN_POLICY_IGNORE:     "ignore",
	LEN_POLICY_STRICT:     "strict",
	LEN_POLICY_REASSEMBLE: "reassemble",
}

func (p LenPolicy) String() string {
	s := lenPolicyNames[p]
	if s == "" {
		return "???"
	}

	return s
}

func ParseLenPolicy(s string) (LenPolicy, error) {
	for p, name := range lenPolicyNames {
		if s == name {
			return p, nil
		}
	}

	return 0, fmt.Errorf("invalid length policy: \"%s\"", s)
}

func isRspOp(op uint8) bool {
	return op == smp.SMP_OP_READ_RSP || op == smp.SMP_OP_WRITE_RSP
}

// Decodes the body of a complete response packet.  The header has already
// been parsed by the caller.
func decodeMgmtRsp(hdr *smp.Hdr, pkt []byte, policy LenPolicy) (
	*smp.Rsp, error) {

	body := pkt[smp.SMP_HDR_SIZE:]
	if policy == LEN_POLICY_STRICT && int(hdr.Len) != len(body) {
		return nil, smpxutil.FmtMalformedRspError(
			"SMP length mismatch; hdr.len=%d actual=%d", hdr.Len, len(body))
	}

	rsp, err := smp.DecodeRspBody(hdr, body)
	if err != nil {
		return nil, smpxutil.NewMalformedRspError(err.Error())
	}

	return rsp, nil
}
