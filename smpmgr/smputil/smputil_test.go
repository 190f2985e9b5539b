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

package smputil

import (
	"testing"
	"time"

	"github.com/hilsdk/smpmgr/smpxact/mgmt"
	"github.com/hilsdk/smpmgr/smpxact/sesn"
)

func TestTxOptions(t *testing.T) {
	defer func() {
		Timeout = 0
		Tries = 0
	}()

	tests := []struct {
		timeout float64
		tries   int
		want    sesn.TxOptions
	}{
		{0, 0, sesn.NewTxOptions()},
		{-1, -3, sesn.NewTxOptions()},
		{2.5, 4, sesn.TxOptions{Timeout: 2500 * time.Millisecond, Tries: 4}},
		{0.1, 0, sesn.TxOptions{
			Timeout: 100 * time.Millisecond,
			Tries:   sesn.NewTxOptions().Tries,
		}},
	}

	for _, tst := range tests {
		Timeout = tst.timeout
		Tries = tst.tries

		if got := TxOptions(); got != tst.want {
			t.Errorf("timeout=%v tries=%d: got %+v, want %+v",
				tst.timeout, tst.tries, got, tst.want)
		}
	}
}

func TestMgmtLenPolicy(t *testing.T) {
	defer func() { LenPolicy = "" }()

	LenPolicy = ""
	p, err := MgmtLenPolicy(mgmt.LEN_POLICY_REASSEMBLE)
	if err != nil || p != mgmt.LEN_POLICY_REASSEMBLE {
		t.Errorf("default: got %s, %v", p, err)
	}

	LenPolicy = "strict"
	p, err = MgmtLenPolicy(mgmt.LEN_POLICY_REASSEMBLE)
	if err != nil || p != mgmt.LEN_POLICY_STRICT {
		t.Errorf("strict: got %s, %v", p, err)
	}

	LenPolicy = "loose"
	if _, err := MgmtLenPolicy(mgmt.LEN_POLICY_IGNORE); err == nil {
		t.Errorf("expected error for unknown policy")
	}
}
