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
	"github.com/hilsdk/smpmgr/smpxact/sesn"
	"github.com/hilsdk/smpmgr/smpxact/smp"
	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
)

type txFn func(s sesn.Sesn, m *smp.Msg, o sesn.TxOptions) (*smp.Rsp, error)

func txReqFn(s sesn.Sesn, m *smp.Msg, c *CmdBase,
	fn txFn) (*smp.Rsp, error) {

	c.mtx.Lock()
	if c.abortErr != nil {
		c.mtx.Unlock()
		return nil, c.abortErr
	}
	c.curSesn = s
	c.mtx.Unlock()

	defer func() {
		c.mtx.Lock()
		c.curSesn = nil
		c.mtx.Unlock()
	}()

	return fn(s, m, c.TxOptions())
}

// Transmits a request, retrying on timeout per the command's TxOptions.
func txReq(s sesn.Sesn, m *smp.Msg, c *CmdBase) (*smp.Rsp, error) {
	return txReqFn(s, m, c, sesn.TxSmp)
}

// Transmits a request exactly once; a timeout is returned to the caller
// regardless of the configured number of tries.
func txReqOnce(s sesn.Sesn, m *smp.Msg, c *CmdBase) (*smp.Rsp, error) {
	return txReqFn(s, m, c,
		func(s sesn.Sesn, m *smp.Msg, o sesn.TxOptions) (*smp.Rsp, error) {
			return s.TxSmpOnce(m, o)
		})
}

// Decodes a response into a typed response struct.  A body that does not
// match the expected shape indicates a malformed response.
func decodeRsp(rsp *smp.Rsp, v interface{}) error {
	if err := rsp.Decode(v); err != nil {
		return smpxutil.NewMalformedRspError(err.Error())
	}

	return nil
}
