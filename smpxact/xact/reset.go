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
)

type ResetCmd struct {
	CmdBase
}

func NewResetCmd() *ResetCmd {
	return &ResetCmd{
		CmdBase: NewCmdBase(),
	}
}

type ResetResult struct {
	Rsp *smp.ResetRsp
}

func newResetResult() *ResetResult {
	return &ResetResult{}
}

func (r *ResetResult) Status() int {
	return r.Rsp.Rc
}

func (c *ResetCmd) Run(s sesn.Sesn) (Result, error) {
	r := smp.NewResetReq()

	rsp, err := txReq(s, r.Msg(), &c.CmdBase)
	if err != nil {
		return nil, err
	}

	srsp := &smp.ResetRsp{}
	if err := decodeRsp(rsp, srsp); err != nil {
		return nil, err
	}

	res := newResetResult()
	res.Rsp = srsp
	return res, nil
}
