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

//////////////////////////////////////////////////////////////////////////////
// $exec                                                                    //
//////////////////////////////////////////////////////////////////////////////

type ShellExecReq struct {
	Base          `codec:"-"`
	Argv []string `codec:"argv"`
}

type ShellExecRsp struct {
	Rc  int    `codec:"rc"`
	O   string `codec:"o"`
	Ret int    `codec:"ret"`
}

func NewShellExecReq() *ShellExecReq {
	r := &ShellExecReq{}
	fillReq(r, SMP_OP_WRITE, SMP_GROUP_SHELL, SMP_ID_SHELL_EXEC)
	return r
}

func (r *ShellExecReq) Msg() *Msg { return MsgFromReq(r) }
