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
	"fmt"
	"sync"

	"github.com/hilsdk/smpmgr/smpxact/sesn"
)

type Result interface {
	Status() int
}

type Cmd interface {
	// Transmits request and listens for response; blocking.
	Run(s sesn.Sesn) (Result, error)
	Abort() error

	TxOptions() sesn.TxOptions
	SetTxOptions(opt sesn.TxOptions)
}

type CmdBase struct {
	txOptions sesn.TxOptions
	curSesn   sesn.Sesn
	abortErr  error
	mtx       *sync.Mutex
}

func NewCmdBase() CmdBase {
	return CmdBase{
		txOptions: sesn.NewTxOptions(),
		mtx:       &sync.Mutex{},
	}
}

func (c *CmdBase) TxOptions() sesn.TxOptions {
	return c.txOptions
}

func (c *CmdBase) SetTxOptions(opt sesn.TxOptions) {
	c.txOptions = opt
}

// Aborts the command.  A request in progress fails immediately; subsequent
// requests are not sent.
func (c *CmdBase) Abort() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.curSesn != nil {
		if err := c.curSesn.AbortRx(); err != nil {
			return err
		}
	}

	c.abortErr = fmt.Errorf("Command aborted")
	return nil
}
