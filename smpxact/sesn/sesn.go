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

package sesn

import (
	"time"

	"github.com/hilsdk/smpmgr/smpxact/smp"
)

var DfltTxOptions = TxOptions{
	Timeout: 10 * time.Second,
	Tries:   1,
}

type TxOptions struct {
	Timeout time.Duration
	Tries   int
}

func NewTxOptions() TxOptions {
	return DfltTxOptions
}

// Represents a management session with a single target.  A session owns one
// transport and one transceiver; requests over a session are strictly
// sequential.
type Sesn interface {
	////// Public interface:

	// Initiates communication with the peer.  If the transport is not
	// already connected, a connection is established.
	// Returns:
	//     * nil: success.
	//     * smpxutil.SesnAlreadyOpenError: session already open.
	//     * other error
	Open() error

	// Ends communication with the peer.  Any outstanding request fails with
	// a SesnClosedError.
	//     * nil: success.
	//     * smpxutil.SesnClosedError: session not open.
	//     * other error
	Close() error

	// Indicates whether the session is currently open.
	IsOpen() bool

	// Stops a receive operation in progress.  This must be called from a
	// separate goroutine, as session receive operations are blocking.
	AbortRx() error

	// Reads a single value from the specified characteristic.
	ReadChr(chrUuid string) ([]byte, error)

	////// Internal to smpxact:

	// Performs a blocking transmit of a single SMP message and listens for
	// the response.
	//     * nil: success.
	//     * smpxutil.SesnClosedError: session not open.
	//     * smpxutil.BusyError: another request is outstanding.
	//     * smpxutil.RspTimeoutError: no response.
	//     * other error
	TxSmpOnce(m *smp.Msg, opt TxOptions) (*smp.Rsp, error)
}
