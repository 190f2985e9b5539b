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

// Package xport defines the link-level contract that SMP sessions run over.
// A transport exposes a single characteristic that accepts writes and
// delivers notifications; SMP requests and responses are multiplexed over
// it.
package xport

import (
	"time"
)

const (
	// Characteristic carrying SMP requests (writes) and responses
	// (notifications).
	SMP_CHR_UUID = "DA2E7828-FBCE-4E01-AE9E-261174997C48"

	// GATT service containing the SMP characteristic.
	SMP_SVC_UUID = "8D53DC1D-1DB7-4CD3-868B-8A527460AA84"

	// Device information service: firmware revision string.
	DIS_FW_REV_UUID = "2A26"
)

// Called once for each notification received on a subscribed
// characteristic.  Implementations must not block.
type NotifyFn func(chrUuid string, data []byte)

type Xport interface {
	// Establishes the link.  A connection attempt that does not complete
	// within timeout counts as one failed try.
	Connect(timeout time.Duration, tries int) error

	// Tears down the link.  All subscriptions are cleared.
	Disconnect() error

	IsConnected() bool

	// Reads a single characteristic value.
	ReadChr(chrUuid string) ([]byte, error)

	// Writes a characteristic value.  If ack is false, the write is sent
	// without waiting for link-level acknowledgment.
	WriteChr(chrUuid string, data []byte, ack bool) error

	// Registers fn to receive notifications from the specified
	// characteristic.  A second subscription to the same characteristic
	// replaces the first.
	Subscribe(chrUuid string, fn NotifyFn) error

	IsSubscribed(chrUuid string) bool

	// Largest payload a single write can carry.
	Mtu() int
}
