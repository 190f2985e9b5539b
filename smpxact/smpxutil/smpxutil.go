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

package smpxutil

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

var ListenLogLevel log.Level = log.WarnLevel

func SetLogLevel(level log.Level) {
	log.SetLevel(level)
	ListenLogLevel = level
}

// Logs at debug level only if the listener log level permits it.
func ListenDebugf(format string, args ...interface{}) {
	if ListenLogLevel >= log.DebugLevel {
		log.Debugf(format, args...)
	}
}

func StopAndDrainTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}

// Broadcasts a single value to every listener registered since the last
// clear.
type Bcaster struct {
	chs [](chan interface{})
	mtx sync.Mutex
}

func (b *Bcaster) Listen() chan interface{} {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	ch := make(chan interface{}, 1)
	b.chs = append(b.chs, ch)

	return ch
}

func (b *Bcaster) SendAndClear(val interface{}) {
	b.mtx.Lock()
	chs := b.chs
	b.chs = nil
	b.mtx.Unlock()

	for _, ch := range chs {
		ch <- val
		close(ch)
	}
}

// Splits a packet into pieces no larger than mtu.  A non-positive mtu yields
// the packet unsplit.
func Fragment(b []byte, mtu int) [][]byte {
	if mtu <= 0 || len(b) <= mtu {
		return [][]byte{b}
	}

	frags := [][]byte{}
	for len(b) > mtu {
		frags = append(frags, b[:mtu])
		b = b[mtu:]
	}
	if len(b) > 0 {
		frags = append(frags, b)
	}

	return frags
}
