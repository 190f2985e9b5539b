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

// Package smputil holds the tool's command-line settings and the helpers
// that turn them into library configuration.
package smputil

import (
	"time"

	"github.com/pkg/errors"

	"github.com/hilsdk/smpmgr/smpxact/mgmt"
	"github.com/hilsdk/smpmgr/smpxact/sesn"
)

// Describes the executable; filled in by main.
type ToolInfoType struct {
	ExeName       string
	ShortName     string
	LongName      string
	VersionString string

	// Connection profile file, relative to the user's home directory.
	CfgFilename string
}

var ToolInfo ToolInfoType

// Global flag values.
var (
	// Per-request response timeout, in seconds.
	Timeout float64

	// Attempts per request; only timeouts are retried.
	Tries int

	// Connection profile name (--conn), or an ad hoc connection
	// (--conntype and --connstring).
	ConnProfile string
	ConnType    string
	ConnString  string

	// BLE peer name override and write-with-response selection.
	DeviceName  string
	BleWriteRsp bool

	// Response length policy name; empty selects the transport's default.
	LenPolicy string
)

// Returns the request options selected on the command line.  Unset or
// nonsensical values fall back to the library defaults.
func TxOptions() sesn.TxOptions {
	opt := sesn.NewTxOptions()
	if Timeout > 0 {
		opt.Timeout = time.Duration(Timeout * float64(time.Second))
	}
	if Tries > 0 {
		opt.Tries = Tries
	}

	return opt
}

// Returns the length policy selected with --lenpolicy, or dflt if none was
// given.
func MgmtLenPolicy(dflt mgmt.LenPolicy) (mgmt.LenPolicy, error) {
	if LenPolicy == "" {
		return dflt, nil
	}

	p, err := mgmt.ParseLenPolicy(LenPolicy)
	if err != nil {
		return dflt, errors.Wrap(err, "--lenpolicy")
	}

	return p, nil
}
