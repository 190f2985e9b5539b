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

package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"mynewt.apache.org/newt/util"

	"github.com/hilsdk/smpmgr/smpmgr/config"
	"github.com/hilsdk/smpmgr/smpmgr/smputil"
	"github.com/hilsdk/smpmgr/smpxact/mgmt"
	"github.com/hilsdk/smpmgr/smpxact/simtarget"
	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
	"github.com/hilsdk/smpmgr/smpxact/xact"
)

func resetGlobals() {
	globalSesn = nil
	globalXport = nil
	globalXportSet = false

	smputil.ConnProfile = ""
	smputil.ConnType = ""
	smputil.ConnString = ""
	smputil.LenPolicy = ""
	smputil.Timeout = 1
	smputil.Tries = 1
}

func TestParseConnProfileArgs(t *testing.T) {
	cp, err := parseConnProfileArgs("dut",
		[]string{"type=serial", "connstring=dev=/dev/ttyACM0,baud=9600"})
	if err != nil {
		t.Fatalf("parseConnProfileArgs: %v", err)
	}
	if cp.Type != config.CONN_TYPE_SERIAL ||
		cp.ConnString != "dev=/dev/ttyACM0,baud=9600" {

		t.Errorf("unexpected profile: %s", cp.String())
	}

	bad := [][]string{
		{},
		{"connstring=x"},
		{"type=oic_udp"},
		{"type=sim", "color=red"},
		{"type"},
	}
	for _, vdefs := range bad {
		if _, err := parseConnProfileArgs("dut", vdefs); err == nil {
			t.Errorf("%v: expected error", vdefs)
		}
	}
}

func TestSimSesnFromCmdline(t *testing.T) {
	resetGlobals()
	defer resetGlobals()

	smputil.ConnType = "sim"
	smputil.ConnString = "mtu=16"

	x, err := GetXport()
	if err != nil {
		t.Fatalf("GetXport: %v", err)
	}
	if _, ok := x.(*simtarget.Target); !ok {
		t.Fatalf("unexpected transport type %T", x)
	}
	if globalSesnCfg.Mgmt.LenPolicy != mgmt.LEN_POLICY_REASSEMBLE {
		t.Errorf("fragmenting sim should default to reassembly; got %s",
			globalSesnCfg.Mgmt.LenPolicy.String())
	}

	s, err := GetSesn()
	if err != nil {
		t.Fatalf("GetSesn: %v", err)
	}
	if !s.IsOpen() {
		t.Fatalf("session not open")
	}

	// A response larger than the notification size must be reassembled.
	sres, err := shellExec(s, []string{"echo", strings.Repeat("x", 40)})
	if err != nil {
		t.Fatalf("shellExec: %v", err)
	}
	if sres.Rsp.O != strings.Repeat("x", 40)+"\n" {
		t.Errorf("unexpected output %q", sres.Rsp.O)
	}

	c := xact.NewImageStateReadCmd()
	c.SetTxOptions(smputil.TxOptions())
	res, err := c.Run(s)
	if err != nil {
		t.Fatalf("image state read: %v", err)
	}
	if res.Status() != 0 {
		t.Errorf("status = %d", res.Status())
	}

	s2, err := GetSesn()
	if err != nil || s2 != s {
		t.Errorf("GetSesn should return the open session")
	}
}

func TestLenPolicyFlag(t *testing.T) {
	resetGlobals()
	defer resetGlobals()

	smputil.ConnType = "sim"
	smputil.LenPolicy = "strict"
	if _, err := GetXport(); err != nil {
		t.Fatalf("GetXport: %v", err)
	}
	if globalSesnCfg.Mgmt.LenPolicy != mgmt.LEN_POLICY_STRICT {
		t.Errorf("len policy = %s", globalSesnCfg.Mgmt.LenPolicy.String())
	}

	resetGlobals()
	smputil.ConnType = "sim"
	smputil.LenPolicy = "sometimes"
	if _, err := GetXport(); err == nil {
		t.Errorf("expected error for invalid length policy")
	}
}

func TestGetXportBadConnType(t *testing.T) {
	resetGlobals()
	defer resetGlobals()

	smputil.ConnType = "carrier_pigeon"
	if _, err := GetXport(); err == nil {
		t.Fatalf("expected error for unknown connection type")
	}
	if _, err := GetXportIfOpen(); err == nil {
		t.Errorf("transport should not be set after a failure")
	}
}

func TestToNewtError(t *testing.T) {
	tmo := smpxutil.NewRspTimeoutError("no response")
	nerr := toNewtError(util.ChildNewtError(errors.Wrap(tmo, "upload")))
	if !strings.HasPrefix(nerr.Text, "timeout:") {
		t.Errorf("timeout not classified: %q", nerr.Text)
	}

	rcErr := smpxutil.NewSmpRcError(6, "image erase failed")
	nerr = toNewtError(rcErr)
	if !strings.Contains(nerr.Text, "badstate") {
		t.Errorf("rc not described: %q", nerr.Text)
	}

	plain := util.NewNewtError("plain")
	if toNewtError(plain) != plain {
		t.Errorf("parentless NewtError should pass through")
	}
}

func TestUpgradeUploadFlags(t *testing.T) {
	defer func() {
		uploadChunkSize = 0
		uploadMaxStalls = 0
		uploadTimeout = 0
	}()

	var upgrade *cobra.Command
	for _, c := range imageCmd().Commands() {
		if c.Name() == "upgrade" {
			upgrade = c
		}
	}
	if upgrade == nil {
		t.Fatalf("image upgrade command missing")
	}

	err := upgrade.ParseFlags([]string{
		"--chunk-size", "64", "--max-stalls", "3", "--upload-timeout", "2.5",
	})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	c := xact.NewImageUpgradeCmd()
	applyUploadFlags(&c.ChunkSize, &c.MaxStalls, &c.Timeout)

	if c.ChunkSize != 64 || c.MaxStalls != 3 ||
		c.Timeout != 2500*time.Millisecond {

		t.Errorf("flags not applied: chunk=%d stalls=%d timeout=%s",
			c.ChunkSize, c.MaxStalls, c.Timeout)
	}
}

func TestUploadFlagDefaults(t *testing.T) {
	uploadChunkSize = 0
	uploadMaxStalls = 0
	uploadTimeout = 0

	c := xact.NewImageUpgradeCmd()
	applyUploadFlags(&c.ChunkSize, &c.MaxStalls, &c.Timeout)

	if c.ChunkSize != xact.IMAGE_UPLOAD_CHUNK_SIZE ||
		c.MaxStalls != xact.IMAGE_UPLOAD_DFLT_MAX_STALLS || c.Timeout != 0 {

		t.Errorf("defaults overridden: chunk=%d stalls=%d timeout=%s",
			c.ChunkSize, c.MaxStalls, c.Timeout)
	}
}
