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

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hilsdk/smpmgr/smpxact/xport"
)

func TestConnProfileMgr(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "profiles.json")

	cpm, err := NewConnProfileMgrFile(filename)
	if err != nil {
		t.Fatalf("NewConnProfileMgrFile: %v", err)
	}

	list, _ := cpm.GetConnProfileList()
	if len(list) != 0 {
		t.Fatalf("expected empty profile list, got %d", len(list))
	}

	for _, cp := range []*ConnProfile{
		{Name: "zeta", Type: CONN_TYPE_SERIAL, ConnString: "dev=/dev/ttyACM0"},
		{Name: "alpha", Type: CONN_TYPE_BLE, ConnString: "peer_name=dut"},
		{Name: "sim", Type: CONN_TYPE_SIM},
	} {
		if err := cpm.AddConnProfile(cp); err != nil {
			t.Fatalf("AddConnProfile(%s): %v", cp.Name, err)
		}
	}

	if err := cpm.DeleteConnProfile("sim"); err != nil {
		t.Fatalf("DeleteConnProfile: %v", err)
	}
	if err := cpm.DeleteConnProfile("sim"); err == nil {
		t.Fatalf("expected error deleting missing profile")
	}

	// Reload from disk.
	cpm2, err := NewConnProfileMgrFile(filename)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	list, _ = cpm2.GetConnProfileList()
	if len(list) != 2 || list[0].Name != "alpha" || list[1].Name != "zeta" {
		t.Fatalf("unexpected profile list after reload: %v", list)
	}

	cp, err := cpm2.GetConnProfile("zeta")
	if err != nil {
		t.Fatalf("GetConnProfile: %v", err)
	}
	if cp.Type != CONN_TYPE_SERIAL || cp.ConnString != "dev=/dev/ttyACM0" {
		t.Errorf("unexpected profile: %s", cp.String())
	}

	if _, err := cpm2.GetConnProfile("missing"); err == nil {
		t.Errorf("expected error for missing profile")
	}
	if _, err := cpm2.GetConnProfile(""); err == nil {
		t.Errorf("expected error for empty profile name")
	}

	blob, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(blob), `"type": "ble"`) {
		t.Errorf("connection type not stored by name:\n%s", blob)
	}
	if _, err := os.Stat(filename + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind after save")
	}
}

func TestConnProfileMgrAddInvalid(t *testing.T) {
	cpm, err := NewConnProfileMgrFile(
		filepath.Join(t.TempDir(), "profiles.json"))
	if err != nil {
		t.Fatal(err)
	}

	if err := cpm.AddConnProfile(&ConnProfile{Type: CONN_TYPE_SIM}); err == nil {
		t.Errorf("expected error for unnamed profile")
	}
	if err := cpm.AddConnProfile(&ConnProfile{Name: "x"}); err == nil {
		t.Errorf("expected error for profile without a type")
	}
}

func TestConnProfileMgrFutureVersion(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "profiles.json")
	blob := `{"version": 99, "profiles": []}`
	if err := os.WriteFile(filename, []byte(blob), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewConnProfileMgrFile(filename); err == nil {
		t.Fatalf("expected error for unsupported file version")
	}
}

func TestConnProfileMgrBadFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "profiles.json")
	if err := os.WriteFile(filename, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewConnProfileMgrFile(filename); err == nil {
		t.Fatalf("expected error for corrupt profile file")
	}
}

func TestConnTypeJSON(t *testing.T) {
	var ct ConnType
	if err := json.Unmarshal([]byte(`"sim"`), &ct); err != nil {
		t.Fatal(err)
	}
	if ct != CONN_TYPE_SIM {
		t.Errorf("got %d, want CONN_TYPE_SIM", ct)
	}

	if err := json.Unmarshal([]byte(`"oic_ble"`), &ct); err != nil {
		t.Fatal(err)
	}
	if ct != CONN_TYPE_NONE {
		t.Errorf("unknown type decoded as %d", ct)
	}

	if _, err := ConnTypeFromString("???"); err == nil {
		t.Errorf("expected error for placeholder type name")
	}

	if s := ConnType(42).String(); s != "???" {
		t.Errorf("out of range type formatted as %q", s)
	}
}

func TestParseSerialConnString(t *testing.T) {
	tests := []struct {
		cs   string
		dev  string
		baud int
		mtu  int
		ok   bool
	}{
		{"dev=/dev/ttyUSB0", "/dev/ttyUSB0", 115200, 512, true},
		{"/dev/ttyUSB0", "/dev/ttyUSB0", 115200, 512, true},
		{"dev=COM3,baud=1000000,mtu=256", "COM3", 1000000, 256, true},
		{"baud=9600", "", 0, 0, false},
		{"dev=x,baud=fast", "", 0, 0, false},
		{"dev=x,mtu=4", "", 0, 0, false},
		{"dev=x,parity=none", "", 0, 0, false},
		{"", "", 0, 0, false},
	}

	for _, tt := range tests {
		sc, err := ParseSerialConnString(tt.cs)
		if !tt.ok {
			if err == nil {
				t.Errorf("%q: expected error", tt.cs)
			}
			continue
		}

		if err != nil {
			t.Errorf("%q: %v", tt.cs, err)
			continue
		}
		if sc.DevPath != tt.dev || sc.Baud != tt.baud || sc.Mtu != tt.mtu {
			t.Errorf("%q: got dev=%s baud=%d mtu=%d",
				tt.cs, sc.DevPath, sc.Baud, sc.Mtu)
		}
		if sc.ReadTimeout <= 0 {
			t.Errorf("%q: read timeout not set", tt.cs)
		}
	}
}

func TestSimConfig(t *testing.T) {
	sc, err := ParseSimConnString("mtu=20,fwrev=2.1.0")
	if err != nil {
		t.Fatalf("ParseSimConnString: %v", err)
	}
	if sc.Mtu != 20 || sc.FwRev != "2.1.0" {
		t.Fatalf("unexpected sim config: %+v", sc)
	}

	tg := BuildSimTarget(sc)
	if err := tg.Connect(time.Second, 1); err != nil {
		t.Fatal(err)
	}
	fw, err := tg.ReadChr(xport.DIS_FW_REV_UUID)
	if err != nil {
		t.Fatal(err)
	}
	if string(fw) != "2.1.0" {
		t.Errorf("fw rev = %q", fw)
	}

	for _, cs := range []string{"mtu", "mtu=-1", "speed=3"} {
		if _, err := ParseSimConnString(cs); err == nil {
			t.Errorf("%q: expected error", cs)
		}
	}
}

func TestParseUdpConnString(t *testing.T) {
	tests := []struct {
		cs   string
		addr string
		ok   bool
	}{
		{"127.0.0.1:1337", "127.0.0.1:1337", true},
		{"addr=[::1]:1337", "[::1]:1337", true},
		{"addr=localhost", "", false},
		{"host=localhost:1337", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		uc, err := ParseUdpConnString(tt.cs)
		if !tt.ok {
			if err == nil {
				t.Errorf("%q: expected error", tt.cs)
			}
			continue
		}

		if err != nil {
			t.Errorf("%q: %v", tt.cs, err)
			continue
		}
		if uc.PeerAddr != tt.addr {
			t.Errorf("%q: addr=%s", tt.cs, uc.PeerAddr)
		}
	}
}
