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
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"

	"mynewt.apache.org/newt/util"

	"github.com/hilsdk/smpmgr/smpmgr/smputil"
)

type ConnType int

const (
	CONN_TYPE_NONE ConnType = iota
	CONN_TYPE_SERIAL
	CONN_TYPE_BLE
	CONN_TYPE_SIM
	CONN_TYPE_UDP
)

var connTypeNames = []string{
	CONN_TYPE_NONE:   "???",
	CONN_TYPE_SERIAL: "serial",
	CONN_TYPE_BLE:    "ble",
	CONN_TYPE_SIM:    "sim",
	CONN_TYPE_UDP:    "udp",
}

func (ct ConnType) String() string {
	if ct < 0 || int(ct) >= len(connTypeNames) {
		return connTypeNames[CONN_TYPE_NONE]
	}
	return connTypeNames[ct]
}

func ConnTypeToString(ct ConnType) string {
	return ct.String()
}

func ConnTypeFromString(s string) (ConnType, error) {
	for i := int(CONN_TYPE_NONE) + 1; i < len(connTypeNames); i++ {
		if connTypeNames[i] == s {
			return ConnType(i), nil
		}
	}

	return CONN_TYPE_NONE, util.FmtNewtError("Invalid connection type: %s", s)
}

func (ct ConnType) MarshalJSON() ([]byte, error) {
	return json.Marshal(ct.String())
}

// Unknown type names decode to CONN_TYPE_NONE so that a file written by a
// newer version of the tool can still be loaded.
func (ct *ConnType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	t, err := ConnTypeFromString(s)
	if err != nil {
		t = CONN_TYPE_NONE
	}
	*ct = t

	return nil
}

// A named transport selection that the tool's commands connect with.
type ConnProfile struct {
	Name       string   `json:"name"`
	Type       ConnType `json:"type"`
	ConnString string   `json:"connstring"`
}

func NewConnProfile() *ConnProfile {
	return &ConnProfile{}
}

func (p *ConnProfile) String() string {
	return fmt.Sprintf("name=%s type=%s connstring=%s",
		p.Name, p.Type, p.ConnString)
}

const connProfileFileVersion = 1

// On-disk representation of the profile store.
type connProfileFile struct {
	Version  int            `json:"version"`
	Profiles []*ConnProfile `json:"profiles"`
}

// Keeps the set of connection profiles and persists it as JSON after every
// change.
type ConnProfileMgr struct {
	filename string
	profiles map[string]*ConnProfile
}

// Creates a profile manager backed by the specified file.  A missing file is
// treated as an empty profile store.
func NewConnProfileMgrFile(filename string) (*ConnProfileMgr, error) {
	cpm := &ConnProfileMgr{
		filename: filename,
		profiles: map[string]*ConnProfile{},
	}

	if err := cpm.load(); err != nil {
		return nil, err
	}

	return cpm, nil
}

// Creates a profile manager backed by the tool's file in the user's home
// directory.
func NewConnProfileMgr() (*ConnProfileMgr, error) {
	dir, err := homedir.Dir()
	if err != nil {
		return nil, util.ChildNewtError(err)
	}

	return NewConnProfileMgrFile(
		filepath.Join(dir, smputil.ToolInfo.CfgFilename))
}

func (cpm *ConnProfileMgr) load() error {
	log.Debugf("Loading connection profiles from %s", cpm.filename)

	blob, err := os.ReadFile(cpm.filename)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return util.ChildNewtError(err)
	}

	cpf := connProfileFile{}
	if err := json.Unmarshal(blob, &cpf); err != nil {
		return util.FmtNewtError("error reading connection profile "+
			"file (%s): %s", cpm.filename, err.Error())
	}
	if cpf.Version > connProfileFileVersion {
		return util.FmtNewtError("connection profile file (%s) has "+
			"unsupported version %d", cpm.filename, cpf.Version)
	}

	for _, p := range cpf.Profiles {
		if p.Name == "" {
			log.Warnf("Ignoring unnamed connection profile in %s",
				cpm.filename)
			continue
		}
		cpm.profiles[p.Name] = p
	}

	return nil
}

// Writes the store to a temporary file and renames it over the original so
// that an interrupted save never leaves a truncated file behind.
func (cpm *ConnProfileMgr) save() error {
	list, _ := cpm.GetConnProfileList()
	cpf := connProfileFile{
		Version:  connProfileFileVersion,
		Profiles: list,
	}

	b, err := json.MarshalIndent(cpf, "", "    ")
	if err != nil {
		return util.ChildNewtError(err)
	}

	tmp := cpm.filename + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return util.ChildNewtError(err)
	}
	if err := os.Rename(tmp, cpm.filename); err != nil {
		os.Remove(tmp)
		return util.ChildNewtError(err)
	}

	log.Debugf("Saved %d connection profile(s) to %s", len(list),
		cpm.filename)
	return nil
}

func SortConnProfs(cps []*ConnProfile) []*ConnProfile {
	sorted := append([]*ConnProfile(nil), cps...)
	sort.Slice(sorted, func(i int, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	return sorted
}

func (cpm *ConnProfileMgr) GetConnProfileList() ([]*ConnProfile, error) {
	cps := make([]*ConnProfile, 0, len(cpm.profiles))
	for _, p := range cpm.profiles {
		cps = append(cps, p)
	}

	return SortConnProfs(cps), nil
}

func (cpm *ConnProfileMgr) GetConnProfile(name string) (*ConnProfile, error) {
	if name == "" {
		return nil, util.NewNewtError("no connection profile specified")
	}

	p, ok := cpm.profiles[name]
	if !ok {
		return nil, util.FmtNewtError(
			"connection profile \"%s\" doesn't exist", name)
	}

	return p, nil
}

// Adds a profile, replacing any existing profile with the same name.
func (cpm *ConnProfileMgr) AddConnProfile(cp *ConnProfile) error {
	if cp.Name == "" {
		return util.NewNewtError("connection profile has no name")
	}
	if cp.Type == CONN_TYPE_NONE {
		return util.FmtNewtError(
			"connection profile \"%s\" has no type", cp.Name)
	}

	cpm.profiles[cp.Name] = cp
	return cpm.save()
}

func (cpm *ConnProfileMgr) DeleteConnProfile(name string) error {
	if _, ok := cpm.profiles[name]; !ok {
		return util.FmtNewtError(
			"connection profile \"%s\" doesn't exist", name)
	}

	delete(cpm.profiles, name)
	return cpm.save()
}

var globalConnProfileMgr *ConnProfileMgr

func GlobalConnProfileMgr() *ConnProfileMgr {
	if globalConnProfileMgr == nil {
		panic("connection profile manager not initialized")
	}
	return globalConnProfileMgr
}

func InitGlobalConnProfileMgr() error {
	if globalConnProfileMgr != nil {
		return util.NewNewtError("connection profile manager initialized twice")
	}

	cpm, err := NewConnProfileMgr()
	if err != nil {
		return err
	}

	globalConnProfileMgr = cpm
	return nil
}
