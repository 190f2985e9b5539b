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
	"fmt"

	log "github.com/sirupsen/logrus"

	"mynewt.apache.org/newt/util"

	"github.com/hilsdk/smpmgr/smpmgr/bll"
	"github.com/hilsdk/smpmgr/smpmgr/config"
	"github.com/hilsdk/smpmgr/smpmgr/smputil"
	"github.com/hilsdk/smpmgr/smpxact/mgmt"
	"github.com/hilsdk/smpmgr/smpxact/sesn"
	"github.com/hilsdk/smpmgr/smpxact/smpserial"
	"github.com/hilsdk/smpmgr/smpxact/smpudp"
	"github.com/hilsdk/smpmgr/smpxact/xport"
)

var globalSesn sesn.Sesn
var globalXport xport.Xport

// Tracks whether the global transport has been assigned.  Necessary to
// accommodate golang's nil-interface semantics.
var globalXportSet bool

// Settings that accompany the transport when the session is built.
var globalSesnCfg sesn.SesnCfg

// Returns the connection profile selected by the command line.  The
// --conntype and --connstring flags override the named profile; a profile
// is not required if --conntype is specified.
func getConnProfile() (*config.ConnProfile, error) {
	var cp *config.ConnProfile

	if smputil.ConnType != "" {
		ct, err := config.ConnTypeFromString(smputil.ConnType)
		if err != nil {
			return nil, err
		}

		cp = config.NewConnProfile()
		cp.Name = "<cmdline>"
		cp.Type = ct
	} else {
		var err error
		cp, err = config.GlobalConnProfileMgr().GetConnProfile(
			smputil.ConnProfile)
		if err != nil {
			return nil, err
		}

		// Don't modify the stored profile.
		dup := *cp
		cp = &dup
	}

	if smputil.ConnString != "" {
		cp.ConnString = smputil.ConnString
	}

	return cp, nil
}

func lenPolicy(dflt mgmt.LenPolicy) (mgmt.LenPolicy, error) {
	p, err := smputil.MgmtLenPolicy(dflt)
	if err != nil {
		return dflt, util.ChildNewtError(err)
	}

	return p, nil
}

func GetXport() (xport.Xport, error) {
	if globalXportSet {
		return globalXport, nil
	}

	cp, err := getConnProfile()
	if err != nil {
		return nil, err
	}

	sc := sesn.NewSesnCfg()
	dfltPolicy := mgmt.LEN_POLICY_IGNORE

	switch cp.Type {
	case config.CONN_TYPE_SERIAL:
		xc, err := config.ParseSerialConnString(cp.ConnString)
		if err != nil {
			return nil, err
		}

		globalXport = smpserial.NewSerialXport(xc)

	case config.CONN_TYPE_BLE:
		bc, err := config.ParseBllConnString(cp.ConnString)
		if err != nil {
			return nil, err
		}

		xc, err := config.BuildBllXportCfg(bc)
		if err != nil {
			return nil, err
		}

		sc.ConnTimeout = bc.ConnTimeoutDuration()
		sc.ConnTries = bc.ConnTries
		sc.Mgmt.WriteRsp = bc.WriteRsp

		// BLE notifications are bounded by the ATT MTU; responses may span
		// several of them.
		dfltPolicy = mgmt.LEN_POLICY_REASSEMBLE

		globalXport = bll.NewBllXport(xc)

	case config.CONN_TYPE_SIM:
		simc, err := config.ParseSimConnString(cp.ConnString)
		if err != nil {
			return nil, err
		}

		if simc.Mtu > 0 {
			dfltPolicy = mgmt.LEN_POLICY_REASSEMBLE
		}

		globalXport = config.BuildSimTarget(simc)

	case config.CONN_TYPE_UDP:
		uc, err := config.ParseUdpConnString(cp.ConnString)
		if err != nil {
			return nil, err
		}

		globalXport = smpudp.NewUdpXport(uc)

	default:
		return nil, util.FmtNewtError("Unknown connection type: %s (%d)",
			config.ConnTypeToString(cp.Type), int(cp.Type))
	}

	sc.Mgmt.LenPolicy, err = lenPolicy(dfltPolicy)
	if err != nil {
		return nil, err
	}

	if smputil.BleWriteRsp {
		sc.Mgmt.WriteRsp = true
	}

	log.Debugf("Using %s transport; length policy=%s",
		config.ConnTypeToString(cp.Type), sc.Mgmt.LenPolicy.String())

	globalSesnCfg = sc
	globalXportSet = true

	return globalXport, nil
}

func GetXportIfOpen() (xport.Xport, error) {
	if !globalXportSet {
		return nil, fmt.Errorf("xport not initialized")
	}

	return globalXport, nil
}

func GetSesn() (sesn.Sesn, error) {
	if globalSesn != nil {
		return globalSesn, nil
	}

	x, err := GetXport()
	if err != nil {
		return nil, err
	}

	s := sesn.NewPlainSesn(x, globalSesnCfg)
	if err := s.Open(); err != nil {
		return nil, util.ChildNewtError(err)
	}

	// Fail the outstanding request as soon as a BLE link drops rather than
	// waiting for it to time out.
	if bx, ok := x.(*bll.BllXport); ok {
		ch := bx.DisconnectChan()
		go func() {
			for {
				<-ch
				ch = bx.DisconnectChan()

				log.Warnf("Peer disconnected")
				s.AbortRx()
			}
		}()
	}

	globalSesn = s
	return globalSesn, nil
}

func GetSesnIfOpen() (sesn.Sesn, error) {
	if globalSesn == nil {
		return nil, fmt.Errorf("sesn not initialized")
	}

	return globalSesn, nil
}
