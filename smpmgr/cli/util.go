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
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mynewt.apache.org/newt/util"

	"github.com/hilsdk/smpmgr/smpxact/smp"
	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
)

var onExit func()

func NmSetOnExit(cb func()) {
	onExit = cb
}

func nmExit(status int) {
	if onExit != nil {
		onExit()
	}
	os.Exit(status)
}

// Converts an arbitrary error to a NewtError, adding detail to failures
// reported by the transaction library.
func toNewtError(err error) *util.NewtError {
	nerr, ok := err.(*util.NewtError)
	if ok {
		if nerr.Parent == nil {
			return nerr
		}
		err = nerr.Parent
	}

	switch {
	case smpxutil.IsRspTimeout(err):
		return util.FmtNewtError("timeout: %s", err.Error())

	case smpxutil.IsSmpRc(err):
		rc := smpxutil.SmpRc(err)
		return util.FmtNewtError("%s (%s)", err.Error(), smp.StatusString(rc))

	case ok:
		return nerr

	default:
		return util.ChildNewtError(err)
	}
}

func nmUsage(cmd *cobra.Command, err error) {
	if err != nil {
		nerr := toNewtError(err)
		log.Debugf("%s", nerr.StackTrace)
		fmt.Fprintf(os.Stderr, "Error: %s\n", nerr.Text)
	}

	if cmd != nil {
		fmt.Printf("\n")
		fmt.Printf("%s - ", cmd.Name())
		cmd.Help()
	}

	nmExit(1)
}

// Prints a nonzero SMP status in a uniform way.  Returns true if the status
// indicates success.
func checkStatus(status int) bool {
	if status == smp.SMP_ERR_OK {
		return true
	}

	fmt.Printf("Error: %d (%s)\n", status, smp.StatusString(status))
	return false
}
