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
	"github.com/spf13/cobra"

	"mynewt.apache.org/newt/util"

	"github.com/hilsdk/smpmgr/smpmgr/smputil"
	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
)

var SmpmgrLogLevel log.Level

func Commands() *cobra.Command {
	logLevelStr := ""
	smCmd := &cobra.Command{
		Use:   smputil.ToolInfo.ExeName,
		Short: smputil.ToolInfo.ShortName + " manages firmware images and shells on remote devices",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			SmpmgrLogLevel, err = log.ParseLevel(logLevelStr)
			if err != nil {
				nmUsage(nil, util.ChildNewtError(err))
			}

			err = util.Init(SmpmgrLogLevel, "", util.VERBOSITY_DEFAULT)
			if err != nil {
				nmUsage(nil, err)
			}
			smpxutil.SetLogLevel(SmpmgrLogLevel)

			// Set cbgo log level if we're using macOS.
			OSSpecificInit()
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	smCmd.PersistentFlags().StringVarP(&smputil.ConnProfile, "conn", "c", "",
		"connection profile to use")

	smCmd.PersistentFlags().Float64VarP(&smputil.Timeout, "timeout", "t", 10.0,
		"timeout in seconds (partial seconds allowed)")

	smCmd.PersistentFlags().IntVarP(&smputil.Tries, "tries", "r", 1,
		"total number of tries in case of timeout")

	smCmd.PersistentFlags().StringVarP(&logLevelStr, "loglevel", "l", "info",
		"log level to use")

	smCmd.PersistentFlags().StringVar(&smputil.DeviceName, "name",
		"", "name of target BLE device; overrides profile setting")

	smCmd.PersistentFlags().BoolVar(&smputil.BleWriteRsp, "write-rsp", false,
		"Send BLE acked write requests instead of unacked write commands")

	smCmd.PersistentFlags().StringVar(&smputil.ConnType, "conntype", "",
		"Connection type to use instead of using the profile's type")

	smCmd.PersistentFlags().StringVar(&smputil.ConnString, "connstring", "",
		"Connection key-value pairs to use instead of using the profile's "+
			"connstring")

	smCmd.PersistentFlags().StringVar(&smputil.LenPolicy, "lenpolicy", "",
		"Handling of the response header's length field: "+
			"ignore, strict or reassemble")

	versCmd := &cobra.Command{
		Use:     "version",
		Short:   "Display the " + smputil.ToolInfo.ShortName + " version number",
		Example: "  " + smputil.ToolInfo.ExeName + " version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n",
				smputil.ToolInfo.LongName,
				smputil.ToolInfo.VersionString)
		},
	}
	smCmd.AddCommand(versCmd)

	smCmd.AddCommand(imageCmd())
	smCmd.AddCommand(shellCmd())
	smCmd.AddCommand(echoCmd())
	smCmd.AddCommand(resetCmd())
	smCmd.AddCommand(infoCmd())
	smCmd.AddCommand(connProfileCmd())

	return smCmd
}
