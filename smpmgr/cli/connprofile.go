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
	"strings"

	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"mynewt.apache.org/newt/util"

	"github.com/hilsdk/smpmgr/smpmgr/config"
	"github.com/hilsdk/smpmgr/smpmgr/smputil"
)

// Builds a profile from "type=<t>" and "connstring=<cs>" arguments.
func parseConnProfileArgs(name string, vdefs []string) (*config.ConnProfile, error) {
	cp := config.NewConnProfile()
	cp.Name = name
	cp.Type = config.CONN_TYPE_NONE

	for _, vdef := range vdefs {
		s := strings.SplitN(vdef, "=", 2)
		if len(s) != 2 {
			return nil, util.FmtNewtError("Invalid variable: %s", vdef)
		}

		switch s[0] {
		case "type":
			var err error
			cp.Type, err = config.ConnTypeFromString(s[1])
			if err != nil {
				return nil, err
			}
		case "connstring":
			cp.ConnString = s[1]
		default:
			return nil, util.NewNewtError("Unknown variable " + s[0])
		}
	}

	if cp.Type == config.CONN_TYPE_NONE {
		return nil, util.NewNewtError("Must specify a connection type")
	}

	return cp, nil
}

func connProfileAddCmd(cmd *cobra.Command, args []string) {
	cpm := config.GlobalConnProfileMgr()

	// Connection Profile name required
	if len(args) == 0 {
		nmUsage(cmd, util.NewNewtError("Need connection profile name"))
	}

	cp, err := parseConnProfileArgs(args[0], args[1:])
	if err != nil {
		nmUsage(cmd, err)
	}

	if err := cpm.AddConnProfile(cp); err != nil {
		nmUsage(cmd, err)
	}

	fmt.Printf("Connection profile %s successfully added\n", cp.Name)
}

func connProfileShowCmd(cmd *cobra.Command, args []string) {
	cpm := config.GlobalConnProfileMgr()

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	cpList, err := cpm.GetConnProfileList()
	if err != nil {
		nmUsage(cmd, err)
	}

	found := false
	for _, cp := range cpList {
		if name != "" && cp.Name != name {
			continue
		}

		if !found {
			found = true
			fmt.Printf("Connection profiles: \n")
		}
		fmt.Printf("  %s: type=%s, connstring='%s'\n",
			cp.Name, config.ConnTypeToString(cp.Type), cp.ConnString)
	}

	if !found {
		if name == "" {
			fmt.Printf("No connection profiles found!\n")
		} else {
			fmt.Printf("No connection profiles found matching %s\n", name)
		}
	}
}

func connProfileDelCmd(cmd *cobra.Command, args []string) {
	cpm := config.GlobalConnProfileMgr()

	// Connection Profile name required
	if len(args) == 0 {
		nmUsage(cmd, util.NewNewtError("Need connection profile name"))
	}

	name := args[0]
	if err := cpm.DeleteConnProfile(name); err != nil {
		nmUsage(cmd, err)
	}

	fmt.Printf("Connection profile %s successfully deleted.\n", name)
}

func connPortsCmd(cmd *cobra.Command, args []string) {
	ports, err := serial.GetPortsList()
	if err != nil {
		nmUsage(nil, util.ChildNewtError(err))
	}

	if len(ports) == 0 {
		fmt.Printf("No serial ports found\n")
		return
	}

	for _, p := range ports {
		fmt.Printf("  %s\n", p)
	}
}

func connProfileCmd() *cobra.Command {
	cpCmd := &cobra.Command{
		Use:   "conn",
		Short: "Manage " + smputil.ToolInfo.ShortName + " connection profiles",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	addEx := "  " + smputil.ToolInfo.ExeName +
		" conn add dut type=ble connstring=peer_name=dut01\n"
	addEx += "  " + smputil.ToolInfo.ExeName +
		" conn add board type=serial connstring=dev=/dev/ttyACM0,baud=115200\n"
	addEx += "  " + smputil.ToolInfo.ExeName +
		" conn add net type=udp connstring=192.168.1.10:1337\n"
	addEx += "  " + smputil.ToolInfo.ExeName + " conn add sim type=sim\n"

	addCmd := &cobra.Command{
		Use:     "add <conn_profile> <varname=value ...> ",
		Short:   "Add a " + smputil.ToolInfo.ShortName + " connection profile",
		Example: addEx,
		Run:     connProfileAddCmd,
	}
	cpCmd.AddCommand(addCmd)

	deleCmd := &cobra.Command{
		Use:   "delete <conn_profile>",
		Short: "Delete a " + smputil.ToolInfo.ShortName + " connection profile",
		Run:   connProfileDelCmd,
	}
	cpCmd.AddCommand(deleCmd)

	connShowHelpText := "Show information for the conn_profile connection "
	connShowHelpText += "profile or for all\nconnection profiles "
	connShowHelpText += "if conn_profile is not specified.\n"

	showCmd := &cobra.Command{
		Use:   "show [conn_profile]",
		Short: "Show " + smputil.ToolInfo.ShortName + " connection profiles",
		Long:  connShowHelpText,
		Run:   connProfileShowCmd,
	}
	cpCmd.AddCommand(showCmd)

	portsCmd := &cobra.Command{
		Use:   "ports",
		Short: "List serial ports available for serial connections",
		Run:   connPortsCmd,
	}
	cpCmd.AddCommand(portsCmd)

	return cpCmd
}
