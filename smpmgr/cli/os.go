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

	"mynewt.apache.org/newt/util"

	"github.com/hilsdk/smpmgr/smpmgr/smputil"
	"github.com/hilsdk/smpmgr/smpxact/xact"
)

func echoRunCmd(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		nmUsage(cmd, nil)
	}

	s, err := GetSesn()
	if err != nil {
		nmUsage(nil, err)
	}

	c := xact.NewEchoCmd()
	c.SetTxOptions(smputil.TxOptions())
	c.Payload = strings.Join(args, " ")

	res, err := c.Run(s)
	if err != nil {
		nmUsage(nil, util.ChildNewtError(err))
	}

	eres := res.(*xact.EchoResult)
	if !checkStatus(eres.Status()) {
		return
	}

	fmt.Println(eres.Rsp.Payload)
}

func echoCmd() *cobra.Command {
	echoCmd := &cobra.Command{
		Use:     "echo <text>",
		Short:   "Send data to a device and display the echoed back data",
		Example: "  " + smputil.ToolInfo.ExeName + " -c dut echo hello",
		Run:     echoRunCmd,
	}

	return echoCmd
}

func resetRunCmd(cmd *cobra.Command, args []string) {
	s, err := GetSesn()
	if err != nil {
		nmUsage(nil, err)
	}

	c := xact.NewResetCmd()
	c.SetTxOptions(smputil.TxOptions())

	res, err := c.Run(s)
	if err != nil {
		nmUsage(nil, util.ChildNewtError(err))
	}

	if !checkStatus(res.Status()) {
		return
	}

	fmt.Println("Done")
}

func resetCmd() *cobra.Command {
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Perform a soft reset of a device",
		Run:   resetRunCmd,
	}

	return resetCmd
}
