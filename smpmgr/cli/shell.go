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
	"gopkg.in/abiosoft/ishell.v2"

	"mynewt.apache.org/newt/util"

	"github.com/hilsdk/smpmgr/smpmgr/smputil"
	"github.com/hilsdk/smpmgr/smpxact/sesn"
	"github.com/hilsdk/smpmgr/smpxact/xact"
)

func shellExec(s sesn.Sesn, argv []string) (*xact.ShellExecResult, error) {
	c := xact.NewShellExecCmd()
	c.SetTxOptions(smputil.TxOptions())
	c.Argv = argv

	res, err := c.Run(s)
	if err != nil {
		return nil, err
	}

	return res.(*xact.ShellExecResult), nil
}

// Formats shell output so that it always ends with a newline.
func shellOutput(o string) string {
	if len(o) > 0 && !strings.HasSuffix(o, "\n") {
		return o + "\n"
	}
	return o
}

func shellExecCmd(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		nmUsage(cmd, nil)
	}

	s, err := GetSesn()
	if err != nil {
		nmUsage(nil, err)
	}

	sres, err := shellExec(s, args)
	if err != nil {
		nmUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("status=%d\n", sres.Rsp.Rc)
	if sres.Rsp.Ret != 0 {
		fmt.Printf("ret=%d\n", sres.Rsp.Ret)
	}
	fmt.Printf("%s", shellOutput(sres.Rsp.O))
}

func shellInteractiveCmd(cmd *cobra.Command, args []string) {
	s, err := GetSesn()
	if err != nil {
		nmUsage(nil, err)
	}

	shell := ishell.New()
	shell.SetPrompt("> ")

	shell.Println()
	shell.Println(" Remote shell; commands are executed on the target.")
	shell.Println("	Connection profile: ", smputil.ConnProfile)
	shell.Println("	Local commands: exit, help, clear")
	shell.Println()

	shell.NotFound(func(c *ishell.Context) {
		if len(c.Args) == 0 {
			return
		}

		sres, err := shellExec(s, c.Args)
		if err != nil {
			c.Println("Error:", err)
			return
		}

		if sres.Rsp.Rc != 0 || sres.Rsp.Ret != 0 {
			c.Printf("status=%d ret=%d\n", sres.Rsp.Rc, sres.Rsp.Ret)
		}
		c.Print(shellOutput(sres.Rsp.O))
	})

	shell.Run()
}

func shellCmd() *cobra.Command {
	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Execute shell commands remotely",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	execCmd := &cobra.Command{
		Use:   "exec <command> [args...]",
		Short: "Execute a shell command remotely",
		Run:   shellExecCmd,
	}
	shellCmd.AddCommand(execCmd)

	interactiveCmd := &cobra.Command{
		Use:   "interactive",
		Short: "Run an interactive remote shell",
		Run:   shellInteractiveCmd,
	}
	shellCmd.AddCommand(interactiveCmd)

	return shellCmd
}
