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

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/hilsdk/smpmgr/smpxact/sesn"
	"github.com/hilsdk/smpmgr/smpxact/smpserial"
	"github.com/hilsdk/smpmgr/smpxact/xact"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <serial-device>\n", os.Args[0])
		os.Exit(1)
	}

	// Initialize the serial transport.
	cfg := smpserial.NewXportCfg()
	cfg.DevPath = os.Args[1]
	cfg.Baud = 115200
	cfg.ReadTimeout = 3 * time.Second

	x := smpserial.NewSerialXport(cfg)

	// Create and open a session; opening the session opens the port.
	s := sesn.NewPlainSesn(x, sesn.NewSesnCfg())
	if err := s.Open(); err != nil {
		fmt.Fprintf(os.Stderr, "error starting serial session: %s\n",
			err.Error())
		os.Exit(1)
	}
	defer s.Close()

	// Send an echo command to the device.
	c := xact.NewEchoCmd()
	c.Payload = "hello"

	res, err := c.Run(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error executing echo command: %s\n",
			err.Error())
		os.Exit(1)
	}

	if res.Status() != 0 {
		fmt.Printf("Device responded negatively to echo command; status=%d\n",
			res.Status())
	}

	eres := res.(*xact.EchoResult)
	fmt.Printf("Device echoed back: %s\n", eres.Rsp.Payload)

	// Run a shell command.
	sc := xact.NewShellExecCmd()
	sc.Argv = []string{"echo", "hi"}

	res, err = sc.Run(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error executing shell command: %s\n",
			err.Error())
		os.Exit(1)
	}

	sres := res.(*xact.ShellExecResult)
	fmt.Printf("Shell output: %q\n", sres.Rsp.O)
}
