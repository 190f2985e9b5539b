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

// Runs a complete firmware update cycle against the simulated target: upload
// and test-boot an image, let it revert, then upload again and confirm it.
package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/hilsdk/smpmgr/smpxact/mcuboot"
	"github.com/hilsdk/smpmgr/smpxact/sesn"
	"github.com/hilsdk/smpmgr/smpxact/simtarget"
	"github.com/hilsdk/smpmgr/smpxact/xact"
)

func fail(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

func buildImage(vers mcuboot.ImageVersion, bodyLen int) []byte {
	img := mcuboot.EncodeImageHdr(vers, uint32(bodyLen))
	body := make([]byte, bodyLen)
	for i := range body {
		body[i] = byte(i)
	}
	binary.LittleEndian.PutUint32(body, uint32(vers.Build))

	return append(img, body...)
}

func printSlots(s sesn.Sesn) {
	c := xact.NewImageStateReadCmd()
	res, err := c.Run(s)
	if err != nil {
		fail("image state read: %s", err.Error())
	}

	for _, img := range res.(*xact.ImageStateReadResult).Rsp.Images {
		fmt.Printf("  slot=%d version=%-8s active=%-5v pending=%-5v "+
			"confirmed=%-5v permanent=%v\n",
			img.Slot, img.Version, img.Active, img.Pending, img.Confirmed,
			img.Permanent)
	}
}

func upgrade(s sesn.Sesn, img []byte, confirm bool) {
	c := xact.NewImageUpgradeCmd()
	c.Data = img
	c.Confirm = confirm
	c.Reset = true
	c.ProgressCb = func(off int, total int) {
		if off == total {
			fmt.Printf("  uploaded %d bytes\n", total)
		}
	}

	res, err := c.Run(s)
	if err != nil {
		fail("upgrade: %s", err.Error())
	}
	if res.Status() != 0 {
		fail("upgrade: status=%d", res.Status())
	}
}

func main() {
	tg := simtarget.NewTarget()

	s := sesn.NewPlainSesn(tg, sesn.NewSesnCfg())
	if err := s.Open(); err != nil {
		fail("open: %s", err.Error())
	}
	defer s.Close()

	fmt.Println("Initial state:")
	printSlots(s)

	fmt.Println("Test-boot 1.1.0:")
	upgrade(s, buildImage(mcuboot.ImageVersion{Major: 1, Minor: 1}, 1000),
		false)
	printSlots(s)

	fmt.Println("Reset without confirming:")
	if _, err := xact.NewResetCmd().Run(s); err != nil {
		fail("reset: %s", err.Error())
	}
	printSlots(s)

	fmt.Println("Upgrade to 1.2.0 and confirm:")
	upgrade(s, buildImage(mcuboot.ImageVersion{Major: 1, Minor: 2}, 1500),
		true)
	printSlots(s)

	rev, err := xact.ReadFwRev(s)
	if err != nil {
		fail("fw rev: %s", err.Error())
	}
	fmt.Printf("Firmware revision: %s\n", rev)
}
