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
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"

	"mynewt.apache.org/newt/util"

	"github.com/hilsdk/smpmgr/smpmgr/smputil"
	"github.com/hilsdk/smpmgr/smpxact/smp"
	"github.com/hilsdk/smpmgr/smpxact/xact"
)

var (
	uploadMaxStalls int
	uploadChunkSize int
	uploadTimeout   float64
	uploadQuiet     bool

	upgradeNoErase bool
	upgradeConfirm bool
	upgradeReset   bool
)

func imageFlagsStr(image smp.ImageStateEntry) string {
	strs := []string{}

	if image.Active {
		strs = append(strs, "active")
	}
	if image.Confirmed {
		strs = append(strs, "confirmed")
	}
	if image.Pending {
		strs = append(strs, "pending")
	}
	if image.Permanent {
		strs = append(strs, "permanent")
	}

	return strings.Join(strs, " ")
}

func imageStatePrintRsp(rsp *smp.ImageStateRsp) {
	if !checkStatus(rsp.Rc) {
		return
	}

	fmt.Println("Images:")
	for _, img := range rsp.Images {
		fmt.Printf(" slot=%d\n", img.Slot)
		fmt.Printf("    version: %s\n", img.Version)
		fmt.Printf("    bootable: %v\n", img.Bootable)
		fmt.Printf("    flags: %s\n", imageFlagsStr(img))
		if len(img.Hash) == 0 {
			fmt.Printf("    hash: Unavailable\n")
		} else {
			fmt.Printf("    hash: %x\n", img.Hash)
		}
	}
}

func imageStateListCmd(cmd *cobra.Command, args []string) {
	s, err := GetSesn()
	if err != nil {
		nmUsage(nil, err)
	}

	c := xact.NewImageStateReadCmd()
	c.SetTxOptions(smputil.TxOptions())

	res, err := c.Run(s)
	if err != nil {
		nmUsage(nil, util.ChildNewtError(err))
	}
	ires := res.(*xact.ImageStateReadResult)

	imageStatePrintRsp(ires.Rsp)
}

func imageStateWrite(hash []byte, confirm bool) {
	s, err := GetSesn()
	if err != nil {
		nmUsage(nil, err)
	}

	c := xact.NewImageStateWriteCmd()
	c.SetTxOptions(smputil.TxOptions())
	c.Hash = hash
	c.Confirm = confirm

	res, err := c.Run(s)
	if err != nil {
		nmUsage(nil, util.ChildNewtError(err))
	}
	ires := res.(*xact.ImageStateWriteResult)

	imageStatePrintRsp(ires.Rsp)
}

func imageStateTestCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		nmUsage(cmd, nil)
	}

	hexBytes, err := hex.DecodeString(args[0])
	if err != nil {
		nmUsage(cmd, util.ChildNewtError(err))
	}

	imageStateWrite(hexBytes, false)
}

func imageStateConfirmCmd(cmd *cobra.Command, args []string) {
	var hexBytes []byte
	if len(args) >= 1 {
		var err error
		hexBytes, err = hex.DecodeString(args[0])
		if err != nil {
			nmUsage(cmd, util.ChildNewtError(err))
		}
	}

	imageStateWrite(hexBytes, true)
}

// Returns a progress callback that drives a progress bar.  The bar is
// created on the first callback, once the image size is known.
func newProgressBar() (xact.ImageUploadProgressFn, func()) {
	var bar *pb.ProgressBar

	cb := func(off int, total int) {
		if uploadQuiet {
			return
		}

		if bar == nil {
			bar = pb.New(total)
			bar.SetUnits(pb.U_BYTES)
			bar.ShowSpeed = true
			bar.Start()
		}
		bar.Set(off)
	}

	finish := func() {
		if bar != nil {
			bar.Finish()
		}
	}

	return cb, finish
}

// Overrides upload settings with those given on the command line.  Unset
// flags leave the command's defaults in place.
func applyUploadFlags(chunkSize *int, maxStalls *int,
	timeout *time.Duration) {

	if uploadChunkSize > 0 {
		*chunkSize = uploadChunkSize
	}
	if uploadMaxStalls > 0 {
		*maxStalls = uploadMaxStalls
	}
	if uploadTimeout > 0 {
		*timeout = time.Duration(uploadTimeout * float64(time.Second))
	}
}

func addUploadFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&uploadChunkSize, "chunk-size", 0,
		"Image data bytes per request (default 128)")
	cmd.Flags().IntVar(&uploadMaxStalls, "max-stalls", 0,
		"Consecutive responses without progress before giving up "+
			"(default 8)")
	cmd.Flags().Float64Var(&uploadTimeout, "upload-timeout", 0,
		"Limit on the whole upload, in seconds; 0 for none")
	cmd.Flags().BoolVarP(&uploadQuiet, "quiet", "q", false,
		"Don't show a progress bar")
}

func imageUploadCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		nmUsage(cmd, util.NewNewtError("Need to specify image to upload"))
	}

	s, err := GetSesn()
	if err != nil {
		nmUsage(nil, err)
	}

	c := xact.NewImageUploadCmd()
	c.SetTxOptions(smputil.TxOptions())
	c.Path = args[0]
	applyUploadFlags(&c.ChunkSize, &c.MaxStalls, &c.Timeout)

	cb, finish := newProgressBar()
	c.ProgressCb = cb

	res, err := c.Run(s)
	finish()
	if err != nil {
		nmUsage(nil, util.ChildNewtError(err))
	}
	ires := res.(*xact.ImageUploadResult)

	if !checkStatus(ires.Status()) {
		return
	}

	fmt.Printf("Done\n")
}

func imageUpgradeCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		nmUsage(cmd, util.NewNewtError("Need to specify image to upload"))
	}

	s, err := GetSesn()
	if err != nil {
		nmUsage(nil, err)
	}

	c := xact.NewImageUpgradeCmd()
	c.SetTxOptions(smputil.TxOptions())
	c.Path = args[0]
	c.NoErase = upgradeNoErase
	c.Confirm = upgradeConfirm
	c.Reset = upgradeReset
	applyUploadFlags(&c.ChunkSize, &c.MaxStalls, &c.Timeout)

	cb, finish := newProgressBar()
	c.ProgressCb = cb

	res, err := c.Run(s)
	finish()
	if err != nil {
		nmUsage(nil, util.ChildNewtError(err))
	}
	ires := res.(*xact.ImageUpgradeResult)

	if !checkStatus(ires.Status()) {
		return
	}

	action := "marked for test"
	if upgradeConfirm {
		action = "confirmed"
	}
	fmt.Printf("Image %x %s\n", ires.Hash, action)
	if ires.ResetRes != nil {
		fmt.Printf("Target reset\n")
	}
}

func imageEraseCmd(cmd *cobra.Command, args []string) {
	s, err := GetSesn()
	if err != nil {
		nmUsage(nil, err)
	}

	c := xact.NewImageEraseCmd()
	c.SetTxOptions(smputil.TxOptions())
	if len(args) >= 1 {
		c.Slot, err = strconv.Atoi(args[0])
		if err != nil {
			nmUsage(cmd, util.ChildNewtError(err))
		}
	}

	res, err := c.Run(s)
	if err != nil {
		nmUsage(nil, util.ChildNewtError(err))
	}
	ires := res.(*xact.ImageEraseResult)

	if !checkStatus(ires.Status()) {
		return
	}

	fmt.Printf("Done\n")
}

func imageVersionCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		nmUsage(cmd, util.NewNewtError("Need to specify an image file"))
	}

	for _, path := range args {
		vers, err := xact.GetImageVersion(path)
		if err != nil {
			nmUsage(nil, util.ChildNewtError(err))
		}

		fmt.Printf("%s: %s\n", path, vers.String())
	}
}

func imageCmd() *cobra.Command {
	imageCmd := &cobra.Command{
		Use:   "image",
		Short: "Manage images on remote instance",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show target images",
		Run:   imageStateListCmd,
	}
	imageCmd.AddCommand(listCmd)

	testCmd := &cobra.Command{
		Use:   "test <hex-image-hash>",
		Short: "Test an image on next reboot",
		Run:   imageStateTestCmd,
	}
	imageCmd.AddCommand(testCmd)

	confirmCmd := &cobra.Command{
		Use:   "confirm [hex-image-hash]",
		Short: "Permanently run image",
		Long: "If a hash is specified, permanently switch to the " +
			"corresponding image.  If no hash is specified, the current " +
			"image setup is made permanent.",
		Run: imageStateConfirmCmd,
	}
	imageCmd.AddCommand(confirmCmd)

	exe := smputil.ToolInfo.ExeName
	uploadEx := "  " + exe + " -c dut image upload <image_file>\n"
	uploadEx += "  " + exe + " -c dut image upload --max-stalls 4 app.img\n"

	uploadCmd := &cobra.Command{
		Use:     "upload <image_file>",
		Short:   "Upload image to target",
		Example: uploadEx,
		Run:     imageUploadCmd,
	}
	addUploadFlags(uploadCmd)
	imageCmd.AddCommand(uploadCmd)

	upgradeEx := "  " + exe + " -c dut image upgrade --reset app.img\n"
	upgradeEx += "  " + exe + " -c dut image upgrade --confirm app.img\n"

	upgradeCmd := &cobra.Command{
		Use:   "upgrade <image_file>",
		Short: "Erase, upload and activate an image",
		Long: "Erases the upload slot, uploads the image and marks it for " +
			"test.  With --confirm the image is made permanent instead.  " +
			"With --reset the target is reset afterwards so that the new " +
			"image boots.",
		Example: upgradeEx,
		Run:     imageUpgradeCmd,
	}
	upgradeCmd.Flags().BoolVar(&upgradeNoErase, "no-erase", false,
		"Don't erase the upload slot first")
	upgradeCmd.Flags().BoolVar(&upgradeConfirm, "confirm", false,
		"Confirm the image instead of marking it for test")
	upgradeCmd.Flags().BoolVar(&upgradeReset, "reset", false,
		"Reset the target after activating the image")
	addUploadFlags(upgradeCmd)
	imageCmd.AddCommand(upgradeCmd)

	imageEraseCmd := &cobra.Command{
		Use:     "erase [slot]",
		Short:   "Erase unused image on target",
		Example: "  " + exe + " -c dut image erase\n",
		Run:     imageEraseCmd,
	}
	imageCmd.AddCommand(imageEraseCmd)

	versionCmd := &cobra.Command{
		Use:   "version <image_file> [image_file...]",
		Short: "Show the version in a local image file's header",
		Run:   imageVersionCmd,
	}
	imageCmd.AddCommand(versionCmd)

	return imageCmd
}
