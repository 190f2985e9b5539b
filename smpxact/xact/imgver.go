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

package xact

import (
	"io"
	"os"

	"github.com/hilsdk/smpmgr/smpxact/mcuboot"
	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
)

// Reads the version from the header of an MCUboot image file.  This is a
// purely local operation.
func GetImageVersion(path string) (mcuboot.ImageVersion, error) {
	f, err := os.Open(path)
	if err != nil {
		return mcuboot.ImageVersion{}, smpxutil.NewFileError(path, err.Error())
	}
	defer f.Close()

	b := make([]byte, mcuboot.IMAGE_HEADER_SIZE)
	if _, err := io.ReadFull(f, b); err != nil {
		return mcuboot.ImageVersion{}, smpxutil.NewFileError(path,
			"image too short to contain a header")
	}

	hdr, err := mcuboot.ParseImageHdr(b)
	if err != nil {
		return mcuboot.ImageVersion{}, smpxutil.NewFileError(path, err.Error())
	}

	return hdr.Vers, nil
}
