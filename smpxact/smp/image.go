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

package smp

//////////////////////////////////////////////////////////////////////////////
// $upload                                                                  //
//////////////////////////////////////////////////////////////////////////////

type ImageUploadReq struct {
	Base           `codec:"-"`
	Image   int    `codec:"image"`
	Len     uint32 `codec:"len"`
	Off     uint32 `codec:"off"`
	DataSha []byte `codec:"sha"`
	Data    []byte `codec:"data"`
	Upgrade bool   `codec:"upgrade"`
}

type ImageUploadRsp struct {
	Rc    int    `codec:"rc"`
	Off   uint32 `codec:"off"`
	Match bool   `codec:"match"`
}

func NewImageUploadReq() *ImageUploadReq {
	r := &ImageUploadReq{}
	fillReq(r, SMP_OP_WRITE, SMP_GROUP_IMAGE, SMP_ID_IMAGE_UPLOAD)
	return r
}

func (r *ImageUploadReq) Msg() *Msg { return MsgFromReq(r) }

//////////////////////////////////////////////////////////////////////////////
// $state                                                                   //
//////////////////////////////////////////////////////////////////////////////

type ImageStateEntry struct {
	Image     int    `codec:"image"`
	Slot      int    `codec:"slot"`
	Version   string `codec:"version"`
	Hash      []byte `codec:"hash"`
	Bootable  bool   `codec:"bootable"`
	Pending   bool   `codec:"pending"`
	Confirmed bool   `codec:"confirmed"`
	Active    bool   `codec:"active"`
	Permanent bool   `codec:"permanent"`
}

type ImageStateReadReq struct {
	Base `codec:"-"`
}

type ImageStateWriteReq struct {
	Base           `codec:"-"`
	Hash    []byte `codec:"hash,omitempty"`
	Confirm bool   `codec:"confirm"`
}

type ImageStateRsp struct {
	Rc          int               `codec:"rc"`
	Images      []ImageStateEntry `codec:"images"`
	SplitStatus int               `codec:"splitStatus"`
}

func NewImageStateReadReq() *ImageStateReadReq {
	r := &ImageStateReadReq{}
	fillReq(r, SMP_OP_READ, SMP_GROUP_IMAGE, SMP_ID_IMAGE_STATE)
	return r
}

func (r *ImageStateReadReq) Msg() *Msg { return MsgFromReq(r) }

func NewImageStateWriteReq() *ImageStateWriteReq {
	r := &ImageStateWriteReq{}
	fillReq(r, SMP_OP_WRITE, SMP_GROUP_IMAGE, SMP_ID_IMAGE_STATE)
	return r
}

func (r *ImageStateWriteReq) Msg() *Msg { return MsgFromReq(r) }

// Returns the entry describing the specified slot, or nil if the target did
// not report it.
func (r *ImageStateRsp) Slot(slot int) *ImageStateEntry {
	for i := range r.Images {
		if r.Images[i].Slot == slot {
			return &r.Images[i]
		}
	}

	return nil
}

//////////////////////////////////////////////////////////////////////////////
// $erase                                                                   //
//////////////////////////////////////////////////////////////////////////////

type ImageEraseReq struct {
	Base     `codec:"-"`
	Slot int `codec:"slot"`
}

type ImageEraseRsp struct {
	Rc int `codec:"rc"`
}

func NewImageEraseReq() *ImageEraseReq {
	r := &ImageEraseReq{}
	fillReq(r, SMP_OP_WRITE, SMP_GROUP_IMAGE, SMP_ID_IMAGE_ERASE)
	return r
}

func (r *ImageEraseReq) Msg() *Msg { return MsgFromReq(r) }
