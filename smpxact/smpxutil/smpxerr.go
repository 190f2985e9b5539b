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

package smpxutil

import (
	"fmt"

	"github.com/pkg/errors"
)

// Represents an application-layer timeout; request sent, but no response
// received.
type RspTimeoutError struct {
	Text string
}

func NewRspTimeoutError(text string) *RspTimeoutError {
	return &RspTimeoutError{
		Text: text,
	}
}

func FmtRspTimeoutError(format string, args ...interface{}) *RspTimeoutError {
	return NewRspTimeoutError(fmt.Sprintf(format, args...))
}

func (e *RspTimeoutError) Error() string {
	return e.Text
}

func IsRspTimeout(err error) bool {
	_, ok := errors.Cause(err).(*RspTimeoutError)
	return ok
}

// Indicates that a response arrived but could not be interpreted: bad header,
// undecodable body, or a required field that is missing or out of range.
type MalformedRspError struct {
	Text string
}

func NewMalformedRspError(text string) *MalformedRspError {
	return &MalformedRspError{
		Text: text,
	}
}

func FmtMalformedRspError(format string,
	args ...interface{}) *MalformedRspError {

	return NewMalformedRspError(fmt.Sprintf(format, args...))
}

func (e *MalformedRspError) Error() string {
	return e.Text
}

func IsMalformedRsp(err error) bool {
	_, ok := errors.Cause(err).(*MalformedRspError)
	return ok
}

// An image upload that stopped making progress.
type StalledXferError struct {
	Off   int
	Total int
	Iters int
	Text  string
}

func NewStalledXferError(off int, total int, iters int,
	text string) *StalledXferError {

	return &StalledXferError{
		Off:   off,
		Total: total,
		Iters: iters,
		Text:  text,
	}
}

func (e *StalledXferError) Error() string {
	return fmt.Sprintf("%s (off=%d total=%d iters=%d)",
		e.Text, e.Off, e.Total, e.Iters)
}

func IsStalledXfer(err error) bool {
	_, ok := errors.Cause(err).(*StalledXferError)
	return ok
}

// Local file could not be read.
type FileError struct {
	Path string
	Text string
}

func NewFileError(path string, text string) *FileError {
	return &FileError{
		Path: path,
		Text: text,
	}
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Text)
}

func IsFile(err error) bool {
	_, ok := errors.Cause(err).(*FileError)
	return ok
}

// A request was attempted while another was still awaiting its response.
type BusyError struct {
	Text string
}

func NewBusyError(text string) *BusyError {
	return &BusyError{
		Text: text,
	}
}

func (e *BusyError) Error() string {
	return e.Text
}

func IsBusy(err error) bool {
	_, ok := errors.Cause(err).(*BusyError)
	return ok
}

type SesnAlreadyOpenError struct {
	Text string
}

func NewSesnAlreadyOpenError(text string) *SesnAlreadyOpenError {
	return &SesnAlreadyOpenError{
		Text: text,
	}
}

func (e *SesnAlreadyOpenError) Error() string {
	return e.Text
}

func IsSesnAlreadyOpen(err error) bool {
	_, ok := errors.Cause(err).(*SesnAlreadyOpenError)
	return ok
}

type SesnClosedError struct {
	Text string
}

func NewSesnClosedError(text string) *SesnClosedError {
	return &SesnClosedError{
		Text: text,
	}
}

func (e *SesnClosedError) Error() string {
	return e.Text
}

func IsSesnClosed(err error) bool {
	_, ok := errors.Cause(err).(*SesnClosedError)
	return ok
}

// Represents a low-level transport error.
type XportError struct {
	Text string
}

func NewXportError(text string) *XportError {
	return &XportError{text}
}

func FmtXportError(format string, args ...interface{}) *XportError {
	return NewXportError(fmt.Sprintf(format, args...))
}

func (e *XportError) Error() string {
	return e.Text
}

func IsXport(err error) bool {
	if err == nil {
		return false
	}

	_, ok := errors.Cause(err).(*XportError)
	return ok
}

// The target responded with a nonzero status code.
type SmpRcError struct {
	Rc   int
	Text string
}

func NewSmpRcError(rc int, text string) *SmpRcError {
	return &SmpRcError{
		Rc:   rc,
		Text: text,
	}
}

func (e *SmpRcError) Error() string {
	return fmt.Sprintf("%s; rc=%d", e.Text, e.Rc)
}

func IsSmpRc(err error) bool {
	_, ok := errors.Cause(err).(*SmpRcError)
	return ok
}

// Returns the status code carried by an SmpRcError, or -1 if the error is of
// some other type.
func SmpRc(err error) int {
	if e, ok := errors.Cause(err).(*SmpRcError); ok {
		return e.Rc
	}

	return -1
}
