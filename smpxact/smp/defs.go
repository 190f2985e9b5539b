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

const (
	SMP_OP_READ      = 0
	SMP_OP_READ_RSP  = 1
	SMP_OP_WRITE     = 2
	SMP_OP_WRITE_RSP = 3
)

// Set in the first header byte of every outgoing request.
const SMP_HDR_OP_FLAG = 0x08
const SMP_HDR_OP_MASK = 0x07

const (
	SMP_ERR_OK            = 0
	SMP_ERR_EUNKNOWN      = 1
	SMP_ERR_ENOMEM        = 2
	SMP_ERR_EINVAL        = 3
	SMP_ERR_ETIMEOUT      = 4
	SMP_ERR_ENOENT        = 5
	SMP_ERR_EBADSTATE     = 6
	SMP_ERR_EMSGSIZE      = 7
	SMP_ERR_ENOTSUP       = 8
	SMP_ERR_ECORRUPT      = 9
	SMP_ERR_EBUSY         = 10
	SMP_ERR_EACCESSDENIED = 11
)

// First 64 groups are reserved for system level management commands.
// Per-user commands are then defined after group 64.

const (
	SMP_GROUP_DEFAULT = 0
	SMP_GROUP_IMAGE   = 1
	SMP_GROUP_STAT    = 2
	SMP_GROUP_CONFIG  = 3
	SMP_GROUP_LOG     = 4
	SMP_GROUP_CRASH   = 5
	SMP_GROUP_SPLIT   = 6
	SMP_GROUP_RUN     = 7
	SMP_GROUP_FS      = 8
	SMP_GROUP_SHELL   = 9
	SMP_GROUP_PERUSER = 64
)

// Default (OS) group (0).
const (
	SMP_ID_DEF_ECHO  = 0
	SMP_ID_DEF_RESET = 5
)

// Image group (1).
const (
	SMP_ID_IMAGE_STATE  = 0
	SMP_ID_IMAGE_UPLOAD = 1
	SMP_ID_IMAGE_ERASE  = 5
)

// Shell group (9).
const (
	SMP_ID_SHELL_EXEC = 0
)

func StatusString(status int) string {
	switch status {
	case SMP_ERR_OK:
		return "ok"
	case SMP_ERR_EUNKNOWN:
		return "unknown"
	case SMP_ERR_ENOMEM:
		return "nomem"
	case SMP_ERR_EINVAL:
		return "inval"
	case SMP_ERR_ETIMEOUT:
		return "timeout"
	case SMP_ERR_ENOENT:
		return "noent"
	case SMP_ERR_EBADSTATE:
		return "badstate"
	case SMP_ERR_EMSGSIZE:
		return "msgsize"
	case SMP_ERR_ENOTSUP:
		return "notsup"
	case SMP_ERR_ECORRUPT:
		return "corrupt"
	case SMP_ERR_EBUSY:
		return "busy"
	case SMP_ERR_EACCESSDENIED:
		return "accessdenied"
	default:
		return "???"
	}
}

func OpString(op uint8) string {
	switch op {
	case SMP_OP_READ:
		return "read"
	case SMP_OP_READ_RSP:
		return "read-rsp"
	case SMP_OP_WRITE:
		return "write"
	case SMP_OP_WRITE_RSP:
		return "write-rsp"
	default:
		return "???"
	}
}
