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

package sesn

import (
	"github.com/hilsdk/smpmgr/smpxact/smp"
	"github.com/hilsdk/smpmgr/smpxact/smpxutil"
)

// Transmits an SMP message, retrying on response timeout until the
// configured number of tries is exhausted.  Other errors are not retried.
func TxSmp(s Sesn, m *smp.Msg, o TxOptions) (*smp.Rsp, error) {
	retries := o.Tries - 1
	for i := 0; ; i++ {
		r, err := s.TxSmpOnce(m, o)
		if err == nil {
			return r, nil
		}

		if !smpxutil.IsRspTimeout(err) || i >= retries {
			return nil, err
		}
	}
}
