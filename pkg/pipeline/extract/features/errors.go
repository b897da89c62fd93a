/*
 * Copyright (C) 2022 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package features

import "fmt"

// ComputeError reports a device skipped in one cycle. Other devices are not affected.
type ComputeError struct {
	DeviceID string
	Reason   string
}

func (e *ComputeError) Error() string {
	if e.DeviceID == "" {
		return fmt.Sprintf("cannot compute features: %s", e.Reason)
	}
	return fmt.Sprintf("cannot compute features of device %s: %s", e.DeviceID, e.Reason)
}
