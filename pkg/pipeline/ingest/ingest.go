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

package ingest

import (
	"context"
	"fmt"

	"github.com/netobserv/wids-feature-pipeline/pkg/model"
)

// Ingester obtains one snapshot of the devices currently seen by the capture daemon.
type Ingester interface {
	Fetch(ctx context.Context) (model.Snapshot, error)
}

// Fetch failure reasons, also used as the error metric label.
const (
	ReasonTransport = "transport"
	ReasonStatus    = "status"
	ReasonRead      = "read"
	ReasonDecode    = "decode"
)

// FetchError means no snapshot is available for this cycle.
type FetchError struct {
	Reason     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch failed (%s): HTTP %d: %v", e.Reason, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch failed (%s): %v", e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
