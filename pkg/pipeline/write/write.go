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

package write

import (
	"context"
	"fmt"

	"github.com/netobserv/wids-feature-pipeline/pkg/model"
)

// Sink stores the documents of one cycle. Documents are upserted by id, so
// sending the same documents again never duplicates them.
type Sink interface {
	Ingest(ctx context.Context, docs []model.IngestDocument) IngestResult
	Close() error
}

// Rejection is a document refused by the store. It is not retried.
type Rejection struct {
	ID     string
	Status int
	Reason string
}

// Failure means the whole batch could not be delivered within the retry budget.
type Failure struct {
	Count  int
	Reason string
}

type IngestResult struct {
	Attempted int
	Indexed   int
	Rejected  []Rejection
	Failed    *Failure
	Attempts  int
}

// Err returns an IngestError when the batch failed, nil otherwise.
func (r *IngestResult) Err() error {
	if r.Failed == nil {
		return nil
	}
	return &IngestError{Count: r.Failed.Count, Reason: r.Failed.Reason, Attempts: r.Attempts}
}

// IngestError reports documents dropped after the retry budget was exhausted.
type IngestError struct {
	Count    int
	Reason   string
	Attempts int
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("%d documents dropped after %d attempts: %s", e.Count, e.Attempts, e.Reason)
}

func failed(res IngestResult, count int, err error) IngestResult {
	res.Failed = &Failure{Count: count, Reason: err.Error()}
	return res
}
