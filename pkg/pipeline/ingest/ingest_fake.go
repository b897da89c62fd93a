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
	"sync"

	"github.com/netobserv/wids-feature-pipeline/pkg/model"
)

// FakeResult is one scripted answer of a FakeIngester.
type FakeResult struct {
	Snapshot model.Snapshot
	Err      error
	// Hook runs before the answer is returned.
	Hook func(ctx context.Context)
}

// FakeIngester returns scripted results in order, then repeats the last one.
type FakeIngester struct {
	mu      sync.Mutex
	results []FakeResult
	calls   int
}

func NewFakeIngester(results ...FakeResult) *FakeIngester {
	return &FakeIngester{results: results}
}

func (f *FakeIngester) Fetch(ctx context.Context) (model.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	var res FakeResult
	if len(f.results) > 0 {
		res = f.results[0]
		if len(f.results) > 1 {
			f.results = f.results[1:]
		}
	}
	f.mu.Unlock()
	if res.Hook != nil {
		res.Hook(ctx)
	}
	return res.Snapshot, res.Err
}

func (f *FakeIngester) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
