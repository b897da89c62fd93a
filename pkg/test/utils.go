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

package test

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/stretchr/testify/require"
)

// Eventually retries the assertion function until it passes or the timeout expires.
// On timeout, the failures of the last attempt are reported to t with Errorf.
func Eventually(t require.TestingT, timeout time.Duration, test func(t require.TestingT)) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	deadline := time.After(timeout)
	var last *recorder
	for {
		rec := &recorder{}
		done := make(chan struct{})
		go func() {
			defer close(done)
			test(rec)
		}()
		select {
		case <-done:
			if !rec.failed() {
				return
			}
			last = rec
		case <-deadline:
			if last == nil {
				last = rec
			}
			t.Errorf("Eventually timed out after %s. Last errors: %v", timeout, last.messages())
			return
		}
		select {
		case <-deadline:
			t.Errorf("Eventually timed out after %s. Last errors: %v", timeout, last.messages())
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

type recorder struct {
	mu   sync.Mutex
	errs []string
	fail bool
}

func (r *recorder) Errorf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = true
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
}

func (r *recorder) FailNow() {
	r.mu.Lock()
	r.fail = true
	r.mu.Unlock()
	runtime.Goexit()
}

func (r *recorder) failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fail
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errs...)
}
