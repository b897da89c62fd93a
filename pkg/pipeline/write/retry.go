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
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/netobserv/wids-feature-pipeline/pkg/api"
	"github.com/sirupsen/logrus"
)

// retryPolicy retries a whole batch on transient failures, with exponential backoff.
type retryPolicy struct {
	maxRetries int
	minBackoff time.Duration
	maxBackoff time.Duration
}

func newRetryPolicy(params api.Sink) retryPolicy {
	p := retryPolicy{
		maxRetries: params.MaxRetries,
		minBackoff: params.MinBackoff.Duration,
		maxBackoff: params.MaxBackoff.Duration,
	}
	if p.maxRetries < 0 {
		p.maxRetries = 0
	}
	if p.minBackoff <= 0 {
		p.minBackoff = time.Second
	}
	if p.maxBackoff < p.minBackoff {
		p.maxBackoff = p.minBackoff
	}
	return p
}

// transientError marks failures worth retrying: connection errors, timeouts, throttling and server errors.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func transient(format string, args ...interface{}) error {
	return &transientError{err: fmt.Errorf(format, args...)}
}

// do runs op until it succeeds, fails with a non transient error, or the budget is exhausted.
// It returns the number of attempts.
func (p retryPolicy) do(ctx context.Context, log *logrus.Entry, op func() error) (int, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.minBackoff
	b.MaxInterval = p.maxBackoff
	b.MaxElapsedTime = 0
	attempts := 0
	err := backoff.RetryNotify(func() error {
		attempts++
		err := op()
		if err == nil {
			return nil
		}
		var te *transientError
		if !errors.As(err, &te) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.maxRetries)), ctx), func(err error, wait time.Duration) {
		log.WithError(err).Warnf("attempt %d failed, retrying in %s", attempts, wait)
	})
	return attempts, err
}
