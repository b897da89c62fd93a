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

package health

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/netobserv/wids-feature-pipeline/pkg/config"
	log "github.com/sirupsen/logrus"
)

const (
	defaultServerHost = "0.0.0.0"
	livePath          = "/live"
	readyPath         = "/ready"
	retryDelay        = 60 * time.Second
)

// NewHealthServer starts serving liveness and readiness probes backed by the given checks.
func NewHealthServer(opts *config.Options, isAlive, isReady healthcheck.Check) *http.Server {
	handler := healthcheck.NewHandler()
	host := opts.Health.Address
	if host == "" {
		host = defaultServerHost
	}
	address := net.JoinHostPort(host, opts.Health.Port)

	handler.AddLivenessCheck("PipelineCheck", isAlive)
	handler.AddReadinessCheck("PipelineCheck", isReady)

	server := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		for {
			err := server.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return
			}
			log.Errorf("http.ListenAndServe error %v", err)
			time.Sleep(retryDelay)
		}
	}()

	return server
}
