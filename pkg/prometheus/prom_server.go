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

package prometheus

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/netobserv/wids-feature-pipeline/pkg/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const defaultPort = 9090

var plog = logrus.WithField("component", "prometheus")

// InitializePrometheus starts the global Prometheus server, used for operational metrics.
// It returns nil when the metrics endpoint is disabled (negative port).
func InitializePrometheus(settings *config.MetricsSettings) *http.Server {
	port := settings.Port
	if port < 0 {
		plog.Info("metrics endpoint disabled")
		return nil
	}
	if port == 0 {
		port = defaultPort
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		// if value of address is empty, then by default it will take 0.0.0.0
		Addr:              fmt.Sprintf("%s:%v", settings.Address, port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go startServer(settings, server)
	return server
}

func startServer(settings *config.MetricsSettings, server *http.Server) {
	plog.Infof("Prometheus server: addr = %s", server.Addr)
	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		plog.Errorf("error in http.ListenAndServe: %v", err)
		if !settings.NoPanic {
			os.Exit(1)
		}
	}
}
