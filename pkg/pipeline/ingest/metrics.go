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
	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	fetchDuration = operational.DefineMetric(
		"ingest_fetch_duration_seconds",
		"Duration of capture daemon requests, in seconds",
		operational.TypeHistogram,
		"stage",
	)
	devicesFetched = operational.DefineMetric(
		"ingest_devices_fetched",
		"Number of device records fetched from the capture daemon",
		operational.TypeCounter,
		"stage",
	)
	devicesDropped = operational.DefineMetric(
		"ingest_devices_dropped",
		"Number of device records dropped at decoding",
		operational.TypeCounter,
		"stage", "reason",
	)
	errorsCounter = operational.DefineMetric(
		"ingest_errors",
		"Counter of errors during ingestion",
		operational.TypeCounter,
		"stage", "type", "code",
	)
)

type metrics struct {
	*operational.Metrics
	stage          string
	stageType      string
	latency        prometheus.Observer
	devicesFetched prometheus.Counter
	devicesDropped *prometheus.CounterVec
	errors         *prometheus.CounterVec
}

func newMetrics(opMetrics *operational.Metrics, stage, stageType string) *metrics {
	return &metrics{
		Metrics:        opMetrics,
		stage:          stage,
		stageType:      stageType,
		latency:        opMetrics.NewHistogram(&fetchDuration, []float64{.005, .01, .05, .1, .5, 1, 5, 10}, stage),
		devicesFetched: opMetrics.NewCounter(&devicesFetched, stage),
		devicesDropped: opMetrics.NewCounterVec(&devicesDropped),
		errors:         opMetrics.NewCounterVec(&errorsCounter),
	}
}

// Increment error counter
// `code` should reflect any error code relative to this type. It can be a short string message,
// but make sure to not include any dynamic value with high cardinality
func (m *metrics) error(code string) {
	m.errors.WithLabelValues(m.stage, m.stageType, code).Inc()
}

func (m *metrics) dropped(reason string, n int) {
	if n > 0 {
		m.devicesDropped.WithLabelValues(m.stage, reason).Add(float64(n))
	}
}

func (m *metrics) fetchTimer() *operational.Timer {
	return operational.NewTimer(m.latency)
}
