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

package pipeline

import (
	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cyclesCounter = operational.DefineMetric(
		"pipeline_cycles",
		"Number of poll cycles, by outcome",
		operational.TypeCounter,
		"outcome",
	)
	cycleDuration = operational.DefineMetric(
		"pipeline_cycle_duration_seconds",
		"Duration of poll cycles, in seconds",
		operational.TypeHistogram,
	)
	skippedTicks = operational.DefineMetric(
		"pipeline_skipped_ticks",
		"Number of ticks skipped because the previous cycle overran the poll interval",
		operational.TypeCounter,
	)
	lastSuccess = operational.DefineMetric(
		"pipeline_last_success_timestamp_seconds",
		"Unix time of the last successful fetch",
		operational.TypeGauge,
	)
	loopState = operational.DefineMetric(
		"pipeline_running",
		"1 while a cycle is running, 0 while waiting for the next tick",
		operational.TypeGauge,
	)
)

type metrics struct {
	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Observer
	skippedTicks  prometheus.Counter
	lastSuccess   prometheus.Gauge
	state         prometheus.Gauge
}

func newMetrics(opMetrics *operational.Metrics) *metrics {
	return &metrics{
		cycles:        opMetrics.NewCounterVec(&cyclesCounter),
		cycleDuration: opMetrics.NewHistogram(&cycleDuration, []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60}),
		skippedTicks:  opMetrics.NewCounter(&skippedTicks),
		lastSuccess:   opMetrics.NewGauge(&lastSuccess),
		state:         opMetrics.NewGauge(&loopState),
	}
}
