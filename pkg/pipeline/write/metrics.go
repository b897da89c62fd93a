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
	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	documentsWritten = operational.DefineMetric(
		"write_documents",
		"Number of documents accepted by the sink",
		operational.TypeCounter,
		"sink",
	)
	documentsRejected = operational.DefineMetric(
		"write_documents_rejected",
		"Number of documents rejected by the sink and dropped",
		operational.TypeCounter,
		"sink",
	)
	documentsDropped = operational.DefineMetric(
		"write_documents_dropped",
		"Number of documents dropped after the retry budget was exhausted",
		operational.TypeCounter,
		"sink",
	)
	writeRetries = operational.DefineMetric(
		"write_retries",
		"Number of batch retries",
		operational.TypeCounter,
		"sink",
	)
	writeDuration = operational.DefineMetric(
		"write_batch_duration_seconds",
		"Time spent writing one batch, retries included",
		operational.TypeHistogram,
		"sink",
	)
)

type metrics struct {
	written  prometheus.Counter
	rejected prometheus.Counter
	dropped  prometheus.Counter
	retries  prometheus.Counter
	duration prometheus.Observer
}

func newMetrics(opMetrics *operational.Metrics, sink string) *metrics {
	return &metrics{
		written:  opMetrics.NewCounter(&documentsWritten, sink),
		rejected: opMetrics.NewCounter(&documentsRejected, sink),
		dropped:  opMetrics.NewCounter(&documentsDropped, sink),
		retries:  opMetrics.NewCounter(&writeRetries, sink),
		duration: opMetrics.NewHistogram(&writeDuration, []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60}, sink),
	}
}

func (m *metrics) observe(res *IngestResult) {
	m.written.Add(float64(res.Indexed))
	m.rejected.Add(float64(len(res.Rejected)))
	if res.Failed != nil {
		m.dropped.Add(float64(res.Failed.Count))
	}
	if res.Attempts > 1 {
		m.retries.Add(float64(res.Attempts - 1))
	}
}

func (m *metrics) timer() *operational.Timer {
	return operational.NewTimer(m.duration)
}
