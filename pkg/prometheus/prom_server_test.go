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
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/netobserv/wids-feature-pipeline/pkg/config"
	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/require"
)

var testCycles = operational.DefineMetric(
	"test_prom_server_cycles",
	"cycles counted by the server test",
	operational.TypeCounter,
	"outcome",
)

func counterValue(mf *dto.MetricFamily, label, value string) float64 {
	for _, m := range mf.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == label && l.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return -1
}

func TestStartPromServer(t *testing.T) {
	settings := &config.MetricsSettings{NoPanic: true, Prefix: "wids_"}
	srv := InitializePrometheus(settings)
	require.NotNil(t, srv)
	cycles := operational.NewMetrics(settings).NewCounterVec(&testCycles)
	cycles.WithLabelValues("success").Add(3)

	serverURL := "http://0.0.0.0:9090"
	t.Logf("Started test http server: %v", serverURL)

	httpClient := &http.Client{}

	// wait for our test http server to come up
	checkHTTPReady(httpClient, serverURL)

	r, err := http.NewRequest("GET", serverURL+"/metrics", nil)
	require.NoError(t, err)

	resp, err := httpClient.Do(r)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	require.NoError(t, err)
	require.Contains(t, families, "go_gc_duration_seconds")
	require.Contains(t, families, "wids_test_prom_server_cycles")
	require.Equal(t, float64(3), counterValue(families["wids_test_prom_server_cycles"], "outcome", "success"))

	_ = srv.Shutdown(context.Background())
}

func TestPromServerDisabled(t *testing.T) {
	require.Nil(t, InitializePrometheus(&config.MetricsSettings{Port: -1}))
}

func checkHTTPReady(httpClient *http.Client, url string) {
	for i := 0; i < 60; i++ {
		if r, err := httpClient.Get(url); err == nil {
			r.Body.Close()
			break
		}
		time.Sleep(time.Second)
	}
}
