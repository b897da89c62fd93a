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

package main

import (
	"errors"
	"os"
	"net/http/httptest"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netobserv/wids-feature-pipeline/pkg/config"
	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline"
	"github.com/netobserv/wids-feature-pipeline/pkg/test"
)

func TestTheMain(t *testing.T) {
	if os.Getenv("BE_CRASHER") == "1" {
		os.Args = []string{os.Args[0]}
		main()
		return
	}
	cmd := exec.Command(os.Args[0], "-test.run=TestTheMain")
	cmd.Env = append(os.Environ(), "BE_CRASHER=1", "WIDS_POLL_INTERVAL_SEC=-5")
	err := cmd.Run()
	var castErr *exec.ExitError
	if errors.As(err, &castErr) && !castErr.Success() {
		assert.Equal(t, 1, castErr.ExitCode())
		return
	}
	t.Fatalf("process ran with err %v, want exit status 1", err)
}

func TestEnvNames(t *testing.T) {
	assert.Equal(t, []string{"WIDS_KISMET_URL", "KISMET_URL"}, envNames("kismet.url"))
	assert.Equal(t, []string{"WIDS_POLL_INTERVAL_SEC", "POLL_INTERVAL_SEC"}, envNames("poll.interval-sec"))
	assert.Equal(t, []string{"WIDS_LOG_LEVEL", "LOG_LEVEL"}, envNames("log-level"))
	assert.Equal(t, []string{"WIDS_S3_BUCKET"}, envNames("s3.bucket"))
}

func TestBindFlags(t *testing.T) {
	initFlagsOnce(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "wids.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
sensor:
  site: warehouse
es:
  index: from-file
kismet:
  timeout: 2s
`), 0o600))
	t.Setenv("KISMET_URL", "http://kismet.local:2501")
	t.Setenv("WIDS_SENSOR_ID", "pi-9")
	t.Setenv("SENSOR_ID", "ignored")
	t.Setenv("ES_INDEX", "from-legacy-env")

	v := viper.New()
	v.SetConfigFile(file)
	require.NoError(t, v.ReadInConfig())
	bindFlags(rootCmd, v)

	assert.Equal(t, "http://kismet.local:2501", opts.Kismet.URL)
	assert.Equal(t, "pi-9", opts.Sensor.ID)
	assert.Equal(t, "warehouse", opts.Sensor.Site)
	assert.Equal(t, "from-legacy-env", opts.Elasticsearch.Index)
	assert.Equal(t, "2s", opts.Kismet.Timeout.String())
}

func initFlagsOnce(t *testing.T) {
	if rootCmd.PersistentFlags().Lookup("kismet.url") == nil {
		initFlags()
	}
	require.NoError(t, rootCmd.ParseFlags(nil))
}

func TestPipelineConfigSetup(t *testing.T) {
	kismet := httptest.NewServer(test.NewFakeKismet())
	defer kismet.Close()

	opts := config.DefaultOptions()
	opts.Kismet.URL = kismet.URL
	opts.Sink.Type = "stdout"
	opts.Health.Port = "8080"
	cfg, err := config.ParseConfig(&opts)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	mainPipeline, err := pipeline.NewPipeline(&cfg, operational.NewMetrics(&cfg.Metrics))
	require.NoError(t, err)
	require.NotNil(t, mainPipeline)
	require.NoError(t, mainPipeline.Close())
}
