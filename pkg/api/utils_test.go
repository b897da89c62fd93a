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
package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestDuration_SinkBackoffYAML(t *testing.T) {
	var sink Sink
	require.NoError(t, yaml.UnmarshalStrict([]byte("type: kafka\nminBackoff: 500ms\nmaxBackoff: 1m\n"), &sink))
	assert.Equal(t, 500*time.Millisecond, sink.MinBackoff.Duration)
	assert.Equal(t, time.Minute, sink.MaxBackoff.Duration)

	out, err := yaml.Marshal(sink)
	require.NoError(t, err)
	assert.Contains(t, string(out), "minBackoff: 500ms\n")
	assert.Contains(t, string(out), "maxBackoff: 1m0s\n")

	require.Error(t, yaml.UnmarshalStrict([]byte("minBackoff: soon\n"), &sink))
}

func TestDuration_KismetTimeoutJSON(t *testing.T) {
	var kismet IngestKismet
	require.NoError(t, json.Unmarshal([]byte(`{"url":"http://kismet:2501","timeout":"5s"}`), &kismet))
	assert.Equal(t, 5*time.Second, kismet.Timeout.Duration)

	// bare numbers are nanoseconds
	require.NoError(t, json.Unmarshal([]byte(`{"timeout":2000000000}`), &kismet))
	assert.Equal(t, 2*time.Second, kismet.Timeout.Duration)

	require.Error(t, json.Unmarshal([]byte(`{"timeout":true}`), &kismet))

	out, err := json.Marshal(IngestKismet{Timeout: Duration{1500 * time.Millisecond}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"timeout":"1.5s"}`, string(out))
}

func TestDuration_Set(t *testing.T) {
	var d Duration
	require.NoError(t, d.Set("1500ms"))
	require.Equal(t, 1500*time.Millisecond, d.Duration)
	require.Equal(t, "duration", d.Type())
	require.Error(t, d.Set("ten seconds"))
}
