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
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/netobserv/wids-feature-pipeline/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestNewHealthServer(t *testing.T) {
	type args struct {
		running bool
		port    string
	}
	type want struct {
		statusCode int
	}

	tests := []struct {
		name string
		args args
		want want
	}{
		{name: "pipeline running", args: args{running: true, port: "7000"}, want: want{statusCode: 200}},
		{name: "pipeline not running", args: args{running: false, port: "7001"}, want: want{statusCode: 503}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := healthcheck.Check(func() error {
				if !tt.args.running {
					return errors.New("pipeline is not running")
				}
				return nil
			})
			opts := config.Options{Health: config.Health{Port: tt.args.port}}
			expectedAddr := fmt.Sprintf("0.0.0.0:%s", tt.args.port)
			server := NewHealthServer(&opts, check, check)
			require.NotNil(t, server)
			require.Equal(t, expectedAddr, server.Addr)
			defer func() { _ = server.Shutdown(context.Background()) }()

			client := &http.Client{}

			time.Sleep(time.Second)
			readyURL := url.URL{Scheme: "http", Host: expectedAddr, Path: readyPath}
			var resp, err = client.Get(readyURL.String())
			require.NoError(t, err)
			resp.Body.Close()
			require.Equal(t, tt.want.statusCode, resp.StatusCode)

			liveURL := url.URL{Scheme: "http", Host: expectedAddr, Path: livePath}
			resp, err = client.Get(liveURL.String())
			require.NoError(t, err)
			resp.Body.Close()
			require.Equal(t, tt.want.statusCode, resp.StatusCode)
		})
	}
}
