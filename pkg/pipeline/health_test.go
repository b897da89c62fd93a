package pipeline

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/netobserv/wids-feature-pipeline/pkg/config"
	"github.com/netobserv/wids-feature-pipeline/pkg/operational/health"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/ingest"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/score"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/write"
	"github.com/netobserv/wids-feature-pipeline/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHealthServer(t *testing.T) {
	tests := []struct {
		name  string
		port  string
		setup func(p *Pipeline, clk *clock.Mock)
		ready int
		live  int
	}{
		{
			name:  "kismet fetched",
			port:  "7000",
			setup: func(p *Pipeline, _ *clock.Mock) { p.RunCycle(context.Background()) },
			ready: http.StatusOK, live: http.StatusOK,
		},
		{
			name:  "no fetch yet",
			port:  "7001",
			setup: func(_ *Pipeline, _ *clock.Mock) {},
			ready: http.StatusServiceUnavailable, live: http.StatusOK,
		},
		{
			name: "stale fetch",
			port: "7002",
			setup: func(p *Pipeline, clk *clock.Mock) {
				p.RunCycle(context.Background())
				clk.Add((readyIntervals + 1) * testInterval)
			},
			ready: http.StatusServiceUnavailable, live: http.StatusOK,
		},
		{
			name: "stuck cycle",
			port: "7003",
			setup: func(p *Pipeline, clk *clock.Mock) {
				p.cycleStarted.Store(clk.Now().UnixNano())
				p.setState(Running)
				clk.Add((stuckIntervals + 1) * testInterval)
			},
			ready: http.StatusServiceUnavailable, live: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := ingest.NewFakeIngester(ingest.FakeResult{Snapshot: snapshotAt(t0, "AA:AA:AA:AA:AA:01")})
			p, clk := newTestPipeline(fetcher, score.Unavailable{}, write.NewWriteFake())
			tt.setup(p, clk)

			opts := config.Options{Health: config.Health{Port: tt.port, Address: "127.0.0.1"}}
			server := health.NewHealthServer(&opts, p.IsAlive, p.IsReady)
			require.NotNil(t, server)
			require.Equal(t, "127.0.0.1:"+tt.port, server.Addr)
			defer server.Close()

			client := &http.Client{Timeout: time.Second}
			status := func(t require.TestingT, path string) int {
				resp, err := client.Get((&url.URL{Scheme: "http", Host: server.Addr, Path: path}).String())
				require.NoError(t, err)
				defer resp.Body.Close()
				return resp.StatusCode
			}
			test.Eventually(t, 5*time.Second, func(t require.TestingT) {
				assert.Equal(t, tt.ready, status(t, "/ready"))
				assert.Equal(t, tt.live, status(t, "/live"))
			})
		})
	}
}
