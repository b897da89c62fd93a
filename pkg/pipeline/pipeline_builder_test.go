package pipeline

import (
	"testing"

	"github.com/netobserv/wids-feature-pipeline/pkg/api"
	"github.com/netobserv/wids-feature-pipeline/pkg/config"
	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipeline(t *testing.T) {
	opts := config.DefaultOptions()
	opts.Sink.Type = "stdout"
	opts.Sensor = api.Sensor{ID: "pi-7", Site: "hq"}
	cfg, err := config.ParseConfig(&opts)
	require.NoError(t, err)

	p, err := NewPipeline(&cfg, operational.NewMetrics(nil))
	require.NoError(t, err)
	assert.Equal(t, "pi-7", p.sensor.ID)
	assert.Equal(t, "hq", p.sensor.Site)
	assert.Equal(t, cfg.PollInterval, p.interval)
	assert.Equal(t, config.DefaultWindowSize, p.store.WindowSize())
	assert.False(t, p.scorer.Available(), "no model configured")
	assert.Equal(t, Idle, p.State())
	require.NoError(t, p.Close())
}

func TestGetSink(t *testing.T) {
	tests := []struct {
		name    string
		sink    string
		wantErr bool
	}{
		{name: "stdout", sink: "stdout"},
		{name: "elasticsearch", sink: "elasticsearch"},
		{name: "kafka", sink: "kafka"},
		{name: "unknown", sink: "loki", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := config.DefaultOptions()
			cfg, err := config.ParseConfig(&opts)
			require.NoError(t, err)
			cfg.Sink.Type = tt.sink
			sink, err := getSink(&cfg, operational.NewMetrics(nil))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, sink)
			require.NoError(t, sink.Close())
		})
	}
}
