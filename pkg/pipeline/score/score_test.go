package score

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/netobserv/wids-feature-pipeline/pkg/api"
	"github.com/netobserv/wids-feature-pipeline/pkg/model"
	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func intPtr(i int) *int { return &i }

func vector(rssi int, deauth uint64) *model.FeatureVector {
	return &model.FeatureVector{
		DeviceID:      "AA:BB:CC:DD:EE:FF",
		SSIDEntropy:   2,
		SignalSamples: 3,
		RSSILast:      intPtr(rssi),
		FrameDeltas:   model.FrameCounters{model.CounterDeauth: deauth},
	}
}

func TestLoad_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "not configured", path: ""},
		{name: "missing file", path: filepath.Join(t.TempDir(), "nope.json")},
		{name: "invalid json", path: writeModel(t, "bad.json", `{"type": "zscore",`)},
		{name: "unknown field", path: writeModel(t, "extra.json", `{"type": "linear", "weights": {"a": 1}, "color": "blue"}`)},
		{name: "unknown type", path: writeModel(t, "type.yaml", "type: forest\n")},
		{name: "zero std", path: writeModel(t, "std.json", `{"type": "zscore", "features": ["rssi_last"], "mean": {"rssi_last": -50}, "std": {"rssi_last": 0}}`)},
		{name: "bad expression", path: writeModel(t, "expr.json", `{"type": "expression", "expression": "rssi_last +* 2"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Load(operational.NewMetrics(nil), api.Scorer{ModelPath: tt.path})
			assert.False(t, s.Available())
			_, err := s.Score(vector(-50, 0))
			assert.ErrorIs(t, err, ErrUnavailable)
			assert.NoError(t, s.Close())
		})
	}
}

func TestLoadModel_UnknownTypeListsTypes(t *testing.T) {
	_, err := LoadModel(writeModel(t, "type.yaml", "type: forest\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown model type "forest", expected one of zscore, linear, expression`)
}

func TestZScoreModel(t *testing.T) {
	path := writeModel(t, "model.json", `{
		"type": "zscore",
		"features": ["rssi_last", "deauth_delta", "client_count"],
		"mean": {"rssi_last": -60, "deauth_delta": 0, "client_count": 3},
		"std": {"rssi_last": 10, "deauth_delta": 2, "client_count": 1},
		"threshold": 3
	}`)
	s := Load(operational.NewMetrics(nil), api.Scorer{ModelPath: path})
	require.True(t, s.Available())

	res, err := s.Score(vector(-55, 1))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Score, 1e-9)
	assert.False(t, res.Anomalous)

	res, err = s.Score(vector(-60, 6))
	require.NoError(t, err)
	assert.InDelta(t, 3.0, res.Score, 1e-9)
	assert.True(t, res.Anomalous, "score equal to threshold is anomalous")
}

func TestThresholdOverride(t *testing.T) {
	path := writeModel(t, "model.yaml", `
type: zscore
features: [rssi_last]
mean: {rssi_last: -60}
std: {rssi_last: 10}
threshold: 5
`)
	s := Load(operational.NewMetrics(nil), api.Scorer{ModelPath: path, Threshold: 1})
	res, err := s.Score(vector(-45, 0))
	require.NoError(t, err)
	assert.InDelta(t, 1.5, res.Score, 1e-9)
	assert.True(t, res.Anomalous)
}

func TestLinearModel(t *testing.T) {
	m := &Model{
		Type:      "linear",
		Weights:   map[string]float64{"deauth_delta": 2, "ssid_entropy": -1, "client_count": 100},
		Bias:      -4,
		Threshold: 0.5,
	}
	s, err := NewScorer(operational.NewMetrics(nil), m, 0)
	require.NoError(t, err)
	res, err := s.Score(vector(-50, 3))
	require.NoError(t, err)
	// -4 + 2*3 - 2, client count absent
	assert.InDelta(t, 0.0, res.Score, 1e-9)
	assert.False(t, res.Anomalous)

	m.Logistic = true
	s, err = NewScorer(operational.NewMetrics(nil), m, 0)
	require.NoError(t, err)
	res, err = s.Score(vector(-50, 3))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Score, 1e-9)
	assert.True(t, res.Anomalous)
}

func TestLinearModel_StableSum(t *testing.T) {
	// magnitudes chosen so that the float sum depends on the order of the terms
	m := &Model{
		Type: "linear",
		Weights: map[string]float64{
			"deauth_delta": 1e16,
			"rssi_last":    0.3,
			"ssid_entropy": -1e16,
			"client_count": 0.1,
		},
	}
	var first float64
	for i := 0; i < 20; i++ {
		s, err := NewScorer(operational.NewMetrics(nil), m, 0)
		require.NoError(t, err)
		res, err := s.Score(vector(-51, 3))
		require.NoError(t, err)
		if i == 0 {
			first = res.Score
			continue
		}
		require.Equal(t, first, res.Score, "run %d", i)
	}
}

func TestExpressionModel(t *testing.T) {
	m := &Model{
		Type:       "expression",
		Features:   []string{"client_count"},
		Expression: "deauth_delta * 2 + client_count + (rssi_last > -40 ? 10 : 0)",
		Threshold:  10,
	}
	s, err := NewScorer(operational.NewMetrics(nil), m, 0)
	require.NoError(t, err)

	res, err := s.Score(vector(-70, 2))
	require.NoError(t, err)
	assert.InDelta(t, 4.0, res.Score, 1e-9)
	assert.False(t, res.Anomalous)

	res, err = s.Score(vector(-30, 2))
	require.NoError(t, err)
	assert.InDelta(t, 14.0, res.Score, 1e-9)
	assert.True(t, res.Anomalous)

	// rssi_last is not a model feature and is absent from this vector
	fv := vector(-30, 0)
	fv.RSSILast = nil
	_, err = s.Score(fv)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestClose(t *testing.T) {
	s, err := NewScorer(operational.NewMetrics(nil), &Model{Type: "linear", Weights: map[string]float64{"ssid_entropy": 1}}, 1)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.False(t, s.Available())
	_, err = s.Score(vector(-50, 0))
	assert.ErrorIs(t, err, ErrUnavailable)
}
