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

package score

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/Knetic/govaluate"
	"github.com/netobserv/wids-feature-pipeline/pkg/api"
	"github.com/netobserv/wids-feature-pipeline/pkg/model"
	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/extract/features"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var slog = logrus.WithField("component", "score.Scorer")

// ErrUnavailable is returned by scorers that have no model. It is a permanent state, not a failure.
var ErrUnavailable = errors.New("anomaly scorer unavailable")

var (
	scoresHistogram = operational.DefineMetric(
		"score_anomaly_scores",
		"Distribution of anomaly scores",
		operational.TypeHistogram,
		"model",
	)
	anomaliesCounter = operational.DefineMetric(
		"score_anomalies",
		"Number of feature vectors flagged as anomalous",
		operational.TypeCounter,
		"model",
	)
	scoreErrors = operational.DefineMetric(
		"score_errors",
		"Counter of errors while scoring feature vectors",
		operational.TypeCounter,
		"model",
	)
)

type Scorer interface {
	Score(fv *model.FeatureVector) (model.ScoreResult, error)
	Available() bool
	Close() error
}

// Unavailable is the scorer used when no model could be loaded.
type Unavailable struct {
	Reason string
}

func (Unavailable) Score(*model.FeatureVector) (model.ScoreResult, error) {
	return model.ScoreResult{}, ErrUnavailable
}

func (Unavailable) Available() bool { return false }

func (Unavailable) Close() error { return nil }

type modelScorer struct {
	model     *Model
	threshold float64
	expr      *govaluate.EvaluableExpression
	// weighted features in a fixed order, so the float sum does not depend on map iteration
	weighted  []string
	closed    atomic.Bool
	scores    prometheus.Observer
	anomalies prometheus.Counter
	errors    prometheus.Counter
}

// Load returns a scorer for the configured model, or Unavailable when no model
// is configured or it cannot be loaded. It never fails.
func Load(opMetrics *operational.Metrics, params api.Scorer) Scorer {
	if params.ModelPath == "" {
		slog.Info("no anomaly model configured, documents will not be scored")
		return Unavailable{Reason: "no model configured"}
	}
	m, err := LoadModel(params.ModelPath)
	if err != nil {
		slog.WithError(err).Warn("anomaly model unavailable, documents will not be scored")
		return Unavailable{Reason: err.Error()}
	}
	s, err := NewScorer(opMetrics, m, params.Threshold)
	if err != nil {
		slog.WithError(err).Warn("anomaly model unavailable, documents will not be scored")
		return Unavailable{Reason: err.Error()}
	}
	return s
}

// NewScorer builds a scorer from a loaded model. A positive threshold overrides the model's.
func NewScorer(opMetrics *operational.Metrics, m *Model, threshold float64) (Scorer, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = m.Threshold
	}
	s := &modelScorer{
		model:     m,
		threshold: threshold,
		scores:    opMetrics.NewHistogram(&scoresHistogram, []float64{.5, 1, 2, 3, 5, 10, 50}, m.Type),
		anomalies: opMetrics.NewCounter(&anomaliesCounter, m.Type),
		errors:    opMetrics.NewCounter(&scoreErrors, m.Type),
	}
	for f := range m.Weights {
		s.weighted = append(s.weighted, f)
	}
	sort.Strings(s.weighted)
	if m.Type == api.ScorerModelTypeName("Expression") {
		expr, err := govaluate.NewEvaluableExpression(m.Expression)
		if err != nil {
			return nil, fmt.Errorf("cannot parse expression %q: %w", m.Expression, err)
		}
		s.expr = expr
	}
	if threshold == 0 {
		slog.Warn("anomaly threshold is 0, every scored device will be flagged")
	}
	slog.Infof("loaded %s anomaly model, threshold=%v", m.Type, threshold)
	return s, nil
}

func (s *modelScorer) Available() bool {
	return !s.closed.Load()
}

func (s *modelScorer) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *modelScorer) Score(fv *model.FeatureVector) (model.ScoreResult, error) {
	if s.closed.Load() {
		return model.ScoreResult{}, ErrUnavailable
	}
	values := features.Values(fv)
	var score float64
	var err error
	switch s.model.Type {
	case api.ScorerModelTypeName("ZScore"):
		score = s.zscore(values)
	case api.ScorerModelTypeName("Linear"):
		score = s.linear(values)
	default:
		score, err = s.evaluate(values)
	}
	if err == nil && (math.IsNaN(score) || math.IsInf(score, 0)) {
		err = fmt.Errorf("score is not a finite number: %v", score)
	}
	if err != nil {
		s.errors.Inc()
		return model.ScoreResult{}, fmt.Errorf("cannot score device %s: %w", fv.DeviceID, err)
	}
	res := model.ScoreResult{Score: score, Anomalous: score >= s.threshold}
	s.scores.Observe(score)
	if res.Anomalous {
		s.anomalies.Inc()
	}
	return res, nil
}

// zscore is the largest absolute z-score among the model features present in the vector.
func (s *modelScorer) zscore(values map[string]float64) float64 {
	score := 0.0
	for _, f := range s.model.Features {
		v, ok := values[f]
		if !ok {
			continue
		}
		z := math.Abs(v-s.model.Mean[f]) / s.model.Std[f]
		score = math.Max(score, z)
	}
	return score
}

// linear ignores the weights of features absent from the vector.
func (s *modelScorer) linear(values map[string]float64) float64 {
	z := s.model.Bias
	for _, f := range s.weighted {
		z += s.model.Weights[f] * values[f]
	}
	if s.model.Logistic {
		return 1 / (1 + math.Exp(-z))
	}
	return z
}

func (s *modelScorer) evaluate(values map[string]float64) (float64, error) {
	params := make(map[string]interface{}, len(values)+len(s.model.Features))
	for _, f := range s.model.Features {
		params[f] = 0.0
	}
	for k, v := range values {
		params[k] = v
	}
	result, err := s.expr.Evaluate(params)
	if err != nil {
		return 0, err
	}
	switch r := result.(type) {
	case float64:
		return r, nil
	case bool:
		if r {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("expression returned %T, expected a number", result)
	}
}
