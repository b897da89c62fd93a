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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/netobserv/wids-feature-pipeline/pkg/api"
	"github.com/netobserv/wids-feature-pipeline/pkg/config"
	"gopkg.in/yaml.v2"
)

// Model is the anomaly model artifact, produced offline.
type Model struct {
	Type       string             `yaml:"type" json:"type"`
	Features   []string           `yaml:"features,omitempty" json:"features,omitempty"`
	Mean       map[string]float64 `yaml:"mean,omitempty" json:"mean,omitempty"`
	Std        map[string]float64 `yaml:"std,omitempty" json:"std,omitempty"`
	Weights    map[string]float64 `yaml:"weights,omitempty" json:"weights,omitempty"`
	Bias       float64            `yaml:"bias,omitempty" json:"bias,omitempty"`
	Logistic   bool               `yaml:"logistic,omitempty" json:"logistic,omitempty"`
	Expression string             `yaml:"expression,omitempty" json:"expression,omitempty"`
	Threshold  float64            `yaml:"threshold,omitempty" json:"threshold,omitempty"`
}

// LoadModel reads a model artifact. Files ending in .yaml or .yml are read as YAML, anything else as JSON.
// Unknown fields are rejected.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Model
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.UnmarshalStrict(data, &m)
	default:
		err = config.JsonUnmarshalStrict(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot parse model %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", path, err)
	}
	return &m, nil
}

func (m *Model) validate() error {
	switch m.Type {
	case api.ScorerModelTypeName("ZScore"):
		if len(m.Features) == 0 {
			return fmt.Errorf("zscore model needs at least one feature")
		}
		for _, f := range m.Features {
			if _, ok := m.Mean[f]; !ok {
				return fmt.Errorf("missing mean of feature %s", f)
			}
			if std, ok := m.Std[f]; !ok || std <= 0 {
				return fmt.Errorf("standard deviation of feature %s must be positive", f)
			}
		}
	case api.ScorerModelTypeName("Linear"):
		if len(m.Weights) == 0 {
			return fmt.Errorf("linear model needs weights")
		}
	case api.ScorerModelTypeName("Expression"):
		if strings.TrimSpace(m.Expression) == "" {
			return fmt.Errorf("expression model needs an expression")
		}
	default:
		return fmt.Errorf("unknown model type %q, expected one of %s", m.Type, strings.Join(api.EnumValues(api.ScorerModelTypeEnum{}), ", "))
	}
	if m.Threshold < 0 {
		return fmt.Errorf("threshold must not be negative")
	}
	return nil
}
