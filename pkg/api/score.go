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

type ScorerModelTypeEnum struct {
	ZScore     string `yaml:"zscore" json:"zscore" doc:"maximum absolute z-score over the model features"`
	Linear     string `yaml:"linear" json:"linear" doc:"weighted sum of the model features, optionally passed through a logistic function"`
	Expression string `yaml:"expression" json:"expression" doc:"arithmetic expression over feature names"`
}

func ScorerModelTypeName(operation string) string {
	return GetEnumName(ScorerModelTypeEnum{}, operation)
}

type Scorer struct {
	ModelPath string  `yaml:"modelPath,omitempty" json:"modelPath,omitempty" doc:"path to the anomaly model artifact (JSON or YAML); scoring is disabled when empty"`
	Threshold float64 `yaml:"threshold,omitempty" json:"threshold,omitempty" doc:"score at or above which a device is flagged; 0 uses the artifact threshold"`
}
