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

type WriteElasticsearch struct {
	URL                string   `yaml:"url,omitempty" json:"url,omitempty" doc:"base URL of the Elasticsearch cluster"`
	Index              string   `yaml:"index,omitempty" json:"index,omitempty" doc:"index receiving the feature documents"`
	Username           string   `yaml:"username,omitempty" json:"username,omitempty" doc:"user for basic authentication"`
	Password           string   `yaml:"password,omitempty" json:"password,omitempty" doc:"password for basic authentication"`
	Pipeline           string   `yaml:"pipeline,omitempty" json:"pipeline,omitempty" doc:"optional ingest pipeline applied to every document"`
	InsecureSkipVerify bool     `yaml:"insecureSkipVerify,omitempty" json:"insecureSkipVerify,omitempty" doc:"skip server certificate verification"`
	Timeout            Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" doc:"maximum time to wait for one bulk request (default: 10s)"`
}
