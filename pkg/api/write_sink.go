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

type SinkTypeEnum struct {
	Elasticsearch string `yaml:"elasticsearch" json:"elasticsearch" doc:"bulk upsert into an Elasticsearch index"`
	Kafka         string `yaml:"kafka" json:"kafka" doc:"publish to a Kafka topic keyed by document id"`
	S3            string `yaml:"s3" json:"s3" doc:"archive each cycle as one object in an S3 bucket"`
	Stdout        string `yaml:"stdout" json:"stdout" doc:"print documents as JSON lines"`
}

func SinkTypeName(operation string) string {
	return GetEnumName(SinkTypeEnum{}, operation)
}

type Sink struct {
	Type       string   `yaml:"type" json:"type" enum:"SinkTypeEnum" doc:"(enum) one of the following:"`
	MaxRetries int      `yaml:"maxRetries,omitempty" json:"maxRetries,omitempty" doc:"maximum number of retries of a whole batch on transient failure"`
	MinBackoff Duration `yaml:"minBackoff,omitempty" json:"minBackoff,omitempty" doc:"initial backoff time between retries (default: 1s)"`
	MaxBackoff Duration `yaml:"maxBackoff,omitempty" json:"maxBackoff,omitempty" doc:"maximum backoff time between retries (default: 10s)"`
}
