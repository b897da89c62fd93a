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

const TagYaml = "yaml"
const TagDoc = "doc"
const TagEnum = "enum"

// Note: items beginning with doc: "## title" are top level items that get divided into sections inside api.md.

type API struct {
	IngestKismet       IngestKismet       `yaml:"kismet" doc:"## Kismet ingest API\nFollowing is the supported API format for polling the capture daemon:\n"`
	ExtractFeatures    ExtractFeatures    `yaml:"features" doc:"## Feature extraction API\nFollowing is the supported API format for per-device feature extraction:\n"`
	Scorer             Scorer             `yaml:"scorer" doc:"## Anomaly scorer API\nFollowing is the supported API format for the optional anomaly scorer:\n"`
	Sink               Sink               `yaml:"sink" doc:"## Sink API\nFollowing is the supported API format for selecting and retrying the ingestion sink:\n"`
	WriteElasticsearch WriteElasticsearch `yaml:"es" doc:"## Elasticsearch write API\nFollowing is the supported API format for writing to Elasticsearch:\n"`
	WriteKafka         WriteKafka         `yaml:"kafka" doc:"## Kafka write API\nFollowing is the supported API format for writing to Kafka:\n"`
	WriteS3            WriteS3            `yaml:"s3" doc:"## S3 write API\nFollowing is the supported API format for archiving to S3:\n"`
	WriteStdout        WriteStdout        `yaml:"stdout" doc:"## Write Standard Output\nFollowing is the supported API format for writing to standard output:\n"`
	Sensor             Sensor             `yaml:"sensor" doc:"## Sensor API\nFollowing is the supported API format for sensor metadata:\n"`
	Poll               Poll               `yaml:"poll" doc:"## Poll API\nFollowing is the supported API format for the poll loop:\n"`
}
