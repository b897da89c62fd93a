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

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/netobserv/wids-feature-pipeline/pkg/api"
	"github.com/sirupsen/logrus"
)

const (
	DefaultKismetURL         = "http://localhost:2501"
	DefaultKismetWindowSec   = 10
	DefaultKismetTimeout     = 5 * time.Second
	DefaultElasticsearchURL  = "http://localhost:9200"
	DefaultIndex             = "wids-wireless-features"
	DefaultElasticTimeout    = 10 * time.Second
	DefaultKafkaAddress      = "localhost:9092"
	DefaultS3Timeout         = 10 * time.Second
	DefaultMaxRetries        = 3
	DefaultMinBackoff        = time.Second
	DefaultMaxBackoff        = 10 * time.Second
	DefaultSensorSite        = "lab"
	DefaultPollIntervalSec   = 10
	DefaultWindowSize        = 10
	DefaultIdleTimeoutSec    = 300
	DefaultHealthPort        = "8080"
	DefaultMetricsPort       = 9090
	DefaultMetricsPrefix     = "wids_"
	DefaultStdoutFormat      = "json"
	defaultSensorIDFallback  = "wids-sensor"
	maxRecommendedWindowSize = 10000
)

type Options struct {
	LogLevel      string
	LogFormat     string
	Health        Health
	Profile       Profile
	Metrics       MetricsSettings
	Kismet        api.IngestKismet
	Features      api.ExtractFeatures
	Scorer        api.Scorer
	Sink          api.Sink
	Elasticsearch api.WriteElasticsearch
	Kafka         api.WriteKafka
	S3            api.WriteS3
	Stdout        api.WriteStdout
	Sensor        api.Sensor
	Poll          api.Poll
}

type Health struct {
	Address string
	Port    string
}

type Profile struct {
	Port int
}

type MetricsSettings struct {
	Address string `yaml:"address,omitempty" json:"address,omitempty" doc:"address of the Prometheus endpoint"`
	Port    int    `yaml:"port,omitempty" json:"port,omitempty" doc:"port of the Prometheus endpoint; negative disables it"`
	Prefix  string `yaml:"prefix,omitempty" json:"prefix,omitempty" doc:"prefix for names of the operational metrics"`
	NoPanic bool   `yaml:"noPanic,omitempty" json:"noPanic,omitempty"`
}

// Config is the validated configuration, with derived durations, consumed by the pipeline builder.
type Config struct {
	Options
	PollInterval time.Duration
	IdleTimeout  time.Duration
}

// ConfigError reports a configuration value that prevents the process from starting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Reason)
}

func configError(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	opts := Options{
		Kismet:   api.IngestKismet{WindowSec: DefaultKismetWindowSec},
		Poll:     api.Poll{IntervalSec: DefaultPollIntervalSec},
		Features: api.ExtractFeatures{WindowSize: DefaultWindowSize},
		Sink:     api.Sink{MaxRetries: DefaultMaxRetries},
	}
	applyDefaults(&opts)
	return opts
}

// ParseConfig fills defaults for unset string and duration options and validates the result.
// Counts and intervals are taken as given: 0 is rejected where a positive value is required,
// and sink.max-retries=0 disables retries.
// Any returned error is a *ConfigError.
func ParseConfig(opts *Options) (Config, error) {
	cfg := Config{Options: *opts}
	applyDefaults(&cfg.Options)

	if err := validate(&cfg.Options); err != nil {
		logrus.Errorf("configuration is invalid: %v", err)
		return cfg, err
	}
	cfg.PollInterval = time.Duration(cfg.Poll.IntervalSec) * time.Second
	cfg.IdleTimeout = time.Duration(cfg.Features.IdleTimeoutSec) * time.Second
	logrus.Debugf("config = %+v", cfg)
	return cfg, nil
}

func applyDefaults(opts *Options) {
	if opts.Kismet.URL == "" {
		opts.Kismet.URL = DefaultKismetURL
	}
	if opts.Kismet.Timeout.Duration == 0 {
		opts.Kismet.Timeout.Duration = DefaultKismetTimeout
	}
	if opts.Sink.Type == "" {
		opts.Sink.Type = api.SinkTypeName("Elasticsearch")
	}
	if opts.Sink.MinBackoff.Duration == 0 {
		opts.Sink.MinBackoff.Duration = DefaultMinBackoff
	}
	if opts.Sink.MaxBackoff.Duration == 0 {
		opts.Sink.MaxBackoff.Duration = DefaultMaxBackoff
	}
	if opts.Elasticsearch.URL == "" {
		opts.Elasticsearch.URL = DefaultElasticsearchURL
	}
	if opts.Elasticsearch.Index == "" {
		opts.Elasticsearch.Index = DefaultIndex
	}
	if opts.Elasticsearch.Timeout.Duration == 0 {
		opts.Elasticsearch.Timeout.Duration = DefaultElasticTimeout
	}
	if opts.S3.Timeout.Duration == 0 {
		opts.S3.Timeout.Duration = DefaultS3Timeout
	}
	if opts.Kafka.Address == "" {
		opts.Kafka.Address = DefaultKafkaAddress
	}
	if opts.Kafka.Topic == "" {
		opts.Kafka.Topic = DefaultIndex
	}
	if opts.Stdout.Format == "" {
		opts.Stdout.Format = DefaultStdoutFormat
	}
	if opts.Sensor.ID == "" {
		opts.Sensor.ID = DefaultSensorID()
	}
	if opts.Sensor.Site == "" {
		opts.Sensor.Site = DefaultSensorSite
	}
	if opts.Features.IdleTimeoutSec == 0 {
		opts.Features.IdleTimeoutSec = DefaultIdleTimeoutSec
	}
	if opts.Health.Port == "" {
		opts.Health.Port = DefaultHealthPort
	}
	if opts.Metrics.Port == 0 {
		opts.Metrics.Port = DefaultMetricsPort
	}
}

func validate(opts *Options) error {
	if err := validateURL("kismet.url", opts.Kismet.URL); err != nil {
		return err
	}
	if opts.Kismet.WindowSec <= 0 {
		return configError("kismet.window-sec", "must be positive, got %d", opts.Kismet.WindowSec)
	}
	if opts.Kismet.Timeout.Duration < 0 {
		return configError("kismet.timeout", "must be positive, got %s", opts.Kismet.Timeout)
	}
	if opts.Poll.IntervalSec <= 0 {
		return configError("poll.interval-sec", "must be positive, got %d", opts.Poll.IntervalSec)
	}
	if opts.Features.WindowSize <= 0 {
		return configError("features.window-size", "must be positive, got %d", opts.Features.WindowSize)
	}
	if opts.Features.WindowSize > maxRecommendedWindowSize {
		logrus.Warnf("features.window-size %d is unusually large", opts.Features.WindowSize)
	}
	if opts.Features.IdleTimeoutSec < 0 {
		return configError("features.idle-timeout-sec", "must be positive, got %d", opts.Features.IdleTimeoutSec)
	}
	if opts.Scorer.Threshold < 0 {
		return configError("scorer.threshold", "must not be negative, got %v", opts.Scorer.Threshold)
	}
	if opts.Sink.MaxRetries < 0 {
		return configError("sink.max-retries", "must not be negative, got %d", opts.Sink.MaxRetries)
	}
	if opts.Sink.MinBackoff.Duration > opts.Sink.MaxBackoff.Duration {
		return configError("sink.min-backoff", "%s is greater than sink.max-backoff %s", opts.Sink.MinBackoff, opts.Sink.MaxBackoff)
	}
	switch opts.Sink.Type {
	case api.SinkTypeName("Elasticsearch"):
		if err := validateURL("es.url", opts.Elasticsearch.URL); err != nil {
			return err
		}
	case api.SinkTypeName("Kafka"):
		if opts.Kafka.Address == "" || opts.Kafka.Topic == "" {
			return configError("kafka", "address and topic are required")
		}
	case api.SinkTypeName("S3"):
		if opts.S3.Endpoint == "" {
			return configError("s3.endpoint", "required when sink.type is s3")
		}
		if opts.S3.Bucket == "" {
			return configError("s3.bucket", "required when sink.type is s3")
		}
		if opts.S3.Timeout.Duration < 0 {
			return configError("s3.timeout", "must be positive, got %s", opts.S3.Timeout)
		}
	case api.SinkTypeName("Stdout"):
		if opts.Stdout.Format != "json" && opts.Stdout.Format != "printf" {
			return configError("stdout.format", "unknown format %q", opts.Stdout.Format)
		}
	default:
		return configError("sink.type", "unknown sink %q, expected one of %s", opts.Sink.Type, strings.Join(api.EnumValues(api.SinkTypeEnum{}), ", "))
	}
	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return configError(field, "%v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return configError(field, "scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return configError(field, "missing host in %q", raw)
	}
	return nil
}

// DefaultSensorID returns the host name, like the sensor identifier used by the capture host.
func DefaultSensorID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return defaultSensorIDFallback
	}
	return host
}

// JsonUnmarshalStrict is like Unmarshal except that any fields that are found
// in the data that do not have corresponding struct members, or mapping
// keys that are duplicates, will result in
// an error.
func JsonUnmarshalStrict(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
