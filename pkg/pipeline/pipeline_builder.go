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

package pipeline

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/netobserv/wids-feature-pipeline/pkg/api"
	"github.com/netobserv/wids-feature-pipeline/pkg/config"
	"github.com/netobserv/wids-feature-pipeline/pkg/model"
	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/extract/features"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/ingest"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/score"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/write"
	log "github.com/sirupsen/logrus"
)

// NewPipeline wires the stages from the validated configuration.
// A missing or invalid anomaly model does not prevent the pipeline from starting.
func NewPipeline(cfg *config.Config, opMetrics *operational.Metrics) (*Pipeline, error) {
	log.Debugf("entering NewPipeline")
	clk := clock.New()
	fetcher, err := ingest.NewKismetFetcher(opMetrics, cfg.Kismet, clk)
	if err != nil {
		return nil, err
	}
	sink, err := getSink(cfg, opMetrics)
	if err != nil {
		return nil, err
	}
	scorer := score.Load(opMetrics, cfg.Scorer)
	return newPipeline(cfg, opMetrics, fetcher, scorer, sink, clk), nil
}

func newPipeline(cfg *config.Config, opMetrics *operational.Metrics, ingester ingest.Ingester, scorer score.Scorer, sink write.Sink, clk clock.Clock) *Pipeline {
	sensor := model.SensorMeta{ID: cfg.Sensor.ID, Site: cfg.Sensor.Site}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Duration(config.DefaultPollIntervalSec) * time.Second
	}
	p := &Pipeline{
		ingester: ingester,
		computer: features.NewComputer(opMetrics, sensor),
		store:    features.NewHistoryStore(cfg.Features.WindowSize, cfg.IdleTimeout, clk),
		scorer:   scorer,
		sink:     sink,
		sensor:   sensor,
		interval: interval,
		clock:    clk,
		metrics:  newMetrics(opMetrics),
	}
	log.WithFields(log.Fields{
		"sensor":   sensor.ID,
		"site":     sensor.Site,
		"sink":     cfg.Sink.Type,
		"scoring":  scorer.Available(),
		"interval": interval,
	}).Info("pipeline created")
	return p
}

func getSink(cfg *config.Config, opMetrics *operational.Metrics) (write.Sink, error) {
	switch cfg.Sink.Type {
	case api.SinkTypeName("Elasticsearch"):
		return write.NewElasticsearch(opMetrics, cfg.Elasticsearch, cfg.Sink)
	case api.SinkTypeName("Kafka"):
		return write.NewKafka(opMetrics, cfg.Kafka, cfg.Sink)
	case api.SinkTypeName("S3"):
		return write.NewS3(opMetrics, cfg.S3, cfg.Sink)
	case api.SinkTypeName("Stdout"):
		return write.NewWriteStdout(cfg.Stdout.Format), nil
	}
	return nil, fmt.Errorf("unknown sink type %q", cfg.Sink.Type)
}
