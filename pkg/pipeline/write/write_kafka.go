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

package write

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/netobserv/wids-feature-pipeline/pkg/api"
	"github.com/netobserv/wids-feature-pipeline/pkg/model"
	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/encode"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

var klog = logrus.WithField("component", "write.Kafka")

const (
	defaultWriteTimeoutSeconds = int64(10)
)

type kafkaWriteMessage interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Kafka publishes documents keyed by their id, so a compacted topic keeps one copy per id.
type Kafka struct {
	kafkaParams api.WriteKafka
	kafkaWriter kafkaWriteMessage
	retry       retryPolicy
	metrics     *metrics
}

// Ingest writes the documents of a cycle to the kafka topic
func (r *Kafka) Ingest(ctx context.Context, docs []model.IngestDocument) IngestResult {
	klog.Debugf("entering Kafka Ingest, #items = %d", len(docs))
	res := IngestResult{Attempted: len(docs)}
	if len(docs) == 0 {
		return res
	}
	timer := r.metrics.timer()
	defer timer.ObserveSeconds()
	defer r.metrics.observe(&res)

	msgs := make([]kafkago.Message, 0, len(docs))
	for i := range docs {
		value, err := encode.Marshal(&docs[i])
		if err != nil {
			res.Rejected = append(res.Rejected, Rejection{ID: docs[i].ID, Reason: err.Error()})
			continue
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(docs[i].ID),
			Value: value,
			Time:  docs[i].CycleTime,
			Headers: []kafkago.Header{
				{Key: "sensor.id", Value: []byte(docs[i].SensorID)},
			},
		})
	}
	if len(msgs) == 0 {
		return res
	}

	var writeErrs kafkago.WriteErrors
	attempts, err := r.retry.do(ctx, klog, func() error {
		err := r.kafkaWriter.WriteMessages(ctx, msgs...)
		if err == nil {
			return nil
		}
		if errors.As(err, &writeErrs) {
			// per message outcome; failed messages are dropped, not retried
			return nil
		}
		return transient("kafka write: %w", err)
	})
	res.Attempts = attempts
	if err != nil {
		klog.WithError(err).Errorf("dropping %d documents", len(msgs))
		res = failed(res, len(msgs), err)
		return res
	}
	for i, msg := range msgs {
		if i < len(writeErrs) && writeErrs[i] != nil {
			klog.WithField("id", string(msg.Key)).WithError(writeErrs[i]).Warn("document rejected")
			res.Rejected = append(res.Rejected, Rejection{ID: string(msg.Key), Reason: writeErrs[i].Error()})
			continue
		}
		res.Indexed++
	}
	return res
}

func (r *Kafka) Close() error {
	return r.kafkaWriter.Close()
}

// NewKafka create a new writer to kafka
func NewKafka(opMetrics *operational.Metrics, params api.WriteKafka, sinkParams api.Sink) (*Kafka, error) {
	klog.Debugf("entering NewKafka")
	if params.Address == "" || params.Topic == "" {
		return nil, fmt.Errorf("kafka address and topic must be specified")
	}
	writeTimeoutSecs := defaultWriteTimeoutSeconds
	if params.WriteTimeout != 0 {
		writeTimeoutSecs = params.WriteTimeout
	}

	// connect to the kafka server
	kafkaWriter := kafkago.Writer{
		Addr:         kafkago.TCP(params.Address),
		Topic:        params.Topic,
		Balancer:     &kafkago.Hash{},
		WriteTimeout: time.Duration(writeTimeoutSecs) * time.Second,
		BatchBytes:   params.BatchBytes,
		RequiredAcks: kafkago.RequireAll,
		MaxAttempts:  1,
	}
	klog.Infof("writing to kafka %s, topic %s", params.Address, params.Topic)
	return newKafka(opMetrics, params, sinkParams, &kafkaWriter), nil
}

func newKafka(opMetrics *operational.Metrics, params api.WriteKafka, sinkParams api.Sink, w kafkaWriteMessage) *Kafka {
	return &Kafka{
		kafkaParams: params,
		kafkaWriter: w,
		retry:       newRetryPolicy(sinkParams),
		metrics:     newMetrics(opMetrics, "kafka"),
	}
}
