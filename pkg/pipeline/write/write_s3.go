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
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/golang/snappy"
	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/netobserv/wids-feature-pipeline/pkg/api"
	"github.com/netobserv/wids-feature-pipeline/pkg/model"
	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/encode"
	"github.com/sirupsen/logrus"
)

var s3log = logrus.WithField("component", "write.S3")

const (
	s3BucketCheckTimeout = 10 * time.Second
	defaultS3PutTimeout  = 10 * time.Second
)

type s3PutObject interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3 archives each cycle as one NDJSON object. The object name only depends on
// the sensor and the cycle, so a retried cycle overwrites its object.
type S3 struct {
	s3Params api.WriteS3
	s3Client s3PutObject
	retry    retryPolicy
	metrics  *metrics
}

type objectKey struct {
	sensor string
	cycle  time.Time
}

// ObjectName returns the name of the object holding the documents of a cycle.
func (s *S3) ObjectName(sensorID string, cycle time.Time) string {
	cycle = cycle.UTC()
	name := fmt.Sprintf("%s/year=%04d/month=%02d/day=%02d/hour=%02d/sensor=%s/%s.ndjson",
		s.s3Params.Account, cycle.Year(), cycle.Month(), cycle.Day(), cycle.Hour(), sensorID,
		cycle.Format("20060102T150405.000Z"))
	if s.s3Params.Compress {
		name += ".snappy"
	}
	return name
}

func (s *S3) Ingest(ctx context.Context, docs []model.IngestDocument) IngestResult {
	s3log.Debugf("entering S3 Ingest, #items = %d", len(docs))
	res := IngestResult{Attempted: len(docs)}
	if len(docs) == 0 {
		return res
	}
	timer := s.metrics.timer()
	defer timer.ObserveSeconds()
	defer s.metrics.observe(&res)

	groups := map[objectKey][]model.IngestDocument{}
	var keys []objectKey
	for i := range docs {
		k := objectKey{sensor: docs[i].SensorID, cycle: docs[i].CycleTime.UTC()}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], docs[i])
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].cycle.Before(keys[j].cycle) })

	var failures []error
	dropped := 0
	for _, k := range keys {
		group := groups[k]
		payload, err := encode.NDJSON(group)
		if err != nil {
			for i := range group {
				res.Rejected = append(res.Rejected, Rejection{ID: group[i].ID, Reason: err.Error()})
			}
			continue
		}
		contentEncoding := ""
		if s.s3Params.Compress {
			payload = snappy.Encode(nil, payload)
			contentEncoding = "snappy"
		}
		name := s.ObjectName(k.sensor, k.cycle)
		attempts, err := s.retry.do(ctx, s3log, func() error {
			return s.put(ctx, name, payload, contentEncoding)
		})
		res.Attempts += attempts
		if err != nil {
			s3log.WithError(err).Errorf("dropping %d documents of object %s", len(group), name)
			failures = append(failures, err)
			dropped += len(group)
			continue
		}
		s3log.Debugf("S3 object %s written with %d documents", name, len(group))
		res.Indexed += len(group)
	}
	if dropped > 0 {
		res = failed(res, dropped, failures[0])
		return res
	}
	return res
}

func (s *S3) put(ctx context.Context, name string, payload []byte, contentEncoding string) error {
	ctx, cancel := context.WithTimeout(ctx, s.s3Params.Timeout.Duration)
	defer cancel()
	_, err := s.s3Client.PutObject(ctx, s.s3Params.Bucket, name, bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/x-ndjson", ContentEncoding: contentEncoding})
	if err == nil {
		return nil
	}
	status := minio.ToErrorResponse(err).StatusCode
	if status == 0 || status == http.StatusTooManyRequests || status >= 500 {
		return transient("put object %s: %w", name, err)
	}
	return fmt.Errorf("put object %s: %w", name, err)
}

func (s *S3) Close() error {
	return nil
}

// NewS3 create a new writer to S3
func NewS3(opMetrics *operational.Metrics, params api.WriteS3, sinkParams api.Sink) (*S3, error) {
	s3log.Debugf("NewS3, endpoint = %s, bucket = %s", params.Endpoint, params.Bucket)
	s3Client, err := connectS3(params)
	if err != nil {
		return nil, err
	}
	return newS3(opMetrics, params, sinkParams, s3Client), nil
}

func newS3(opMetrics *operational.Metrics, params api.WriteS3, sinkParams api.Sink, client s3PutObject) *S3 {
	if params.Timeout.Duration <= 0 {
		params.Timeout.Duration = defaultS3PutTimeout
	}
	return &S3{
		s3Params: params,
		s3Client: client,
		retry:    newRetryPolicy(sinkParams),
		metrics:  newMetrics(opMetrics, "s3"),
	}
}

func connectS3(config api.WriteS3) (*minio.Client, error) {
	// Initialize s3 client object.
	s3Client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create S3 client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s3BucketCheckTimeout)
	defer cancel()
	found, err := s3Client.BucketExists(ctx, config.Bucket)
	switch {
	case err != nil:
		// the server may be down at startup; writes are retried every cycle
		s3log.WithError(err).Warnf("cannot access S3 bucket %s", config.Bucket)
	case !found:
		s3log.Warnf("S3 bucket %s not found", config.Bucket)
	default:
		s3log.Infof("Bucket %s found", config.Bucket)
	}
	return s3Client, nil
}
