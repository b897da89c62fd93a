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
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	jsoniter "github.com/json-iterator/go"
	"github.com/netobserv/wids-feature-pipeline/pkg/api"
	"github.com/netobserv/wids-feature-pipeline/pkg/model"
	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/encode"
	"github.com/sirupsen/logrus"
)

var eslog = logrus.WithField("component", "write.Elasticsearch")

const defaultElasticTimeout = 10 * time.Second

type bulkResponse struct {
	Errors bool                         `json:"errors"`
	Items  []map[string]bulkItemOutcome `json:"items"`
}

type bulkItemOutcome struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error,omitempty"`
}

// Elasticsearch upserts the documents of a cycle with a single bulk request.
type Elasticsearch struct {
	params  api.WriteElasticsearch
	client  *elasticsearch.Client
	retry   retryPolicy
	metrics *metrics
}

func NewElasticsearch(opMetrics *operational.Metrics, params api.WriteElasticsearch, sinkParams api.Sink) (*Elasticsearch, error) {
	eslog.Debugf("entering NewElasticsearch")
	if params.URL == "" {
		return nil, fmt.Errorf("elasticsearch url not specified")
	}
	if params.Index == "" {
		return nil, fmt.Errorf("elasticsearch index not specified")
	}
	if params.Timeout.Duration <= 0 {
		params.Timeout.Duration = defaultElasticTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if params.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{params.URL},
		Username:     params.Username,
		Password:     params.Password,
		Transport:    transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create elasticsearch client: %w", err)
	}
	eslog.Infof("writing to %s, index %s", params.URL, params.Index)
	return &Elasticsearch{
		params:  params,
		client:  client,
		retry:   newRetryPolicy(sinkParams),
		metrics: newMetrics(opMetrics, "elasticsearch"),
	}, nil
}

func (e *Elasticsearch) Ingest(ctx context.Context, docs []model.IngestDocument) IngestResult {
	res := IngestResult{Attempted: len(docs)}
	if len(docs) == 0 {
		return res
	}
	timer := e.metrics.timer()
	defer timer.ObserveSeconds()
	defer e.metrics.observe(&res)

	body, ids, rejected := e.bulkBody(docs)
	res.Rejected = rejected
	if len(ids) == 0 {
		return res
	}

	var outcome *bulkResponse
	attempts, err := e.retry.do(ctx, eslog, func() error {
		var err error
		outcome, err = e.bulk(ctx, body)
		return err
	})
	res.Attempts = attempts
	if err != nil {
		eslog.WithError(err).Errorf("dropping %d documents", len(ids))
		res = failed(res, len(ids), err)
		return res
	}

	for i, item := range outcome.Items {
		for _, o := range item {
			if o.Status >= 200 && o.Status < 300 {
				res.Indexed++
				continue
			}
			id := o.ID
			if id == "" && i < len(ids) {
				id = ids[i]
			}
			reason := fmt.Sprintf("status %d", o.Status)
			if o.Error != nil {
				reason = o.Error.Type + ": " + o.Error.Reason
			}
			eslog.WithField("id", id).Warnf("document rejected: %s", reason)
			res.Rejected = append(res.Rejected, Rejection{ID: id, Status: o.Status, Reason: reason})
		}
	}
	eslog.Debugf("bulk request done: %d indexed, %d rejected, %d attempts", res.Indexed, len(res.Rejected), res.Attempts)
	return res
}

// bulkBody builds the NDJSON payload. Documents that cannot be encoded are rejected.
func (e *Elasticsearch) bulkBody(docs []model.IngestDocument) ([]byte, []string, []Rejection) {
	var buf bytes.Buffer
	var rejected []Rejection
	ids := make([]string, 0, len(docs))
	for i := range docs {
		source, err := encode.Marshal(&docs[i])
		if err != nil {
			rejected = append(rejected, Rejection{ID: docs[i].ID, Reason: err.Error()})
			continue
		}
		action, _ := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(map[string]map[string]string{
			"index": {"_index": e.params.Index, "_id": docs[i].ID},
		})
		buf.Write(action)
		buf.WriteByte('\n')
		buf.Write(source)
		buf.WriteByte('\n')
		ids = append(ids, docs[i].ID)
	}
	return buf.Bytes(), ids, rejected
}

func (e *Elasticsearch) bulk(ctx context.Context, body []byte) (*bulkResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, e.params.Timeout.Duration)
	defer cancel()
	opts := []func(*esapi.BulkRequest){
		e.client.Bulk.WithContext(ctx),
		e.client.Bulk.WithIndex(e.params.Index),
	}
	if e.params.Pipeline != "" {
		opts = append(opts, e.client.Bulk.WithPipeline(e.params.Pipeline))
	}
	resp, err := e.client.Bulk(bytes.NewReader(body), opts...)
	if err != nil {
		return nil, transient("bulk request: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transient("reading bulk response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, transient("bulk request: HTTP %d: %s", resp.StatusCode, truncate(payload))
	}
	if resp.IsError() {
		return nil, fmt.Errorf("bulk request: HTTP %d: %s", resp.StatusCode, truncate(payload))
	}
	var out bulkResponse
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("cannot decode bulk response: %w", err)
	}
	return &out, nil
}

func (e *Elasticsearch) Close() error {
	return nil
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 256 {
		return s[:256] + "..."
	}
	return s
}
