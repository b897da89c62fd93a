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

package test

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
)

var esJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// FakeElasticsearch is a fake analytics store implementing the _bulk endpoint with
// create-or-overwrite semantics keyed by document id.
type FakeElasticsearch struct {
	mu        sync.Mutex
	docs      map[string]map[string]map[string]interface{}
	statuses  []int
	rejectIDs map[string]string
	bulkCalls int
	pipelines []string
	auth      []string
}

func NewFakeElasticsearch() *FakeElasticsearch {
	return &FakeElasticsearch{
		docs:      map[string]map[string]map[string]interface{}{},
		rejectIDs: map[string]string{},
	}
}

// FailNext makes the next bulk requests answer with the given HTTP statuses, in order.
func (f *FakeElasticsearch) FailNext(statuses ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, statuses...)
}

// Reject makes every item with this id fail with a mapping error.
func (f *FakeElasticsearch) Reject(id, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectIDs[id] = reason
}

func (f *FakeElasticsearch) BulkCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bulkCalls
}

func (f *FakeElasticsearch) Pipelines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pipelines...)
}

// Authorizations returns the Authorization headers received, in order.
func (f *FakeElasticsearch) Authorizations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth...)
}

// Docs returns a copy of the documents stored in the index, by id.
func (f *FakeElasticsearch) Docs(index string) map[string]map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]map[string]interface{}, len(f.docs[index]))
	for id, doc := range f.docs[index] {
		out[id] = doc
	}
	return out
}

func (f *FakeElasticsearch) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	hlog := log.WithField("component", "FakeElasticsearch")
	rw.Header().Set("X-Elastic-Product", "Elasticsearch")
	rw.Header().Set("Content-Type", "application/json")
	hlog.WithFields(log.Fields{"method": req.Method, "url": req.URL}).Debug("new request")

	if req.URL.Path == "/" {
		_, _ = rw.Write([]byte(`{"version":{"number":"8.17.0","build_flavor":"default"},"tagline":"You Know, for Search"}`))
		return
	}
	if !strings.HasSuffix(req.URL.Path, "/_bulk") {
		rw.WriteHeader(http.StatusNotFound)
		return
	}
	defaultIndex := strings.Trim(strings.TrimSuffix(req.URL.Path, "/_bulk"), "/")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkCalls++
	f.auth = append(f.auth, req.Header.Get("Authorization"))
	if p := req.URL.Query().Get("pipeline"); p != "" {
		f.pipelines = append(f.pipelines, p)
	}
	if len(f.statuses) > 0 {
		status := f.statuses[0]
		f.statuses = f.statuses[1:]
		rw.WriteHeader(status)
		_, _ = fmt.Fprintf(rw, `{"error":{"type":"injected","reason":"status %d"},"status":%d}`, status, status)
		return
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		hlog.WithError(err).Error("can't read request body")
		rw.WriteHeader(http.StatusBadRequest)
		return
	}
	items, hasErrors, err := f.bulk(defaultIndex, body)
	if err != nil {
		hlog.WithError(err).Error("invalid bulk body")
		rw.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprintf(rw, `{"error":{"type":"parse_exception","reason":%q},"status":400}`, err.Error())
		return
	}
	_ = esJSON.NewEncoder(rw).Encode(map[string]interface{}{
		"took":   1,
		"errors": hasErrors,
		"items":  items,
	})
}

func (f *FakeElasticsearch) bulk(defaultIndex string, body []byte) ([]interface{}, bool, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var items []interface{}
	hasErrors := false
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var action map[string]map[string]interface{}
		if err := esJSON.Unmarshal(line, &action); err != nil {
			return nil, false, fmt.Errorf("action line: %w", err)
		}
		meta, ok := action["index"]
		if !ok {
			return nil, false, fmt.Errorf("unsupported action %v", action)
		}
		if !scanner.Scan() {
			return nil, false, fmt.Errorf("missing source line")
		}
		var doc map[string]interface{}
		if err := esJSON.Unmarshal(scanner.Bytes(), &doc); err != nil {
			return nil, false, fmt.Errorf("source line: %w", err)
		}
		index, _ := meta["_index"].(string)
		if index == "" {
			index = defaultIndex
		}
		id, _ := meta["_id"].(string)
		if reason, rejected := f.rejectIDs[id]; rejected {
			hasErrors = true
			items = append(items, map[string]interface{}{"index": map[string]interface{}{
				"_index": index, "_id": id, "status": http.StatusBadRequest,
				"error": map[string]interface{}{"type": "mapper_parsing_exception", "reason": reason},
			}})
			continue
		}
		if f.docs[index] == nil {
			f.docs[index] = map[string]map[string]interface{}{}
		}
		result, status := "created", http.StatusCreated
		if _, exists := f.docs[index][id]; exists {
			result, status = "updated", http.StatusOK
		}
		f.docs[index][id] = doc
		items = append(items, map[string]interface{}{"index": map[string]interface{}{
			"_index": index, "_id": id, "status": status, "result": result,
		}})
	}
	return items, hasErrors, scanner.Err()
}
