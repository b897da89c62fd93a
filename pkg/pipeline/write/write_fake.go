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
	"sync"

	"github.com/netobserv/wids-feature-pipeline/pkg/model"
	log "github.com/sirupsen/logrus"
)

// WriteFake stores documents in memory, by id, and records every batch.
type WriteFake struct {
	mu      sync.Mutex
	Docs    map[string]model.IngestDocument
	Batches [][]model.IngestDocument
	// Result, when set, is returned instead of a successful result and nothing is stored.
	Result func(docs []model.IngestDocument) IngestResult
	wait   chan struct{}
	closed bool
}

// Ingest stores in memory all documents.
func (w *WriteFake) Ingest(_ context.Context, docs []model.IngestDocument) IngestResult {
	log.Debugf("entering writeFake Ingest")
	log.Debugf("writeFake: number of entries = %d", len(docs))
	w.mu.Lock()
	defer w.mu.Unlock()
	defer func() {
		close(w.wait)
		w.wait = make(chan struct{})
	}()
	w.Batches = append(w.Batches, append([]model.IngestDocument(nil), docs...))
	if w.Result != nil {
		return w.Result(docs)
	}
	for _, d := range docs {
		w.Docs[d.ID] = d
	}
	return IngestResult{Attempted: len(docs), Indexed: len(docs), Attempts: 1}
}

// Wait returns a channel closed after the next Ingest call.
func (w *WriteFake) Wait() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wait
}

func (w *WriteFake) Snapshot() (map[string]model.IngestDocument, [][]model.IngestDocument) {
	w.mu.Lock()
	defer w.mu.Unlock()
	docs := make(map[string]model.IngestDocument, len(w.Docs))
	for k, v := range w.Docs {
		docs[k] = v
	}
	return docs, append([][]model.IngestDocument(nil), w.Batches...)
}

func (w *WriteFake) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *WriteFake) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// NewWriteFake creates a new write.
func NewWriteFake() *WriteFake {
	log.Debugf("entering NewWriteFake")
	return &WriteFake{
		Docs: map[string]model.IngestDocument{},
		wait: make(chan struct{}),
	}
}
