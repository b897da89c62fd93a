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
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/netobserv/wids-feature-pipeline/pkg/model"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/encode"
	log "github.com/sirupsen/logrus"
)

type writeStdout struct {
	format string
	mu     sync.Mutex
	out    io.Writer
}

// Ingest prints the documents, one per line. It never fails.
func (t *writeStdout) Ingest(_ context.Context, docs []model.IngestDocument) IngestResult {
	log.Debugf("entering writeStdout Ingest")
	log.Debugf("writeStdout: number of entries = %d", len(docs))
	t.mu.Lock()
	defer t.mu.Unlock()
	res := IngestResult{Attempted: len(docs), Attempts: 1}
	for i := range docs {
		if t.format == "json" {
			txt, err := encode.Marshal(&docs[i])
			if err != nil {
				res.Rejected = append(res.Rejected, Rejection{ID: docs[i].ID, Reason: err.Error()})
				continue
			}
			fmt.Fprintln(t.out, string(txt))
		} else {
			fmt.Fprintf(t.out, "%s: %s %+v\n", docs[i].Timestamp, docs[i].ID, docs[i])
		}
		res.Indexed++
	}
	return res
}

func (t *writeStdout) Close() error {
	return nil
}

// NewWriteStdout create a new write
func NewWriteStdout(format string) Sink {
	log.Debugf("entering NewWriteStdout")
	if format == "" {
		format = "json"
	}
	return &writeStdout{format: format, out: os.Stdout}
}
