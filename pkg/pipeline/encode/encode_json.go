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

package encode

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
	"github.com/netobserv/wids-feature-pipeline/pkg/model"
)

// map keys are sorted, so a document always encodes to the same bytes
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Marshal encodes the stored source of a document.
func Marshal(doc *model.IngestDocument) ([]byte, error) {
	return json.Marshal(doc)
}

// NDJSON encodes the documents as newline-delimited JSON.
func NDJSON(docs []model.IngestDocument) ([]byte, error) {
	var buf bytes.Buffer
	for i := range docs {
		line, err := Marshal(&docs[i])
		if err != nil {
			return nil, err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
