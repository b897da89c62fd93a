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

package main

import (
	"fmt"

	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline"
)

func main() {
	fmt.Print(document())
}

// document renders the reference of every operational metric defined by the pipeline stages.
func document() string {
	// the pipeline package pulls in every stage, whose package variables define the metrics
	var _ *pipeline.Pipeline

	header := `
> Note: this file was automatically generated, to update execute "go run ./cmd/operationalmetricstodoc > docs/operational-metrics.md"

# wids-feature-pipeline Operational Metrics

Each table below provides documentation for an exported wids-feature-pipeline operational metric.
Names are shown without the configurable prefix (` + "`wids_`" + ` by default).
`
	return fmt.Sprintf("%s\n%s\n", header, operational.GetDocumentation())
}
