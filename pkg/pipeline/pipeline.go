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
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/netobserv/wids-feature-pipeline/pkg/model"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/encode"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/extract/features"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/ingest"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/score"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/write"
	log "github.com/sirupsen/logrus"
)

// names of the pipeline stages
const (
	StageIngest  = "ingest"
	StageExtract = "extract"
	StageScore   = "score"
	StageEncode  = "encode"
	StageWrite   = "write"
)

// readyIntervals is the number of poll intervals after which the last successful fetch is considered stale.
const readyIntervals = 3

// stuckIntervals is the number of poll intervals after which a running cycle is considered stuck.
const stuckIntervals = 20

type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// CycleReport summarizes one poll cycle.
type CycleReport struct {
	CycleTime time.Time
	Fetched   int
	Computed  int
	Skipped   int
	Scored    int
	Anomalous int
	Indexed   int
	Rejected  int
	Dropped   int
	Duration  time.Duration
	// Stage and Err are set when the cycle stopped early or lost documents.
	Stage string
	Err   error
}

// Pipeline manager. It runs the stages one cycle at a time: fetch, compute, score, build and ingest.
type Pipeline struct {
	ingester ingest.Ingester
	computer *features.Computer
	store    *features.HistoryStore
	scorer   score.Scorer
	sink     write.Sink
	sensor   model.SensorMeta
	interval time.Duration
	clock    clock.Clock
	metrics  *metrics

	state        atomic.Int32
	cycleStarted atomic.Int64
	lastSuccess  atomic.Pointer[time.Time]
	looping      atomic.Bool
	stopped      atomic.Bool
	closeOnce    sync.Once
}

func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Run executes a first cycle immediately, then one cycle per tick until ctx is done.
// Cancellation is only observed between cycles. Ticks that fire while a cycle is
// running are dropped.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.stopped.Load() {
		return fmt.Errorf("pipeline was stopped")
	}
	if !p.looping.CompareAndSwap(false, true) {
		return fmt.Errorf("pipeline is already running")
	}
	defer func() {
		p.looping.Store(false)
		p.stopped.Store(true)
	}()
	log.Infof("starting poll loop, interval = %s", p.interval)
	ticker := p.clock.Ticker(p.interval)
	defer ticker.Stop()
	for {
		if ctx.Err() != nil {
			log.Info("poll loop stopped")
			return nil
		}
		p.RunCycle(ctx)

		// drop the ticks missed while running
		select {
		case <-ticker.C:
			p.metrics.skippedTicks.Inc()
			log.Warnf("cycle overran the poll interval %s, skipping tick", p.interval)
		default:
		}

		select {
		case <-ctx.Done():
			log.Info("poll loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunCycle runs one complete cycle. Stage failures are logged and reported, never returned.
// Network calls are not interrupted when ctx is canceled; they are bounded by their own timeouts.
func (p *Pipeline) RunCycle(ctx context.Context) (report CycleReport) {
	start := p.clock.Now()
	p.cycleStarted.Store(start.UnixNano())
	p.setState(Running)
	defer p.setState(Idle)
	stage := StageIngest
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("recovered from panic in stage %s: %v\n%s", stage, r, debug.Stack())
			report.Stage = stage
			report.Err = fmt.Errorf("panic in stage %s: %v", stage, r)
			p.metrics.cycles.WithLabelValues("panic").Inc()
		}
		report.Duration = p.clock.Since(start)
		p.metrics.cycleDuration.Observe(report.Duration.Seconds())
	}()
	cctx := context.WithoutCancel(ctx)

	snapshot, err := p.ingester.Fetch(cctx)
	if err != nil {
		log.WithError(err).Error("fetch failed, skipping cycle")
		p.metrics.cycles.WithLabelValues("fetch_error").Inc()
		report.Stage, report.Err = StageIngest, err
		return report
	}
	now := p.clock.Now()
	p.lastSuccess.Store(&now)
	p.metrics.lastSuccess.Set(float64(now.Unix()))
	report.CycleTime = snapshot.CycleTime
	report.Fetched = len(snapshot.Records)

	stage = StageExtract
	vectors, computeErrs := p.computer.Compute(snapshot, p.store)
	report.Computed, report.Skipped = len(vectors), len(computeErrs)

	stage = StageScore
	docs := make([]model.IngestDocument, 0, len(vectors))
	for i := range vectors {
		res := p.score(&vectors[i])
		if res != nil {
			report.Scored++
			if res.Anomalous {
				report.Anomalous++
			}
		}
		stage = StageEncode
		docs = append(docs, encode.Build(&vectors[i], res, p.sensor, snapshot.CycleTime))
		stage = StageScore
	}

	stage = StageWrite
	if len(docs) > 0 {
		res := p.sink.Ingest(cctx, docs)
		report.Indexed, report.Rejected = res.Indexed, len(res.Rejected)
		if res.Failed != nil {
			report.Dropped = res.Failed.Count
			report.Stage, report.Err = StageWrite, res.Err()
			log.WithError(report.Err).Error("ingestion failed, documents of this cycle are dropped")
			p.metrics.cycles.WithLabelValues("ingest_error").Inc()
		}
	}
	if report.Err == nil {
		p.metrics.cycles.WithLabelValues("success").Inc()
	}
	log.WithFields(log.Fields{
		"cycle":     report.CycleTime.Format(time.RFC3339Nano),
		"fetched":   report.Fetched,
		"computed":  report.Computed,
		"skipped":   report.Skipped,
		"scored":    report.Scored,
		"anomalous": report.Anomalous,
		"indexed":   report.Indexed,
		"rejected":  report.Rejected,
		"dropped":   report.Dropped,
		"duration":  p.clock.Since(start),
	}).Info("cycle complete")
	return report
}

func (p *Pipeline) score(fv *model.FeatureVector) *model.ScoreResult {
	if !p.scorer.Available() {
		return nil
	}
	res, err := p.scorer.Score(fv)
	if err != nil {
		if !errors.Is(err, score.ErrUnavailable) {
			log.WithError(err).Warn("scoring failed, document sent without score")
		}
		return nil
	}
	return &res
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
	p.metrics.state.Set(float64(s))
}

// IsAlive fails when the loop has stopped or a cycle has been running for too long.
func (p *Pipeline) IsAlive() error {
	if p.stopped.Load() {
		return fmt.Errorf("poll loop stopped")
	}
	if p.State() == Running {
		running := p.clock.Since(time.Unix(0, p.cycleStarted.Load()))
		if running > stuckIntervals*p.interval {
			return fmt.Errorf("cycle running for %s", running)
		}
	}
	return nil
}

// IsReady fails until a fetch succeeded during the last few poll intervals.
func (p *Pipeline) IsReady() error {
	last := p.lastSuccess.Load()
	if last == nil {
		return fmt.Errorf("no successful fetch yet")
	}
	if since := p.clock.Since(*last); since > readyIntervals*p.interval {
		return fmt.Errorf("last successful fetch %s ago", since.Truncate(time.Second))
	}
	return nil
}

// History exposes the device history store, for inspection.
func (p *Pipeline) History() *features.HistoryStore {
	return p.store
}

// Close releases the sink and the anomaly model.
func (p *Pipeline) Close() error {
	var errs []error
	p.closeOnce.Do(func() {
		if err := p.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing sink: %w", err))
		}
		if err := p.scorer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing scorer: %w", err))
		}
	})
	return errors.Join(errs...)
}
