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

package operational

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/netobserv/wids-feature-pipeline/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

type MetricType string

const (
	TypeCounter   MetricType = "counter"
	TypeGauge     MetricType = "gauge"
	TypeHistogram MetricType = "histogram"
)

type MetricDefinition struct {
	Name   string
	Help   string
	Type   MetricType
	Labels []string
}

var (
	allMetrics []MetricDefinition
	defMutex   sync.Mutex
)

// DefineMetric declares an operational metric. Definitions are collected for documentation
// purposes, and are turned into prometheus collectors with a Metrics instance.
func DefineMetric(name, help string, t MetricType, labels ...string) MetricDefinition {
	def := MetricDefinition{
		Name:   name,
		Help:   help,
		Type:   t,
		Labels: labels,
	}
	defMutex.Lock()
	allMetrics = append(allMetrics, def)
	defMutex.Unlock()
	return def
}

type Metrics struct {
	settings *config.MetricsSettings
}

func NewMetrics(settings *config.MetricsSettings) *Metrics {
	if settings == nil {
		settings = &config.MetricsSettings{}
	}
	return &Metrics{settings: settings}
}

func (o *Metrics) name(def *MetricDefinition) string {
	return o.settings.Prefix + def.Name
}

// register registers the collector or, when an identical collector was already registered
// (e.g. the same stage created twice), returns the existing one.
func (o *Metrics) register(c prometheus.Collector, name string) prometheus.Collector {
	err := prometheus.Register(c)
	if err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector
		}
		log.Errorf("metrics registration error [%s]: %v", name, err)
	}
	return c
}

func (o *Metrics) NewCounterVec(def *MetricDefinition) *prometheus.CounterVec {
	if def.Type != TypeCounter {
		log.Panicf("wrong metric type for %s: expected %s, got %s", def.Name, TypeCounter, def.Type)
	}
	fullName := o.name(def)
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: fullName, Help: def.Help}, def.Labels)
	return o.register(c, fullName).(*prometheus.CounterVec)
}

func (o *Metrics) NewCounter(def *MetricDefinition, labels ...string) prometheus.Counter {
	return o.NewCounterVec(def).WithLabelValues(labels...)
}

func (o *Metrics) NewGaugeVec(def *MetricDefinition) *prometheus.GaugeVec {
	if def.Type != TypeGauge {
		log.Panicf("wrong metric type for %s: expected %s, got %s", def.Name, TypeGauge, def.Type)
	}
	fullName := o.name(def)
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: fullName, Help: def.Help}, def.Labels)
	return o.register(g, fullName).(*prometheus.GaugeVec)
}

func (o *Metrics) NewGauge(def *MetricDefinition, labels ...string) prometheus.Gauge {
	return o.NewGaugeVec(def).WithLabelValues(labels...)
}

func (o *Metrics) NewHistogramVec(def *MetricDefinition, buckets []float64) *prometheus.HistogramVec {
	if def.Type != TypeHistogram {
		log.Panicf("wrong metric type for %s: expected %s, got %s", def.Name, TypeHistogram, def.Type)
	}
	fullName := o.name(def)
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: fullName, Help: def.Help, Buckets: buckets}, def.Labels)
	return o.register(h, fullName).(*prometheus.HistogramVec)
}

func (o *Metrics) NewHistogram(def *MetricDefinition, buckets []float64, labels ...string) prometheus.Observer {
	return o.NewHistogramVec(def, buckets).WithLabelValues(labels...)
}

// Timer measures the time spent in a stage and reports it to an observer, in seconds.
type Timer struct {
	startTime time.Time
	observer  prometheus.Observer
}

func NewTimer(o prometheus.Observer) *Timer {
	return &Timer{
		startTime: time.Now(),
		observer:  o,
	}
}

// ObserveSeconds records the elapsed time since the timer was created and returns it.
func (t *Timer) ObserveSeconds() time.Duration {
	elapsed := time.Since(t.startTime)
	t.observer.Observe(elapsed.Seconds())
	return elapsed
}

func GetDocumentation() string {
	defMutex.Lock()
	defs := make([]MetricDefinition, len(allMetrics))
	copy(defs, allMetrics)
	defMutex.Unlock()
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	doc := ""
	for _, opts := range defs {
		doc += fmt.Sprintf(
			`
### %s
| **Name** | %s | 
|:---|:---|
| **Description** | %s | 
| **Type** | %s | 
| **Labels** | %s | 

`,
			opts.Name,
			opts.Name,
			opts.Help,
			opts.Type,
			strings.Join(opts.Labels, ", "),
		)
	}

	return doc
}
