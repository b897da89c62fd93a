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

package features

import (
	"math"

	"github.com/netobserv/wids-feature-pipeline/pkg/model"
	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var flog = logrus.WithField("component", "extract.Features")

var (
	vectorsComputed = operational.DefineMetric(
		"extract_feature_vectors",
		"Number of feature vectors computed",
		operational.TypeCounter,
	)
	computeErrors = operational.DefineMetric(
		"extract_errors",
		"Counter of devices skipped during feature computation",
		operational.TypeCounter,
		"reason",
	)
	historySize = operational.DefineMetric(
		"extract_history_devices",
		"Number of devices currently retained in history",
		operational.TypeGauge,
	)
	historyEvictions = operational.DefineMetric(
		"extract_history_evictions",
		"Number of device histories evicted after the idle timeout",
		operational.TypeCounter,
	)
)

// Computer turns snapshots into feature vectors, updating the device history store.
type Computer struct {
	sensor    model.SensorMeta
	computed  prometheus.Counter
	errors    *prometheus.CounterVec
	size      prometheus.Gauge
	evictions prometheus.Counter
}

func NewComputer(opMetrics *operational.Metrics, sensor model.SensorMeta) *Computer {
	return &Computer{
		sensor:    sensor,
		computed:  opMetrics.NewCounter(&vectorsComputed),
		errors:    opMetrics.NewCounterVec(&computeErrors),
		size:      opMetrics.NewGauge(&historySize),
		evictions: opMetrics.NewCounter(&historyEvictions),
	}
}

// Compute produces one feature vector per distinct device of the snapshot, in
// snapshot order, and then evicts idle histories. Devices that cannot be processed
// are reported as ComputeError and leave their history untouched.
func (c *Computer) Compute(snapshot model.Snapshot, store *HistoryStore) ([]model.FeatureVector, []*ComputeError) {
	flog.Debugf("entering Compute with %d records", len(snapshot.Records))
	var errs []*ComputeError
	records := distinct(snapshot.Records)
	vectors := make([]model.FeatureVector, 0, len(records))
	for i := range records {
		fv, err := c.computeOne(&records[i], snapshot, store)
		if err != nil {
			c.errors.WithLabelValues(errorLabel(err)).Inc()
			flog.WithField("device", err.DeviceID).Warn(err.Error())
			errs = append(errs, err)
			continue
		}
		vectors = append(vectors, fv)
	}
	c.computed.Add(float64(len(vectors)))

	evicted := store.Evict()
	if len(evicted) > 0 {
		flog.Debugf("evicted %d idle devices", len(evicted))
		c.evictions.Add(float64(len(evicted)))
	}
	c.size.Set(float64(store.Len()))
	return vectors, errs
}

func errorLabel(err *ComputeError) string {
	switch {
	case err.DeviceID == "":
		return "missing_id"
	case err.Reason == reasonPanic:
		return "panic"
	default:
		return "malformed"
	}
}

const reasonPanic = "internal error"

func (c *Computer) computeOne(rec *model.DeviceRecord, snapshot model.Snapshot, store *HistoryStore) (fv model.FeatureVector, cerr *ComputeError) {
	if rec.ID == "" {
		return fv, &ComputeError{Reason: "record has no device identifier"}
	}
	if rec.Malformed != "" {
		return fv, &ComputeError{DeviceID: rec.ID, Reason: rec.Malformed}
	}
	defer func() {
		if r := recover(); r != nil {
			flog.Errorf("recovered from panic computing device %s: %v", rec.ID, r)
			cerr = &ComputeError{DeviceID: rec.ID, Reason: reasonPanic}
		}
	}()

	hist, created := store.observe(rec.ID)
	if rec.Signal != nil {
		hist.appendSample(Sample{Value: *rec.Signal, At: snapshot.CycleTime}, store.WindowSize())
	}
	deltas := Deltas(hist.Counters, rec.Counters)
	hist.Counters = copyCounters(rec.Counters)

	fv = model.FeatureVector{
		DeviceID:         rec.ID,
		SSID:             rec.SSID,
		SSIDEntropy:      SSIDEntropy(rec.SSID),
		SignalTrend:      Trend(hist.Samples),
		SignalSamples:    len(hist.Samples),
		RSSILast:         rec.Signal,
		RSSIMin:          rec.SignalMin,
		RSSIMax:          rec.SignalMax,
		FrameDeltas:      deltas,
		FirstSeen:        rec.FirstSeen,
		LastSeen:         rec.LastSeen,
		FirstObservation: created,
		Channel:          rec.Channel,
		Manufacturer:     rec.Manufacturer,
		PhyName:          rec.PhyName,
		DeviceType:       rec.DeviceType,
		ClientCount:      rec.ClientCount,
		Timestamp:        snapshot.CycleTime,
		SensorID:         c.sensor.ID,
		SensorSite:       c.sensor.Site,
	}
	if fv.FirstSeen.IsZero() {
		fv.FirstSeen = hist.FirstSeen
	}
	if len(hist.Samples) > 0 {
		lo, hi, mean := sampleStats(hist.Samples)
		if fv.RSSIMin == nil {
			fv.RSSIMin = &lo
		}
		if fv.RSSIMax == nil {
			fv.RSSIMax = &hi
		}
		fv.RSSIMean = &mean
	}
	return fv, nil
}

// distinct keeps one record per identifier, the one with the latest last-seen,
// at the position of the identifier's first occurrence.
func distinct(records []model.DeviceRecord) []model.DeviceRecord {
	out := make([]model.DeviceRecord, 0, len(records))
	index := make(map[string]int, len(records))
	for _, rec := range records {
		if rec.ID == "" || rec.Malformed != "" {
			out = append(out, rec)
			continue
		}
		if i, found := index[rec.ID]; found {
			if rec.LastSeen.After(out[i].LastSeen) {
				out[i] = rec
			}
			continue
		}
		index[rec.ID] = len(out)
		out = append(out, rec)
	}
	return out
}

// SSIDEntropy is the Shannon entropy, in bits, of the character distribution of the SSID.
func SSIDEntropy(ssid string) float64 {
	if ssid == "" {
		return 0
	}
	freq := map[rune]int{}
	n := 0
	for _, r := range ssid {
		freq[r]++
		n++
	}
	entropy := 0.0
	for _, count := range freq {
		p := float64(count) / float64(n)
		entropy -= p * math.Log2(p)
	}
	// a single repeated character yields -0
	return math.Abs(entropy)
}

// Trend is the change of signal strength per second between the oldest and the
// newest samples. Samples sharing the same timestamp are spaced by one unit.
func Trend(samples []Sample) float64 {
	n := len(samples)
	if n < 2 {
		return 0
	}
	oldest, newest := samples[0], samples[n-1]
	span := newest.At.Sub(oldest.At).Seconds()
	if span <= 0 {
		span = float64(n - 1)
	}
	return float64(newest.Value-oldest.Value) / span
}

// Delta is the increase of a cumulative counter. A missing previous value or a
// decrease, meaning the daemon restarted, yields the current value.
func Delta(previous uint64, hasPrevious bool, current uint64) uint64 {
	if !hasPrevious || current < previous {
		return current
	}
	return current - previous
}

// Deltas computes the per-interval delta of every current counter. Each counter
// is handled on its own, so a partial reset only affects the counters that decreased.
func Deltas(previous, current model.FrameCounters) model.FrameCounters {
	out := make(model.FrameCounters, len(current))
	for name, cur := range current {
		prev, ok := previous[name]
		out[name] = Delta(prev, ok, cur)
	}
	return out
}

func copyCounters(c model.FrameCounters) model.FrameCounters {
	out := make(model.FrameCounters, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func sampleStats(samples []Sample) (lo, hi int, mean float64) {
	lo, hi = samples[0].Value, samples[0].Value
	sum := 0
	for _, s := range samples {
		if s.Value < lo {
			lo = s.Value
		}
		if s.Value > hi {
			hi = s.Value
		}
		sum += s.Value
	}
	return lo, hi, float64(sum) / float64(len(samples))
}

// Values flattens the numeric features of a vector, for model evaluation.
// Absent readings are left out.
func Values(fv *model.FeatureVector) map[string]float64 {
	v := map[string]float64{
		"ssid_entropy":   fv.SSIDEntropy,
		"signal_trend":   fv.SignalTrend,
		"signal_samples": float64(fv.SignalSamples),
	}
	if fv.FirstObservation {
		v["first_observation"] = 1
	} else {
		v["first_observation"] = 0
	}
	if fv.RSSILast != nil {
		v["rssi_last"] = float64(*fv.RSSILast)
	}
	if fv.RSSIMean != nil {
		v["rssi_mean"] = *fv.RSSIMean
	}
	if fv.ClientCount != nil {
		v["client_count"] = float64(*fv.ClientCount)
	}
	for name, d := range fv.FrameDeltas {
		v[name+"_delta"] = float64(d)
	}
	return v
}
