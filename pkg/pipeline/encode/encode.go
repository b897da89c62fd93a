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
	"time"

	"github.com/google/uuid"
	"github.com/netobserv/wids-feature-pipeline/pkg/model"
)

// documentNamespace scopes the name-based document identifiers.
var documentNamespace = uuid.MustParse("9b8f3a52-1c7e-4d2b-a6f0-3e5d7c9b1a24")

// DocumentID derives the upsert key of the document of a device for one cycle, on one sensor.
func DocumentID(deviceID string, cycleTime time.Time, sensorID string) string {
	name := deviceID + "|" + cycleTime.UTC().Format(time.RFC3339Nano) + "|" + sensorID
	return uuid.NewSHA1(documentNamespace, []byte(name)).String()
}

// Build encodes a feature vector before being stored. The score is optional.
// Build has no side effect: identical inputs give identical documents.
func Build(fv *model.FeatureVector, res *model.ScoreResult, meta model.SensorMeta, cycleTime time.Time) model.IngestDocument {
	cycle := cycleTime.UTC()
	doc := model.IngestDocument{
		ID:               DocumentID(fv.DeviceID, cycle, meta.ID),
		CycleTime:        cycle,
		Timestamp:        cycle.Format(time.RFC3339Nano),
		SensorID:         meta.ID,
		SensorSite:       meta.Site,
		BSSID:            fv.DeviceID,
		SSIDEntropy:      fv.SSIDEntropy,
		Manufacturer:     fv.Manufacturer,
		Channel:          fv.Channel,
		PhyName:          fv.PhyName,
		DeviceType:       fv.DeviceType,
		FirstSeen:        isoTime(fv.FirstSeen),
		LastSeen:         isoTime(fv.LastSeen),
		RSSILast:         copyInt(fv.RSSILast),
		RSSIMin:          copyInt(fv.RSSIMin),
		RSSIMax:          copyInt(fv.RSSIMax),
		SignalTrend:      fv.SignalTrend,
		SignalSamples:    fv.SignalSamples,
		ClientCount:      copyInt(fv.ClientCount),
		FirstObservation: fv.FirstObservation,
	}
	if fv.SSID != "" {
		ssid := fv.SSID
		doc.SSID = &ssid
	}
	if fv.RSSIMean != nil {
		mean := *fv.RSSIMean
		doc.RSSIMean = &mean
	}
	if len(fv.FrameDeltas) > 0 {
		doc.Frames = make(model.FrameCounters, len(fv.FrameDeltas))
		for k, v := range fv.FrameDeltas {
			doc.Frames[k] = v
		}
		doc.DeauthCountApprox = counter(fv.FrameDeltas, model.CounterDeauth)
		doc.ProbeReqCountApprox = counter(fv.FrameDeltas, model.CounterProbeReq)
	}
	if res != nil {
		score, anomalous := res.Score, res.Anomalous
		doc.AnomalyScore = &score
		doc.Anomalous = &anomalous
	}
	return doc
}

func isoTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func counter(c model.FrameCounters, name string) *uint64 {
	v, ok := c[name]
	if !ok {
		return nil
	}
	return &v
}
