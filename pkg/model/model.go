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

// Package model holds the records exchanged between the pipeline stages:
// raw device records fetched from the capture daemon, the feature vectors
// derived from them and the documents written to the analytics store.
package model

import "time"

// Frame counter names. Counters are cumulative since the capture daemon started.
const (
	CounterTotal    = "total"
	CounterMgmt     = "mgmt"
	CounterData     = "data"
	CounterError    = "error"
	CounterDeauth   = "deauth"
	CounterRetries  = "retries"
	CounterProbeReq = "probe_req"
)

// FrameCounters maps a counter name to its cumulative value. Counters not
// reported by the daemon are absent.
type FrameCounters map[string]uint64

// DeviceRecord is one device or access point as listed by the capture daemon.
type DeviceRecord struct {
	ID           string
	SSID         string
	Signal       *int
	SignalMin    *int
	SignalMax    *int
	Counters     FrameCounters
	FirstSeen    time.Time
	LastSeen     time.Time
	Channel      string
	Manufacturer string
	PhyName      string
	DeviceType   string
	ClientCount  *int
	// Malformed is set when the raw record could not be decoded.
	Malformed string
}

// Snapshot is the result of one successful fetch.
type Snapshot struct {
	// CycleTime identifies the poll cycle; it is the time the fetch was issued.
	CycleTime time.Time
	Records   []DeviceRecord
}

type SensorMeta struct {
	ID   string
	Site string
}

// FeatureVector is the per-cycle behavioral summary of one device.
type FeatureVector struct {
	DeviceID         string
	SSID             string
	SSIDEntropy      float64
	SignalTrend      float64
	SignalSamples    int
	RSSILast         *int
	RSSIMin          *int
	RSSIMax          *int
	RSSIMean         *float64
	FrameDeltas      FrameCounters
	FirstSeen        time.Time
	LastSeen         time.Time
	FirstObservation bool
	Channel          string
	Manufacturer     string
	PhyName          string
	DeviceType       string
	ClientCount      *int
	Timestamp        time.Time
	SensorID         string
	SensorSite       string
}

// ScoreResult is the output of the anomaly scorer for one feature vector.
type ScoreResult struct {
	Score     float64
	Anomalous bool
}

// IngestDocument is the record written to the analytics store. ID is the
// upsert key and is not part of the stored source.
type IngestDocument struct {
	ID        string    `json:"-"`
	CycleTime time.Time `json:"-"`

	Timestamp           string        `json:"@timestamp"`
	SensorID            string        `json:"sensor.id"`
	SensorSite          string        `json:"sensor.site"`
	BSSID               string        `json:"bssid"`
	SSID                *string       `json:"ssid"`
	SSIDEntropy         float64       `json:"ssid_entropy"`
	Manufacturer        string        `json:"manuf,omitempty"`
	Channel             string        `json:"channel,omitempty"`
	PhyName             string        `json:"phyname,omitempty"`
	DeviceType          string        `json:"device_type,omitempty"`
	FirstSeen           *string       `json:"first_seen"`
	LastSeen            *string       `json:"last_seen"`
	RSSILast            *int          `json:"rssi_last"`
	RSSIMin             *int          `json:"rssi_min"`
	RSSIMax             *int          `json:"rssi_max"`
	RSSIMean            *float64      `json:"rssi_mean"`
	SignalTrend         float64       `json:"signal_trend"`
	SignalSamples       int           `json:"signal_samples"`
	ClientCount         *int          `json:"client_count"`
	Frames              FrameCounters `json:"frames,omitempty"`
	DeauthCountApprox   *uint64       `json:"deauth_count_approx"`
	ProbeReqCountApprox *uint64       `json:"probe_req_count_approx"`
	FirstObservation    bool          `json:"first_observation"`
	AnomalyScore        *float64      `json:"anomaly.score,omitempty"`
	Anomalous           *bool         `json:"anomaly.is_anomalous,omitempty"`
}
