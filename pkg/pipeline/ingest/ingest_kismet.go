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

package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
	"github.com/netobserv/wids-feature-pipeline/pkg/api"
	"github.com/netobserv/wids-feature-pipeline/pkg/model"
	operational "github.com/netobserv/wids-feature-pipeline/pkg/operational/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var klog = logrus.WithField("component", "ingest.Kismet")

const (
	kismetBaseKey    = "kismet.device.base"
	kismetSessionKey = "KISMET"
	maxErrorBody     = 512
)

type KismetFetcher struct {
	endpoint string
	params   api.IngestKismet
	client   *http.Client
	clock    clock.Clock
	metrics  *metrics
}

// kismetSignal covers both the current field names and the short ones of older releases.
type kismetSignal struct {
	Last    *int `mapstructure:"kismet.common.signal.last_signal"`
	Min     *int `mapstructure:"kismet.common.signal.min_signal"`
	Max     *int `mapstructure:"kismet.common.signal.max_signal"`
	LastOld *int `mapstructure:"kismet.common.signal.last"`
	MinOld  *int `mapstructure:"kismet.common.signal.min"`
	MaxOld  *int `mapstructure:"kismet.common.signal.max"`
}

type kismetDot11 struct {
	ClientDisconnects *uint64 `mapstructure:"dot11.device.client_disconnects"`
	NumRetries        *uint64 `mapstructure:"dot11.device.num_retries"`
	NumProbedSSIDs    *uint64 `mapstructure:"dot11.device.num_probed_ssids"`
	AssociatedClients *int    `mapstructure:"dot11.device.num_associated_clients"`
}

type kismetDevice struct {
	MacAddr      string        `mapstructure:"kismet.device.base.macaddr"`
	Name         string        `mapstructure:"kismet.device.base.name"`
	CommonName   string        `mapstructure:"kismet.device.base.commonname"`
	Signal       *kismetSignal `mapstructure:"kismet.device.base.signal"`
	FirstTime    int64         `mapstructure:"kismet.device.base.first_time"`
	LastTime     int64         `mapstructure:"kismet.device.base.last_time"`
	Channel      string        `mapstructure:"kismet.device.base.channel"`
	Manufacturer string        `mapstructure:"kismet.device.base.manuf"`
	PhyName      string        `mapstructure:"kismet.device.base.phyname"`
	Type         string        `mapstructure:"kismet.device.base.type"`
	NumClients   *int          `mapstructure:"kismet.device.base.num_clients"`
	PacketsTotal *uint64       `mapstructure:"kismet.device.base.packets.total"`
	PacketsLLC   *uint64       `mapstructure:"kismet.device.base.packets.llc"`
	PacketsData  *uint64       `mapstructure:"kismet.device.base.packets.data"`
	PacketsError *uint64       `mapstructure:"kismet.device.base.packets.error"`
	Dot11        *kismetDot11  `mapstructure:"dot11.device"`
}

func NewKismetFetcher(opMetrics *operational.Metrics, params api.IngestKismet, clk clock.Clock) (*KismetFetcher, error) {
	klog.Debugf("entering NewKismetFetcher")
	if params.URL == "" {
		return nil, fmt.Errorf("kismet url not specified")
	}
	if params.WindowSec <= 0 {
		return nil, fmt.Errorf("kismet window must be positive, got %d", params.WindowSec)
	}
	if clk == nil {
		clk = clock.New()
	}
	endpoint := fmt.Sprintf("%s/devices/last-time/-%d/devices.json", strings.TrimRight(params.URL, "/"), params.WindowSec)
	klog.Infof("kismet devices endpoint = %s", endpoint)
	return &KismetFetcher{
		endpoint: endpoint,
		params:   params,
		client:   &http.Client{},
		clock:    clk,
		metrics:  newMetrics(opMetrics, "kismet", "kismet"),
	}, nil
}

// Fetch performs a single request, without retry. The returned snapshot carries
// the time the request was issued as its cycle time.
func (k *KismetFetcher) Fetch(ctx context.Context) (model.Snapshot, error) {
	cycleTime := k.clock.Now().UTC().Truncate(time.Millisecond)
	if k.params.Timeout.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.params.Timeout.Duration)
		defer cancel()
	}
	timer := k.metrics.fetchTimer()
	body, err := k.get(ctx)
	timer.ObserveSeconds()
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			k.metrics.error(fe.Reason)
		}
		return model.Snapshot{}, err
	}

	var raw []interface{}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(body, &raw); err != nil {
		k.metrics.error(ReasonDecode)
		return model.Snapshot{}, &FetchError{Reason: ReasonDecode, Err: errors.Wrap(err, "invalid device listing")}
	}
	records := k.decodeAll(raw)
	k.metrics.devicesFetched.Add(float64(len(records)))
	klog.Debugf("fetched %d devices (%d raw entries)", len(records), len(raw))
	return model.Snapshot{CycleTime: cycleTime, Records: records}, nil
}

func (k *KismetFetcher) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.endpoint, nil)
	if err != nil {
		return nil, &FetchError{Reason: ReasonTransport, Err: errors.Wrap(err, "building request")}
	}
	req.Header.Set("Accept", "application/json")
	if k.params.APIKey != "" {
		req.AddCookie(&http.Cookie{Name: kismetSessionKey, Value: k.params.APIKey})
	} else if k.params.Username != "" {
		req.SetBasicAuth(k.params.Username, k.params.Password)
	}
	resp, err := k.client.Do(req)
	if err != nil {
		return nil, &FetchError{Reason: ReasonTransport, Err: errors.Wrapf(err, "GET %s", k.endpoint)}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &FetchError{
			Reason:     ReasonStatus,
			StatusCode: resp.StatusCode,
			Err:        errors.Errorf("unexpected response: %s", strings.TrimSpace(string(msg))),
		}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Reason: ReasonRead, Err: errors.Wrap(err, "reading response body")}
	}
	return body, nil
}

// decodeAll converts the raw listing into device records. Entries without a MAC
// address are dropped; entries with duplicate identifiers keep the latest last-seen.
func (k *KismetFetcher) decodeAll(raw []interface{}) []model.DeviceRecord {
	records := make([]model.DeviceRecord, 0, len(raw))
	index := make(map[string]int, len(raw))
	noMAC, duplicates := 0, 0
	for _, entry := range raw {
		rec, ok := DecodeDevice(entry)
		if !ok {
			noMAC++
			continue
		}
		if rec.Malformed != "" {
			records = append(records, rec)
			continue
		}
		if i, found := index[rec.ID]; found {
			duplicates++
			if rec.LastSeen.After(records[i].LastSeen) {
				records[i] = rec
			}
			continue
		}
		index[rec.ID] = len(records)
		records = append(records, rec)
	}
	k.metrics.dropped("no_mac", noMAC)
	k.metrics.dropped("duplicate", duplicates)
	return records
}

// DecodeDevice maps one entry of the device listing to a DeviceRecord.
// It returns false when the entry has no MAC address. Entries that cannot be
// decoded are returned with Malformed set.
func DecodeDevice(entry interface{}) (model.DeviceRecord, bool) {
	fields, ok := entry.(map[string]interface{})
	if !ok {
		return model.DeviceRecord{Malformed: fmt.Sprintf("unexpected entry type %T", entry)}, true
	}
	fields = flattenBase(fields)
	if mac, present := fields[kismetBaseKey+".macaddr"]; !present || mac == nil || mac == "" {
		return model.DeviceRecord{}, false
	}

	var dev kismetDevice
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &dev,
	})
	if err == nil {
		err = decoder.Decode(fields)
	}
	if err != nil {
		id, _ := fields[kismetBaseKey+".macaddr"].(string)
		return model.DeviceRecord{
			ID:        normalizeMAC(id),
			Malformed: err.Error(),
		}, true
	}
	return dev.toRecord(), true
}

// flattenBase accepts the nested layout where base fields are grouped under
// "kismet.device.base" with short names.
func flattenBase(fields map[string]interface{}) map[string]interface{} {
	nested, ok := fields[kismetBaseKey].(map[string]interface{})
	if !ok {
		return fields
	}
	flat := make(map[string]interface{}, len(fields)+len(nested))
	for k, v := range fields {
		if k != kismetBaseKey {
			flat[k] = v
		}
	}
	for k, v := range nested {
		if !strings.HasPrefix(k, kismetBaseKey+".") {
			k = kismetBaseKey + "." + k
		}
		if _, exists := flat[k]; !exists {
			flat[k] = v
		}
	}
	return flat
}

func (d *kismetDevice) toRecord() model.DeviceRecord {
	rec := model.DeviceRecord{
		ID:           normalizeMAC(d.MacAddr),
		SSID:         d.Name,
		FirstSeen:    epoch(d.FirstTime),
		LastSeen:     epoch(d.LastTime),
		Channel:      d.Channel,
		Manufacturer: d.Manufacturer,
		PhyName:      d.PhyName,
		DeviceType:   d.Type,
		ClientCount:  d.NumClients,
		Counters:     model.FrameCounters{},
	}
	// the common name defaults to the MAC address when nothing better is known
	if rec.SSID == "" && !strings.EqualFold(d.CommonName, d.MacAddr) {
		rec.SSID = d.CommonName
	}
	if d.Signal != nil {
		rec.Signal = signalValue(d.Signal.Last, d.Signal.LastOld)
		rec.SignalMin = signalValue(d.Signal.Min, d.Signal.MinOld)
		rec.SignalMax = signalValue(d.Signal.Max, d.Signal.MaxOld)
	}
	setCounter(rec.Counters, model.CounterTotal, d.PacketsTotal)
	setCounter(rec.Counters, model.CounterMgmt, d.PacketsLLC)
	setCounter(rec.Counters, model.CounterData, d.PacketsData)
	setCounter(rec.Counters, model.CounterError, d.PacketsError)
	if d.Dot11 != nil {
		setCounter(rec.Counters, model.CounterDeauth, d.Dot11.ClientDisconnects)
		setCounter(rec.Counters, model.CounterRetries, d.Dot11.NumRetries)
		setCounter(rec.Counters, model.CounterProbeReq, d.Dot11.NumProbedSSIDs)
		if rec.ClientCount == nil {
			rec.ClientCount = d.Dot11.AssociatedClients
		}
	}
	return rec
}

func normalizeMAC(mac string) string {
	return strings.ToUpper(strings.TrimSpace(mac))
}

// The daemon reports 0 dBm when no signal was measured.
func signalValue(values ...*int) *int {
	for _, v := range values {
		if v != nil && *v != 0 {
			s := *v
			return &s
		}
	}
	return nil
}

func setCounter(counters model.FrameCounters, name string, v *uint64) {
	if v != nil {
		counters[name] = *v
	}
}

func epoch(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
