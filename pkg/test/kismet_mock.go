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

package test

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
)

// KismetDevice builds a device entry as listed by the Kismet REST API, using flattened field names.
func KismetDevice(mac, ssid string, signal int, lastTime int64, counters map[string]uint64) map[string]interface{} {
	dev := map[string]interface{}{
		"kismet.device.base.macaddr":    mac,
		"kismet.device.base.name":       ssid,
		"kismet.device.base.commonname": mac,
		"kismet.device.base.first_time": lastTime - 60,
		"kismet.device.base.last_time":  lastTime,
		"kismet.device.base.channel":    "6",
		"kismet.device.base.manuf":      "Unknown",
		"kismet.device.base.phyname":    "IEEE802.11",
		"kismet.device.base.type":       "Wi-Fi AP",
		"kismet.device.base.signal": map[string]interface{}{
			"kismet.common.signal.last_signal": signal,
			"kismet.common.signal.min_signal":  signal - 5,
			"kismet.common.signal.max_signal":  signal + 5,
		},
	}
	dot11 := map[string]interface{}{}
	for name, v := range counters {
		switch name {
		case "total", "llc", "data", "error":
			dev["kismet.device.base.packets."+name] = v
		default:
			dot11["dot11.device."+name] = v
		}
	}
	if len(dot11) > 0 {
		dev["dot11.device"] = dot11
	}
	return dev
}

// FakeKismet serves the device listing endpoint. The listing, status code and raw body can be changed between requests.
type FakeKismet struct {
	mu       sync.Mutex
	devices  []interface{}
	status   int
	rawBody  string
	requests []*http.Request
}

func NewFakeKismet(devices ...interface{}) *FakeKismet {
	return &FakeKismet{devices: devices, status: http.StatusOK}
}

func (f *FakeKismet) SetDevices(devices ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices = devices
	f.rawBody = ""
}

func (f *FakeKismet) SetStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// SetRawBody makes the next responses return body verbatim.
func (f *FakeKismet) SetRawBody(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rawBody = body
}

func (f *FakeKismet) Requests() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Request(nil), f.requests...)
}

func (f *FakeKismet) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	hlog := log.WithField("component", "FakeKismet")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	hlog.WithFields(log.Fields{"method": req.Method, "url": req.URL}).Debug("new request")
	if req.Method != http.MethodGet || !strings.HasPrefix(req.URL.Path, "/devices/last-time/") ||
		!strings.HasSuffix(req.URL.Path, "/devices.json") {
		rw.WriteHeader(http.StatusNotFound)
		return
	}
	if f.status != http.StatusOK {
		rw.WriteHeader(f.status)
		_, _ = fmt.Fprintf(rw, "status %d", f.status)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	if f.rawBody != "" {
		_, _ = rw.Write([]byte(f.rawBody))
		return
	}
	devices := f.devices
	if devices == nil {
		devices = []interface{}{}
	}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(rw).Encode(devices); err != nil {
		hlog.WithError(err).Error("can't encode devices")
	}
}
