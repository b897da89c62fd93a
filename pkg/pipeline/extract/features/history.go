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
	"time"

	"github.com/benbjohnson/clock"
	"github.com/netobserv/wids-feature-pipeline/pkg/model"
	"github.com/netobserv/wids-feature-pipeline/pkg/pipeline/utils"
)

// Sample is one signal strength reading, in dBm.
type Sample struct {
	Value int
	At    time.Time
}

// DeviceHistory is the state retained between cycles for one device.
type DeviceHistory struct {
	// Samples holds the most recent readings, oldest first.
	Samples []Sample
	// Counters are the cumulative counters seen at the previous observation; nil before the first one.
	Counters  model.FrameCounters
	FirstSeen time.Time
}

func (h *DeviceHistory) appendSample(s Sample, bound int) {
	h.Samples = append(h.Samples, s)
	if over := len(h.Samples) - bound; over > 0 {
		// copy so the backing array does not grow forever
		h.Samples = append([]Sample(nil), h.Samples[over:]...)
	}
}

func (h *DeviceHistory) clone() DeviceHistory {
	c := DeviceHistory{FirstSeen: h.FirstSeen}
	if h.Samples != nil {
		c.Samples = append([]Sample(nil), h.Samples...)
	}
	if h.Counters != nil {
		c.Counters = make(model.FrameCounters, len(h.Counters))
		for k, v := range h.Counters {
			c.Counters[k] = v
		}
	}
	return c
}

// HistoryStore keeps a DeviceHistory per device identifier. Entries not observed
// for longer than the idle timeout are removed by Evict.
// It is not meant to be shared between concurrent cycles.
type HistoryStore struct {
	windowSize  int
	idleTimeout time.Duration
	clock       clock.Clock
	cache       *utils.TimedCache[*DeviceHistory]
}

func NewHistoryStore(windowSize int, idleTimeout time.Duration, clk clock.Clock) *HistoryStore {
	if clk == nil {
		clk = clock.New()
	}
	if windowSize <= 0 {
		windowSize = 1
	}
	return &HistoryStore{
		windowSize:  windowSize,
		idleTimeout: idleTimeout,
		clock:       clk,
		cache:       utils.NewTimedCache[*DeviceHistory](clk),
	}
}

func (s *HistoryStore) WindowSize() int {
	return s.windowSize
}

// observe returns the history of the device, creating it when missing, and marks it as seen now.
func (s *HistoryStore) observe(id string) (*DeviceHistory, bool) {
	h, existed := s.cache.UpdateCacheEntry(id, &DeviceHistory{FirstSeen: s.clock.Now()})
	return h, !existed
}

// Evict removes the devices idle for longer than the timeout and returns their identifiers.
func (s *HistoryStore) Evict() []string {
	var evicted []string
	s.cache.CleanupExpiredEntries(s.idleTimeout, func(key string, _ *DeviceHistory) {
		evicted = append(evicted, key)
	})
	return evicted
}

func (s *HistoryStore) Len() int {
	return s.cache.GetCacheLen()
}

// Get returns a copy of the device history.
func (s *HistoryStore) Get(id string) (DeviceHistory, bool) {
	h, ok := s.cache.GetCacheEntry(id)
	if !ok {
		return DeviceHistory{}, false
	}
	return h.clone(), true
}

// Entries returns a copy of every retained history, by device identifier.
func (s *HistoryStore) Entries() map[string]DeviceHistory {
	out := make(map[string]DeviceHistory, s.cache.GetCacheLen())
	s.cache.Iterate(func(key string, h *DeviceHistory) {
		out[key] = h.clone()
	})
	return out
}
