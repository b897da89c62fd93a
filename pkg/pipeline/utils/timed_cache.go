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

package utils

import (
	"container/list"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
)

// Functions to manage an LRU cache with an expiry
// When an item expires, allow a callback to allow the specific implementation to perform its particular cleanup

type CacheCallback[T any] func(key string, entry T)

type CacheEntry[T any] struct {
	key             string
	lastUpdatedTime time.Time
	e               *list.Element
	SourceEntry     T
}

type TimedCache[T any] struct {
	Mu        sync.Mutex
	CacheList *list.List
	CacheMap  map[string]*CacheEntry[T]
	clock     clock.Clock
}

func (l *TimedCache[T]) GetCacheEntry(key string) (T, bool) {
	l.Mu.Lock()
	defer l.Mu.Unlock()
	cEntry, ok := l.CacheMap[key]
	if ok {
		return cEntry.SourceEntry, ok
	}
	var zero T
	return zero, ok
}

// UpdateCacheEntry marks the entry as used now. When the key is unknown, the entry is added.
// It returns the cached entry, which is the previously stored one when the key already existed.
func (l *TimedCache[T]) UpdateCacheEntry(key string, entry T) (T, bool) {
	now := l.clock.Now()
	l.Mu.Lock()
	defer l.Mu.Unlock()
	cEntry, ok := l.CacheMap[key]
	if ok {
		// item already exists in cache; update the element and move to end of list
		cEntry.lastUpdatedTime = now
		l.CacheList.MoveToBack(cEntry.e)
		return cEntry.SourceEntry, true
	}
	// create new entry for cache
	cEntry = &CacheEntry[T]{
		lastUpdatedTime: now,
		key:             key,
		SourceEntry:     entry,
	}
	// place at end of list
	log.Debugf("adding cache entry = %s", key)
	cEntry.e = l.CacheList.PushBack(cEntry)
	l.CacheMap[key] = cEntry
	return entry, false
}

func (l *TimedCache[T]) GetCacheLen() int {
	l.Mu.Lock()
	defer l.Mu.Unlock()
	return len(l.CacheMap)
}

// Iterate calls f on every entry, from the least to the most recently updated.
func (l *TimedCache[T]) Iterate(f func(key string, entry T)) {
	l.Mu.Lock()
	defer l.Mu.Unlock()
	for e := l.CacheList.Front(); e != nil; e = e.Next() {
		cEntry := e.Value.(*CacheEntry[T])
		f(cEntry.key, cEntry.SourceEntry)
	}
}

// CleanupExpiredEntries removes items from cache that were last touched more than expiry ago.
// It returns the number of removed entries.
func (l *TimedCache[T]) CleanupExpiredEntries(expiry time.Duration, callback CacheCallback[T]) int {
	l.Mu.Lock()
	defer l.Mu.Unlock()
	expireTime := l.clock.Now().Add(-expiry)
	removed := 0
	// go through the list until we reach recently used entries
	for {
		listEntry := l.CacheList.Front()
		if listEntry == nil {
			return removed
		}
		pCacheInfo := listEntry.Value.(*CacheEntry[T])
		if !pCacheInfo.lastUpdatedTime.Before(expireTime) {
			// no more expired items
			return removed
		}
		log.Debugf("expiring cache entry = %s, lastUpdatedTime = %v", pCacheInfo.key, pCacheInfo.lastUpdatedTime)
		if callback != nil {
			callback(pCacheInfo.key, pCacheInfo.SourceEntry)
		}
		delete(l.CacheMap, pCacheInfo.key)
		l.CacheList.Remove(listEntry)
		removed++
	}
}

func NewTimedCache[T any](clk clock.Clock) *TimedCache[T] {
	if clk == nil {
		clk = clock.New()
	}
	l := &TimedCache[T]{
		CacheList: list.New(),
		CacheMap:  make(map[string]*CacheEntry[T]),
		clock:     clk,
	}
	return l
}
