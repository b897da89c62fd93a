package utils

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimedCache_UpdateKeepsExistingEntry(t *testing.T) {
	c := NewTimedCache[int](clock.NewMock())
	v, existed := c.UpdateCacheEntry("a", 1)
	assert.False(t, existed)
	assert.Equal(t, 1, v)

	v, existed = c.UpdateCacheEntry("a", 2)
	assert.True(t, existed)
	assert.Equal(t, 1, v)

	got, ok := c.GetCacheEntry("a")
	require.True(t, ok)
	assert.Equal(t, 1, got)
	assert.Equal(t, 1, c.GetCacheLen())
}

func TestTimedCache_CleanupExpiredEntries(t *testing.T) {
	mock := clock.NewMock()
	c := NewTimedCache[string](mock)
	c.UpdateCacheEntry("old", "o")
	mock.Add(30 * time.Second)
	c.UpdateCacheEntry("recent", "r")
	mock.Add(40 * time.Second)

	var cleaned []string
	removed := c.CleanupExpiredEntries(time.Minute, func(key string, _ string) {
		cleaned = append(cleaned, key)
	})
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"old"}, cleaned)
	_, ok := c.GetCacheEntry("old")
	assert.False(t, ok)
	_, ok = c.GetCacheEntry("recent")
	assert.True(t, ok)
}

func TestTimedCache_TouchDefersExpiry(t *testing.T) {
	mock := clock.NewMock()
	c := NewTimedCache[string](mock)
	c.UpdateCacheEntry("a", "a")
	c.UpdateCacheEntry("b", "b")
	mock.Add(50 * time.Second)
	c.UpdateCacheEntry("a", "ignored")
	mock.Add(20 * time.Second)

	removed := c.CleanupExpiredEntries(time.Minute, nil)
	assert.Equal(t, 1, removed)
	var keys []string
	c.Iterate(func(key string, _ string) { keys = append(keys, key) })
	assert.Equal(t, []string{"a"}, keys)
}

func TestTimedCache_ExactlyAtExpiryIsKept(t *testing.T) {
	mock := clock.NewMock()
	c := NewTimedCache[int](mock)
	c.UpdateCacheEntry("a", 1)
	mock.Add(time.Minute)
	assert.Equal(t, 0, c.CleanupExpiredEntries(time.Minute, nil))
	mock.Add(time.Nanosecond)
	assert.Equal(t, 1, c.CleanupExpiredEntries(time.Minute, nil))
}
