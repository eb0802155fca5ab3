package cache

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nammaraitha-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitDefault()
	os.Exit(m.Run())
}

func TestSetAndGet(t *testing.T) {
	mc := NewMemoryCache(time.Minute, 10)

	mc.Set("key", "value", 0)

	got, ok := mc.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestGet_Missing(t *testing.T) {
	mc := NewMemoryCache(time.Minute, 10)

	_, ok := mc.Get("missing")

	assert.False(t, ok)
}

func TestGet_ExpiredEntryNotServed(t *testing.T) {
	mc := NewMemoryCache(time.Minute, 10)

	mc.Set("key", "value", time.Nanosecond)
	time.Sleep(time.Millisecond)

	_, ok := mc.Get("key")
	assert.False(t, ok)
}

func TestGetStale_ServesExpiredEntry(t *testing.T) {
	mc := NewMemoryCache(time.Minute, 10)

	mc.Set("key", "value", time.Nanosecond)
	time.Sleep(time.Millisecond)

	got, ok := mc.GetStale("key")
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestGetStale_Missing(t *testing.T) {
	mc := NewMemoryCache(time.Minute, 10)

	_, ok := mc.GetStale("missing")

	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	mc := NewMemoryCache(time.Minute, 10)

	mc.Set("key", "value", 0)
	mc.Delete("key")

	_, ok := mc.Get("key")
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	mc := NewMemoryCache(time.Minute, 10)

	mc.Set("a", 1, 0)
	mc.Set("b", 2, 0)
	mc.Clear()

	assert.Equal(t, 0, mc.Size())
}

func TestEvictOldestAtCapacity(t *testing.T) {
	mc := NewMemoryCache(time.Minute, 2)

	mc.Set("first", 1, 0)
	time.Sleep(time.Millisecond)
	mc.Set("second", 2, 0)
	time.Sleep(time.Millisecond)
	mc.Set("third", 3, 0)

	assert.Equal(t, 2, mc.Size())
	_, ok := mc.Get("first")
	assert.False(t, ok, "oldest entry evicted")
	_, ok = mc.Get("third")
	assert.True(t, ok)
}

func TestStartCleanupRemovesExpiredEntries(t *testing.T) {
	mc := NewMemoryCache(time.Minute, 10)
	stop := mc.StartCleanup(10 * time.Millisecond)
	defer stop()

	mc.Set("short", "v", time.Nanosecond)
	mc.Set("long", "v", time.Minute)

	assert.Eventually(t, func() bool {
		return mc.Size() == 1
	}, time.Second, 10*time.Millisecond)

	_, ok := mc.Get("long")
	assert.True(t, ok)
}
