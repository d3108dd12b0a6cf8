package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestCacheServiceMemoryFallback(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(nil, time.Minute, quietLogger())

	_, err := cache.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "k", "v"))
	val, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	ok, err := cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, cache.Delete(ctx, "k"))
	ok, _ = cache.Exists(ctx, "k")
	assert.False(t, ok)

	hits, misses := cache.HitStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCacheServiceExpiry(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(nil, time.Millisecond, quietLogger())

	require.NoError(t, cache.Set(ctx, "k", "v"))
	time.Sleep(5 * time.Millisecond)

	_, err := cache.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "k2", "v"))
	time.Sleep(5 * time.Millisecond)
	cache.cleanupExpired()

	stats, err := cache.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats["memory"].(map[string]interface{})["size"])
}

func TestCacheServiceClear(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(nil, time.Minute, quietLogger())

	require.NoError(t, cache.Set(ctx, "a", "1"))
	require.NoError(t, cache.Set(ctx, "b", "2"))
	require.NoError(t, cache.Clear(ctx))

	ok, _ := cache.Exists(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, "disabled", cache.Health()["redis"].(map[string]interface{})["status"])
}
