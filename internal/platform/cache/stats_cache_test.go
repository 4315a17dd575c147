package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stickyasks/stickyasks-api/internal/config"
	"github.com/stickyasks/stickyasks-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttlSeconds int) (*RedisStatsCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisStatsCacheWithClient(client, config.CacheConfig{StatsTTLSeconds: ttlSeconds}, nil)
	return c, mr
}

func TestStatsCacheMissReturnsNil(t *testing.T) {
	c, _ := newTestCache(t, 60)

	stats, err := c.Get(context.Background(), "helper@example.com")
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestStatsCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, 60)
	ctx := context.Background()

	avg := 42.5
	in := &store.AssigneeStats{CompletedTasks: 7, AvgTurnaroundMinutes: &avg}
	require.NoError(t, c.Set(ctx, "helper@example.com", in))

	out, err := c.Get(ctx, "helper@example.com")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, int64(7), out.CompletedTasks)
	require.NotNil(t, out.AvgTurnaroundMinutes)
	assert.Equal(t, 42.5, *out.AvgTurnaroundMinutes)
}

func TestStatsCacheNilAverageSurvives(t *testing.T) {
	c, _ := newTestCache(t, 60)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "helper@example.com", &store.AssigneeStats{}))

	out, err := c.Get(ctx, "helper@example.com")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, int64(0), out.CompletedTasks)
	assert.Nil(t, out.AvgTurnaroundMinutes)
}

func TestStatsCacheKeyIsNormalized(t *testing.T) {
	c, mr := newTestCache(t, 60)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "Helper@Example.COM", &store.AssigneeStats{CompletedTasks: 1}))
	assert.True(t, mr.Exists("stats:helper@example.com"))

	// Lookups with differently cased emails hit the same entry
	out, err := c.Get(ctx, "helper@example.com")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, int64(1), out.CompletedTasks)
}

func TestStatsCacheInvalidate(t *testing.T) {
	c, _ := newTestCache(t, 60)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "helper@example.com", &store.AssigneeStats{CompletedTasks: 3}))
	require.NoError(t, c.Invalidate(ctx, "HELPER@example.com"))

	out, err := c.Get(ctx, "helper@example.com")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestStatsCacheEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t, 30)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "helper@example.com", &store.AssigneeStats{CompletedTasks: 3}))

	mr.FastForward(31 * time.Second)

	out, err := c.Get(ctx, "helper@example.com")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestNewStatsCacheWithoutRedisURL(t *testing.T) {
	c, err := NewStatsCache(config.CacheConfig{}, nil)
	require.NoError(t, err)

	_, ok := c.(NoopStatsCache)
	assert.True(t, ok, "expected the no-op cache when no redis url is set")

	// The no-op cache accepts every operation
	ctx := context.Background()
	stats, err := c.Get(ctx, "anyone@example.com")
	assert.NoError(t, err)
	assert.Nil(t, stats)
	assert.NoError(t, c.Set(ctx, "anyone@example.com", &store.AssigneeStats{}))
	assert.NoError(t, c.Invalidate(ctx, "anyone@example.com"))
}
