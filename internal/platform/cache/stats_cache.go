// Package cache provides the optional Redis-backed cache for assignee
// turnaround statistics.
//
// The cache is strictly an accelerator: every method is best-effort, a
// miss or a Redis failure falls through to the database, and entries are
// invalidated whenever a task reaches closed status.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stickyasks/stickyasks-api/internal/config"
	"github.com/stickyasks/stickyasks-api/internal/domain"
	"github.com/stickyasks/stickyasks-api/internal/store"
)

// StatsCache caches per-assignee aggregate stats keyed by normalized email.
type StatsCache interface {
	// Get returns the cached stats for the email, or (nil, nil) on a miss.
	Get(ctx context.Context, email string) (*store.AssigneeStats, error)

	// Set stores the stats for the email with the configured TTL.
	Set(ctx context.Context, email string, stats *store.AssigneeStats) error

	// Invalidate drops the cached entry for the email.
	Invalidate(ctx context.Context, email string) error
}

// NoopStatsCache is used when no Redis URL is configured. Every Get is a
// miss and writes succeed without doing anything.
type NoopStatsCache struct{}

// Ensure NoopStatsCache implements StatsCache
var _ StatsCache = (*NoopStatsCache)(nil)

// Get implements StatsCache.
func (NoopStatsCache) Get(context.Context, string) (*store.AssigneeStats, error) {
	return nil, nil
}

// Set implements StatsCache.
func (NoopStatsCache) Set(context.Context, string, *store.AssigneeStats) error { return nil }

// Invalidate implements StatsCache.
func (NoopStatsCache) Invalidate(context.Context, string) error { return nil }

// RedisStatsCache implements StatsCache on a Redis client.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Ensure RedisStatsCache implements StatsCache
var _ StatsCache = (*RedisStatsCache)(nil)

// NewStatsCache builds the cache selected by configuration: Redis-backed
// when a URL is configured, a no-op otherwise. The Redis connection is
// verified before use.
func NewStatsCache(cfg config.CacheConfig, logger *slog.Logger) (StatsCache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.RedisURL == "" {
		logger.Info("stats cache disabled, no redis url configured")
		return NoopStatsCache{}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStatsCacheWithClient(client, cfg, logger), nil
}

// NewRedisStatsCacheWithClient creates a cache from an existing Redis client.
func NewRedisStatsCacheWithClient(
	client *redis.Client,
	cfg config.CacheConfig,
	logger *slog.Logger,
) *RedisStatsCache {
	ttl := time.Duration(cfg.StatsTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Minute
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &RedisStatsCache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "stats_cache")),
	}
}

// key generates the Redis key for an assignee email.
func (c *RedisStatsCache) key(email string) string {
	return "stats:" + domain.NormalizeEmail(email)
}

// Get implements StatsCache.
func (c *RedisStatsCache) Get(ctx context.Context, email string) (*store.AssigneeStats, error) {
	data, err := c.client.Get(ctx, c.key(email)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stats cache get: %w", err)
	}

	var stats store.AssigneeStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, fmt.Errorf("unmarshal cached stats: %w", err)
	}

	return &stats, nil
}

// Set implements StatsCache.
func (c *RedisStatsCache) Set(ctx context.Context, email string, stats *store.AssigneeStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	if err := c.client.Set(ctx, c.key(email), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("stats cache set: %w", err)
	}
	return nil
}

// Invalidate implements StatsCache.
func (c *RedisStatsCache) Invalidate(ctx context.Context, email string) error {
	if err := c.client.Del(ctx, c.key(email)).Err(); err != nil {
		return fmt.Errorf("stats cache invalidate: %w", err)
	}
	return nil
}

// Close closes the underlying Redis connection.
func (c *RedisStatsCache) Close() error {
	return c.client.Close()
}
