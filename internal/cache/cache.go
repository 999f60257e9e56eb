package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a redis-backed read-through cache for hot platform API responses
// (category lists, astrologer rosters). It is strictly a cache: the platform
// API stays the source of truth and every entry expires on its TTL.
//
// A nil *Cache is valid and disables caching, so callers never branch on
// whether redis is configured.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New connects to redis and returns a cache. An empty addr returns nil,
// which disables caching.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Cache{rdb: rdb, ttl: ttl, logger: logger}, nil
}

// GetJSON loads the cached value for key into dst. It reports whether a
// usable entry was found; cache errors degrade to a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.WarnContext(ctx, "cache entry corrupt, ignoring",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// SetJSON stores v under key with the cache TTL. Failures are logged and
// swallowed; a broken cache never fails a request.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.WarnContext(ctx, "cache encode failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// Invalidate drops the entry for key, used after mutations that change the
// underlying record.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache invalidate failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// Ping checks the redis connection for readiness probes. A disabled cache
// is always healthy.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}
