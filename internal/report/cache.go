package report

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"campreg/internal/registration"
)

const cachePrefix = "campreg:summary:"

// Cache stores computed summaries keyed by filter. The redis implementation
// is TTL-bounded and flushed wholesale on any batch state change; summaries
// are cheap enough that coarse invalidation beats tracking which filters a
// write touched.
type Cache interface {
	Get(ctx context.Context, filter registration.Filter) (Summary, bool)
	Set(ctx context.Context, filter registration.Filter, summary Summary)
	Invalidate(ctx context.Context) error
}

// RedisCache implements Cache on go-redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, filter registration.Filter) (Summary, bool) {
	payload, err := c.client.Get(ctx, cacheKey(filter)).Bytes()
	if err != nil {
		return Summary{}, false
	}
	var summary Summary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return Summary{}, false
	}
	return summary, true
}

func (c *RedisCache) Set(ctx context.Context, filter registration.Filter, summary Summary) {
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(filter), payload, c.ttl)
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, cachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan summary keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func cacheKey(filter registration.Filter) string {
	raw, _ := json.Marshal(filter)
	sum := sha256.Sum256(raw)
	return cachePrefix + hex.EncodeToString(sum[:8])
}
