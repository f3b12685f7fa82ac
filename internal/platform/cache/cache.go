// Package cache provides the Redis-backed key/value cache used for task
// listings. Values are opaque bytes; callers own serialization.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/phrazzld/task-api/internal/platform/metrics"
	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps every Redis failure other than a miss. Callers fail
// the request rather than bypass the cache.
var ErrUnavailable = errors.New("cache unavailable")

// Cache is the storage contract the task service depends on.
type Cache interface {
	// Get returns the stored value and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeleteMatching removes every key matching a glob pattern such as
	// "tasks:<id>:*".
	DeleteMatching(ctx context.Context, pattern string) error
	Ping(ctx context.Context) error
	Close() error
}

// Stats tracks cache statistics.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Sets    uint64 `json:"sets"`
	Deletes uint64 `json:"deletes"`
	Errors  uint64 `json:"errors"`
}

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 100

// RedisCache implements Cache on a go-redis client.
type RedisCache struct {
	client  redis.UniversalClient
	prefix  string
	metrics *metrics.Metrics
	stats   Stats
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache wraps client. prefix is prepended to every key and may be
// empty. m may be nil.
func NewRedisCache(client redis.UniversalClient, prefix string, m *metrics.Metrics) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, metrics: m}
}

// NewClient parses a redis:// URL into a client. go-redis dials lazily and
// re-dials dropped connections from its pool.
func NewClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Get implements Cache.Get.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			atomic.AddUint64(&c.stats.Misses, 1)
			c.metrics.CacheEvent(metrics.CacheMiss)
			return nil, false, nil
		}
		return nil, false, c.fail("get", err)
	}

	atomic.AddUint64(&c.stats.Hits, 1)
	c.metrics.CacheEvent(metrics.CacheHit)
	return data, true, nil
}

// Set implements Cache.Set.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return c.fail("set", err)
	}
	atomic.AddUint64(&c.stats.Sets, 1)
	c.metrics.CacheEvent(metrics.CacheSet)
	return nil
}

// DeleteMatching implements Cache.DeleteMatching by walking the keyspace
// with SCAN; KEYS would block the server on large databases.
func (c *RedisCache) DeleteMatching(ctx context.Context, pattern string) error {
	fullPattern := c.prefix + pattern

	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, fullPattern, scanBatch).Result()
		if err != nil {
			return c.fail("scan", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return c.fail("delete", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	atomic.AddUint64(&c.stats.Deletes, uint64(deleted))
	c.metrics.CacheEvent(metrics.CacheInvalidate)
	return nil
}

// Ping implements Cache.Ping.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return nil
}

// Close implements Cache.Close.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Stats returns a snapshot of the counters.
func (c *RedisCache) Stats() Stats {
	return Stats{
		Hits:    atomic.LoadUint64(&c.stats.Hits),
		Misses:  atomic.LoadUint64(&c.stats.Misses),
		Sets:    atomic.LoadUint64(&c.stats.Sets),
		Deletes: atomic.LoadUint64(&c.stats.Deletes),
		Errors:  atomic.LoadUint64(&c.stats.Errors),
	}
}

func (c *RedisCache) fail(op string, err error) error {
	atomic.AddUint64(&c.stats.Errors, 1)
	c.metrics.CacheEvent(metrics.CacheError)
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
