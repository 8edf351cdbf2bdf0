package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the narrow read-through interface the Store consults in front of
// disk when REDIS_URL is set (§5, §9 OQ3). Its absence must never affect
// correctness, only latency — every method degrades to a cache miss on
// error rather than failing the caller, grounded on
// itsneelabh-gomind/ui/session_redis.go's narrow-client style.
type Cache interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool)
	Set(ctx context.Context, key string, value json.RawMessage, ttl time.Duration)
	Close() error
}

// RedisCache is the optional shared-state cache of §6 REDIS_URL / §9 OQ3.
// It is consulted as a best-effort accelerator in front of the on-disk
// store; a Redis outage degrades every call to a miss, never an error.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache parses url and pings the server once so misconfiguration
// is caught at startup; callers treat a non-nil error as "Redis
// unavailable" and continue without a cache (§5).
func NewRedisCache(url string) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

// Get returns the cached blob for key, or (nil, false) on a miss or any
// Redis error.
func (c *RedisCache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return json.RawMessage(data), true
}

// Set writes value under key with the given ttl. Errors are swallowed: a
// failed cache write never fails the caller's write to the Store of
// record (disk).
func (c *RedisCache) Set(ctx context.Context, key string, value json.RawMessage, ttl time.Duration) {
	_ = c.client.Set(ctx, key, []byte(value), ttl).Err()
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// cacheTTL bounds how long a blob may be read back from Redis before the
// Store falls back to disk.
const cacheTTL = 5 * time.Minute

// AttachCache wires an optional shared-state cache in front of Get/Put.
// Passing nil disables it.
func (s *Store) AttachCache(cache Cache) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheBackend = cache
}
