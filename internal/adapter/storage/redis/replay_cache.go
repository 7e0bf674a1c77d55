package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ReplayCache implements ports.ReplayCache using Redis. It holds the
// exact response bytes produced under an idempotency key so replays
// skip the event store entirely. The store history remains the source
// of truth; a cache miss is never an error.
type ReplayCache struct {
	client *goredis.Client
	prefix string
}

// NewReplayCache creates a Redis-backed replay cache.
func NewReplayCache(client *goredis.Client) *ReplayCache {
	return &ReplayCache{
		client: client,
		prefix: "replay:",
	}
}

// Get retrieves the cached response for an idempotency key.
// Returns nil, nil when the key does not exist.
func (c *ReplayCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis replay get: %w", err)
	}
	return val, nil
}

// Set stores a response under an idempotency key with TTL.
func (c *ReplayCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis replay set: %w", err)
	}
	return nil
}
