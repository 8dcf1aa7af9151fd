package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key is not present in the cache
var ErrCacheMiss = errors.New("cache miss")

// Cache provides JSON view caching on top of the client. Keys are namespaced
// with the configured prefix so invalidation can sweep by pattern.
type Cache struct {
	client    *Client
	keyPrefix string
}

// NewCache creates a new Cache
func NewCache(client *Client, keyPrefix string) *Cache {
	if keyPrefix == "" {
		keyPrefix = "cache:"
	}
	return &Cache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// GetJSON loads a cached value into dest. Returns ErrCacheMiss when absent.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) error {
	raw, err := c.client.rdb.Get(ctx, c.keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal([]byte(raw), dest)
}

// SetJSON stores a value as JSON with the given TTL
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.rdb.Set(ctx, c.keyPrefix+key, raw, ttl).Err()
}

// DeletePattern removes every key matching the pattern (within the prefix)
// using SCAN so large keyspaces are not blocked.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	deleted := 0
	var cursor uint64

	for {
		keys, next, err := c.client.rdb.Scan(ctx, cursor, c.keyPrefix+pattern, 100).Result()
		if err != nil {
			return deleted, err
		}

		if len(keys) > 0 {
			if err := c.client.rdb.Del(ctx, keys...).Err(); err != nil {
				return deleted, err
			}
			deleted += len(keys)
		}

		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}
