package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisCache keeps markers under session:<userID> with a native TTL.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// OpenRedis parses a redis:// URL, builds a client and waits for it under
// policy before returning.
func OpenRedis(ctx context.Context, url string, policy RetryPolicy) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("session: parse cache url: %w", err)
	}

	c := NewRedisCache(redis.NewClient(opts))
	if err := Connect(ctx, c, policy); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func key(userID string) string { return keyPrefix + userID }

func (c *RedisCache) Set(ctx context.Context, userID, marker string, ttl time.Duration) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := c.client.Set(ctx, key(userID), marker, ttl).Err(); err != nil {
		return fmt.Errorf("session: set %s: %w", userID, err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, userID string) (string, bool, error) {
	marker, err := c.client.Get(ctx, key(userID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("session: get %s: %w", userID, err)
	}
	return marker, true, nil
}

func (c *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("session: delete %s: %w", userID, err)
	}
	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error { return c.client.Close() }
