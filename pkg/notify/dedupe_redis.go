package notify

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisDeduper implements Deduper on Redis, so reminder suppression survives
// notifier restarts and is shared between replicas.
type RedisDeduper struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisDeduper connects to Redis using a standard redis:// URL.
func NewRedisDeduper(ctx context.Context, redisURL string) (*RedisDeduper, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisDeduper{client: client, prefix: "stepflow:notify:"}, nil
}

func (d *RedisDeduper) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark notification key: %w", err)
	}

	return ok, nil
}

func (d *RedisDeduper) Close() error {
	return d.client.Close()
}
