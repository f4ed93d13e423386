// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mergington-activities/internal/common/config"
)

// RedisClient wraps the Redis client
type RedisClient struct {
	Client *redis.Client
}

// NewRedis creates a new Redis client. No connection is made until first use.
func NewRedis(cfg config.RedisConfig) *RedisClient {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return &RedisClient{Client: rdb}
}

// Ping tests the Redis connection
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// PushCapped prepends value to the list at key and keeps at most maxLen entries.
func (c *RedisClient) PushCapped(ctx context.Context, key string, value interface{}, maxLen int64) error {
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, value)
		if maxLen > 0 {
			pipe.LTrim(ctx, key, 0, maxLen-1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis push %s: %w", key, err)
	}
	return nil
}

// Publish sends message on channel and returns the number of receivers.
func (c *RedisClient) Publish(ctx context.Context, channel string, message interface{}) (int64, error) {
	n, err := c.Client.Publish(ctx, channel, message).Result()
	if err != nil {
		return 0, fmt.Errorf("redis publish %s: %w", channel, err)
	}
	return n, nil
}
