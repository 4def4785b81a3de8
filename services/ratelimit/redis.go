package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a LoginLimiter shared across replicas through Redis. The
// window starts at the first failure and is enforced with a key TTL.
type RedisLimiter struct {
	client *redis.Client
	cfg    Config
}

// NewRedisLimiter creates a RedisLimiter
func NewRedisLimiter(client *redis.Client, cfg Config) *RedisLimiter {
	return &RedisLimiter{client: client, cfg: cfg}
}

// Check implements LoginLimiter
func (l *RedisLimiter) Check(ctx context.Context, key string) error {
	count, err := l.client.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count >= int64(l.cfg.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// RecordFailure implements LoginLimiter
func (l *RedisLimiter) RecordFailure(ctx context.Context, key string) error {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.cfg.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if count >= int64(l.cfg.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// Reset implements LoginLimiter
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
