package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/query-cache/pkg/retry"
	"github.com/redis/go-redis/v9"
)

// RedisStore is the production Store backed by Redis.
type RedisStore struct {
	redis *redis.Client
	retry retry.Config
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRetry sets the retry policy applied to every Redis command.
func WithRetry(cfg retry.Config) RedisOption {
	return func(s *RedisStore) {
		s.retry = cfg
	}
}

// NewRedisStore creates a Store on top of an existing Redis client.
// The client is owned by the caller.
func NewRedisStore(redisClient *redis.Client, opts ...RedisOption) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	s := &RedisStore{
		redis: redisClient,
		retry: retry.NoRetry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves the raw value stored under key.
// Returns ErrCacheMiss if the key doesn't exist.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := retry.Do(ctx, s.retry, "redis_get", func(ctx context.Context) error {
		var err error
		data, err = s.redis.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return retry.Permanent(ErrCacheMiss)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	CacheSize.Observe(float64(len(data)))
	return data, nil
}

// Set stores value under key. A positive ttl is passed to Redis so the
// backend can evict on its own; readers still check the envelope timestamp.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}

	err := retry.Do(ctx, s.retry, "redis_set", func(ctx context.Context) error {
		return s.redis.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheSize.Observe(float64(len(value)))
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	err := retry.Do(ctx, s.retry, "redis_del", func(ctx context.Context) error {
		return s.redis.Del(ctx, key).Err()
	})
	if err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
