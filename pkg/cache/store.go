package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss indicates the requested key is not present in the backend.
var ErrCacheMiss = errors.New("cache miss")

// Store is the key-value contract the query orchestrator caches through.
//
// Get returns ErrCacheMiss for an absent key; any other error is a backend
// failure. Set and Delete failures are always returned, never swallowed.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
