package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local runs.
//
// It records every call and never evicts on its own, so expiry is only ever
// observed through the envelope timestamp. Fail* fields inject backend
// errors into the matching operation.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration

	FailGet    error
	FailSet    error
	FailDelete error

	GetCalls    int
	SetCalls    int
	DeleteCalls int
	Deleted     []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

// Get returns a copy of the stored value or ErrCacheMiss.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls++

	if s.FailGet != nil {
		return nil, s.FailGet
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, ok := s.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores a copy of value.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SetCalls++

	if s.FailSet != nil {
		return s.FailSet
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[key] = stored
	s.ttls[key] = ttl
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DeleteCalls++

	if s.FailDelete != nil {
		return s.FailDelete
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	delete(s.data, key)
	delete(s.ttls, key)
	s.Deleted = append(s.Deleted, key)
	return nil
}

// Put seeds a copy of a raw value without counting a Set call.
func (s *MemoryStore) Put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[key] = stored
}

// Has reports whether key is present.
func (s *MemoryStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// TTLOf returns the ttl passed with the last Set of key.
func (s *MemoryStore) TTLOf(key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ttl, ok := s.ttls[key]
	if !ok {
		return 0, errors.New("no ttl recorded for key")
	}
	return ttl, nil
}
