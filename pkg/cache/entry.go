package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/query-cache/pkg/product"
)

// DefaultTTL is how long a written envelope stays fresh.
const DefaultTTL = 60 * time.Second

// ErrInvalidEntry indicates the cached bytes are not a valid envelope.
var ErrInvalidEntry = errors.New("invalid cache entry")

// Envelope is the value stored under a cache key: the result set of one
// query plus the instant it stops being served.
//
// Envelopes are never mutated. Refreshing an entry means writing a new
// envelope over the old key.
type Envelope struct {
	// Products is the cached result set, in record-store order.
	Products []product.Product `json:"products"`

	// ExpiresAt is the first instant at which the envelope is stale.
	ExpiresAt time.Time `json:"expires_at"`
}

// Wrap creates an envelope that is fresh until now+ttl.
func Wrap(products []product.Product, ttl time.Duration, now time.Time) Envelope {
	copied := make([]product.Product, len(products))
	copy(copied, products)
	return Envelope{
		Products:  copied,
		ExpiresAt: now.Add(ttl),
	}
}

// IsFresh returns true while now is strictly before ExpiresAt.
func (e Envelope) IsFresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// TTL returns the remaining lifetime.
// Returns 0 if already stale.
func (e Envelope) TTL(now time.Time) time.Duration {
	ttl := e.ExpiresAt.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Encode serializes the envelope for storage.
func Encode(e Envelope) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal cache envelope: %w", err)
	}
	return data, nil
}

// Decode parses stored bytes into an envelope.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if e.ExpiresAt.IsZero() {
		return Envelope{}, fmt.Errorf("%w: missing expires_at", ErrInvalidEntry)
	}
	return e, nil
}
