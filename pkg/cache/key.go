package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Sternrassler/query-cache/pkg/product"
)

// KeyPrefix namespaces every derived key in a shared Redis keyspace.
const KeyPrefix = "CACHE_ASIDE_"

// KeyLength is the length of every derived key: prefix plus a hex SHA-256.
const KeyLength = len(KeyPrefix) + sha256.Size*2

// ErrKeyDerivation indicates the payload could not be canonicalized.
var ErrKeyDerivation = errors.New("cache key derivation failed")

// DeriveKey returns the cache key for a query payload.
//
// The payload is encoded as JSON with a fixed field order and explicit nulls
// for absent fields, so two payloads produce the same key exactly when they
// are field-for-field equal (including which fields are absent).
//
// Example:
//
//	CACHE_ASIDE_3f1c...e9 (76 characters)
func DeriveKey(payload product.QueryPayload) (string, error) {
	canonical, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}

	sum := sha256.Sum256(canonical)
	return KeyPrefix + hex.EncodeToString(sum[:]), nil
}
