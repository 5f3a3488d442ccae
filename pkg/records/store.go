// Package records provides the authoritative product record store: a
// MongoDB implementation and an in-memory double with identical semantics.
package records

import (
	"context"

	"github.com/Sternrassler/query-cache/pkg/product"
)

// FragmentLimit caps the number of products a name-fragment lookup returns.
const FragmentLimit = 10

// Store looks up product records.
//
// FindByID returns (nil, nil) when no record has the given ID.
// FindByNameFragment performs a case-insensitive substring match on the
// display name and returns at most limit records; an empty slice means
// nothing matched. Errors are backend failures only.
type Store interface {
	FindByID(ctx context.Context, id string) (*product.Product, error)
	FindByNameFragment(ctx context.Context, fragment string, limit int) ([]product.Product, error)
}

var (
	_ Store = (*MongoStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
