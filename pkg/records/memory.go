package records

import (
	"context"
	"strings"
	"sync"

	"github.com/Sternrassler/query-cache/pkg/product"
)

// MemoryStore is an in-memory Store with the same matching rules as
// MongoStore. Results are returned in insertion order.
type MemoryStore struct {
	mu       sync.Mutex
	products []product.Product

	// Fail, when set, is returned by every lookup.
	Fail error

	FindByIDCalls       int
	FindByFragmentCalls int
}

// NewMemoryStore creates a store seeded with products.
func NewMemoryStore(products ...product.Product) *MemoryStore {
	s := &MemoryStore{}
	s.products = append(s.products, products...)
	return s
}

// Add appends products.
func (s *MemoryStore) Add(products ...product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, products...)
}

// FindByID returns the first product with the given ID.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FindByIDCalls++

	if s.Fail != nil {
		return nil, s.Fail
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, p := range s.products {
		if p.ProductID == id {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

// FindByNameFragment returns up to limit products whose display name
// contains fragment, ignoring case.
func (s *MemoryStore) FindByNameFragment(ctx context.Context, fragment string, limit int) ([]product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FindByFragmentCalls++

	if s.Fail != nil {
		return nil, s.Fail
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = FragmentLimit
	}

	needle := strings.ToLower(fragment)
	matches := make([]product.Product, 0, limit)
	for _, p := range s.products {
		if len(matches) == limit {
			break
		}
		if strings.Contains(strings.ToLower(p.ProductDisplayName), needle) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// Calls returns the total number of lookups performed.
func (s *MemoryStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.FindByIDCalls + s.FindByFragmentCalls
}
