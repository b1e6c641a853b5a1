package catalog

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory catalog used for tests and local wiring.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]Product
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository(products ...Product) *MemoryRepository {
	m := &MemoryRepository{products: make(map[string]Product, len(products))}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

// Put adds or replaces a product.
func (m *MemoryRepository) Put(p Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *MemoryRepository) FindByIDs(ctx context.Context, ids []string) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
