package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryRepository keeps products in memory. It doubles as the inventory
// for the in-memory order repository.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]Product
}

// NewMemoryRepository constructs an in-memory repository seeded with products.
func NewMemoryRepository(seed ...Product) *MemoryRepository {
	r := &MemoryRepository{products: make(map[string]Product, len(seed))}
	for _, p := range seed {
		r.products[p.ID] = p
	}
	return r
}

func (r *MemoryRepository) List(_ context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	products := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (r *MemoryRepository) Upsert(_ context.Context, p Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return nil
}

// DecrementStocks applies every change or none of them. Unknown products
// are skipped, matching DecrementStockTx.
func (r *MemoryRepository) DecrementStocks(_ context.Context, changes []StockChange) error {
	for _, ch := range changes {
		if ch.Qty <= 0 {
			return fmt.Errorf("decrement %s: %w", ch.ProductID, ErrInvalidDecrement)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range changes {
		p, ok := r.products[ch.ProductID]
		if !ok {
			continue
		}
		p.Quantity -= ch.Qty
		r.products[p.ID] = p
	}
	return nil
}
