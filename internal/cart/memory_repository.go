package cart

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string][]Item
}

// NewMemoryRepository constructs an in-memory repository for tests and dev.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string][]Item)}
}

func (r *memoryRepository) Get(_ context.Context, phone string) (Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := append([]Item{}, r.storage[phone]...)
	return Cart{Phone: phone, Items: items}, nil
}

func (r *memoryRepository) Save(_ context.Context, c Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage[c.Phone] = append([]Item{}, c.Items...)
	return nil
}

func (r *memoryRepository) Update(_ context.Context, phone string, fn func(*Cart) error) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := Cart{Phone: phone, Items: append([]Item{}, r.storage[phone]...)}
	if err := fn(&c); err != nil {
		return Cart{}, err
	}
	r.storage[phone] = append([]Item{}, c.Items...)
	return c, nil
}

func (r *memoryRepository) Delete(_ context.Context, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.storage, phone)
	return nil
}
