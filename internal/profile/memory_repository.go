package profile

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Profile
}

// NewMemoryRepository constructs an in-memory repository for tests and dev.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Profile)}
}

func (r *memoryRepository) Save(_ context.Context, p Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage[p.Phone] = p
	return nil
}

func (r *memoryRepository) Get(_ context.Context, phone string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.storage[phone]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}
