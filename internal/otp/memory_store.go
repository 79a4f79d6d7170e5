package otp

import (
	"context"
	"sync"
	"time"

	"github.com/medicine-cart/medicine_cart/internal/clock"
)

type memoryEntry struct {
	hash      string
	expiresAt time.Time
}

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   clock.Clock
}

// NewMemoryStore builds a MemoryStore. A nil clk uses the system clock.
func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.New()
	}
	return &MemoryStore{entries: make(map[string]memoryEntry), clock: clk}
}

func (s *MemoryStore) Set(_ context.Context, key, hash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{hash: hash, expiresAt: s.clock.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return "", ErrNotFoundOrExpired
	}
	return e.hash, nil
}

func (s *MemoryStore) DeleteIfMatch(_ context.Context, key, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok || e.hash != hash {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

// live must be called with mu held. Expired entries are evicted on access.
func (s *MemoryStore) live(key string) (memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.clock.Now().Before(e.expiresAt) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}
