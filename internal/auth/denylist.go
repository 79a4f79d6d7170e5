package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medicine-cart/medicine_cart/internal/clock"
)

const revokedPrefix = "revoked:"

// RedisDenylist stores revoked token ids as expiring Redis keys.
type RedisDenylist struct {
	client *redis.Client
}

// NewRedisDenylist builds a Redis-backed Denylist.
func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client}
}

func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return d.client.Set(ctx, revokedPrefix+tokenID, "1", ttl).Err()
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, revokedPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryDenylist keeps revoked token ids in process memory. It serves
// development runs without Redis.
type MemoryDenylist struct {
	mu      sync.Mutex
	clock   clock.Clock
	revoked map[string]time.Time
}

// NewMemoryDenylist builds an in-memory Denylist. A nil clk uses the system clock.
func NewMemoryDenylist(clk clock.Clock) *MemoryDenylist {
	if clk == nil {
		clk = clock.New()
	}
	return &MemoryDenylist{clock: clk, revoked: make(map[string]time.Time)}
}

func (d *MemoryDenylist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[tokenID] = d.clock.Now().Add(ttl)
	return nil
}

func (d *MemoryDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	until, ok := d.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !d.clock.Now().Before(until) {
		delete(d.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
