package otp

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// deleteIfMatch removes KEYS[1] only while it still holds ARGV[1].
var deleteIfMatch = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps hashed codes in Redis and relies on key expiry for TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Redis-backed Store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Set writes hash with an expiry, overwriting any live record.
func (s *RedisStore) Set(ctx context.Context, key, hash string, ttl time.Duration) error {
	return s.client.Set(ctx, key, hash, ttl).Err()
}

// Get returns the stored hash or ErrNotFoundOrExpired.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFoundOrExpired
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// DeleteIfMatch runs a compare-and-delete script so only one caller can
// consume a given record.
func (s *RedisStore) DeleteIfMatch(ctx context.Context, key, hash string) (bool, error) {
	n, err := deleteIfMatch.Run(ctx, s.client, []string{key}, hash).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
