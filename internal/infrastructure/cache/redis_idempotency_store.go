package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// pendingMarker is stored while a request holding the key is in flight
const pendingMarker = "\x00pending"

// releaseScript deletes a key only while it still holds the pending marker,
// so a late Release never drops a completed result.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisIdempotencyStore shares idempotency keys across instances through Redis
type RedisIdempotencyStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisClient connects to Redis and pings it
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisIdempotencyStore wraps an existing client
func NewRedisIdempotencyStore(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = "treasury:idempotency:"
	}
	return &RedisIdempotencyStore{client: client, keyPrefix: keyPrefix}
}

// Reserve implements shared.IdempotencyStore using SET NX
func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, pendingMarker, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Complete implements shared.IdempotencyStore
func (s *RedisIdempotencyStore) Complete(ctx context.Context, key, resultID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, resultID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	return nil
}

// Lookup implements shared.IdempotencyStore
func (s *RedisIdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if v == pendingMarker {
		return "", true, nil
	}
	return v, true, nil
}

// Release implements shared.IdempotencyStore
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{s.keyPrefix + key}, pendingMarker).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
