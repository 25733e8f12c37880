package shared

import (
	"context"
	"time"
)

// IdempotencyStore tracks client supplied request keys so a replayed write
// returns the original result instead of being applied twice.
type IdempotencyStore interface {
	// Reserve claims key for an in-flight request.
	// Returns false when the key is already reserved or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete stores the result reference for a reserved key
	Complete(ctx context.Context, key, resultID string, ttl time.Duration) error

	// Lookup returns the stored result reference.
	// An empty string with found=true means the key is reserved but still in flight.
	Lookup(ctx context.Context, key string) (resultID string, found bool, err error)

	// Release drops a reservation after a failed request so the client may retry
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a completed key keeps answering replays
	TTL time.Duration
	// PendingTTL bounds how long an in-flight reservation blocks retries
	PendingTTL time.Duration
	Enabled    bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:        24 * time.Hour,
		PendingTTL: 30 * time.Second,
		Enabled:    true,
	}
}
