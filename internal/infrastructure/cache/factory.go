package cache

import (
	"context"
	"fmt"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/config"
	"go.uber.org/zap"
)

// IdempotencyStoreFactory picks the idempotency store for the deployment
type IdempotencyStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption configures the factory
type FactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *IdempotencyStoreFactory) { f.logger = logger }
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the in-memory store
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *IdempotencyStoreFactory) { f.allowInMemoryFallback = allow }
}

// NewIdempotencyStoreFactory creates a new factory
func NewIdempotencyStoreFactory(cfg config.RedisConfig, opts ...FactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store, or the in-memory store when Redis is
// unreachable and fallback is allowed.
func (f *IdempotencyStoreFactory) CreateStore(ctx context.Context) (shared.IdempotencyStore, error) {
	client, err := NewRedisClient(ctx, f.redisConfig.Addr(), f.redisConfig.Password, f.redisConfig.DB)
	if err == nil {
		f.logger.Info("using Redis idempotency store", zap.String("addr", f.redisConfig.Addr()))
		return NewRedisIdempotencyStore(client, ""), nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store; "+
		"replayed requests are only detected on the instance that served them",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}
