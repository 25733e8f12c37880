package event

import (
	"context"

	"github.com/erp/treasury/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotentHandler runs the wrapped handler at most once per event ID.
// A failed run releases the reservation so a redelivery can retry.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger
	name    string
}

// NewIdempotentHandler wraps handler; name namespaces the keys per handler
func NewIdempotentHandler(name string, handler shared.EventHandler, store shared.IdempotencyStore, cfg shared.IdempotencyConfig, logger *zap.Logger) *IdempotentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdempotentHandler{handler: handler, store: store, config: cfg, logger: logger, name: name}
}

// EventTypes implements shared.EventHandler
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle implements shared.EventHandler
func (h *IdempotentHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, evt)
	}

	key := "event:" + h.name + ":" + evt.EventID().String()
	fresh, err := h.store.Reserve(ctx, key, h.config.PendingTTL)
	if err != nil {
		// Store outage: process anyway, handlers tolerate a rare duplicate.
		h.logger.Warn("idempotency store unavailable", zap.Error(err))
		return h.handler.Handle(ctx, evt)
	}
	if !fresh {
		h.logger.Debug("duplicate event skipped",
			zap.String("handler", h.name),
			zap.String("event_id", evt.EventID().String()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, evt); err != nil {
		_ = h.store.Release(ctx, key)
		return err
	}
	return h.store.Complete(ctx, key, evt.EventID().String(), h.config.TTL)
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
