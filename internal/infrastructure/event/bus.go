// Package event delivers committed domain events to in-process handlers.
package event

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/erp/treasury/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus dispatches events synchronously to registered handlers.
// Handler failures are logged and never reach the publisher: by the time an
// event is published the state change it describes is already committed.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	running  atomic.Bool
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger.Named("event_bus"),
	}
}

// Publish delivers events to their handlers in registration order
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, evt := range events {
		for _, h := range b.registry.Handlers(evt.EventType()) {
			if err := b.dispatch(ctx, h, evt); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("event_type", evt.EventType()),
					zap.String("event_id", evt.EventID().String()),
					zap.String("aggregate_id", evt.AggregateID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a handler; without explicit types the handler's own EventTypes are used
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start marks the bus as running
func (b *InMemoryEventBus) Start(context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started")
	return nil
}

// Stop marks the bus as stopped
func (b *InMemoryEventBus) Stop(context.Context) error {
	b.running.Store(false)
	b.logger.Info("event bus stopped")
	return nil
}

// IsRunning reports whether Start was called without a later Stop
func (b *InMemoryEventBus) IsRunning() bool {
	return b.running.Load()
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, h shared.EventHandler, evt shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, evt)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
