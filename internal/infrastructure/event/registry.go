package event

import (
	"sync"

	"github.com/erp/treasury/internal/domain/shared"
)

// HandlerRegistry maps event types to handlers
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	wildcard []shared.EventHandler
}

// NewHandlerRegistry creates a new handler registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string][]shared.EventHandler)}
}

// Register adds a handler for the given types; no types means every event
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(eventTypes) == 0 {
		r.wildcard = append(r.wildcard, handler)
		return
	}
	for _, t := range eventTypes {
		r.handlers[t] = append(r.handlers[t], handler)
	}
}

// Unregister removes a handler from every type
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wildcard = without(r.wildcard, handler)
	for t, hs := range r.handlers {
		if hs = without(hs, handler); len(hs) == 0 {
			delete(r.handlers, t)
		} else {
			r.handlers[t] = hs
		}
	}
}

// Handlers returns type-specific handlers followed by wildcard handlers
func (r *HandlerRegistry) Handlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]shared.EventHandler, 0, len(r.handlers[eventType])+len(r.wildcard))
	out = append(out, r.handlers[eventType]...)
	return append(out, r.wildcard...)
}

func without(hs []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	out := hs[:0:0]
	for _, h := range hs {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}
