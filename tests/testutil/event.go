package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
)

// MockEventHandler records every event it handles and can be told to fail
type MockEventHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewMockEventHandler creates a handler subscribed to eventTypes
func NewMockEventHandler(eventTypes ...string) *MockEventHandler {
	return &MockEventHandler{eventTypes: eventTypes}
}

// EventTypes implements shared.EventHandler
func (h *MockEventHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle implements shared.EventHandler
func (h *MockEventHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

// Handled returns a copy of the handled events
func (h *MockEventHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]shared.DomainEvent, len(h.handled))
	copy(out, h.handled)
	return out
}

// HandledCount returns the number of handled events
func (h *MockEventHandler) HandledCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

// SetError makes subsequent Handle calls return err
func (h *MockEventHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// Reset clears handled events and the configured error
func (h *MockEventHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = nil
	h.err = nil
}

// RecordingPublisher is an EventPublisher that keeps what services publish
type RecordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

// Publish implements shared.EventPublisher
func (p *RecordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

// Types returns the published event types in order
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// OfType returns the published events of eventType
func (p *RecordingPublisher) OfType(eventType string) []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// TestEvent is a bare domain event for bus and handler tests
type TestEvent struct {
	shared.BaseDomainEvent
	Data string
}

// NewTestEvent creates an event of eventType for tenantID
func NewTestEvent(eventType string, tenantID uuid.UUID) *TestEvent {
	return &TestEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), tenantID),
		Data:            "test-data",
	}
}

// NewTestEventWithID creates a test event with a fixed event ID, for dedup tests
func NewTestEventWithID(eventID uuid.UUID, eventType string, tenantID uuid.UUID) *TestEvent {
	evt := NewTestEvent(eventType, tenantID)
	evt.ID = eventID
	return evt
}

// WaitForCondition polls condition until it holds or timeout passes.
// It reports whether the condition was met.
func WaitForCondition(t *testing.T, condition func() bool, timeout, interval time.Duration) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return condition()
}

// WaitForEventCount waits until handler has processed at least count events
func WaitForEventCount(t *testing.T, handler *MockEventHandler, count int, timeout time.Duration) bool {
	t.Helper()

	return WaitForCondition(t, func() bool {
		return handler.HandledCount() >= count
	}, timeout, 10*time.Millisecond)
}
