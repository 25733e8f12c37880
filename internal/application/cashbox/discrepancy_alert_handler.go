package cashbox

import (
	"context"
	"fmt"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DiscrepancyAlert is raised when a session closes off by more than the threshold
type DiscrepancyAlert struct {
	TenantID    string          `json:"tenant_id"`
	SessionID   string          `json:"session_id"`
	CashboxID   string          `json:"cashbox_id"`
	StoreID     string          `json:"store_id"`
	OperatorID  string          `json:"operator_id"`
	Expected    decimal.Decimal `json:"expected"`
	Actual      decimal.Decimal `json:"actual"`
	Discrepancy decimal.Decimal `json:"discrepancy"`
	AlertType   string          `json:"alert_type"` // "shortage", "overage"
	Notes       string          `json:"notes,omitempty"`
}

// DiscrepancyNotifier delivers discrepancy alerts (in-app, email, ...)
type DiscrepancyNotifier interface {
	SendDiscrepancyAlert(ctx context.Context, alert DiscrepancyAlert) error
}

// DiscrepancyAlertHandler handles SessionClosed events and reports closings
// whose absolute discrepancy exceeds a threshold
type DiscrepancyAlertHandler struct {
	threshold decimal.Decimal
	notifier  DiscrepancyNotifier
	logger    *zap.Logger
}

// NewDiscrepancyAlertHandler creates a new handler. A zero threshold alerts on
// every non-zero discrepancy.
func NewDiscrepancyAlertHandler(threshold decimal.Decimal, logger *zap.Logger) *DiscrepancyAlertHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscrepancyAlertHandler{threshold: threshold.Abs(), logger: logger}
}

// WithNotifier sets the notifier for sending alerts
func (h *DiscrepancyAlertHandler) WithNotifier(notifier DiscrepancyNotifier) *DiscrepancyAlertHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *DiscrepancyAlertHandler) EventTypes() []string {
	return []string{cashbox.EventTypeSessionClosed}
}

// Handle processes a SessionClosedEvent
func (h *DiscrepancyAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	closed, ok := event.(*cashbox.SessionClosedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			cashbox.EventTypeSessionClosed, event.EventType())
	}
	if closed.Discrepancy.IsZero() || closed.Discrepancy.Abs().LessThanOrEqual(h.threshold) {
		return nil
	}

	alert := DiscrepancyAlert{
		TenantID:    event.TenantID().String(),
		SessionID:   closed.SessionID.String(),
		CashboxID:   closed.CashboxID.String(),
		StoreID:     closed.StoreID.String(),
		OperatorID:  closed.OperatorID.String(),
		Expected:    closed.ExpectedClosingBalance,
		Actual:      closed.ActualClosingBalance,
		Discrepancy: closed.Discrepancy,
		AlertType:   "overage",
		Notes:       closed.ClosingNotes,
	}
	if closed.Discrepancy.IsNegative() {
		alert.AlertType = "shortage"
	}

	h.logger.Warn("session closed with discrepancy above threshold",
		zap.String("tenant_id", alert.TenantID),
		zap.String("session_id", alert.SessionID),
		zap.String("cashbox_id", alert.CashboxID),
		zap.String("discrepancy", alert.Discrepancy.String()),
		zap.String("threshold", h.threshold.String()),
		zap.String("alert_type", alert.AlertType),
	)

	if h.notifier == nil {
		return nil
	}
	if err := h.notifier.SendDiscrepancyAlert(ctx, alert); err != nil {
		h.logger.Error("failed to send discrepancy alert",
			zap.String("session_id", alert.SessionID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

var _ shared.EventHandler = (*DiscrepancyAlertHandler)(nil)
