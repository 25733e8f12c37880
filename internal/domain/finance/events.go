package finance

import (
	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeExpense = "Expense"
	AggregateTypePayment = "Payment"

	EventTypeExpenseCreated         = "ExpenseCreated"
	EventTypeExpensePaid            = "ExpensePaid"
	EventTypeExpensePaymentReversed = "ExpensePaymentReversed"
	EventTypeExpenseCancelled       = "ExpenseCancelled"
	EventTypePaymentRecorded        = "PaymentRecorded"
)

// ExpenseCreatedEvent is raised when an expense is entered
type ExpenseCreatedEvent struct {
	shared.BaseDomainEvent
	ExpenseID     uuid.UUID       `json:"expense_id"`
	ExpenseNumber string          `json:"expense_number"`
	StoreID       uuid.UUID       `json:"store_id"`
	Category      ExpenseCategory `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewExpenseCreatedEvent creates a new ExpenseCreatedEvent
func NewExpenseCreatedEvent(e *Expense) *ExpenseCreatedEvent {
	return &ExpenseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseCreated, AggregateTypeExpense, e.ID, e.TenantID),
		ExpenseID:       e.ID,
		ExpenseNumber:   e.ExpenseNumber,
		StoreID:         e.StoreID,
		Category:        e.Category,
		Amount:          e.Amount,
	}
}

// ExpensePaymentEvent is raised when an expense enters or leaves PAID.
// Delta is negative on payment and positive on reversal.
type ExpensePaymentEvent struct {
	shared.BaseDomainEvent
	ExpenseID     uuid.UUID              `json:"expense_id"`
	ExpenseNumber string                 `json:"expense_number"`
	StoreID       uuid.UUID              `json:"store_id"`
	Channel       cashbox.PaymentChannel `json:"channel"`
	Delta         decimal.Decimal        `json:"delta"`
}

// NewExpensePaymentEvent creates a new ExpensePaymentEvent of eventType
func NewExpensePaymentEvent(e *Expense, eventType string, channel cashbox.PaymentChannel, delta decimal.Decimal) *ExpensePaymentEvent {
	return &ExpensePaymentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeExpense, e.ID, e.TenantID),
		ExpenseID:       e.ID,
		ExpenseNumber:   e.ExpenseNumber,
		StoreID:         e.StoreID,
		Channel:         channel,
		Delta:           delta,
	}
}

// CashEffects implements cashbox.CashAffecting
func (ev *ExpensePaymentEvent) CashEffects() []cashbox.CashEffect {
	return cashbox.SourceEffect(ev.TenantID(), ev.StoreID, ev.Channel, ev.Delta,
		cashbox.SourceRef{Type: cashbox.SourceExpense, ID: ev.ExpenseID, Number: ev.ExpenseNumber})
}

// ExpenseCancelledEvent is raised when an unpaid expense is dropped
type ExpenseCancelledEvent struct {
	shared.BaseDomainEvent
	ExpenseID uuid.UUID `json:"expense_id"`
	Reason    string    `json:"reason"`
}

// NewExpenseCancelledEvent creates a new ExpenseCancelledEvent
func NewExpenseCancelledEvent(e *Expense) *ExpenseCancelledEvent {
	return &ExpenseCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseCancelled, AggregateTypeExpense, e.ID, e.TenantID),
		ExpenseID:       e.ID,
		Reason:          e.Remark,
	}
}

// PaymentRecordedEvent is raised for invoice, supplier and loan payments
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	Kind          PaymentKind            `json:"kind"`
	PaymentID     uuid.UUID              `json:"payment_id"`
	PaymentNumber string                 `json:"payment_number"`
	StoreID       uuid.UUID              `json:"store_id"`
	CounterpartID uuid.UUID              `json:"counterpart_id"`
	Amount        decimal.Decimal        `json:"amount"`
	Channel       cashbox.PaymentChannel `json:"channel"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(kind PaymentKind, p *PaymentRecord, counterpartID uuid.UUID) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID, p.TenantID),
		Kind:            kind,
		PaymentID:       p.ID,
		PaymentNumber:   p.PaymentNumber,
		StoreID:         p.StoreID,
		CounterpartID:   counterpartID,
		Amount:          p.Amount,
		Channel:         p.Channel,
	}
}

// CashEffects implements cashbox.CashAffecting
func (ev *PaymentRecordedEvent) CashEffects() []cashbox.CashEffect {
	delta := ev.Amount
	if !ev.Kind.Inbound() {
		delta = delta.Neg()
	}
	return cashbox.SourceEffect(ev.TenantID(), ev.StoreID, ev.Channel, delta,
		cashbox.SourceRef{Type: ev.Kind.SourceType(), ID: ev.PaymentID, Number: ev.PaymentNumber})
}
