package trade

import (
	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeSale = "Sale"

	EventTypeSaleCreated           = "SaleCreated"
	EventTypeSalePaidAmountChanged = "SalePaidAmountChanged"
	EventTypeSaleCancelled         = "SaleCancelled"
)

// SaleCreatedEvent is raised when a sale is created
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	SaleID      uuid.UUID              `json:"sale_id"`
	SaleNumber  string                 `json:"sale_number"`
	StoreID     uuid.UUID              `json:"store_id"`
	TotalAmount decimal.Decimal        `json:"total_amount"`
	Channel     cashbox.PaymentChannel `json:"channel"`
}

// NewSaleCreatedEvent creates a new SaleCreatedEvent
func NewSaleCreatedEvent(s *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		SaleNumber:      s.SaleNumber,
		StoreID:         s.StoreID,
		TotalAmount:     s.TotalAmount,
		Channel:         s.Channel,
	}
}

// SalePaidAmountChangedEvent is raised whenever the paid amount moves.
// Delta is positive for payments and negative for refunds.
type SalePaidAmountChangedEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID              `json:"sale_id"`
	SaleNumber string                 `json:"sale_number"`
	StoreID    uuid.UUID              `json:"store_id"`
	Channel    cashbox.PaymentChannel `json:"channel"`
	Delta      decimal.Decimal        `json:"delta"`
	PaidAmount decimal.Decimal        `json:"paid_amount"`
	Status     SaleStatus             `json:"status"`
}

// NewSalePaidAmountChangedEvent creates a new SalePaidAmountChangedEvent
func NewSalePaidAmountChangedEvent(s *Sale, delta decimal.Decimal) *SalePaidAmountChangedEvent {
	return &SalePaidAmountChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalePaidAmountChanged, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		SaleNumber:      s.SaleNumber,
		StoreID:         s.StoreID,
		Channel:         s.Channel,
		Delta:           delta,
		PaidAmount:      s.PaidAmount,
		Status:          s.Status,
	}
}

// CashEffects implements cashbox.CashAffecting
func (e *SalePaidAmountChangedEvent) CashEffects() []cashbox.CashEffect {
	return cashbox.SourceEffect(e.TenantID(), e.StoreID, e.Channel, e.Delta,
		cashbox.SourceRef{Type: cashbox.SourceSale, ID: e.SaleID, Number: e.SaleNumber})
}

// SaleCancelledEvent is raised when a sale is voided
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID `json:"sale_id"`
	SaleNumber string    `json:"sale_number"`
	Reason     string    `json:"reason"`
}

// NewSaleCancelledEvent creates a new SaleCancelledEvent
func NewSaleCancelledEvent(s *Sale) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		SaleNumber:      s.SaleNumber,
		Reason:          s.Remark,
	}
}
