package trade

import (
	"fmt"
	"strings"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the payment state of a sale
type SaleStatus string

const (
	SaleStatusPending       SaleStatus = "PENDING"
	SaleStatusPartiallyPaid SaleStatus = "PARTIALLY_PAID"
	SaleStatusPaid          SaleStatus = "PAID"
	SaleStatusCancelled     SaleStatus = "CANCELLED"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusPending, SaleStatusPartiallyPaid, SaleStatusPaid, SaleStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// Sale is a point of sale transaction. Only its paid amount moves money.
type Sale struct {
	shared.TenantAggregateRoot
	SaleNumber   string
	StoreID      uuid.UUID
	CustomerName string
	TotalAmount  decimal.Decimal
	PaidAmount   decimal.Decimal
	Channel      cashbox.PaymentChannel
	Status       SaleStatus
	Remark       string
}

// NewSale creates an unpaid sale
func NewSale(tenantID, storeID uuid.UUID, saleNumber string, total decimal.Decimal, channel cashbox.PaymentChannel) (*Sale, error) {
	if saleNumber == "" {
		return nil, shared.NewDomainError("INVALID_SALE_NUMBER", "Sale number cannot be empty")
	}
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STORE", "Store ID cannot be empty")
	}
	if !total.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount must be positive")
	}
	if !channel.IsValid() {
		return nil, shared.NewDomainErrorf(cashbox.CodeInvalidChannel, "Unknown payment channel %q", channel)
	}

	s := &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SaleNumber:          saleNumber,
		StoreID:             storeID,
		TotalAmount:         total,
		PaidAmount:          decimal.Zero,
		Channel:             channel,
		Status:              SaleStatusPending,
	}
	s.AddDomainEvent(NewSaleCreatedEvent(s))
	return s, nil
}

// SetCustomer records who bought
func (s *Sale) SetCustomer(name string) {
	s.CustomerName = strings.TrimSpace(name)
}

// RemainingAmount returns total - paid
func (s *Sale) RemainingAmount() decimal.Decimal {
	return s.TotalAmount.Sub(s.PaidAmount)
}

// RecordPayment increases the paid amount
func (s *Sale) RecordPayment(amount decimal.Decimal) error {
	if s.Status == SaleStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot pay a cancelled sale")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThan(s.RemainingAmount()) {
		return shared.NewDomainError("EXCEEDS_OUTSTANDING",
			fmt.Sprintf("Payment %s exceeds the remaining %s", amount, s.RemainingAmount()))
	}

	s.PaidAmount = s.PaidAmount.Add(amount)
	s.refreshStatus()
	s.IncrementVersion()
	s.AddDomainEvent(NewSalePaidAmountChangedEvent(s, amount))
	return nil
}

// RefundPayment decreases the paid amount
func (s *Sale) RefundPayment(amount decimal.Decimal, reason string) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Refund amount must be positive")
	}
	if amount.GreaterThan(s.PaidAmount) {
		return shared.NewDomainError("EXCEEDS_PAID",
			fmt.Sprintf("Refund %s exceeds the paid %s", amount, s.PaidAmount))
	}

	s.PaidAmount = s.PaidAmount.Sub(amount)
	if s.Status != SaleStatusCancelled {
		s.refreshStatus()
	}
	if reason != "" {
		s.Remark = reason
	}
	s.IncrementVersion()
	s.AddDomainEvent(NewSalePaidAmountChangedEvent(s, amount.Neg()))
	return nil
}

// Cancel voids a sale that has nothing paid on it
func (s *Sale) Cancel(reason string) error {
	if s.Status == SaleStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Sale is already cancelled")
	}
	if !s.PaidAmount.IsZero() {
		return shared.NewDomainError("INVALID_STATE", "Refund the paid amount before cancelling the sale")
	}
	s.Status = SaleStatusCancelled
	s.Remark = reason
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleCancelledEvent(s))
	return nil
}

func (s *Sale) refreshStatus() {
	switch {
	case s.PaidAmount.IsZero():
		s.Status = SaleStatusPending
	case s.PaidAmount.GreaterThanOrEqual(s.TotalAmount):
		s.Status = SaleStatusPaid
	default:
		s.Status = SaleStatusPartiallyPaid
	}
}

// IsPaid returns true when the sale is fully paid
func (s *Sale) IsPaid() bool {
	return s.Status == SaleStatusPaid
}
