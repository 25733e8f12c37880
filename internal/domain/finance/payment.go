package finance

import (
	"time"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentKind distinguishes the immutable payment records of a store
type PaymentKind string

const (
	PaymentKindInvoice  PaymentKind = "INVOICE"
	PaymentKindSupplier PaymentKind = "SUPPLIER"
	PaymentKindLoan     PaymentKind = "LOAN"
)

// IsValid checks if the kind is known
func (k PaymentKind) IsValid() bool {
	switch k {
	case PaymentKindInvoice, PaymentKindSupplier, PaymentKindLoan:
		return true
	}
	return false
}

// Inbound reports whether money enters the store
func (k PaymentKind) Inbound() bool {
	return k == PaymentKindInvoice
}

// SourceType returns the ledger source type of the kind
func (k PaymentKind) SourceType() cashbox.SourceType {
	switch k {
	case PaymentKindInvoice:
		return cashbox.SourceInvoicePayment
	case PaymentKindSupplier:
		return cashbox.SourceSupplierPayment
	default:
		return cashbox.SourceLoanPayment
	}
}

// NumberPrefix returns the document number prefix of the kind
func (k PaymentKind) NumberPrefix() string {
	switch k {
	case PaymentKindInvoice:
		return "RCV"
	case PaymentKindSupplier:
		return "SPY"
	default:
		return "LPY"
	}
}

// PaymentRecord holds the fields shared by invoice, supplier and loan payments
type PaymentRecord struct {
	shared.TenantAggregateRoot
	PaymentNumber string
	StoreID       uuid.UUID
	Amount        decimal.Decimal
	Channel       cashbox.PaymentChannel
	Reference     string
	Remark        string
	PaidAt        time.Time
}

func newPayment(tenantID, storeID uuid.UUID, number string, amount decimal.Decimal, channel cashbox.PaymentChannel, reference string) (PaymentRecord, error) {
	if number == "" {
		return PaymentRecord{}, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if storeID == uuid.Nil {
		return PaymentRecord{}, shared.NewDomainError("INVALID_STORE", "Store ID cannot be empty")
	}
	if !amount.IsPositive() {
		return PaymentRecord{}, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if !channel.IsValid() {
		return PaymentRecord{}, shared.NewDomainErrorf(cashbox.CodeInvalidChannel, "Unknown payment channel %q", channel)
	}
	if len(reference) > 100 {
		return PaymentRecord{}, shared.NewDomainError("INVALID_REFERENCE", "Reference cannot exceed 100 characters")
	}
	return PaymentRecord{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentNumber:       number,
		StoreID:             storeID,
		Amount:              amount,
		Channel:             channel,
		Reference:           reference,
		PaidAt:              time.Now(),
	}, nil
}

// InvoicePayment is money received from a customer against an invoice
type InvoicePayment struct {
	PaymentRecord
	InvoiceID  uuid.UUID
	CustomerID *uuid.UUID
}

// NewInvoicePayment records a customer payment
func NewInvoicePayment(tenantID, storeID, invoiceID uuid.UUID, number string, amount decimal.Decimal, channel cashbox.PaymentChannel, reference string) (*InvoicePayment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	base, err := newPayment(tenantID, storeID, number, amount, channel, reference)
	if err != nil {
		return nil, err
	}
	p := &InvoicePayment{PaymentRecord: base, InvoiceID: invoiceID}
	p.AddDomainEvent(NewPaymentRecordedEvent(PaymentKindInvoice, &p.PaymentRecord, invoiceID))
	return p, nil
}

// SupplierPayment is money paid to a supplier
type SupplierPayment struct {
	PaymentRecord
	SupplierID uuid.UUID
	PurchaseID *uuid.UUID
}

// NewSupplierPayment records a supplier payment
func NewSupplierPayment(tenantID, storeID, supplierID uuid.UUID, number string, amount decimal.Decimal, channel cashbox.PaymentChannel, reference string) (*SupplierPayment, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	base, err := newPayment(tenantID, storeID, number, amount, channel, reference)
	if err != nil {
		return nil, err
	}
	p := &SupplierPayment{PaymentRecord: base, SupplierID: supplierID}
	p.AddDomainEvent(NewPaymentRecordedEvent(PaymentKindSupplier, &p.PaymentRecord, supplierID))
	return p, nil
}

// LoanPayment is a repayment of a loan taken by the store
type LoanPayment struct {
	PaymentRecord
	LoanID uuid.UUID
}

// NewLoanPayment records a loan repayment
func NewLoanPayment(tenantID, storeID, loanID uuid.UUID, number string, amount decimal.Decimal, channel cashbox.PaymentChannel, reference string) (*LoanPayment, error) {
	if loanID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOAN", "Loan ID cannot be empty")
	}
	base, err := newPayment(tenantID, storeID, number, amount, channel, reference)
	if err != nil {
		return nil, err
	}
	p := &LoanPayment{PaymentRecord: base, LoanID: loanID}
	p.AddDomainEvent(NewPaymentRecordedEvent(PaymentKindLoan, &p.PaymentRecord, loanID))
	return p, nil
}
