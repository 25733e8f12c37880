package models

import (
	"time"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseModel is the persistence model for the Expense aggregate root.
// Only PAID rows count towards balances, through their channel.
type ExpenseModel struct {
	TenantAggregateModel
	ExpenseNumber string                  `gorm:"type:varchar(50);not null;index"`
	StoreID       uuid.UUID               `gorm:"type:uuid;not null;index"`
	Category      finance.ExpenseCategory `gorm:"type:varchar(20);not null;index"`
	Amount        decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Description   string                  `gorm:"type:varchar(500);not null"`
	IncurredAt    time.Time               `gorm:"not null;index"`
	Status        finance.ExpenseStatus   `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Channel       *cashbox.PaymentChannel `gorm:"type:varchar(20)"`
	PaidAt        *time.Time
	PaidBy        *uuid.UUID `gorm:"type:uuid"`
	Remark        string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense
func (m *ExpenseModel) ToDomain() *finance.Expense {
	return &finance.Expense{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		ExpenseNumber:       m.ExpenseNumber,
		StoreID:             m.StoreID,
		Category:            m.Category,
		Amount:              m.Amount,
		Description:         m.Description,
		IncurredAt:          m.IncurredAt,
		Status:              m.Status,
		Channel:             m.Channel,
		PaidAt:              m.PaidAt,
		PaidBy:              m.PaidBy,
		Remark:              m.Remark,
	}
}

// ExpenseModelFromDomain creates a new persistence model from a domain Expense
func ExpenseModelFromDomain(e *finance.Expense) *ExpenseModel {
	m := &ExpenseModel{
		ExpenseNumber: e.ExpenseNumber,
		StoreID:       e.StoreID,
		Category:      e.Category,
		Amount:        e.Amount,
		Description:   e.Description,
		IncurredAt:    e.IncurredAt,
		Status:        e.Status,
		Channel:       e.Channel,
		PaidAt:        e.PaidAt,
		PaidBy:        e.PaidBy,
		Remark:        e.Remark,
	}
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	return m
}

// PaymentRecordModel holds the columns shared by the three payment tables
type PaymentRecordModel struct {
	TenantAggregateModel
	PaymentNumber string                 `gorm:"type:varchar(50);not null;index"`
	StoreID       uuid.UUID              `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Channel       cashbox.PaymentChannel `gorm:"type:varchar(20);not null;index"`
	Reference     string                 `gorm:"type:varchar(100)"`
	Remark        string                 `gorm:"type:text"`
	PaidAt        time.Time              `gorm:"not null;index"`
}

func (m *PaymentRecordModel) toDomain() finance.PaymentRecord {
	return finance.PaymentRecord{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		PaymentNumber:       m.PaymentNumber,
		StoreID:             m.StoreID,
		Amount:              m.Amount,
		Channel:             m.Channel,
		Reference:           m.Reference,
		Remark:              m.Remark,
		PaidAt:              m.PaidAt,
	}
}

func paymentRecordModelFromDomain(p finance.PaymentRecord) PaymentRecordModel {
	m := PaymentRecordModel{
		PaymentNumber: p.PaymentNumber,
		StoreID:       p.StoreID,
		Amount:        p.Amount,
		Channel:       p.Channel,
		Reference:     p.Reference,
		Remark:        p.Remark,
		PaidAt:        p.PaidAt,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}

// InvoicePaymentModel is the persistence model for customer payments
type InvoicePaymentModel struct {
	PaymentRecordModel
	InvoiceID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (InvoicePaymentModel) TableName() string {
	return "invoice_payments"
}

// ToDomain converts the persistence model to a domain InvoicePayment
func (m *InvoicePaymentModel) ToDomain() *finance.InvoicePayment {
	return &finance.InvoicePayment{
		PaymentRecord: m.toDomain(),
		InvoiceID:     m.InvoiceID,
		CustomerID:    m.CustomerID,
	}
}

// InvoicePaymentModelFromDomain creates a new persistence model from a domain InvoicePayment
func InvoicePaymentModelFromDomain(p *finance.InvoicePayment) *InvoicePaymentModel {
	return &InvoicePaymentModel{
		PaymentRecordModel: paymentRecordModelFromDomain(p.PaymentRecord),
		InvoiceID:          p.InvoiceID,
		CustomerID:         p.CustomerID,
	}
}

// SupplierPaymentModel is the persistence model for supplier payments
type SupplierPaymentModel struct {
	PaymentRecordModel
	SupplierID uuid.UUID  `gorm:"type:uuid;not null;index"`
	PurchaseID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (SupplierPaymentModel) TableName() string {
	return "supplier_payments"
}

// ToDomain converts the persistence model to a domain SupplierPayment
func (m *SupplierPaymentModel) ToDomain() *finance.SupplierPayment {
	return &finance.SupplierPayment{
		PaymentRecord: m.toDomain(),
		SupplierID:    m.SupplierID,
		PurchaseID:    m.PurchaseID,
	}
}

// SupplierPaymentModelFromDomain creates a new persistence model from a domain SupplierPayment
func SupplierPaymentModelFromDomain(p *finance.SupplierPayment) *SupplierPaymentModel {
	return &SupplierPaymentModel{
		PaymentRecordModel: paymentRecordModelFromDomain(p.PaymentRecord),
		SupplierID:         p.SupplierID,
		PurchaseID:         p.PurchaseID,
	}
}

// LoanPaymentModel is the persistence model for loan repayments
type LoanPaymentModel struct {
	PaymentRecordModel
	LoanID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (LoanPaymentModel) TableName() string {
	return "loan_payments"
}

// ToDomain converts the persistence model to a domain LoanPayment
func (m *LoanPaymentModel) ToDomain() *finance.LoanPayment {
	return &finance.LoanPayment{
		PaymentRecord: m.toDomain(),
		LoanID:        m.LoanID,
	}
}

// LoanPaymentModelFromDomain creates a new persistence model from a domain LoanPayment
func LoanPaymentModelFromDomain(p *finance.LoanPayment) *LoanPaymentModel {
	return &LoanPaymentModel{
		PaymentRecordModel: paymentRecordModelFromDomain(p.PaymentRecord),
		LoanID:             p.LoanID,
	}
}

// AllModels lists every model in dependency order, for AutoMigrate in tests
func AllModels() []any {
	return []any{
		&StoreModel{},
		&CashboxModel{},
		&CashboxSessionModel{},
		&CashMovementModel{},
		&CashCountModel{},
		&SaleModel{},
		&ExpenseModel{},
		&InvoicePaymentModel{},
		&SupplierPaymentModel{},
		&LoanPaymentModel{},
		&DocumentSequenceModel{},
	}
}
