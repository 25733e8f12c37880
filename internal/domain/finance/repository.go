package finance

import (
	"context"
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
)

// ExpenseFilter defines filtering options for expense queries
type ExpenseFilter struct {
	shared.Filter
	StoreID  *uuid.UUID
	Status   *ExpenseStatus
	Category *ExpenseCategory
	From     *time.Time
	To       *time.Time
}

// ExpenseRepository defines persistence for expenses
type ExpenseRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Expense, error)

	// FindByIDForUpdate loads the expense under a row lock
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Expense, error)

	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ExpenseFilter) ([]Expense, int64, error)
	Save(ctx context.Context, expense *Expense) error
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	StoreID *uuid.UUID
	From    *time.Time
	To      *time.Time
}

// InvoicePaymentRepository persists customer payments. Payments are append only.
type InvoicePaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*InvoicePayment, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) ([]InvoicePayment, int64, error)
	Create(ctx context.Context, payment *InvoicePayment) error
}

// SupplierPaymentRepository persists supplier payments. Payments are append only.
type SupplierPaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SupplierPayment, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) ([]SupplierPayment, int64, error)
	Create(ctx context.Context, payment *SupplierPayment) error
}

// LoanPaymentRepository persists loan repayments. Payments are append only.
type LoanPaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*LoanPayment, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) ([]LoanPayment, int64, error)
	Create(ctx context.Context, payment *LoanPayment) error
}
