package finance

import (
	"fmt"
	"time"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory represents the category of an expense
type ExpenseCategory string

const (
	ExpenseCategoryRent        ExpenseCategory = "RENT"
	ExpenseCategoryUtilities   ExpenseCategory = "UTILITIES"
	ExpenseCategorySalary      ExpenseCategory = "SALARY"
	ExpenseCategorySupplies    ExpenseCategory = "SUPPLIES"
	ExpenseCategoryTransport   ExpenseCategory = "TRANSPORT"
	ExpenseCategoryMaintenance ExpenseCategory = "MAINTENANCE"
	ExpenseCategoryTax         ExpenseCategory = "TAX"
	ExpenseCategoryOther       ExpenseCategory = "OTHER"
)

// IsValid checks if the category is a valid ExpenseCategory
func (c ExpenseCategory) IsValid() bool {
	switch c {
	case ExpenseCategoryRent, ExpenseCategoryUtilities, ExpenseCategorySalary,
		ExpenseCategorySupplies, ExpenseCategoryTransport, ExpenseCategoryMaintenance,
		ExpenseCategoryTax, ExpenseCategoryOther:
		return true
	}
	return false
}

// ExpenseStatus represents the status of an expense
type ExpenseStatus string

const (
	ExpenseStatusPending   ExpenseStatus = "PENDING"
	ExpenseStatusPaid      ExpenseStatus = "PAID"
	ExpenseStatusCancelled ExpenseStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ExpenseStatus
func (s ExpenseStatus) IsValid() bool {
	switch s {
	case ExpenseStatusPending, ExpenseStatusPaid, ExpenseStatusCancelled:
		return true
	}
	return false
}

// Expense is an operating cost of a store. It moves money only while PAID.
type Expense struct {
	shared.TenantAggregateRoot
	ExpenseNumber string
	StoreID       uuid.UUID
	Category      ExpenseCategory
	Amount        decimal.Decimal
	Description   string
	IncurredAt    time.Time
	Status        ExpenseStatus
	Channel       *cashbox.PaymentChannel
	PaidAt        *time.Time
	PaidBy        *uuid.UUID
	Remark        string
}

// NewExpense creates a pending expense
func NewExpense(
	tenantID, storeID uuid.UUID,
	expenseNumber string,
	category ExpenseCategory,
	amount decimal.Decimal,
	description string,
	incurredAt time.Time,
) (*Expense, error) {
	if expenseNumber == "" {
		return nil, shared.NewDomainError("INVALID_EXPENSE_NUMBER", "Expense number cannot be empty")
	}
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STORE", "Store ID cannot be empty")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_EXPENSE_CATEGORY", "Expense category is not valid")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}
	if len(description) > 500 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}
	if incurredAt.IsZero() {
		incurredAt = time.Now()
	}

	e := &Expense{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ExpenseNumber:       expenseNumber,
		StoreID:             storeID,
		Category:            category,
		Amount:              amount,
		Description:         description,
		IncurredAt:          incurredAt,
		Status:              ExpenseStatusPending,
	}
	e.AddDomainEvent(NewExpenseCreatedEvent(e))
	return e, nil
}

// Pay settles the expense through channel
func (e *Expense) Pay(channel cashbox.PaymentChannel, paidBy uuid.UUID) error {
	if e.Status != ExpenseStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pay expense in %s status", e.Status))
	}
	if !channel.IsValid() {
		return shared.NewDomainErrorf(cashbox.CodeInvalidChannel, "Unknown payment channel %q", channel)
	}

	now := time.Now()
	e.Status = ExpenseStatusPaid
	e.Channel = &channel
	e.PaidAt = &now
	if paidBy != uuid.Nil {
		e.PaidBy = &paidBy
	}
	e.IncrementVersion()
	e.AddDomainEvent(NewExpensePaymentEvent(e, EventTypeExpensePaid, channel, e.Amount.Neg()))
	return nil
}

// ReversePayment moves a paid expense back to PENDING and returns the money
func (e *Expense) ReversePayment(reason string) error {
	if e.Status != ExpenseStatusPaid || e.Channel == nil {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reverse payment of expense in %s status", e.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Reversal reason is required")
	}

	channel := *e.Channel
	e.Status = ExpenseStatusPending
	e.Channel = nil
	e.PaidAt = nil
	e.PaidBy = nil
	e.Remark = reason
	e.IncrementVersion()
	e.AddDomainEvent(NewExpensePaymentEvent(e, EventTypeExpensePaymentReversed, channel, e.Amount))
	return nil
}

// Cancel drops an unpaid expense
func (e *Expense) Cancel(reason string) error {
	if e.Status != ExpenseStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel expense in %s status", e.Status))
	}
	e.Status = ExpenseStatusCancelled
	e.Remark = reason
	e.IncrementVersion()
	e.AddDomainEvent(NewExpenseCancelledEvent(e))
	return nil
}

// IsPaid returns true if the expense is paid
func (e *Expense) IsPaid() bool {
	return e.Status == ExpenseStatusPaid
}
