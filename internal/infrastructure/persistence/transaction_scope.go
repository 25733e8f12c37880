package persistence

import (
	"context"

	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/finance"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/domain/store"
	"github.com/erp/treasury/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appcashbox.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories builds repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Cashboxes() cashbox.CashboxRepository {
	return NewGormCashboxRepository(r.tx)
}

func (r *gormTransactionalRepositories) Sessions() cashbox.SessionRepository {
	return NewGormSessionRepository(r.tx)
}

func (r *gormTransactionalRepositories) Movements() cashbox.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

func (r *gormTransactionalRepositories) Counts() cashbox.CashCountRepository {
	return NewGormCashCountRepository(r.tx)
}

func (r *gormTransactionalRepositories) Balances() cashbox.BalanceSource {
	return NewGormBalanceSource(r.tx)
}

func (r *gormTransactionalRepositories) Stores() store.StoreRepository {
	return NewGormStoreRepository(r.tx)
}

func (r *gormTransactionalRepositories) Sales() trade.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormTransactionalRepositories) Expenses() finance.ExpenseRepository {
	return NewGormExpenseRepository(r.tx)
}

func (r *gormTransactionalRepositories) InvoicePayments() finance.InvoicePaymentRepository {
	return NewGormInvoicePaymentRepository(r.tx)
}

func (r *gormTransactionalRepositories) SupplierPayments() finance.SupplierPaymentRepository {
	return NewGormSupplierPaymentRepository(r.tx)
}

func (r *gormTransactionalRepositories) LoanPayments() finance.LoanPaymentRepository {
	return NewGormLoanPaymentRepository(r.tx)
}

func (r *gormTransactionalRepositories) Numbers() shared.DocumentNumberGenerator {
	return NewGormDocumentNumberGenerator(r.tx)
}

var (
	_ appcashbox.TransactionScope          = (*GormTransactionScope)(nil)
	_ appcashbox.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
