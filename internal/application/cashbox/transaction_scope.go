package cashbox

import (
	"context"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/finance"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/domain/store"
	"github.com/erp/treasury/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories that
// take part in a money-moving write. A write, its ledger entries and the
// cached balance adjustment commit or roll back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories sharing one transaction.
//
// Balances reads through the same transaction so that a funds check sees
// the rows written earlier in it.
type TransactionalRepositories interface {
	Cashboxes() cashbox.CashboxRepository
	Sessions() cashbox.SessionRepository
	Movements() cashbox.MovementRepository
	Counts() cashbox.CashCountRepository
	Balances() cashbox.BalanceSource
	Stores() store.StoreRepository
	Sales() trade.SaleRepository
	Expenses() finance.ExpenseRepository
	InvoicePayments() finance.InvoicePaymentRepository
	SupplierPayments() finance.SupplierPaymentRepository
	LoanPayments() finance.LoanPaymentRepository
	Numbers() shared.DocumentNumberGenerator
}
