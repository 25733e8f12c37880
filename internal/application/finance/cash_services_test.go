package finance_test

import (
	"context"
	"testing"

	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	appfinance "github.com/erp/treasury/internal/application/finance"
	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/persistence"
	"github.com/erp/treasury/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type financeFixture struct {
	t        *testing.T
	ctx      context.Context
	tenantID uuid.UUID
	store    testutil.StoreFixture
	payments *appfinance.PaymentService
	expenses *appfinance.ExpenseService
	balances *appcashbox.BalanceService
	cached   func() decimal.Decimal
}

func newFinanceFixture(t *testing.T) *financeFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	log := zaptest.NewLogger(t)
	tenantID := testutil.TestTenantID()
	store := testutil.SeedStore(t, db, tenantID, "S001")

	txScope := persistence.NewGormTransactionScope(db)
	sync := appcashbox.NewSynchronizer(appcashbox.NewFundsGuard(nil), nil, log)

	return &financeFixture{
		t:        t,
		ctx:      context.Background(),
		tenantID: tenantID,
		store:    store,
		payments: appfinance.NewPaymentService(
			persistence.NewGormInvoicePaymentRepository(db),
			persistence.NewGormSupplierPaymentRepository(db),
			persistence.NewGormLoanPaymentRepository(db),
			txScope, sync, nil, log,
		),
		expenses: appfinance.NewExpenseService(persistence.NewGormExpenseRepository(db), txScope, sync, nil, log),
		balances: appcashbox.NewBalanceService(persistence.NewGormBalanceSource(db),
			persistence.NewGormCashboxRepository(db), txScope, nil, nil, log),
		cached: func() decimal.Decimal {
			return testutil.CachedBalance(t, db, tenantID, store.CashboxID)
		},
	}
}

func (f *financeFixture) balance(ch cashbox.BalanceChannel) decimal.Decimal {
	f.t.Helper()
	id := f.store.StoreID
	b, err := f.balances.ComputeBalance(f.ctx, f.tenantID, ch, &id)
	require.NoError(f.t, err)
	return b
}

func (f *financeFixture) payment(amount, channel string) appfinance.RecordPaymentRequest {
	return appfinance.RecordPaymentRequest{
		StoreID:       f.store.StoreID,
		CounterpartID: uuid.New(),
		Amount:        testutil.Dec(f.t, amount),
		Channel:       channel,
	}
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.ErrorIs(t, err, shared.NewDomainError(code, ""))
}

func TestPaymentService_InvoicePaymentFundsTheChannel(t *testing.T) {
	f := newFinanceFixture(t)

	req := f.payment("1200", "mobile_money")
	req.Reference = "MM-778"
	p, err := f.payments.RecordInvoicePayment(f.ctx, f.tenantID, req)
	require.NoError(t, err)
	assert.Equal(t, "INVOICE", p.Kind)
	assert.Equal(t, req.CounterpartID, p.CounterpartID)
	assert.Equal(t, "MM-778", p.Reference)
	assert.Regexp(t, `^RCV-\d{6}-\d{5}$`, p.PaymentNumber)

	assertDecimal(t, "1200", f.balance(cashbox.BalanceMobileMoney))
	assertDecimal(t, "0", f.balance(cashbox.BalanceCash))
	assertDecimal(t, "0", f.cached())

	got, err := f.payments.GetInvoicePayment(f.ctx, f.tenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.PaymentNumber, got.PaymentNumber)

	_, err = f.payments.GetInvoicePayment(f.ctx, testutil.NewTestUUID("other-tenant"), p.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPaymentService_OutgoingPaymentsNeedFunds(t *testing.T) {
	f := newFinanceFixture(t)

	_, err := f.payments.RecordSupplierPayment(f.ctx, f.tenantID, f.payment("10", "cash"))
	requireCode(t, err, cashbox.CodeInsufficientFunds)

	_, err = f.payments.RecordInvoicePayment(f.ctx, f.tenantID, f.payment("500", "cash"))
	require.NoError(t, err)
	assertDecimal(t, "500", f.cached())

	s, err := f.payments.RecordSupplierPayment(f.ctx, f.tenantID, f.payment("500", "cash"))
	require.NoError(t, err)
	assert.Regexp(t, `^SPY-\d{6}-\d{5}$`, s.PaymentNumber)
	assertDecimal(t, "0", f.cached())
	assertDecimal(t, "0", f.balance(cashbox.BalanceCash))

	_, err = f.payments.RecordLoanPayment(f.ctx, f.tenantID, f.payment("1", "cash"))
	requireCode(t, err, cashbox.CodeInsufficientFunds)

	// card and check positions are not tracked
	_, err = f.payments.RecordLoanPayment(f.ctx, f.tenantID, f.payment("75", "check"))
	require.NoError(t, err)
}

func TestPaymentService_Validation(t *testing.T) {
	f := newFinanceFixture(t)

	_, err := f.payments.RecordInvoicePayment(f.ctx, f.tenantID, f.payment("10", "barter"))
	requireCode(t, err, cashbox.CodeInvalidChannel)

	_, err = f.payments.RecordInvoicePayment(f.ctx, f.tenantID, f.payment("0", "cash"))
	requireCode(t, err, "INVALID_AMOUNT")

	req := f.payment("10", "cash")
	req.CounterpartID = uuid.Nil
	_, err = f.payments.RecordSupplierPayment(f.ctx, f.tenantID, req)
	requireCode(t, err, "INVALID_SUPPLIER")

	req = f.payment("10", "cash")
	req.StoreID = uuid.New()
	_, err = f.payments.RecordInvoicePayment(f.ctx, f.tenantID, req)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPaymentService_Lists(t *testing.T) {
	f := newFinanceFixture(t)
	for _, amount := range []string{"100", "200", "300"} {
		_, err := f.payments.RecordInvoicePayment(f.ctx, f.tenantID, f.payment(amount, "cash"))
		require.NoError(t, err)
	}
	_, err := f.payments.RecordLoanPayment(f.ctx, f.tenantID, f.payment("50", "cash"))
	require.NoError(t, err)

	invoices, total, err := f.payments.ListInvoicePayments(f.ctx, f.tenantID, appfinance.PaymentListFilter{
		StoreID: f.store.StoreID.String(), PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, invoices, 2)

	loans, total, err := f.payments.ListLoanPayments(f.ctx, f.tenantID, appfinance.PaymentListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "LOAN", loans[0].Kind)

	suppliers, total, err := f.payments.ListSupplierPayments(f.ctx, f.tenantID, appfinance.PaymentListFilter{StoreID: uuid.New().String()})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, suppliers)

	_, _, err = f.payments.ListInvoicePayments(f.ctx, f.tenantID, appfinance.PaymentListFilter{StoreID: "nope"})
	requireCode(t, err, "INVALID_INPUT")
}

func TestExpenseService_StateMachine(t *testing.T) {
	f := newFinanceFixture(t)
	_, err := f.payments.RecordInvoicePayment(f.ctx, f.tenantID, f.payment("1000", "cash"))
	require.NoError(t, err)

	exp, err := f.expenses.Create(f.ctx, f.tenantID, appfinance.CreateExpenseRequest{
		StoreID:     f.store.StoreID,
		Category:    "UTILITIES",
		Amount:      testutil.Dec(t, "300"),
		Description: "Electricity",
	})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", exp.Status)
	assert.Regexp(t, `^EXP-\d{6}-\d{5}$`, exp.ExpenseNumber)
	assert.False(t, exp.IncurredAt.IsZero())

	_, err = f.expenses.ReversePayment(f.ctx, f.tenantID, exp.ID, appfinance.ReasonRequest{Reason: "not paid"})
	requireCode(t, err, "INVALID_STATE")

	paid, err := f.expenses.Pay(f.ctx, f.tenantID, exp.ID, testutil.TestUserID(), appfinance.PayExpenseRequest{Channel: "cash"})
	require.NoError(t, err)
	assert.Equal(t, "PAID", paid.Status)
	require.NotNil(t, paid.Channel)
	assert.Equal(t, "cash", *paid.Channel)
	require.NotNil(t, paid.PaidBy)
	assert.Equal(t, testutil.TestUserID(), *paid.PaidBy)
	assertDecimal(t, "700", f.cached())

	_, err = f.expenses.Cancel(f.ctx, f.tenantID, exp.ID, appfinance.ReasonRequest{Reason: "typo"})
	requireCode(t, err, "INVALID_STATE")

	_, err = f.expenses.ReversePayment(f.ctx, f.tenantID, exp.ID, appfinance.ReasonRequest{})
	requireCode(t, err, "INVALID_REASON")
	assertDecimal(t, "700", f.cached())

	reversed, err := f.expenses.ReversePayment(f.ctx, f.tenantID, exp.ID, appfinance.ReasonRequest{Reason: "bank refunded"})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", reversed.Status)
	assert.Nil(t, reversed.Channel)
	assertDecimal(t, "1000", f.cached())

	cancelled, err := f.expenses.Cancel(f.ctx, f.tenantID, exp.ID, appfinance.ReasonRequest{Reason: "duplicate"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)

	_, err = f.expenses.Pay(f.ctx, f.tenantID, exp.ID, testutil.TestUserID(), appfinance.PayExpenseRequest{Channel: "cash"})
	requireCode(t, err, "INVALID_STATE")
	assertDecimal(t, "1000", f.balance(cashbox.BalanceCash))
}

func TestExpenseService_CreateValidation(t *testing.T) {
	f := newFinanceFixture(t)

	_, err := f.expenses.Create(f.ctx, f.tenantID, appfinance.CreateExpenseRequest{
		StoreID: f.store.StoreID, Category: "PARTY", Amount: testutil.Dec(t, "10"), Description: "x",
	})
	requireCode(t, err, "INVALID_EXPENSE_CATEGORY")

	_, err = f.expenses.Create(f.ctx, f.tenantID, appfinance.CreateExpenseRequest{
		StoreID: f.store.StoreID, Category: "OTHER", Amount: testutil.Dec(t, "-1"), Description: "x",
	})
	requireCode(t, err, "INVALID_AMOUNT")

	_, err = f.expenses.Create(f.ctx, f.tenantID, appfinance.CreateExpenseRequest{
		StoreID: f.store.StoreID, Category: "OTHER", Amount: testutil.Dec(t, "10"), Description: "",
	})
	requireCode(t, err, "INVALID_DESCRIPTION")
}

func TestExpenseService_PayOnBankChecksTheBankPosition(t *testing.T) {
	f := newFinanceFixture(t)
	_, err := f.payments.RecordInvoicePayment(f.ctx, f.tenantID, f.payment("5000", "cash"))
	require.NoError(t, err)

	exp, err := f.expenses.Create(f.ctx, f.tenantID, appfinance.CreateExpenseRequest{
		StoreID: f.store.StoreID, Category: "RENT", Amount: testutil.Dec(t, "2000"), Description: "Rent",
	})
	require.NoError(t, err)

	_, err = f.expenses.Pay(f.ctx, f.tenantID, exp.ID, testutil.TestUserID(), appfinance.PayExpenseRequest{Channel: "bank_transfer"})
	requireCode(t, err, cashbox.CodeInsufficientFunds)
	assertDecimal(t, "5000", f.cached())
}

func TestExpenseService_List(t *testing.T) {
	f := newFinanceFixture(t)
	for _, c := range []string{"RENT", "TAX", "TAX"} {
		_, err := f.expenses.Create(f.ctx, f.tenantID, appfinance.CreateExpenseRequest{
			StoreID: f.store.StoreID, Category: c, Amount: testutil.Dec(t, "10"), Description: c,
		})
		require.NoError(t, err)
	}

	taxes, total, err := f.expenses.List(f.ctx, f.tenantID, appfinance.ExpenseListFilter{Category: "TAX"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, taxes, 2)

	pending, total, err := f.expenses.List(f.ctx, f.tenantID, appfinance.ExpenseListFilter{Status: "PENDING", StoreID: f.store.StoreID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, pending, 3)

	_, _, err = f.expenses.List(f.ctx, f.tenantID, appfinance.ExpenseListFilter{Category: "PARTY"})
	requireCode(t, err, "INVALID_INPUT")
}
