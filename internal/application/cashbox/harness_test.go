package cashbox_test

import (
	"context"
	"sync"
	"testing"

	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	appfinance "github.com/erp/treasury/internal/application/finance"
	apptrade "github.com/erp/treasury/internal/application/trade"
	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/persistence"
	"github.com/erp/treasury/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// harness wires every register service against one SQLite database
type harness struct {
	t        *testing.T
	ctx      context.Context
	db       *gorm.DB
	tenantID uuid.UUID
	userID   uuid.UUID
	store    testutil.StoreFixture
	events   *recordingPublisher

	sessions  *appcashbox.SessionService
	movements *appcashbox.MovementService
	balances  *appcashbox.BalanceService
	registers *appcashbox.RegisterService
	sales     *apptrade.SaleService
	payments  *appfinance.PaymentService
	expenses  *appfinance.ExpenseService
}

func newHarness(t *testing.T, opts ...appcashbox.MovementServiceOption) *harness {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	log := zaptest.NewLogger(t)
	tenantID := testutil.TestTenantID()
	events := &recordingPublisher{}

	txScope := persistence.NewGormTransactionScope(db)
	sync := appcashbox.NewSynchronizer(appcashbox.NewFundsGuard(nil), nil, log)
	cashboxes := persistence.NewGormCashboxRepository(db)
	sessions := persistence.NewGormSessionRepository(db)
	movements := persistence.NewGormMovementRepository(db)
	counts := persistence.NewGormCashCountRepository(db)

	return &harness{
		t:        t,
		ctx:      context.Background(),
		db:       db,
		tenantID: tenantID,
		userID:   testutil.TestUserID(),
		store:    testutil.SeedStore(t, db, tenantID, "S001"),
		events:   events,

		sessions:  appcashbox.NewSessionService(sessions, movements, counts, txScope, sync, events, nil, log),
		movements: appcashbox.NewMovementService(movements, txScope, sync, events, nil, log, opts...),
		balances:  appcashbox.NewBalanceService(persistence.NewGormBalanceSource(db), cashboxes, txScope, events, nil, log),
		registers: appcashbox.NewRegisterService(cashboxes, txScope, events, nil, log),
		sales:     apptrade.NewSaleService(persistence.NewGormSaleRepository(db), txScope, sync, events, log),
		payments: appfinance.NewPaymentService(
			persistence.NewGormInvoicePaymentRepository(db),
			persistence.NewGormSupplierPaymentRepository(db),
			persistence.NewGormLoanPaymentRepository(db),
			txScope, sync, events, log,
		),
		expenses: appfinance.NewExpenseService(persistence.NewGormExpenseRepository(db), txScope, sync, events, log),
	}
}

func (h *harness) dec(s string) decimal.Decimal {
	return testutil.Dec(h.t, s)
}

func (h *harness) storeID() *uuid.UUID {
	id := h.store.StoreID
	return &id
}

func (h *harness) open(opening string) *appcashbox.SessionResponse {
	h.t.Helper()
	s, err := h.sessions.Open(h.ctx, h.tenantID, h.store.CashboxID, h.userID, appcashbox.OpenSessionRequest{
		OpeningBalance: h.dec(opening),
	})
	require.NoError(h.t, err)
	return s
}

// fund records a store level cash inflow outside any session
func (h *harness) fund(amount string) {
	h.t.Helper()
	_, err := h.movements.Record(h.ctx, h.tenantID, h.userID, appcashbox.RecordMovementRequest{
		StoreID:   h.storeID(),
		Direction: "in",
		Category:  "other",
		Channel:   "cash",
		Amount:    h.dec(amount),
	}, "")
	require.NoError(h.t, err)
}

func (h *harness) cashSale(total string) *apptrade.SaleResponse {
	h.t.Helper()
	paid := h.dec(total)
	sale, err := h.sales.Create(h.ctx, h.tenantID, apptrade.CreateSaleRequest{
		StoreID:        h.store.StoreID,
		TotalAmount:    paid,
		Channel:        "cash",
		InitialPayment: &paid,
	})
	require.NoError(h.t, err)
	return sale
}

func (h *harness) cashBalance() decimal.Decimal {
	h.t.Helper()
	b, err := h.balances.ComputeBalance(h.ctx, h.tenantID, cashbox.BalanceCash, h.storeID())
	require.NoError(h.t, err)
	return b
}

func (h *harness) cached() decimal.Decimal {
	h.t.Helper()
	return testutil.CachedBalance(h.t, h.db, h.tenantID, h.store.CashboxID)
}

func (h *harness) summary(sessionID uuid.UUID) *appcashbox.SessionSummary {
	h.t.Helper()
	s, err := h.sessions.Summary(h.ctx, h.tenantID, sessionID)
	require.NoError(h.t, err)
	return s
}

// requireCode asserts err is a domain error carrying code
func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, shared.NewDomainError(code, ""))
}

// requireDecimal compares decimals by value
func requireDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(expected).Equal(actual),
		"expected %s, got %s %v", expected, actual.String(), msgAndArgs)
}
