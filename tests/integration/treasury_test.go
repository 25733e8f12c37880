package integration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	appstore "github.com/erp/treasury/internal/application/store"
	apptrade "github.com/erp/treasury/internal/application/trade"
	"github.com/erp/treasury/internal/bootstrap"
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

type treasurySetup struct {
	db       *TestDB
	services *bootstrap.Services
	tenantID uuid.UUID
	userID   uuid.UUID
}

func newTreasurySetup(t *testing.T) *treasurySetup {
	t.Helper()
	tdb := NewSharedTestDB(t)
	return &treasurySetup{
		db:       tdb,
		services: bootstrap.NewServices(bootstrap.Deps{DB: tdb.DB, Logger: zaptest.NewLogger(t)}),
		tenantID: uuid.New(),
		userID:   uuid.New(),
	}
}

func (s *treasurySetup) createStore(t *testing.T, code string) *appstore.StoreResponse {
	t.Helper()
	st, err := s.services.Stores.Create(context.Background(), s.tenantID, appstore.CreateStoreRequest{Code: code, Name: "Store " + code})
	require.NoError(t, err)
	require.NotNil(t, st.Cashbox)
	return st
}

func (s *treasurySetup) fund(t *testing.T, storeID uuid.UUID, amount string) {
	t.Helper()
	_, err := s.services.Movements.Record(context.Background(), s.tenantID, s.userID, appcashbox.RecordMovementRequest{
		StoreID:   &storeID,
		Direction: "in",
		Category:  "other",
		Channel:   "cash",
		Amount:    decimal.RequireFromString(amount),
	}, "")
	require.NoError(t, err)
}

func TestRegisterDay_Postgres(t *testing.T) {
	s := newTreasurySetup(t)
	ctx := context.Background()
	st := s.createStore(t, "S001")
	cashboxID := st.Cashbox.ID

	session, err := s.services.Sessions.Open(ctx, s.tenantID, cashboxID, s.userID, appcashbox.OpenSessionRequest{
		OpeningBalance: decimal.Zero,
	})
	require.NoError(t, err)

	paid := decimal.NewFromInt(5000)
	sale, err := s.services.Sales.Create(ctx, s.tenantID, apptrade.CreateSaleRequest{
		StoreID:        st.ID,
		TotalAmount:    decimal.NewFromInt(8000),
		Channel:        "cash",
		InitialPayment: &paid,
	})
	require.NoError(t, err, "sale and its mirrored ledger entry commit together")
	assert.Equal(t, "PARTIALLY_PAID", sale.Status)

	_, err = s.services.Sales.RecordPayment(ctx, s.tenantID, sale.ID, apptrade.SalePaymentRequest{Amount: decimal.NewFromInt(3000)})
	require.NoError(t, err)

	_, err = s.services.Movements.Record(ctx, s.tenantID, s.userID, appcashbox.RecordMovementRequest{
		SessionID: &session.ID,
		Direction: "out",
		Category:  "other",
		Channel:   "cash",
		Amount:    decimal.NewFromInt(1500),
	}, "")
	require.NoError(t, err)

	summary, err := s.services.Sessions.Summary(ctx, s.tenantID, session.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(6500).Equal(summary.Expected), "expected %s", summary.Expected)

	closed, err := s.services.Sessions.Close(ctx, s.tenantID, session.ID, s.userID, appcashbox.CloseSessionRequest{
		ActualClosingBalance: decimal.NewFromInt(6450),
	})
	require.NoError(t, err)
	require.NotNil(t, closed.Discrepancy)
	assert.True(t, decimal.NewFromInt(-50).Equal(*closed.Discrepancy))

	report, err := s.services.Balances.VerifyRegister(ctx, s.tenantID, cashboxID)
	require.NoError(t, err)
	assert.True(t, report.InSync, "cached %s computed %s", report.Cached, report.Computed)
	assert.True(t, decimal.NewFromInt(6500).Equal(report.Computed))
}

func TestConcurrentWithdrawals_NeverOverdraw(t *testing.T) {
	s := newTreasurySetup(t)
	st := s.createStore(t, "S001")
	s.fund(t, st.ID, "1000")

	const workers = 10
	var succeeded, refused atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			storeID := st.ID
			_, err := s.services.Movements.Record(context.Background(), s.tenantID, s.userID, appcashbox.RecordMovementRequest{
				StoreID:   &storeID,
				Direction: "out",
				Category:  "other",
				Channel:   "cash",
				Amount:    decimal.NewFromInt(200),
			}, "")
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, cashbox.ErrInsufficientFunds):
				refused.Add(1)
			default:
				errs <- err
			}
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	assert.Equal(t, int32(5), succeeded.Load())
	assert.Equal(t, int32(5), refused.Load())

	report, err := s.services.Balances.VerifyRegister(context.Background(), s.tenantID, st.Cashbox.ID)
	require.NoError(t, err)
	assert.True(t, report.Computed.IsZero(), "computed %s", report.Computed)
	assert.True(t, report.InSync)
}

func TestConcurrentOpens_SingleSession(t *testing.T) {
	s := newTreasurySetup(t)
	st := s.createStore(t, "S001")

	const workers = 6
	var opened, rejected atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.services.Sessions.Open(context.Background(), s.tenantID, st.Cashbox.ID, s.userID, appcashbox.OpenSessionRequest{
				OpeningBalance: decimal.Zero,
			})
			switch {
			case err == nil:
				opened.Add(1)
			case errors.Is(err, cashbox.ErrAlreadyOpenSession):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), opened.Load())
	assert.Equal(t, int32(workers-1), rejected.Load())
}

func TestDocumentNumbers_UniqueUnderContention(t *testing.T) {
	s := newTreasurySetup(t)
	gen := persistence.NewGormDocumentNumberGenerator(s.db.DB)

	const workers = 20
	numbers := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := gen.Next(context.Background(), s.tenantID, "MV")
			if err != nil {
				t.Errorf("next: %v", err)
				return
			}
			numbers <- n
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for n := range numbers {
		assert.False(t, seen[n], "duplicate number %s", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
}

func TestSchemaConstraints(t *testing.T) {
	s := newTreasurySetup(t)
	ctx := context.Background()
	st := s.createStore(t, "S001")

	t.Run("store code unique per tenant", func(t *testing.T) {
		_, err := s.services.Stores.Create(ctx, s.tenantID, appstore.CreateStoreRequest{Code: "S001", Name: "Again"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)

		_, err = s.services.Stores.Create(ctx, uuid.New(), appstore.CreateStoreRequest{Code: "S001", Name: "Other tenant"})
		assert.NoError(t, err)
	})

	t.Run("one active cashbox per store", func(t *testing.T) {
		second, err := cashbox.NewCashbox(s.tenantID, st.ID, "CB-S001-2", "Spare")
		require.NoError(t, err)
		err = persistence.NewGormCashboxRepository(s.db.DB).Save(ctx, second)
		assert.ErrorIs(t, err, cashbox.ErrActiveCashboxExists)
	})

	t.Run("tenant guard rejects unscoped reads", func(t *testing.T) {
		var n int64
		err := s.db.DB.Model(&cashboxRow{}).Count(&n).Error
		assert.Error(t, err)
		assert.Equal(t, int64(1), testutil.CountRows(t, s.db.DB, s.tenantID, &cashboxRow{}))
	})
}

// cashboxRow is a minimal projection of the cashboxes table
type cashboxRow struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

func (cashboxRow) TableName() string { return "cashboxes" }
