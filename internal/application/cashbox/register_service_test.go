package cashbox_test

import (
	"testing"
	"time"

	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/erp/treasury/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterService_DeactivateAndActivate(t *testing.T) {
	h := newHarness(t)

	session := h.open("100")
	_, err := h.registers.Deactivate(h.ctx, h.tenantID, h.store.CashboxID)
	requireCode(t, err, "INVALID_STATE")

	_, err = h.sessions.Close(h.ctx, h.tenantID, session.ID, h.userID, appcashbox.CloseSessionRequest{ActualClosingBalance: h.dec("100")})
	require.NoError(t, err)

	cb, err := h.registers.Deactivate(h.ctx, h.tenantID, h.store.CashboxID)
	require.NoError(t, err)
	assert.False(t, cb.IsActive)

	// a retired cashbox misses the cache adjustment of the sale
	h.cashSale("40")
	requireDecimal(t, "140", h.cashBalance())
	requireDecimal(t, "100", h.cached())

	cb, err = h.registers.Activate(h.ctx, h.tenantID, h.store.CashboxID)
	require.NoError(t, err)
	assert.True(t, cb.IsActive)
	requireDecimal(t, "140", cb.Balance)
	requireDecimal(t, "140", h.cached())
	assert.Contains(t, h.events.types(), cashbox.EventTypeCashboxStatusChanged)
	assert.Contains(t, h.events.types(), cashbox.EventTypeCashboxResynced)
}

func TestRegisterService_ActivateResyncsCache(t *testing.T) {
	h := newHarness(t)

	_, err := h.registers.Deactivate(h.ctx, h.tenantID, h.store.CashboxID)
	require.NoError(t, err)
	h.cashSale("5000")

	_, err = h.registers.Activate(h.ctx, h.tenantID, h.store.CashboxID)
	require.NoError(t, err)

	report, err := h.balances.VerifyRegister(h.ctx, h.tenantID, h.store.CashboxID)
	require.NoError(t, err)
	assert.True(t, report.InSync)
	requireDecimal(t, "5000", h.cached())
	requireDecimal(t, h.cashBalance().String(), h.cached())

	// writes after reactivation move the cache again
	h.cashSale("250")
	requireDecimal(t, "5250", h.cached())
	requireDecimal(t, "5250", h.cashBalance())
}

func TestRegisterService_RetiredCashboxStillGuardsDebits(t *testing.T) {
	h := newHarness(t)
	h.fund("300")

	_, err := h.registers.Deactivate(h.ctx, h.tenantID, h.store.CashboxID)
	require.NoError(t, err)

	_, err = h.movements.Record(h.ctx, h.tenantID, h.userID, appcashbox.RecordMovementRequest{
		StoreID:   h.storeID(),
		Direction: "out",
		Category:  "other",
		Channel:   "cash",
		Amount:    h.dec("301"),
	}, "")
	requireCode(t, err, cashbox.CodeInsufficientFunds)

	_, err = h.movements.Record(h.ctx, h.tenantID, h.userID, appcashbox.RecordMovementRequest{
		StoreID:   h.storeID(),
		Direction: "out",
		Category:  "other",
		Channel:   "cash",
		Amount:    h.dec("300"),
	}, "")
	require.NoError(t, err)
	requireDecimal(t, "0", h.cashBalance())
}

func TestRegisterService_ActivateRefusesSecondActiveCashbox(t *testing.T) {
	h := newHarness(t)

	_, err := h.registers.Deactivate(h.ctx, h.tenantID, h.store.CashboxID)
	require.NoError(t, err)

	replacement := &models.CashboxModel{StoreID: h.store.StoreID, Code: "CB-S001-B", Name: "Replacement", Balance: decimal.Zero, IsActive: true}
	replacement.ID = uuid.New()
	replacement.TenantID = h.tenantID
	replacement.Version = 1
	replacement.CreatedAt = time.Now()
	replacement.UpdatedAt = replacement.CreatedAt
	require.NoError(t, h.db.Create(replacement).Error)

	_, err = h.registers.Activate(h.ctx, h.tenantID, h.store.CashboxID)
	require.ErrorIs(t, err, cashbox.ErrActiveCashboxExists)
}

func TestRegisterService_GetAndList(t *testing.T) {
	h := newHarness(t)
	testutil.SeedStore(t, h.db, h.tenantID, "S002")
	testutil.SeedStore(t, h.db, testutil.NewTestUUID("other-tenant"), "S003")

	cb, err := h.registers.Get(h.ctx, h.tenantID, h.store.CashboxID)
	require.NoError(t, err)
	assert.Equal(t, "CB-S001", cb.Code)
	assert.Equal(t, h.store.StoreID, cb.StoreID)

	list, total, err := h.registers.List(h.ctx, h.tenantID, appcashbox.CashboxListFilter{OrderBy: "code", OrderDir: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, "CB-S001", list[0].Code)
	assert.Equal(t, "CB-S002", list[1].Code)

	byStore, total, err := h.registers.List(h.ctx, h.tenantID, appcashbox.CashboxListFilter{StoreID: h.store.StoreID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, h.store.CashboxID, byStore[0].ID)

	_, err = h.registers.Get(h.ctx, h.tenantID, uuid.New())
	require.ErrorIs(t, err, shared.ErrNotFound)
}
