package cashbox_test

import (
	"testing"

	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/erp/treasury/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_OpenSellClose(t *testing.T) {
	h := newHarness(t)

	session := h.open("10000")
	assert.Equal(t, "OPEN", session.Status)
	requireDecimal(t, "10000", session.OpeningBalance)

	// the declared float is reconciled into the store position outside the session
	requireDecimal(t, "10000", h.cached())
	requireDecimal(t, "10000", h.cashBalance())
	requireDecimal(t, "10000", h.summary(session.ID).Expected)

	h.cashSale("5000")

	summary := h.summary(session.ID)
	requireDecimal(t, "15000", summary.Expected)
	requireDecimal(t, "5000", summary.Inflows)
	assert.Equal(t, int64(1), summary.MovementCount)
	requireDecimal(t, "15000", h.cached())
	requireDecimal(t, "15000", h.cashBalance())

	closed, err := h.sessions.Close(h.ctx, h.tenantID, session.ID, h.userID, appcashbox.CloseSessionRequest{
		ActualClosingBalance: h.dec("15000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "CLOSED", closed.Status)
	require.NotNil(t, closed.ExpectedClosingBalance)
	requireDecimal(t, "15000", *closed.ExpectedClosingBalance)
	require.NotNil(t, closed.Discrepancy)
	assert.True(t, closed.Discrepancy.IsZero())
	assert.NotNil(t, closed.ClosedAt)

	assert.Contains(t, h.events.types(), cashbox.EventTypeSessionOpened)
	assert.Contains(t, h.events.types(), cashbox.EventTypeSessionClosed)
}

func TestSessionService_OpenMatchingComputedBalanceRecordsNoAdjustment(t *testing.T) {
	h := newHarness(t)
	h.fund("3000")
	before := testutil.CountRows(t, h.db, h.tenantID, &models.CashMovementModel{})

	h.open("3000")

	assert.Equal(t, before, testutil.CountRows(t, h.db, h.tenantID, &models.CashMovementModel{}))
	requireDecimal(t, "3000", h.cached())
}

func TestSessionService_OpenBelowComputedBalanceAdjustsDown(t *testing.T) {
	h := newHarness(t)
	h.fund("3000")

	h.open("2500")

	requireDecimal(t, "2500", h.cashBalance())
	requireDecimal(t, "2500", h.cached())

	list, _, err := h.movements.List(h.ctx, h.tenantID, appcashbox.MovementListFilter{Category: "adjustment"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "out", list[0].Direction)
	requireDecimal(t, "500", list[0].Amount)
	assert.Nil(t, list[0].SessionID)
}

func TestSessionService_SecondOpenIsRejected(t *testing.T) {
	h := newHarness(t)
	first := h.open("10000")

	_, err := h.sessions.Open(h.ctx, h.tenantID, h.store.CashboxID, h.userID, appcashbox.OpenSessionRequest{
		OpeningBalance: h.dec("10000"),
	})
	requireCode(t, err, cashbox.CodeAlreadyOpenSession)

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, first.ID.String(), de.Details["existing_session_id"])

	open, total, err := h.sessions.ListSessions(h.ctx, h.tenantID, appcashbox.SessionListFilter{Status: "OPEN"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, first.ID, open[0].ID)
}

func TestSessionService_ManualAdjustmentInsideSession(t *testing.T) {
	h := newHarness(t)
	session := h.open("10000")
	sid := session.ID

	mv, err := h.movements.Record(h.ctx, h.tenantID, h.userID, appcashbox.RecordMovementRequest{
		SessionID:   &sid,
		Direction:   "out",
		Category:    "adjustment",
		Channel:     "cash",
		Amount:      h.dec("1000"),
		Description: "Till correction",
	}, "")
	require.NoError(t, err)
	require.NotNil(t, mv.SessionID)
	assert.Equal(t, sid, *mv.SessionID)
	require.NotNil(t, mv.StoreID)
	assert.Equal(t, h.store.StoreID, *mv.StoreID)

	summary := h.summary(sid)
	requireDecimal(t, "9000", summary.Expected)
	requireDecimal(t, "1000", summary.Outflows)
	requireDecimal(t, "9000", h.cached())
	requireDecimal(t, "9000", h.cashBalance())
}

func TestSessionService_CloseWithShortage(t *testing.T) {
	h := newHarness(t)
	session := h.open("10000")

	closed, err := h.sessions.Close(h.ctx, h.tenantID, session.ID, h.userID, appcashbox.CloseSessionRequest{
		ActualClosingBalance: h.dec("9750"),
		Notes:                "short at end of day",
	})
	require.NoError(t, err)
	require.NotNil(t, closed.Discrepancy)
	requireDecimal(t, "-250", *closed.Discrepancy)
	assert.Equal(t, "short at end of day", closed.ClosingNotes)

	// a discrepancy is recorded on the session, never posted to the ledger
	requireDecimal(t, "10000", h.cached())
	requireDecimal(t, "10000", h.cashBalance())
}

func TestSessionService_ClosedSessionRejectsWrites(t *testing.T) {
	h := newHarness(t)
	session := h.open("10000")
	sid := session.ID

	_, err := h.sessions.Close(h.ctx, h.tenantID, sid, h.userID, appcashbox.CloseSessionRequest{ActualClosingBalance: h.dec("10000")})
	require.NoError(t, err)

	_, err = h.sessions.Close(h.ctx, h.tenantID, sid, h.userID, appcashbox.CloseSessionRequest{ActualClosingBalance: h.dec("10000")})
	requireCode(t, err, cashbox.CodeSessionNotOpen)

	_, err = h.movements.Record(h.ctx, h.tenantID, h.userID, appcashbox.RecordMovementRequest{
		SessionID: &sid,
		Direction: "in",
		Category:  "other",
		Channel:   "cash",
		Amount:    h.dec("10"),
	}, "")
	requireCode(t, err, cashbox.CodeSessionNotOpen)

	_, err = h.sessions.RecordCount(h.ctx, h.tenantID, sid, h.userID, appcashbox.RecordCountRequest{
		CountType:  "interim",
		Quantities: map[string]int{"note_1000": 1},
	})
	requireCode(t, err, cashbox.CodeSessionNotOpen)

	// a new session may open once the previous one is closed
	reopened := h.open("10000")
	assert.NotEqual(t, sid, reopened.ID)
}

func TestSessionService_SalesWithoutOpenSessionAreNotMirrored(t *testing.T) {
	h := newHarness(t)

	h.cashSale("2000")

	requireDecimal(t, "2000", h.cached())
	requireDecimal(t, "2000", h.cashBalance())
	assert.Zero(t, testutil.CountRows(t, h.db, h.tenantID, &models.CashMovementModel{}))

	// the next opening finds the computed balance already matching
	session := h.open("2000")
	assert.Zero(t, testutil.CountRows(t, h.db, h.tenantID, &models.CashMovementModel{}))
	requireDecimal(t, "2000", h.summary(session.ID).Expected)
}

func TestSessionService_Counts(t *testing.T) {
	h := newHarness(t)
	session, err := h.sessions.Open(h.ctx, h.tenantID, h.store.CashboxID, h.userID, appcashbox.OpenSessionRequest{
		OpeningBalance: h.dec("15500"),
		OpeningCount:   map[string]int{"note_10000": 1, "note_5000": 1, "coin_500": 1},
	})
	require.NoError(t, err)

	count, err := h.sessions.RecordCount(h.ctx, h.tenantID, session.ID, h.userID, appcashbox.RecordCountRequest{
		CountType:  "interim",
		Quantities: map[string]int{"note_10000": 1, "note_2000": 2},
		Notes:      "midday",
	})
	require.NoError(t, err)
	requireDecimal(t, "14000", count.Total)
	assert.Equal(t, "interim", count.CountType)

	_, err = h.sessions.RecordCount(h.ctx, h.tenantID, session.ID, h.userID, appcashbox.RecordCountRequest{
		CountType:  "interim",
		Quantities: map[string]int{"note_3000": 1},
	})
	requireCode(t, err, cashbox.CodeInvalidDenomination)

	_, err = h.sessions.Close(h.ctx, h.tenantID, session.ID, h.userID, appcashbox.CloseSessionRequest{
		ActualClosingBalance: h.dec("15500"),
		ClosingCount:         map[string]int{"note_10000": 1, "note_5000": 1, "note_500": 1},
	})
	require.NoError(t, err)

	counts, err := h.sessions.ListCounts(h.ctx, h.tenantID, session.ID)
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, 3, h.summary(session.ID).CountCount)

	// counts are audit records and leave the position untouched
	requireDecimal(t, "15500", h.cashBalance())
}

func TestSessionService_InactiveCashboxCannotOpen(t *testing.T) {
	h := newHarness(t)

	_, err := h.registers.Deactivate(h.ctx, h.tenantID, h.store.CashboxID)
	require.NoError(t, err)

	_, err = h.sessions.Open(h.ctx, h.tenantID, h.store.CashboxID, h.userID, appcashbox.OpenSessionRequest{
		OpeningBalance: h.dec("100"),
	})
	requireCode(t, err, cashbox.CodeCashboxInactive)
}

func TestSessionService_UnknownSession(t *testing.T) {
	h := newHarness(t)
	unknown := uuid.New()

	_, err := h.sessions.Close(h.ctx, h.tenantID, unknown, h.userID, appcashbox.CloseSessionRequest{ActualClosingBalance: h.dec("0")})
	requireCode(t, err, cashbox.CodeSessionNotOpen)

	_, err = h.movements.Record(h.ctx, h.tenantID, h.userID, appcashbox.RecordMovementRequest{
		SessionID: &unknown,
		Direction: "in",
		Category:  "other",
		Channel:   "cash",
		Amount:    h.dec("10"),
	}, "")
	requireCode(t, err, cashbox.CodeSessionNotOpen)

	_, err = h.sessions.RecordCount(h.ctx, h.tenantID, unknown, h.userID, appcashbox.RecordCountRequest{
		CountType:  "interim",
		Quantities: map[string]int{"note_1000": 1},
	})
	requireCode(t, err, cashbox.CodeSessionNotOpen)

	_, err = h.sessions.GetSession(h.ctx, h.tenantID, unknown)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSessionService_TenantIsolation(t *testing.T) {
	h := newHarness(t)
	session := h.open("500")

	other := testutil.NewTestUUID("other-tenant")
	_, err := h.sessions.GetSession(h.ctx, other, session.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = h.sessions.Close(h.ctx, other, session.ID, h.userID, appcashbox.CloseSessionRequest{ActualClosingBalance: h.dec("500")})
	requireCode(t, err, cashbox.CodeSessionNotOpen)
}

func TestSessionService_ListSessionMovements(t *testing.T) {
	h := newHarness(t)
	session := h.open("0")
	h.cashSale("100")
	h.cashSale("200")

	list, total, err := h.sessions.ListSessionMovements(h.ctx, h.tenantID, session.ID, appcashbox.PageFilter(1, 20, "recorded_at", "asc"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	for _, mv := range list {
		assert.Equal(t, "sale", mv.Category)
		require.NotNil(t, mv.SourceType)
		assert.Equal(t, string(cashbox.SourceSale), *mv.SourceType)
	}

	_, _, err = h.sessions.ListSessions(h.ctx, h.tenantID, appcashbox.SessionListFilter{Status: "PAUSED"})
	require.Error(t, err)
}
