package store_test

import (
	"context"
	"testing"

	appstore "github.com/erp/treasury/internal/application/store"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/persistence"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/erp/treasury/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newStoreService(t *testing.T) (*appstore.StoreService, *gorm.DB) {
	db := testutil.NewSQLiteDB(t)
	svc := appstore.NewStoreService(
		persistence.NewGormStoreRepository(db),
		persistence.NewGormTransactionScope(db),
		nil,
		zaptest.NewLogger(t),
	)
	return svc, db
}

func TestStoreService_CreateOpensCashbox(t *testing.T) {
	svc, db := newStoreService(t)
	ctx := context.Background()
	tenantID := testutil.TestTenantID()

	st, err := svc.Create(ctx, tenantID, appstore.CreateStoreRequest{
		Code:    " main ",
		Name:    "Main Street",
		Address: "1 Main Street ",
	})
	require.NoError(t, err)
	assert.Equal(t, "MAIN", st.Code)
	assert.Equal(t, "1 Main Street", st.Address)
	assert.True(t, st.IsActive)

	require.NotNil(t, st.Cashbox)
	assert.Equal(t, "CB-MAIN", st.Cashbox.Code)
	assert.Equal(t, st.ID, st.Cashbox.StoreID)
	assert.True(t, st.Cashbox.IsActive)
	assert.True(t, st.Cashbox.Balance.IsZero())

	assert.Equal(t, int64(1), testutil.CountRows(t, db, tenantID, &models.CashboxModel{}))

	got, err := svc.Get(ctx, tenantID, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main Street", got.Name)
}

func TestStoreService_CreateRejectsDuplicateAndInvalidCodes(t *testing.T) {
	svc, db := newStoreService(t)
	ctx := context.Background()
	tenantID := testutil.TestTenantID()

	_, err := svc.Create(ctx, tenantID, appstore.CreateStoreRequest{Code: "S1", Name: "One"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, tenantID, appstore.CreateStoreRequest{Code: "s1", Name: "Again"})
	require.ErrorIs(t, err, shared.NewDomainError("ALREADY_EXISTS", ""))
	assert.Equal(t, int64(1), testutil.CountRows(t, db, tenantID, &models.CashboxModel{}))

	_, err = svc.Create(ctx, tenantID, appstore.CreateStoreRequest{Code: "bad code!", Name: "Bad"})
	require.ErrorIs(t, err, shared.NewDomainError("INVALID_CODE", ""))

	_, err = svc.Create(ctx, tenantID, appstore.CreateStoreRequest{Code: "S2", Name: "   "})
	require.ErrorIs(t, err, shared.NewDomainError("INVALID_NAME", ""))

	// codes are unique per tenant only
	_, err = svc.Create(ctx, testutil.NewTestUUID("other-tenant"), appstore.CreateStoreRequest{Code: "S1", Name: "Elsewhere"})
	require.NoError(t, err)
}

func TestStoreService_List(t *testing.T) {
	svc, _ := newStoreService(t)
	ctx := context.Background()
	tenantID := testutil.TestTenantID()

	for _, code := range []string{"B", "A", "C"} {
		_, err := svc.Create(ctx, tenantID, appstore.CreateStoreRequest{Code: code, Name: "Store " + code})
		require.NoError(t, err)
	}

	list, total, err := svc.List(ctx, tenantID, appstore.StoreListFilter{OrderBy: "code", OrderDir: "asc", PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Code)
	assert.Equal(t, "B", list[1].Code)

	_, err = svc.Get(ctx, tenantID, uuid.New())
	require.ErrorIs(t, err, shared.ErrNotFound)
}
