package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormDocumentNumberGenerator_Next(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	clock := time.Date(2024, time.March, 31, 23, 0, 0, 0, time.UTC)
	gen := &GormDocumentNumberGenerator{db: db, now: func() time.Time { return clock }}
	tenantID := uuid.New()

	next := func(t *testing.T, tenant uuid.UUID, prefix string) string {
		t.Helper()
		n, err := gen.Next(ctx, tenant, prefix)
		require.NoError(t, err)
		return n
	}

	t.Run("increments per prefix", func(t *testing.T) {
		assert.Equal(t, "MV-202403-00001", next(t, tenantID, "MV"))
		assert.Equal(t, "MV-202403-00002", next(t, tenantID, "mv "))
		assert.Equal(t, "SL-202403-00001", next(t, tenantID, "SL"))
	})

	t.Run("tenants have separate counters", func(t *testing.T) {
		assert.Equal(t, "MV-202403-00001", next(t, uuid.New(), "MV"))
	})

	t.Run("restarts each month", func(t *testing.T) {
		clock = clock.Add(2 * time.Hour)
		assert.Equal(t, "MV-202404-00001", next(t, tenantID, "MV"))
	})

	t.Run("empty prefix", func(t *testing.T) {
		_, err := gen.Next(ctx, tenantID, "  ")
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PREFIX", domainErr.Code)
	})
}

func TestGormDocumentNumberGenerator_RollsBackWithCaller(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	tenantID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		n, err := NewGormDocumentNumberGenerator(tx).Next(ctx, tenantID, "EX")
		require.NoError(t, err)
		assert.Contains(t, n, "-00001")
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	n, err := NewGormDocumentNumberGenerator(db).Next(ctx, tenantID, "EX")
	require.NoError(t, err)
	assert.Contains(t, n, "-00001", "the rolled back number is handed out again")
}
