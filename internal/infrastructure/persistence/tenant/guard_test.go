package tenant

import (
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type ownedRow struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null"`
	StoreID  *uuid.UUID
	Name     string
}

func (ownedRow) TableName() string { return "owned_rows" }

type globalRow struct {
	ID   int
	Name string
}

func (globalRow) TableName() string { return "global_rows" }

func setupGuardedDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, RegisterGuard(db))
	return db, mock, mockDB
}

func TestGuard_RejectsUnscopedRead(t *testing.T) {
	db, mock, mockDB := setupGuardedDB(t)
	defer mockDB.Close()

	var rows []ownedRow
	err := db.Where("name = ?", "x").Find(&rows).Error
	assert.ErrorIs(t, err, ErrTenantFilterMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuard_AllowsTenantScopedRead(t *testing.T) {
	db, mock, mockDB := setupGuardedDB(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	storeID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "owned_rows" WHERE tenant_id = $1 AND store_id = $2`)).
		WithArgs(tenantID, storeID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}).AddRow(uuid.New(), tenantID, "a"))

	var rows []ownedRow
	err := db.Scopes(Scope(tenantID), StoreScope("store_id", &storeID)).Find(&rows).Error
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuard_RecognisesInlineCondition(t *testing.T) {
	db, mock, mockDB := setupGuardedDB(t)
	defer mockDB.Close()

	tenantID, id := uuid.New(), uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "owned_rows" WHERE tenant_id = $1 AND id = $2`)).
		WithArgs(tenantID, id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

	var rows []ownedRow
	require.NoError(t, db.Where("tenant_id = ? AND id = ?", tenantID, id).Find(&rows).Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuard_IgnoresTablesWithoutTenant(t *testing.T) {
	db, mock, mockDB := setupGuardedDB(t)
	defer mockDB.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "global_rows"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "x"))

	var rows []globalRow
	require.NoError(t, db.Find(&rows).Error)
	assert.Len(t, rows, 1)
}

func TestScope_RequiresTenant(t *testing.T) {
	db, mock, mockDB := setupGuardedDB(t)
	defer mockDB.Close()

	var rows []ownedRow
	err := db.Scopes(Scope(uuid.Nil)).Find(&rows).Error
	assert.ErrorIs(t, err, ErrTenantIDRequired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreScope_NilIsTenantWide(t *testing.T) {
	db, mock, mockDB := setupGuardedDB(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "owned_rows" WHERE tenant_id = $1`)).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

	var rows []ownedRow
	require.NoError(t, db.Scopes(Scope(tenantID), StoreScope("store_id", nil)).Find(&rows).Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}
