// Package testutil provides common test utilities for the treasury service.
// It contains helpers for in-memory and mocked databases, fixture records,
// gin test contexts and eventual assertions.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/treasury/internal/infrastructure/auth"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/erp/treasury/internal/infrastructure/persistence/tenant"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a mock PostgreSQL database with the tenant guard installed.
// The caller is responsible for calling Close() when done.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open GORM connection")
	require.NoError(t, tenant.RegisterGuard(gormDB))

	return &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
}

// Close closes the mock database connection.
func (m *MockDB) Close() error {
	return m.SqlDB.Close()
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// NewSQLiteDB opens a private in-memory SQLite database with every
// persistence model migrated. A single connection serialises writers the
// way the cashbox row lock does on PostgreSQL.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open SQLite database")
	require.NoError(t, tenant.RegisterGuard(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...), "Failed to migrate models")
	return db
}

// StoreFixture identifies a seeded store and its cashbox
type StoreFixture struct {
	TenantID  uuid.UUID
	StoreID   uuid.UUID
	CashboxID uuid.UUID
}

// SeedStore inserts an active store with a zero balance cashbox
func SeedStore(t *testing.T, db *gorm.DB, tenantID uuid.UUID, code string) StoreFixture {
	t.Helper()

	now := time.Now()
	st := &models.StoreModel{Code: code, Name: "Store " + code, IsActive: true}
	st.ID = uuid.New()
	st.TenantID = tenantID
	st.Version = 1
	st.CreatedAt, st.UpdatedAt = now, now
	require.NoError(t, db.Create(st).Error, "Failed to seed store")

	cb := &models.CashboxModel{StoreID: st.ID, Code: "CB-" + code, Name: "Store " + code, Balance: decimal.Zero, IsActive: true}
	cb.ID = uuid.New()
	cb.TenantID = tenantID
	cb.Version = 1
	cb.CreatedAt, cb.UpdatedAt = now, now
	require.NoError(t, db.Create(cb).Error, "Failed to seed cashbox")

	return StoreFixture{TenantID: tenantID, StoreID: st.ID, CashboxID: cb.ID}
}

// CachedBalance reads the cached balance of a cashbox straight from its row
func CachedBalance(t *testing.T, db *gorm.DB, tenantID, cashboxID uuid.UUID) decimal.Decimal {
	t.Helper()

	var cb models.CashboxModel
	require.NoError(t, db.Scopes(tenant.Scope(tenantID)).Where("id = ?", cashboxID).Take(&cb).Error)
	return cb.Balance
}

// CountRows counts the tenant's rows of model
func CountRows(t *testing.T, db *gorm.DB, tenantID uuid.UUID, model any) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(model).Scopes(tenant.Scope(tenantID)).Count(&n).Error)
	return n
}

// TestContext wraps a Gin test context with HTTP recorder.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

// NewTestContext creates a new Gin test context.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	return &TestContext{Context: c, Recorder: w, Engine: engine}
}

// SetIdentity stores the caller the way the auth middleware does,
// with every permission granted unless perms are given.
func (tc *TestContext) SetIdentity(tenantID, userID uuid.UUID, perms ...string) {
	if len(perms) == 0 {
		perms = []string{"*"}
	}
	tc.Context.Set("identity", &auth.Identity{TenantID: tenantID, UserID: userID, Permissions: perms})
	tc.Context.Set("tenant_id", tenantID.String())
	tc.Context.Set("user_id", userID.String())
}

// SetRequestID sets the request ID the RequestID middleware would assign.
func (tc *TestContext) SetRequestID(id string) {
	tc.Context.Set("request_id", id)
}

// SetHeader sets a header on the request.
func (tc *TestContext) SetHeader(key, value string) {
	tc.Context.Request.Header.Set(key, value)
}

// ResponseBody returns the response body as bytes.
func (tc *TestContext) ResponseBody() []byte {
	return tc.Recorder.Body.Bytes()
}

// ResponseCode returns the HTTP status code.
func (tc *TestContext) ResponseCode() int {
	return tc.Recorder.Code
}

// NewTestUUID generates a deterministic UUID for testing.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// TestTenantID returns a standard tenant ID for tests.
func TestTenantID() uuid.UUID {
	return NewTestUUID("test-tenant")
}

// TestUserID returns a standard user ID for tests.
func TestUserID() uuid.UUID {
	return NewTestUUID("test-user")
}

// ContextWithTimeout creates a context with a timeout for tests.
func ContextWithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}

// Dec parses a decimal literal, failing the test on bad input
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// AssertEventually retries an assertion function until it passes or times out.
func AssertEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}
	t.Fatalf("Condition not met within %v: %v", timeout, msgAndArgs)
}
