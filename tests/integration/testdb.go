// Package integration runs the treasury against a real PostgreSQL started
// with testcontainers. Every test here is skipped under -short.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/erp/treasury/internal/infrastructure/migration"
	"github.com/erp/treasury/internal/infrastructure/persistence/tenant"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const postgresImage = "postgres:16-alpine"

var (
	// Shared container for all tests in the package
	sharedContainer    testcontainers.Container
	sharedContainerMu  sync.Mutex
	sharedContainerDSN string
)

// TestDB is a migrated database plus the container behind it
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container testcontainers.Container
	DSN       string
	t         *testing.T
}

// skipIfShort keeps container tests out of -short runs
func skipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

func runContainer(ctx context.Context, dbName string) (testcontainers.Container, string, error) {
	container, err := tcpostgres.Run(ctx,
		postgresImage,
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("treasury"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, "", err
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	return container, dsn, nil
}

// NewTestDB starts a dedicated container and applies the embedded migrations
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipIfShort(t)

	container, dsn, err := runContainer(context.Background(), "treasury_test")
	require.NoError(t, err, "Failed to start PostgreSQL container")

	db, sqlDB := connectToDatabase(t, dsn)
	runMigrations(t, sqlDB)

	testDB := &TestDB{DB: db, SqlDB: sqlDB, Container: container, DSN: dsn, t: t}
	t.Cleanup(testDB.Close)
	return testDB
}

// NewSharedTestDB connects to the package wide container, starting and
// migrating it on first use. Tables are truncated before returning.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipIfShort(t)

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer == nil {
		container, dsn, err := runContainer(context.Background(), "treasury_shared_test")
		require.NoError(t, err, "Failed to start shared PostgreSQL container")
		sharedContainer = container
		sharedContainerDSN = dsn

		_, sqlDB := connectToDatabase(t, dsn)
		runMigrations(t, sqlDB)
		_ = sqlDB.Close()
	}

	db, sqlDB := connectToDatabase(t, sharedContainerDSN)
	testDB := &TestDB{DB: db, SqlDB: sqlDB, Container: sharedContainer, DSN: sharedContainerDSN, t: t}
	testDB.CleanTables()

	t.Cleanup(func() { _ = sqlDB.Close() })
	return testDB
}

// Close closes the connection and terminates a dedicated container
func (tdb *TestDB) Close() {
	if tdb.SqlDB != nil {
		_ = tdb.SqlDB.Close()
	}
	if tdb.Container != nil && tdb.Container != sharedContainer {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}
}

// CleanTables truncates every table except the migration bookkeeping
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to list tables")

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %q CASCADE", table)).Error; err != nil {
			tdb.t.Logf("Warning: Failed to truncate table %s: %v", table, err)
		}
	}
}

// connectToDatabase opens a guarded GORM connection
func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err, "Failed to connect to database")
	require.NoError(t, tenant.RegisterGuard(db))

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")

	// Enough connections for the concurrency tests to contend for row locks
	sqlDB.SetMaxOpenConns(16)
	sqlDB.SetMaxIdleConns(4)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, sqlDB
}

// runMigrations applies the migrations compiled into the binary
func runMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	m, err := migration.New(sqlDB, migration.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")
}

// CleanupSharedContainer terminates the shared container. Call it from TestMain.
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = sharedContainer.Terminate(ctx)
		sharedContainer = nil
		sharedContainerDSN = ""
	}
}
