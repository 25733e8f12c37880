package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/erp/treasury/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

const defaultMigrationsTable = "schema_migrations"

// Migrator applies the treasury schema with golang-migrate
type Migrator struct {
	migrate *migrate.Migrate
	source  fs.FS
	logger  *zap.Logger
}

// Status is the applied version next to the migrations on offer
type Status struct {
	Version   uint
	Dirty     bool
	Available []Migration
}

// Pending counts the available migrations above the applied version
func (s Status) Pending() int {
	n := 0
	for _, m := range s.Available {
		if m.Version > uint64(s.Version) {
			n++
		}
	}
	return n
}

type options struct {
	source fs.FS
	table  string
	logger *zap.Logger
}

// Option configures a Migrator
type Option func(*options)

// WithDir reads migrations from a directory instead of the embedded set
func WithDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.source = os.DirFS(dir)
		}
	}
}

// WithSource reads migrations from fsys
func WithSource(fsys fs.FS) Option {
	return func(o *options) { o.source = fsys }
}

// WithMigrationsTable overrides the version bookkeeping table
func WithMigrationsTable(name string) Option {
	return func(o *options) { o.table = name }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a Migrator on an open PostgreSQL connection. Without options
// it applies the migrations compiled into the binary.
func New(db *sql.DB, opts ...Option) (*Migrator, error) {
	o := options{source: migrations.FS, table: defaultMigrationsTable, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	src, err := iofs.New(o.source, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: o.table})
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{logger: o.logger.Named("migrate")}

	return &Migrator{migrate: m, source: o.source, logger: o.logger}, nil
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	return m.run("up", m.migrate.Up)
}

// Down rolls back every applied migration
func (m *Migrator) Down() error {
	return m.run("down", m.migrate.Down)
}

// Steps applies n migrations, rolling back when n is negative
func (m *Migrator) Steps(n int) error {
	if n == 0 {
		return errors.New("step count must not be zero")
	}
	return m.run(fmt.Sprintf("steps(%d)", n), func() error { return m.migrate.Steps(n) })
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	return m.run(fmt.Sprintf("goto(%d)", version), func() error { return m.migrate.Migrate(version) })
}

// Version returns the applied version. A fresh database reports 0.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Status reports the applied version and the migrations in the source
func (m *Migrator) Status() (*Status, error) {
	version, dirty, err := m.Version()
	if err != nil {
		return nil, err
	}
	available, err := ListMigrations(m.source)
	if err != nil {
		return nil, err
	}
	return &Status{Version: version, Dirty: dirty, Available: available}, nil
}

// Force records version as applied without running anything. It is the way
// out of a dirty state after a failed migration was repaired by hand.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and the database driver
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}

// run executes op and logs the resulting version. ErrNoChange is not an error.
func (m *Migrator) run(op string, fn func() error) error {
	m.logger.Info("Running migrations", zap.String("op", op))
	if err := fn(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("Schema already at target", zap.String("op", op))
			return nil
		}
		return fmt.Errorf("migration %s failed: %w", op, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migrations completed",
		zap.String("op", op),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// migrateLogger adapts zap to golang-migrate's logger
type migrateLogger struct {
	logger *zap.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *migrateLogger) Verbose() bool {
	return l.logger.Core().Enabled(zap.DebugLevel)
}
