package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/erp/treasury/internal/infrastructure/config"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/erp/treasury/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

type options struct {
	migrationsPath string
	logLevel       string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Treasury database schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.migrationsPath, "path", "", "read migrations from this directory instead of the embedded set (overrides database.migrations_path)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		withMigrator(opts, &cobra.Command{Use: "up", Short: "Apply all pending migrations", Args: cobra.NoArgs},
			func(m *migration.Migrator, _ *zap.Logger, _ []string) error { return m.Up() }),
		withMigrator(opts, &cobra.Command{Use: "down", Short: "Roll back all migrations", Args: cobra.NoArgs},
			func(m *migration.Migrator, _ *zap.Logger, _ []string) error { return m.Down() }),
		withMigrator(opts, &cobra.Command{Use: "step <n>", Short: "Apply n migrations, negative rolls back", Args: cobra.ExactArgs(1)},
			func(m *migration.Migrator, _ *zap.Logger, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		withMigrator(opts, &cobra.Command{Use: "goto <version>", Short: "Migrate to a specific version", Args: cobra.ExactArgs(1)},
			func(m *migration.Migrator, _ *zap.Logger, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.GoTo(uint(v))
			}),
		withMigrator(opts, &cobra.Command{Use: "version", Short: "Show the applied schema version", Args: cobra.NoArgs},
			func(m *migration.Migrator, log *zap.Logger, _ []string) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
				return nil
			}),
		withMigrator(opts, &cobra.Command{Use: "force <version>", Short: "Set the schema version without migrating", Args: cobra.ExactArgs(1)},
			func(m *migration.Migrator, log *zap.Logger, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				log.Warn("Forcing migration version", zap.Int("version", v))
				return m.Force(v)
			}),
		withMigrator(opts, &cobra.Command{Use: "status", Short: "Show the applied version and the available migrations", Args: cobra.NoArgs},
			func(m *migration.Migrator, log *zap.Logger, _ []string) error {
				st, err := m.Status()
				if err != nil {
					return err
				}
				log.Info("Migration status",
					zap.Uint("version", st.Version),
					zap.Bool("dirty", st.Dirty),
					zap.Int("available", len(st.Available)),
					zap.Int("pending", st.Pending()),
				)
				for _, mg := range st.Available {
					state := "pending"
					if mg.Version <= uint64(st.Version) {
						state = "applied"
					}
					fmt.Printf("  %-8s %s\n", state, mg)
				}
				return nil
			}),
		newCreateCommand(opts),
	)
	return root
}

func newCreateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Create an up/down migration pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			log, err := newLogger(opts.logLevel)
			if err != nil {
				return err
			}
			description := ""
			if len(args) > 1 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(resolvePath(opts.migrationsPath), args[0], description)
			if err != nil {
				return err
			}
			log.Info("Migration created",
				zap.Uint64("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	}
}

// withMigrator connects to the configured database before running fn
func withMigrator(opts *options, cmd *cobra.Command, fn func(*migration.Migrator, *zap.Logger, []string) error) *cobra.Command {
	cmd.RunE = func(_ *cobra.Command, args []string) error {
		log, err := newLogger(opts.logLevel)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}

		dir := opts.migrationsPath
		if dir == "" {
			dir = cfg.Database.MigrationsPath
		}
		source := "embedded"
		migrateOpts := []migration.Option{migration.WithLogger(log)}
		if dir != "" {
			source = resolvePath(dir)
			migrateOpts = append(migrateOpts, migration.WithDir(source))
		}
		m, err := migration.New(db, migrateOpts...)
		if err != nil {
			return err
		}
		defer m.Close()

		log.Debug("Running migration command", zap.String("command", cmd.Name()), zap.String("source", source))
		return fn(m, log, args)
	}
	return cmd
}

func newLogger(level string) (*zap.Logger, error) {
	return logger.New(logger.Config{Level: level, Format: "console", Output: "stdout"})
}

// resolvePath defaults to ./migrations, falling back to the copy beside the
// executable, for the create command
func resolvePath(path string) string {
	if path == "" {
		path = defaultMigrationsPath
		if _, err := os.Stat(path); err != nil {
			if exe, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
