// Command treasuryctl inspects and repairs register balances from the shell.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/erp/treasury/internal/bootstrap"
	"github.com/erp/treasury/internal/infrastructure/config"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/erp/treasury/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	root := newRootCommand(openServices, os.Stdout)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openServices connects to the configured database and wires the services
func openServices(_ context.Context, logLevel string) (*bootstrap.Services, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, nil, err
	}

	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(
		logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel))))
	if err != nil {
		return nil, nil, err
	}

	services := bootstrap.NewServices(bootstrap.Deps{DB: db.DB, Logger: log})
	closeFn := func() {
		if err := db.Close(); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
		_ = log.Sync()
	}
	return services, closeFn, nil
}
