// Package bootstrap wires repositories, services and HTTP handlers on top of
// one database connection. The server, the CLI and the API tests share it.
package bootstrap

import (
	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	appfinance "github.com/erp/treasury/internal/application/finance"
	appstore "github.com/erp/treasury/internal/application/store"
	apptrade "github.com/erp/treasury/internal/application/trade"
	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/event"
	"github.com/erp/treasury/internal/infrastructure/persistence"
	"github.com/erp/treasury/internal/infrastructure/telemetry"
	"github.com/erp/treasury/internal/interfaces/http/handler"
	"github.com/erp/treasury/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the infrastructure pieces the services are built on
type Deps struct {
	DB     *gorm.DB
	Events shared.EventPublisher
	// Idempotency is optional; without it Idempotency-Key headers are ignored
	Idempotency       shared.IdempotencyStore
	IdempotencyConfig shared.IdempotencyConfig
	Metrics           *telemetry.TreasuryMetrics
	Logger            *zap.Logger
}

// Services holds every application service of the register engine
type Services struct {
	Stores    *appstore.StoreService
	Registers *appcashbox.RegisterService
	Sessions  *appcashbox.SessionService
	Movements *appcashbox.MovementService
	Balances  *appcashbox.BalanceService
	Sales     *apptrade.SaleService
	Payments  *appfinance.PaymentService
	Expenses  *appfinance.ExpenseService

	sessionRepo  cashbox.SessionRepository
	movementRepo cashbox.MovementRepository
	countRepo    cashbox.CashCountRepository
	logger       *zap.Logger
}

// NewServices builds the repositories and services over d.DB
func NewServices(d Deps) *Services {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	events := d.Events
	if events == nil {
		events = event.NewInMemoryEventBus(log)
	}

	txScope := persistence.NewGormTransactionScope(d.DB)
	sync := appcashbox.NewSynchronizer(appcashbox.NewFundsGuard(d.Metrics), d.Metrics, log)

	cashboxes := persistence.NewGormCashboxRepository(d.DB)
	sessions := persistence.NewGormSessionRepository(d.DB)
	movements := persistence.NewGormMovementRepository(d.DB)
	counts := persistence.NewGormCashCountRepository(d.DB)

	var movementOpts []appcashbox.MovementServiceOption
	if d.Idempotency != nil {
		movementOpts = append(movementOpts, appcashbox.WithIdempotency(d.Idempotency, d.IdempotencyConfig))
	}

	return &Services{
		Stores:    appstore.NewStoreService(persistence.NewGormStoreRepository(d.DB), txScope, events, log),
		Registers: appcashbox.NewRegisterService(cashboxes, txScope, events, d.Metrics, log),
		Sessions:  appcashbox.NewSessionService(sessions, movements, counts, txScope, sync, events, d.Metrics, log),
		Movements: appcashbox.NewMovementService(movements, txScope, sync, events, d.Metrics, log, movementOpts...),
		Balances:  appcashbox.NewBalanceService(persistence.NewGormBalanceSource(d.DB), cashboxes, txScope, events, d.Metrics, log),
		Sales:     apptrade.NewSaleService(persistence.NewGormSaleRepository(d.DB), txScope, sync, events, log),
		Payments: appfinance.NewPaymentService(
			persistence.NewGormInvoicePaymentRepository(d.DB),
			persistence.NewGormSupplierPaymentRepository(d.DB),
			persistence.NewGormLoanPaymentRepository(d.DB),
			txScope, sync, events, log,
		),
		Expenses: appfinance.NewExpenseService(persistence.NewGormExpenseRepository(d.DB), txScope, sync, events, log),

		sessionRepo:  sessions,
		movementRepo: movements,
		countRepo:    counts,
		logger:       log,
	}
}

// Handlers builds the HTTP handlers over the services
func (s *Services) Handlers(system *handler.SystemHandler) router.Handlers {
	return router.Handlers{
		System:    system,
		Stores:    handler.NewStoreHandler(s.Stores),
		Cashboxes: handler.NewCashboxHandler(s.Registers, s.Sessions, s.Balances),
		Sessions:  handler.NewSessionHandler(s.Sessions),
		Movements: handler.NewMovementHandler(s.Movements),
		Balances:  handler.NewBalanceHandler(s.Balances),
		Sales:     handler.NewSaleHandler(s.Sales),
		Payments:  handler.NewPaymentHandler(s.Payments),
		Expenses:  handler.NewExpenseHandler(s.Expenses),
	}
}

// Subscribers configures the session-closed subscribers
type Subscribers struct {
	// AlertThreshold is the absolute discrepancy that raises an alert
	AlertThreshold decimal.Decimal
	Notifier       appcashbox.DiscrepancyNotifier
	// Archive is nil when session archiving is disabled
	Archive appcashbox.ArchiveStore
	// Dedup makes the archive handler skip redelivered events when set
	Dedup       shared.IdempotencyStore
	DedupConfig shared.IdempotencyConfig
}

// Subscribe registers the session-closed handlers on bus
func (s *Services) Subscribe(bus shared.EventSubscriber, cfg Subscribers) {
	alerts := appcashbox.NewDiscrepancyAlertHandler(cfg.AlertThreshold, s.logger)
	if cfg.Notifier != nil {
		alerts.WithNotifier(cfg.Notifier)
	}
	bus.Subscribe(alerts)

	if cfg.Archive == nil {
		return
	}
	var archive shared.EventHandler = appcashbox.NewSessionArchiveHandler(
		s.sessionRepo, s.movementRepo, s.countRepo, cfg.Archive, s.logger)
	if cfg.Dedup != nil {
		archive = event.NewIdempotentHandler("session_archive", archive, cfg.Dedup, cfg.DedupConfig, s.logger)
	}
	bus.Subscribe(archive)
}
