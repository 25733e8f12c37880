package cashbox

import (
	"context"
	"errors"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/erp/treasury/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegisterService handles cashbox administration
type RegisterService struct {
	cashboxes cashbox.CashboxRepository
	txScope   TransactionScope
	events    shared.EventPublisher
	rules     cashbox.RuleSet
	metrics   *telemetry.TreasuryMetrics
	logger    *zap.Logger
}

// NewRegisterService creates a new RegisterService
func NewRegisterService(cashboxes cashbox.CashboxRepository, txScope TransactionScope, events shared.EventPublisher, metrics *telemetry.TreasuryMetrics, logger *zap.Logger) *RegisterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegisterService{
		cashboxes: cashboxes,
		txScope:   txScope,
		events:    events,
		rules:     cashbox.CurrentRules(),
		metrics:   metrics,
		logger:    logger,
	}
}

// Get returns a cashbox by ID
func (s *RegisterService) Get(ctx context.Context, tenantID, id uuid.UUID) (*CashboxResponse, error) {
	cb, err := s.cashboxes.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToCashboxResponse(cb), nil
}

// List lists cashboxes with filtering and paging
func (s *RegisterService) List(ctx context.Context, tenantID uuid.UUID, filter CashboxListFilter) ([]CashboxResponse, int64, error) {
	storeID, err := ParseOptionalID("store_id", filter.StoreID)
	if err != nil {
		return nil, 0, err
	}
	cashboxes, total, err := s.cashboxes.FindAllForTenant(ctx, tenantID, cashbox.CashboxFilter{
		Filter:   PageFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir),
		StoreID:  storeID,
		IsActive: filter.IsActive,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]CashboxResponse, len(cashboxes))
	for i := range cashboxes {
		out[i] = *ToCashboxResponse(&cashboxes[i])
	}
	return out, total, nil
}

// Activate brings a retired cashbox back into service. The store must not
// have another active cashbox. Writes made while the cashbox was retired never
// reached its cache, so the balance is recomputed under the row lock.
func (s *RegisterService) Activate(ctx context.Context, tenantID, id uuid.UUID) (*CashboxResponse, error) {
	var cb *cashbox.Cashbox
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		cb, err = repos.Cashboxes().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		other, err := repos.Cashboxes().FindActiveByStore(ctx, tenantID, cb.StoreID)
		if err == nil && other.ID != cb.ID {
			return cashbox.ErrActiveCashboxExists
		}
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if err := cb.Activate(); err != nil {
			return err
		}
		storeID := cb.StoreID
		b, err := computeBreakdown(ctx, repos.Balances(), s.rules, s.metrics, tenantID, cashbox.BalanceCash, &storeID)
		if err != nil {
			return err
		}
		if drift := cb.Resync(b.Balance, b.RuleVersion); !drift.IsZero() {
			logger.Enrich(ctx, s.logger).Warn("Cashbox balance resynchronised on activation",
				zap.String("cashbox_id", cb.ID.String()),
				zap.String("computed", b.Balance.String()),
				zap.String("drift", drift.String()),
			)
		}
		return repos.Cashboxes().Save(ctx, cb)
	})
	if err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("Cashbox activated", zap.String("cashbox_id", id.String()))
	PublishEvents(ctx, s.events, s.logger, cb.GetDomainEvents())
	return ToCashboxResponse(cb), nil
}

// Deactivate retires a cashbox. A cashbox with an open session cannot be retired.
func (s *RegisterService) Deactivate(ctx context.Context, tenantID, id uuid.UUID) (*CashboxResponse, error) {
	var cb *cashbox.Cashbox
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		cb, err = repos.Cashboxes().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		open, err := repos.Sessions().FindOpenByCashbox(ctx, tenantID, id)
		if err == nil {
			return shared.NewDomainError("INVALID_STATE", "Cannot deactivate a cashbox with an open session").
				WithDetail("session_id", open.ID.String())
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if err := cb.Deactivate(); err != nil {
			return err
		}
		return repos.Cashboxes().Save(ctx, cb)
	})
	if err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("Cashbox deactivated", zap.String("cashbox_id", id.String()))
	PublishEvents(ctx, s.events, s.logger, cb.GetDomainEvents())
	return ToCashboxResponse(cb), nil
}
