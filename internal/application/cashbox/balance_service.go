package cashbox

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/erp/treasury/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// computeBreakdown derives one position from the sources visible through src
func computeBreakdown(
	ctx context.Context,
	src cashbox.BalanceSource,
	rules cashbox.RuleSet,
	metrics *telemetry.TreasuryMetrics,
	tenantID uuid.UUID,
	ch cashbox.BalanceChannel,
	storeID *uuid.UUID,
) (cashbox.BalanceBreakdown, error) {
	if ch.IsZero() {
		return cashbox.BalanceBreakdown{}, cashbox.ErrInvalidChannel
	}
	start := time.Now()
	totals, err := src.SourceTotals(ctx, tenantID, storeID)
	if err != nil {
		return cashbox.BalanceBreakdown{}, fmt.Errorf("failed to aggregate balance sources: %w", err)
	}
	b := rules.Compute(ch, totals)
	metrics.RecordBalanceComputation(ctx, ch.String(), time.Since(start))
	return b, nil
}

// BalanceService answers balance questions. Computations read only the
// transaction sources and ledger entries; the cached cashbox balance is
// read by RegisterCurrentBalance and compared by the drift checks.
type BalanceService struct {
	balances  cashbox.BalanceSource
	cashboxes cashbox.CashboxRepository
	txScope   TransactionScope
	events    shared.EventPublisher
	rules     cashbox.RuleSet
	metrics   *telemetry.TreasuryMetrics
	logger    *zap.Logger
}

// NewBalanceService creates a new BalanceService
func NewBalanceService(
	balances cashbox.BalanceSource,
	cashboxes cashbox.CashboxRepository,
	txScope TransactionScope,
	events shared.EventPublisher,
	metrics *telemetry.TreasuryMetrics,
	logger *zap.Logger,
) *BalanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceService{
		balances:  balances,
		cashboxes: cashboxes,
		txScope:   txScope,
		events:    events,
		rules:     cashbox.CurrentRules(),
		metrics:   metrics,
		logger:    logger,
	}
}

// ComputeBalance returns the authoritative balance of channel for the store,
// or for the whole tenant when storeID is nil
func (s *BalanceService) ComputeBalance(ctx context.Context, tenantID uuid.UUID, ch cashbox.BalanceChannel, storeID *uuid.UUID) (decimal.Decimal, error) {
	b, err := computeBreakdown(ctx, s.balances, s.rules, s.metrics, tenantID, ch, storeID)
	if err != nil {
		return decimal.Zero, err
	}
	return b.Balance, nil
}

// Breakdown computes a balance with its components under the given rule
// version; zero selects the current rules
func (s *BalanceService) Breakdown(ctx context.Context, tenantID uuid.UUID, ch cashbox.BalanceChannel, storeID *uuid.UUID, ruleVersion int) (_ *BalanceResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "balance", "compute",
		telemetry.AttrTenantID.String(tenantID.String()),
		telemetry.AttrChannel.String(ch.String()),
	)
	defer func() { telemetry.End(span, err) }()

	rules := s.rules
	if ruleVersion != 0 {
		if rules, err = cashbox.RuleSetByVersion(ruleVersion); err != nil {
			return nil, err
		}
	}
	b, err := computeBreakdown(ctx, s.balances, rules, s.metrics, tenantID, ch, storeID)
	if err != nil {
		return nil, err
	}
	return toBalanceResponse(b, storeID), nil
}

// RegisterCurrentBalance returns the cached balance of a cashbox
func (s *BalanceService) RegisterCurrentBalance(ctx context.Context, tenantID, cashboxID uuid.UUID) (decimal.Decimal, error) {
	cb, err := s.cashboxes.FindByIDForTenant(ctx, tenantID, cashboxID)
	if err != nil {
		return decimal.Zero, err
	}
	return cb.Balance, nil
}

// VerifyRegister compares the cached balance of a cashbox with the cash
// balance recomputed for its store
func (s *BalanceService) VerifyRegister(ctx context.Context, tenantID, cashboxID uuid.UUID) (*DriftReport, error) {
	cb, err := s.cashboxes.FindByIDForTenant(ctx, tenantID, cashboxID)
	if err != nil {
		return nil, err
	}
	return s.verify(ctx, cb)
}

func (s *BalanceService) verify(ctx context.Context, cb *cashbox.Cashbox) (*DriftReport, error) {
	storeID := cb.StoreID
	b, err := computeBreakdown(ctx, s.balances, s.rules, s.metrics, cb.TenantID, cashbox.BalanceCash, &storeID)
	if err != nil {
		return nil, err
	}
	report := newDriftReport(cb, b)
	s.metrics.RecordDrift(ctx, cb.TenantID, cb.ID, report.Drift)
	return report, nil
}

// VerifyTenant checks every active cashbox of the tenant
func (s *BalanceService) VerifyTenant(ctx context.Context, tenantID uuid.UUID) ([]DriftReport, error) {
	active := true
	filter := cashbox.CashboxFilter{
		Filter:   shared.Filter{Page: 1, PageSize: 100, OrderBy: "code", OrderDir: "asc"},
		IsActive: &active,
	}

	var reports []DriftReport
	for {
		page, total, err := s.cashboxes.FindAllForTenant(ctx, tenantID, filter)
		if err != nil {
			return nil, err
		}
		for i := range page {
			report, err := s.verify(ctx, &page[i])
			if err != nil {
				return nil, err
			}
			reports = append(reports, *report)
		}
		if len(page) == 0 || int64(filter.Page*filter.PageSize) >= total {
			break
		}
		filter.Page++
	}
	return reports, nil
}

// ResyncRegister recomputes the cash balance under the cashbox lock and
// overwrites the cache with it
func (s *BalanceService) ResyncRegister(ctx context.Context, tenantID, cashboxID uuid.UUID) (_ *DriftReport, err error) {
	ctx, span := telemetry.StartSpan(ctx, "balance", "resync",
		telemetry.AttrTenantID.String(tenantID.String()),
		telemetry.AttrCashboxID.String(cashboxID.String()),
	)
	defer func() { telemetry.End(span, err) }()

	var report *DriftReport
	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		cb, err := repos.Cashboxes().FindByIDForUpdate(ctx, tenantID, cashboxID)
		if err != nil {
			return err
		}
		storeID := cb.StoreID
		b, err := computeBreakdown(ctx, repos.Balances(), s.rules, s.metrics, tenantID, cashbox.BalanceCash, &storeID)
		if err != nil {
			return err
		}
		report = newDriftReport(cb, b)
		if report.InSync {
			return nil
		}
		cb.Resync(b.Balance, b.RuleVersion)
		if err := repos.Cashboxes().Save(ctx, cb); err != nil {
			return fmt.Errorf("failed to save cashbox: %w", err)
		}
		report.Resynced = true
		events = cb.GetDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordDrift(ctx, tenantID, cashboxID, report.Drift)
	if report.Resynced {
		logger.Enrich(ctx, s.logger).Warn("Cashbox balance resynchronised",
			zap.String("cashbox_id", cashboxID.String()),
			zap.String("cached", report.Cached.String()),
			zap.String("computed", report.Computed.String()),
			zap.String("drift", report.Drift.String()),
			zap.Int("rule_version", report.RuleVersion),
		)
		PublishEvents(ctx, s.events, s.logger, events)
	}
	return report, nil
}
