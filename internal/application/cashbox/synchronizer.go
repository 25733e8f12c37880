package cashbox

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/erp/treasury/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FundsGuard serialises writers on a store's cashbox row and rejects debits
// the recomputed balance cannot cover.
type FundsGuard struct {
	rules   cashbox.RuleSet
	metrics *telemetry.TreasuryMetrics
}

// NewFundsGuard creates a new FundsGuard
func NewFundsGuard(metrics *telemetry.TreasuryMetrics) *FundsGuard {
	return &FundsGuard{rules: cashbox.CurrentRules(), metrics: metrics}
}

// Lock takes the cashbox row locks covering effects and returns the locked
// active cashboxes keyed by store. Retired cashboxes are locked too so that
// debits on their store stay serialised. A store-less effect locks every
// cashbox of the tenant in id order.
func (g *FundsGuard) Lock(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, effects []cashbox.CashEffect) (map[uuid.UUID]*cashbox.Cashbox, error) {
	locked := make(map[uuid.UUID]*cashbox.Cashbox)

	tenantWide := false
	stores := make(map[uuid.UUID]struct{})
	for _, eff := range effects {
		if eff.StoreID == nil {
			tenantWide = true
			continue
		}
		stores[*eff.StoreID] = struct{}{}
	}

	if tenantWide {
		all, err := repos.Cashboxes().LockAllForTenant(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock tenant cashboxes: %w", err)
		}
		for i := range all {
			if all[i].IsActive {
				locked[all[i].StoreID] = &all[i]
			}
		}
		return locked, nil
	}

	ids := make([]uuid.UUID, 0, len(stores))
	for id := range stores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, storeID := range ids {
		boxes, err := repos.Cashboxes().LockByStore(ctx, tenantID, storeID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock cashbox: %w", err)
		}
		for i := range boxes {
			if boxes[i].IsActive {
				locked[storeID] = &boxes[i]
			}
		}
	}
	return locked, nil
}

type position struct {
	store   uuid.UUID
	channel cashbox.BalanceChannel
}

// Check recomputes every position effects take money from and fails with
// INSUFFICIENT_FUNDS when one cannot cover its net debit. It must run under
// the locks taken by Lock and before the debiting records are written.
func (g *FundsGuard) Check(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, effects []cashbox.CashEffect) error {
	net := make(map[position]decimal.Decimal)
	var order []position
	for _, eff := range effects {
		p := position{channel: eff.Channel}
		if eff.StoreID != nil {
			p.store = *eff.StoreID
		}
		if _, seen := net[p]; !seen {
			order = append(order, p)
			net[p] = decimal.Zero
		}
		net[p] = net[p].Add(eff.Delta)
	}

	for _, p := range order {
		if !net[p].IsNegative() {
			continue
		}
		var storeID *uuid.UUID
		if p.store != uuid.Nil {
			sid := p.store
			storeID = &sid
		}
		b, err := computeBreakdown(ctx, repos.Balances(), g.rules, g.metrics, tenantID, p.channel, storeID)
		if err != nil {
			return err
		}
		requested := net[p].Neg()
		if b.Balance.LessThan(requested) {
			g.metrics.RecordInsufficientFunds(ctx, tenantID, p.channel.String())
			return cashbox.NewInsufficientFundsError(p.channel, b.Balance, requested)
		}
	}
	return nil
}

// Synchronizer keeps cashbox caches and session ledgers in step with the
// money-moving writes of a transaction. Every write passes its domain events
// through ApplyEvents before persisting its own rows.
type Synchronizer struct {
	guard   *FundsGuard
	metrics *telemetry.TreasuryMetrics
	logger  *zap.Logger
}

// NewSynchronizer creates a new Synchronizer
func NewSynchronizer(guard *FundsGuard, metrics *telemetry.TreasuryMetrics, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if guard == nil {
		guard = NewFundsGuard(metrics)
	}
	return &Synchronizer{guard: guard, metrics: metrics, logger: logger}
}

// ApplyEvents applies the cash effects of every cash-affecting event
func (s *Synchronizer) ApplyEvents(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, events []shared.DomainEvent) error {
	return s.Apply(ctx, repos, tenantID, cashbox.CollectEffects(events))
}

// Apply locks the affected cashboxes, checks funds for debits, then adjusts
// the cached cash balance once per effect and mirrors source effects into the
// store's open session.
func (s *Synchronizer) Apply(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, effects []cashbox.CashEffect) error {
	if len(effects) == 0 {
		return nil
	}
	for _, eff := range effects {
		if eff.TenantID != tenantID {
			return shared.ErrForbidden
		}
	}

	locked, err := s.guard.Lock(ctx, repos, tenantID, effects)
	if err != nil {
		return err
	}
	if err := s.guard.Check(ctx, repos, tenantID, effects); err != nil {
		return err
	}

	for _, eff := range effects {
		if eff.StoreID == nil || eff.Channel != cashbox.BalanceCash {
			continue
		}
		if cb, ok := locked[*eff.StoreID]; ok {
			if err := s.adjust(ctx, repos, cb, eff.Delta, eff.Source); err != nil {
				return err
			}
		} else {
			logger.Enrich(ctx, s.logger).Warn("No active cashbox for store, cache catches up on activation",
				zap.String("store_id", eff.StoreID.String()),
				zap.String("source_type", string(eff.Source.Type)),
			)
		}
		if eff.Mirror != "" {
			if err := s.mirror(ctx, repos, eff); err != nil {
				return err
			}
		}
	}
	return nil
}

// adjust is the single place the cached balance moves. The caller holds the row lock.
func (s *Synchronizer) adjust(ctx context.Context, repos TransactionalRepositories, cb *cashbox.Cashbox, delta decimal.Decimal, source cashbox.SourceRef) error {
	if delta.IsZero() {
		return nil
	}
	cb.ApplyDelta(delta)
	if err := repos.Cashboxes().Save(ctx, cb); err != nil {
		return fmt.Errorf("failed to adjust cashbox balance: %w", err)
	}
	s.metrics.RecordCacheAdjustment(ctx, cb.TenantID, string(source.Type))
	logger.Enrich(ctx, s.logger).Debug("Cashbox balance adjusted",
		zap.String("cashbox_id", cb.ID.String()),
		zap.String("delta", delta.String()),
		zap.String("balance", cb.Balance.String()),
		zap.String("source_type", string(source.Type)),
		zap.String("source_id", source.ID.String()),
	)
	return nil
}

// mirror records a source effect inside the store's open session so that the
// session's expected closing balance includes it
func (s *Synchronizer) mirror(ctx context.Context, repos TransactionalRepositories, eff cashbox.CashEffect) error {
	session, err := repos.Sessions().FindOpenByStore(ctx, eff.TenantID, *eff.StoreID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find open session: %w", err)
	}

	number, err := repos.Numbers().Next(ctx, eff.TenantID, MovementNumberPrefix)
	if err != nil {
		return err
	}
	mv, err := cashbox.NewMirroredMovement(session, number, eff)
	if err != nil {
		return err
	}
	if err := repos.Movements().Create(ctx, mv); err != nil {
		return fmt.Errorf("failed to record mirrored movement: %w", err)
	}
	s.metrics.RecordMovement(ctx, mv.TenantID, string(mv.Direction), string(mv.Category), string(mv.Channel), mv.Amount)
	return nil
}

// PublishEvents hands committed events to the bus. Handler failures never
// reach the caller.
func PublishEvents(ctx context.Context, publisher shared.EventPublisher, l *zap.Logger, events []shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Enrich(ctx, l).Error("Failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}
