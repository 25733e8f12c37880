package cashbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/erp/treasury/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SessionService handles register session use cases
type SessionService struct {
	sessions  cashbox.SessionRepository
	movements cashbox.MovementRepository
	counts    cashbox.CashCountRepository
	txScope   TransactionScope
	sync      *Synchronizer
	events    shared.EventPublisher
	rules     cashbox.RuleSet
	metrics   *telemetry.TreasuryMetrics
	logger    *zap.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(
	sessions cashbox.SessionRepository,
	movements cashbox.MovementRepository,
	counts cashbox.CashCountRepository,
	txScope TransactionScope,
	sync *Synchronizer,
	events shared.EventPublisher,
	metrics *telemetry.TreasuryMetrics,
	logger *zap.Logger,
) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sync == nil {
		sync = NewSynchronizer(nil, metrics, logger)
	}
	return &SessionService{
		sessions:  sessions,
		movements: movements,
		counts:    counts,
		txScope:   txScope,
		sync:      sync,
		events:    events,
		rules:     cashbox.CurrentRules(),
		metrics:   metrics,
		logger:    logger,
	}
}

// Open starts a session on a cashbox. The open-session check and the insert
// run under the cashbox row lock.
func (s *SessionService) Open(ctx context.Context, tenantID, cashboxID, operatorID uuid.UUID, req OpenSessionRequest) (_ *SessionResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "session", "open",
		telemetry.AttrTenantID.String(tenantID.String()),
		telemetry.AttrCashboxID.String(cashboxID.String()),
	)
	defer func() { telemetry.End(span, err) }()

	var session *cashbox.Session
	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		cb, err := repos.Cashboxes().FindByIDForUpdate(ctx, tenantID, cashboxID)
		if err != nil {
			return err
		}
		if err := cb.EnsureActive(); err != nil {
			return err
		}

		existing, err := repos.Sessions().FindOpenByCashbox(ctx, tenantID, cashboxID)
		if err == nil {
			return cashbox.NewAlreadyOpenSessionError(existing.ID)
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		session, err = cashbox.OpenSession(cb, operatorID, req.OpeningBalance, req.Notes)
		if err != nil {
			return err
		}

		adjustment, err := s.reconcileOpening(ctx, repos, cb, operatorID, req.OpeningBalance)
		if err != nil {
			return err
		}
		if adjustment != nil {
			events = append(events, adjustment.GetDomainEvents()...)
		}

		if err := repos.Sessions().Save(ctx, session); err != nil {
			return err
		}

		if req.OpeningCount != nil {
			count, err := cashbox.NewCashCount(session, cashbox.CountTypeOpening, req.OpeningCount, operatorID, "")
			if err != nil {
				return err
			}
			if err := repos.Counts().Create(ctx, count); err != nil {
				return fmt.Errorf("failed to record opening count: %w", err)
			}
		}

		events = append(events, session.GetDomainEvents()...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSessionOpened(ctx, tenantID)
	logger.Enrich(ctx, s.logger).Info("Register session opened",
		zap.String("session_id", session.ID.String()),
		zap.String("cashbox_id", cashboxID.String()),
		zap.String("opening_balance", session.OpeningBalance.String()),
	)
	PublishEvents(ctx, s.events, s.logger, events)
	return toSessionResponse(session), nil
}

// reconcileOpening records a store level adjustment when the declared float
// differs from the store's computed cash balance. The adjustment stays outside
// the session so the session's expected balance starts at the float.
func (s *SessionService) reconcileOpening(ctx context.Context, repos TransactionalRepositories, cb *cashbox.Cashbox, operatorID uuid.UUID, opening decimal.Decimal) (*cashbox.Movement, error) {
	storeID := cb.StoreID
	b, err := computeBreakdown(ctx, repos.Balances(), s.rules, s.metrics, cb.TenantID, cashbox.BalanceCash, &storeID)
	if err != nil {
		return nil, err
	}
	diff := opening.Sub(b.Balance)
	if diff.IsZero() {
		return nil, nil
	}

	direction := cashbox.DirectionIn
	if diff.IsNegative() {
		direction = cashbox.DirectionOut
	}
	number, err := repos.Numbers().Next(ctx, cb.TenantID, MovementNumberPrefix)
	if err != nil {
		return nil, err
	}
	cashboxID := cb.ID
	mv, err := cashbox.NewManualMovement(s.rules, cashbox.MovementParams{
		TenantID:    cb.TenantID,
		Number:      number,
		CashboxID:   &cashboxID,
		StoreID:     &storeID,
		Direction:   direction,
		Category:    cashbox.CategoryAdjustment,
		Channel:     cashbox.PaymentChannelCash,
		Amount:      diff.Abs(),
		Description: "Opening float reconciliation",
		Notes:       fmt.Sprintf("computed %s, declared %s", b.Balance.String(), opening.String()),
		RecordedBy:  operatorID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.sync.ApplyEvents(ctx, repos, cb.TenantID, mv.GetDomainEvents()); err != nil {
		return nil, err
	}
	if err := repos.Movements().Create(ctx, mv); err != nil {
		return nil, fmt.Errorf("failed to record opening adjustment: %w", err)
	}
	s.metrics.RecordMovement(ctx, mv.TenantID, string(mv.Direction), string(mv.Category), string(mv.Channel), mv.Amount)
	return mv, nil
}

// lockOpenSession loads a session, locks its cashbox and reloads the session
// so a concurrent close is observed. An unknown session is not open.
func lockOpenSession(ctx context.Context, repos TransactionalRepositories, tenantID, sessionID uuid.UUID) (*cashbox.Session, error) {
	session, err := repos.Sessions().FindByIDForTenant(ctx, tenantID, sessionID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, cashbox.NewSessionNotOpenError(sessionID)
	}
	if err != nil {
		return nil, err
	}
	if !session.IsOpen() {
		return nil, cashbox.NewSessionNotOpenError(sessionID)
	}
	if _, err := repos.Cashboxes().FindByIDForUpdate(ctx, tenantID, session.CashboxID); err != nil {
		return nil, err
	}
	session, err = repos.Sessions().FindByIDForTenant(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen() {
		return nil, cashbox.NewSessionNotOpenError(sessionID)
	}
	return session, nil
}

// Close closes a session against the counted balance and records the discrepancy
func (s *SessionService) Close(ctx context.Context, tenantID, sessionID, closedBy uuid.UUID, req CloseSessionRequest) (_ *SessionResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "session", "close",
		telemetry.AttrTenantID.String(tenantID.String()),
		telemetry.AttrSessionID.String(sessionID.String()),
	)
	defer func() { telemetry.End(span, err) }()

	var session *cashbox.Session
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		session, err = lockOpenSession(ctx, repos, tenantID, sessionID)
		if err != nil {
			return err
		}

		if req.ClosingCount != nil {
			count, err := cashbox.NewCashCount(session, cashbox.CountTypeClosing, req.ClosingCount, closedBy, "")
			if err != nil {
				return err
			}
			if err := repos.Counts().Create(ctx, count); err != nil {
				return fmt.Errorf("failed to record closing count: %w", err)
			}
		}

		totals, err := repos.Movements().SumBySession(ctx, tenantID, sessionID)
		if err != nil {
			return fmt.Errorf("failed to total session movements: %w", err)
		}
		if err := session.Close(closedBy, totals, req.ActualClosingBalance, req.Notes); err != nil {
			return err
		}
		return repos.Sessions().Save(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	discrepancy := *session.Discrepancy()
	s.metrics.RecordSessionClosed(ctx, tenantID, discrepancy)
	log := logger.Enrich(ctx, s.logger)
	fields := []zap.Field{
		zap.String("session_id", session.ID.String()),
		zap.String("expected", session.ExpectedClosingBalance.String()),
		zap.String("actual", session.ActualClosingBalance.String()),
		zap.String("discrepancy", discrepancy.String()),
	}
	if discrepancy.IsZero() {
		log.Info("Register session closed", fields...)
	} else {
		log.Warn("Register session closed with discrepancy", fields...)
	}
	PublishEvents(ctx, s.events, s.logger, session.GetDomainEvents())
	return toSessionResponse(session), nil
}

// RecordCount records a denomination count for an open session
func (s *SessionService) RecordCount(ctx context.Context, tenantID, sessionID, countedBy uuid.UUID, req RecordCountRequest) (*CashCountResponse, error) {
	var count *cashbox.CashCount
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		session, err := lockOpenSession(ctx, repos, tenantID, sessionID)
		if err != nil {
			return err
		}
		count, err = cashbox.NewCashCount(session, cashbox.CountType(req.CountType), req.Quantities, countedBy, req.Notes)
		if err != nil {
			return err
		}
		return repos.Counts().Create(ctx, count)
	})
	if err != nil {
		return nil, err
	}
	return toCashCountResponse(count), nil
}

// GetSession returns a session by ID
func (s *SessionService) GetSession(ctx context.Context, tenantID, sessionID uuid.UUID) (*SessionResponse, error) {
	session, err := s.sessions.FindByIDForTenant(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

// ListSessions lists sessions with filtering and paging
func (s *SessionService) ListSessions(ctx context.Context, tenantID uuid.UUID, filter SessionListFilter) ([]SessionResponse, int64, error) {
	cashboxID, err := ParseOptionalID("cashbox_id", filter.CashboxID)
	if err != nil {
		return nil, 0, err
	}
	domainFilter := cashbox.SessionFilter{
		Filter:    PageFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir),
		CashboxID: cashboxID,
		From:      filter.From,
		To:        filter.To,
	}
	if filter.Status != "" {
		status := cashbox.SessionStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainErrorf("INVALID_INPUT", "Unknown session status %q", filter.Status)
		}
		domainFilter.Status = &status
	}

	sessions, total, err := s.sessions.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SessionResponse, len(sessions))
	for i := range sessions {
		out[i] = *toSessionResponse(&sessions[i])
	}
	return out, total, nil
}

// ListSessionsByCashbox lists the sessions of one cashbox
func (s *SessionService) ListSessionsByCashbox(ctx context.Context, tenantID, cashboxID uuid.UUID, filter SessionListFilter) ([]SessionResponse, int64, error) {
	filter.CashboxID = cashboxID.String()
	return s.ListSessions(ctx, tenantID, filter)
}

// Summary returns the running position of a session
func (s *SessionService) Summary(ctx context.Context, tenantID, sessionID uuid.UUID) (*SessionSummary, error) {
	session, err := s.sessions.FindByIDForTenant(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	totals, err := s.movements.SumBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	sid := session.ID
	_, movementCount, err := s.movements.FindAllForTenant(ctx, tenantID, cashbox.MovementFilter{
		Filter:    shared.Filter{Page: 1, PageSize: 1},
		SessionID: &sid,
	})
	if err != nil {
		return nil, err
	}
	counts, err := s.counts.FindBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	expected := session.ExpectedBalance(totals)
	if session.ExpectedClosingBalance != nil {
		expected = *session.ExpectedClosingBalance
	}
	return &SessionSummary{
		SessionID:      session.ID,
		Status:         session.Status.String(),
		OpeningBalance: session.OpeningBalance,
		Inflows:        totals.In,
		Outflows:       totals.Out,
		Expected:       expected,
		Actual:         session.ActualClosingBalance,
		Discrepancy:    session.Discrepancy(),
		MovementCount:  movementCount,
		CountCount:     len(counts),
	}, nil
}

// ListCounts returns the denomination counts of a session
func (s *SessionService) ListCounts(ctx context.Context, tenantID, sessionID uuid.UUID) ([]CashCountResponse, error) {
	if _, err := s.sessions.FindByIDForTenant(ctx, tenantID, sessionID); err != nil {
		return nil, err
	}
	counts, err := s.counts.FindBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]CashCountResponse, len(counts))
	for i := range counts {
		out[i] = *toCashCountResponse(&counts[i])
	}
	return out, nil
}

// ListSessionMovements lists the ledger entries of a session
func (s *SessionService) ListSessionMovements(ctx context.Context, tenantID, sessionID uuid.UUID, page shared.Filter) ([]MovementResponse, int64, error) {
	if _, err := s.sessions.FindByIDForTenant(ctx, tenantID, sessionID); err != nil {
		return nil, 0, err
	}
	sid := sessionID
	movements, total, err := s.movements.FindAllForTenant(ctx, tenantID, cashbox.MovementFilter{
		Filter:    page,
		SessionID: &sid,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = *toMovementResponse(&movements[i])
	}
	return out, total, nil
}
