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
	"go.uber.org/zap"
)

// MovementService records and queries ledger entries
type MovementService struct {
	movements   cashbox.MovementRepository
	txScope     TransactionScope
	sync        *Synchronizer
	events      shared.EventPublisher
	idempotency shared.IdempotencyStore
	idemCfg     shared.IdempotencyConfig
	rules       cashbox.RuleSet
	metrics     *telemetry.TreasuryMetrics
	logger      *zap.Logger
}

// MovementServiceOption configures a MovementService
type MovementServiceOption func(*MovementService)

// WithIdempotency enables Idempotency-Key handling for Record
func WithIdempotency(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) MovementServiceOption {
	return func(s *MovementService) {
		s.idempotency = store
		s.idemCfg = cfg
	}
}

// NewMovementService creates a new MovementService
func NewMovementService(
	movements cashbox.MovementRepository,
	txScope TransactionScope,
	sync *Synchronizer,
	events shared.EventPublisher,
	metrics *telemetry.TreasuryMetrics,
	logger *zap.Logger,
	opts ...MovementServiceOption,
) *MovementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sync == nil {
		sync = NewSynchronizer(nil, metrics, logger)
	}
	s := &MovementService{
		movements: movements,
		txScope:   txScope,
		sync:      sync,
		events:    events,
		rules:     cashbox.CurrentRules(),
		metrics:   metrics,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MovementService) idempotencyEnabled(key string) bool {
	return key != "" && s.idempotency != nil && s.idemCfg.Enabled
}

func idempotencyKey(tenantID uuid.UUID, key string) string {
	return fmt.Sprintf("%s:movement:%s", tenantID, key)
}

// Record records a manual ledger entry. A replayed idempotency key returns
// the movement recorded by the first request.
func (s *MovementService) Record(ctx context.Context, tenantID, recordedBy uuid.UUID, req RecordMovementRequest, idemKey string) (*MovementResponse, error) {
	if !s.idempotencyEnabled(idemKey) {
		return s.record(ctx, tenantID, recordedBy, req)
	}

	key := idempotencyKey(tenantID, idemKey)
	resultID, found, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	if found {
		return s.replay(ctx, tenantID, resultID)
	}

	reserved, err := s.idempotency.Reserve(ctx, key, s.idemCfg.PendingTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if !reserved {
		return nil, shared.ErrDuplicateRequest
	}

	resp, err := s.record(ctx, tenantID, recordedBy, req)
	if err != nil {
		if relErr := s.idempotency.Release(ctx, key); relErr != nil {
			logger.Enrich(ctx, s.logger).Warn("Failed to release idempotency key",
				zap.String("key", idemKey),
				zap.Error(relErr),
			)
		}
		return nil, err
	}
	if err := s.idempotency.Complete(ctx, key, resp.ID.String(), s.idemCfg.TTL); err != nil {
		logger.Enrich(ctx, s.logger).Warn("Failed to complete idempotency key",
			zap.String("key", idemKey),
			zap.Error(err),
		)
	}
	return resp, nil
}

func (s *MovementService) replay(ctx context.Context, tenantID uuid.UUID, resultID string) (*MovementResponse, error) {
	if resultID == "" {
		return nil, shared.ErrDuplicateRequest
	}
	id, err := uuid.Parse(resultID)
	if err != nil {
		return nil, fmt.Errorf("invalid stored idempotency result %q: %w", resultID, err)
	}
	return s.Get(ctx, tenantID, id)
}

func (s *MovementService) record(ctx context.Context, tenantID, recordedBy uuid.UUID, req RecordMovementRequest) (_ *MovementResponse, err error) {
	direction, err := cashbox.ParseDirection(req.Direction)
	if err != nil {
		return nil, err
	}
	category, err := cashbox.ParseCategory(req.Category)
	if err != nil {
		return nil, err
	}
	channel, err := cashbox.ParsePaymentChannel(req.Channel)
	if err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError(cashbox.CodeInvalidAmount, "Amount must be positive")
	}

	ctx, span := telemetry.StartSpan(ctx, "movement", "record",
		telemetry.AttrTenantID.String(tenantID.String()),
		telemetry.AttrDirection.String(direction.String()),
		telemetry.AttrCategory.String(category.String()),
		telemetry.AttrChannel.String(channel.String()),
	)
	defer func() { telemetry.End(span, err) }()

	var mv *cashbox.Movement
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		params := cashbox.MovementParams{
			TenantID:    tenantID,
			StoreID:     req.StoreID,
			Direction:   direction,
			Category:    category,
			Channel:     channel,
			Amount:      req.Amount,
			Reference:   req.Reference,
			Description: req.Description,
			Notes:       req.Notes,
			RecordedBy:  recordedBy,
		}

		switch {
		case req.SessionID != nil:
			session, err := lockOpenSession(ctx, repos, tenantID, *req.SessionID)
			if err != nil {
				return err
			}
			params.Session = session
		case req.StoreID != nil:
			if _, err := repos.Stores().FindByIDForTenant(ctx, tenantID, *req.StoreID); err != nil {
				return err
			}
			cb, err := repos.Cashboxes().FindActiveByStore(ctx, tenantID, *req.StoreID)
			if err == nil {
				params.CashboxID = &cb.ID
			} else if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
		}

		number, err := repos.Numbers().Next(ctx, tenantID, MovementNumberPrefix)
		if err != nil {
			return err
		}
		params.Number = number

		mv, err = cashbox.NewManualMovement(s.rules, params)
		if err != nil {
			return err
		}
		if err := s.sync.ApplyEvents(ctx, repos, tenantID, mv.GetDomainEvents()); err != nil {
			return err
		}
		return repos.Movements().Create(ctx, mv)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMovement(ctx, tenantID, direction.String(), category.String(), channel.String(), mv.Amount)
	logger.Enrich(ctx, s.logger).Info("Cash movement recorded",
		zap.String("movement_id", mv.ID.String()),
		zap.String("movement_number", mv.MovementNumber),
		zap.String("direction", direction.String()),
		zap.String("category", category.String()),
		zap.String("channel", channel.String()),
		zap.String("amount", mv.Amount.String()),
	)
	PublishEvents(ctx, s.events, s.logger, mv.GetDomainEvents())
	return toMovementResponse(mv), nil
}

// Get returns a ledger entry by ID
func (s *MovementService) Get(ctx context.Context, tenantID, id uuid.UUID) (*MovementResponse, error) {
	mv, err := s.movements.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toMovementResponse(mv), nil
}

// List lists ledger entries with filtering and paging
func (s *MovementService) List(ctx context.Context, tenantID uuid.UUID, filter MovementListFilter) ([]MovementResponse, int64, error) {
	domainFilter := cashbox.MovementFilter{
		Filter: PageFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir),
		From:   filter.From,
		To:     filter.To,
	}

	var err error
	if domainFilter.SessionID, err = ParseOptionalID("session_id", filter.SessionID); err != nil {
		return nil, 0, err
	}
	if domainFilter.StoreID, err = ParseOptionalID("store_id", filter.StoreID); err != nil {
		return nil, 0, err
	}
	if filter.Direction != "" {
		d, err := cashbox.ParseDirection(filter.Direction)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Direction = &d
	}
	if filter.Category != "" {
		c, err := cashbox.ParseCategory(filter.Category)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Category = &c
	}
	if filter.Channel != "" {
		ch, err := cashbox.ParsePaymentChannel(filter.Channel)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Channel = &ch
	}

	movements, total, err := s.movements.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = *toMovementResponse(&movements[i])
	}
	return out, total, nil
}
