package persistence

import (
	"context"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/erp/treasury/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormMovementRepository implements cashbox.MovementRepository using GORM.
// Entries are append only: there is no update or delete.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// FindByIDForTenant finds a movement by ID
func (r *GormMovementRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*cashbox.Movement, error) {
	var model models.CashMovementModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		Take(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists movements with filtering and paging
func (r *GormMovementRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter cashbox.MovementFilter) ([]cashbox.Movement, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(tenant.Scope(tenantID), tenant.StoreScope("store_id", filter.StoreID))
		if filter.SessionID != nil {
			db = db.Where("session_id = ?", *filter.SessionID)
		}
		if filter.Direction != nil {
			db = db.Where("direction = ?", *filter.Direction)
		}
		if filter.Category != nil {
			db = db.Where("category = ?", *filter.Category)
		}
		if filter.Channel != nil {
			db = db.Where("channel = ?", *filter.Channel)
		}
		if filter.From != nil {
			db = db.Where("recorded_at >= ?", *filter.From)
		}
		if filter.To != nil {
			db = db.Where("recorded_at <= ?", *filter.To)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.CashMovementModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CashMovementModel
	if err := r.db.WithContext(ctx).
		Scopes(scope, paginate(filter.Filter, MovementSortFields, "recorded_at")).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]cashbox.Movement, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

type directionTotal struct {
	Direction string
	Total     decimal.Decimal
}

// SumBySession totals the session's entries per direction
func (r *GormMovementRepository) SumBySession(ctx context.Context, tenantID, sessionID uuid.UUID) (cashbox.MovementTotals, error) {
	var rows []directionTotal
	if err := r.db.WithContext(ctx).
		Model(&models.CashMovementModel{}).
		Scopes(tenant.Scope(tenantID)).
		Select("direction, COALESCE(SUM(amount), 0) AS total").
		Where("session_id = ?", sessionID).
		Group("direction").
		Scan(&rows).Error; err != nil {
		return cashbox.MovementTotals{}, err
	}

	totals := cashbox.MovementTotals{In: decimal.Zero, Out: decimal.Zero}
	for _, row := range rows {
		switch cashbox.Direction(row.Direction) {
		case cashbox.DirectionIn:
			totals.In = totals.In.Add(row.Total)
		case cashbox.DirectionOut:
			totals.Out = totals.Out.Add(row.Total)
		}
	}
	return totals, nil
}

// Create inserts a movement. Movement numbers are unique per tenant.
func (r *GormMovementRepository) Create(ctx context.Context, m *cashbox.Movement) error {
	err := r.db.WithContext(ctx).Create(models.CashMovementModelFromDomain(m)).Error
	return uniqueViolation(err, nil, shared.ErrAlreadyExists)
}

var _ cashbox.MovementRepository = (*GormMovementRepository)(nil)
