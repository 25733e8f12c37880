package persistence

import (
	"context"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/erp/treasury/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const constraintOpenSession = "idx_cashbox_sessions_open"

// GormSessionRepository implements cashbox.SessionRepository using GORM
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) findOne(ctx context.Context, tenantID uuid.UUID, query string, args ...any) (*cashbox.Session, error) {
	var model models.CashboxSessionModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where(query, args...).
		Take(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a session by ID
func (r *GormSessionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*cashbox.Session, error) {
	return r.findOne(ctx, tenantID, "id = ?", id)
}

// FindOpenByCashbox finds the open session of a cashbox
func (r *GormSessionRepository) FindOpenByCashbox(ctx context.Context, tenantID, cashboxID uuid.UUID) (*cashbox.Session, error) {
	return r.findOne(ctx, tenantID, "cashbox_id = ? AND status = ?", cashboxID, cashbox.SessionStatusOpen)
}

// FindOpenByStore finds the open session of the store's cashbox
func (r *GormSessionRepository) FindOpenByStore(ctx context.Context, tenantID, storeID uuid.UUID) (*cashbox.Session, error) {
	return r.findOne(ctx, tenantID, "store_id = ? AND status = ?", storeID, cashbox.SessionStatusOpen)
}

// FindAllForTenant lists sessions with filtering and paging
func (r *GormSessionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter cashbox.SessionFilter) ([]cashbox.Session, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(tenant.Scope(tenantID))
		if filter.CashboxID != nil {
			db = db.Where("cashbox_id = ?", *filter.CashboxID)
		}
		if filter.Status != nil {
			db = db.Where("status = ?", *filter.Status)
		}
		if filter.From != nil {
			db = db.Where("opened_at >= ?", *filter.From)
		}
		if filter.To != nil {
			db = db.Where("opened_at <= ?", *filter.To)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.CashboxSessionModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CashboxSessionModel
	if err := r.db.WithContext(ctx).
		Scopes(scope, paginate(filter.Filter, SessionSortFields, "opened_at")).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]cashbox.Session, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save creates or updates a session. A second OPEN row for the same cashbox
// violates the partial unique index and surfaces as ALREADY_OPEN_SESSION.
func (r *GormSessionRepository) Save(ctx context.Context, s *cashbox.Session) error {
	err := r.db.WithContext(ctx).Save(models.CashboxSessionModelFromDomain(s)).Error
	return uniqueViolation(err, map[string]error{
		constraintOpenSession: cashbox.ErrAlreadyOpenSession,
	}, cashbox.ErrAlreadyOpenSession)
}

var _ cashbox.SessionRepository = (*GormSessionRepository)(nil)
