package persistence

import (
	"context"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/erp/treasury/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCashCountRepository implements cashbox.CashCountRepository using GORM
type GormCashCountRepository struct {
	db *gorm.DB
}

// NewGormCashCountRepository creates a new GormCashCountRepository
func NewGormCashCountRepository(db *gorm.DB) *GormCashCountRepository {
	return &GormCashCountRepository{db: db}
}

// FindByIDForTenant finds a count by ID
func (r *GormCashCountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*cashbox.CashCount, error) {
	var model models.CashCountModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		Take(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindBySession lists the counts of a session, oldest first
func (r *GormCashCountRepository) FindBySession(ctx context.Context, tenantID, sessionID uuid.UUID) ([]cashbox.CashCount, error) {
	var rows []models.CashCountModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]cashbox.CashCount, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts a count
func (r *GormCashCountRepository) Create(ctx context.Context, c *cashbox.CashCount) error {
	return r.db.WithContext(ctx).Create(models.CashCountModelFromDomain(c)).Error
}

var _ cashbox.CashCountRepository = (*GormCashCountRepository)(nil)
