package persistence

import (
	"context"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/erp/treasury/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	constraintActiveCashbox = "idx_cashboxes_active_store"
	constraintCashboxCode   = "idx_cashboxes_tenant_code"
)

// forUpdate takes an exclusive row lock held until the transaction ends
var forUpdate = clause.Locking{Strength: "UPDATE"}

// GormCashboxRepository implements cashbox.CashboxRepository using GORM
type GormCashboxRepository struct {
	db *gorm.DB
}

// NewGormCashboxRepository creates a new GormCashboxRepository
func NewGormCashboxRepository(db *gorm.DB) *GormCashboxRepository {
	return &GormCashboxRepository{db: db}
}

func (r *GormCashboxRepository) findOne(ctx context.Context, tenantID uuid.UUID, lock bool, query string, args ...any) (*cashbox.Cashbox, error) {
	db := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Where(query, args...)
	if lock {
		db = db.Clauses(forUpdate)
	}
	var model models.CashboxModel
	if err := db.Take(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a cashbox by ID
func (r *GormCashboxRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*cashbox.Cashbox, error) {
	return r.findOne(ctx, tenantID, false, "id = ?", id)
}

// FindByIDForUpdate finds a cashbox by ID and locks its row
func (r *GormCashboxRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*cashbox.Cashbox, error) {
	return r.findOne(ctx, tenantID, true, "id = ?", id)
}

// FindActiveByStore finds the active cashbox of a store
func (r *GormCashboxRepository) FindActiveByStore(ctx context.Context, tenantID, storeID uuid.UUID) (*cashbox.Cashbox, error) {
	return r.findOne(ctx, tenantID, false, "store_id = ? AND is_active = ?", storeID, true)
}

// LockByStore locks every cashbox of a store, active or not
func (r *GormCashboxRepository) LockByStore(ctx context.Context, tenantID, storeID uuid.UUID) ([]cashbox.Cashbox, error) {
	return r.lockAll(r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Where("store_id = ?", storeID))
}

// LockAllForTenant locks every cashbox of the tenant. Rows are locked in id
// order so that concurrent tenant wide writers cannot deadlock each other.
func (r *GormCashboxRepository) LockAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]cashbox.Cashbox, error) {
	return r.lockAll(r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)))
}

func (r *GormCashboxRepository) lockAll(db *gorm.DB) ([]cashbox.Cashbox, error) {
	var rows []models.CashboxModel
	if err := db.Order("id ASC").Clauses(forUpdate).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]cashbox.Cashbox, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// FindAllForTenant lists cashboxes with filtering and paging
func (r *GormCashboxRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter cashbox.CashboxFilter) ([]cashbox.Cashbox, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(tenant.Scope(tenantID), tenant.StoreScope("store_id", filter.StoreID))
		if filter.IsActive != nil {
			db = db.Where("is_active = ?", *filter.IsActive)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.CashboxModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CashboxModel
	if err := r.db.WithContext(ctx).
		Scopes(scope, paginate(filter.Filter, CashboxSortFields, "created_at")).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]cashbox.Cashbox, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save creates or updates a cashbox
func (r *GormCashboxRepository) Save(ctx context.Context, cb *cashbox.Cashbox) error {
	err := r.db.WithContext(ctx).Save(models.CashboxModelFromDomain(cb)).Error
	return uniqueViolation(err, map[string]error{
		constraintActiveCashbox: cashbox.ErrActiveCashboxExists,
		constraintCashboxCode:   shared.ErrAlreadyExists,
	}, cashbox.ErrActiveCashboxExists)
}

var _ cashbox.CashboxRepository = (*GormCashboxRepository)(nil)
