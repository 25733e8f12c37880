package persistence

import (
	"context"

	"github.com/erp/treasury/internal/domain/finance"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/erp/treasury/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormExpenseRepository implements finance.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

func (r *GormExpenseRepository) find(ctx context.Context, tenantID, id uuid.UUID, lock bool) (*finance.Expense, error) {
	db := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Where("id = ?", id)
	if lock {
		db = db.Clauses(forUpdate)
	}
	var model models.ExpenseModel
	if err := db.Take(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds an expense by ID
func (r *GormExpenseRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.Expense, error) {
	return r.find(ctx, tenantID, id, false)
}

// FindByIDForUpdate finds an expense by ID and locks its row
func (r *GormExpenseRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.Expense, error) {
	return r.find(ctx, tenantID, id, true)
}

// FindAllForTenant lists expenses with filtering and paging
func (r *GormExpenseRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.ExpenseFilter) ([]finance.Expense, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(tenant.Scope(tenantID), tenant.StoreScope("store_id", filter.StoreID))
		if filter.Status != nil {
			db = db.Where("status = ?", *filter.Status)
		}
		if filter.Category != nil {
			db = db.Where("category = ?", *filter.Category)
		}
		if filter.From != nil {
			db = db.Where("incurred_at >= ?", *filter.From)
		}
		if filter.To != nil {
			db = db.Where("incurred_at <= ?", *filter.To)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.ExpenseModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Scopes(scope, paginate(filter.Filter, ExpenseSortFields, "incurred_at")).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]finance.Expense, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save creates or updates an expense
func (r *GormExpenseRepository) Save(ctx context.Context, e *finance.Expense) error {
	err := r.db.WithContext(ctx).Save(models.ExpenseModelFromDomain(e)).Error
	return uniqueViolation(err, nil, shared.ErrAlreadyExists)
}

var _ finance.ExpenseRepository = (*GormExpenseRepository)(nil)
