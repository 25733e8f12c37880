package persistence

import (
	"context"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/domain/trade"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/erp/treasury/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSaleRepository implements trade.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

func (r *GormSaleRepository) find(ctx context.Context, tenantID, id uuid.UUID, lock bool) (*trade.Sale, error) {
	db := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Where("id = ?", id)
	if lock {
		db = db.Clauses(forUpdate)
	}
	var model models.SaleModel
	if err := db.Take(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a sale by ID
func (r *GormSaleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.Sale, error) {
	return r.find(ctx, tenantID, id, false)
}

// FindByIDForUpdate finds a sale by ID and locks its row
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*trade.Sale, error) {
	return r.find(ctx, tenantID, id, true)
}

// FindAllForTenant lists sales with filtering and paging
func (r *GormSaleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.SaleFilter) ([]trade.Sale, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(tenant.Scope(tenantID), tenant.StoreScope("store_id", filter.StoreID))
		if filter.Status != nil {
			db = db.Where("status = ?", *filter.Status)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.SaleModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SaleModel
	if err := r.db.WithContext(ctx).
		Scopes(scope, paginate(filter.Filter, SaleSortFields, "created_at")).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]trade.Sale, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save creates or updates a sale
func (r *GormSaleRepository) Save(ctx context.Context, s *trade.Sale) error {
	err := r.db.WithContext(ctx).Save(models.SaleModelFromDomain(s)).Error
	return uniqueViolation(err, nil, shared.ErrAlreadyExists)
}

var _ trade.SaleRepository = (*GormSaleRepository)(nil)
