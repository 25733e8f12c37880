package persistence

import (
	"context"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/domain/store"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/erp/treasury/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStoreRepository implements store.StoreRepository using GORM
type GormStoreRepository struct {
	db *gorm.DB
}

// NewGormStoreRepository creates a new GormStoreRepository
func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// FindByIDForTenant finds a store by ID
func (r *GormStoreRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*store.Store, error) {
	var model models.StoreModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		Take(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists stores with paging
func (r *GormStoreRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]store.Store, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.StoreModel{}).
		Scopes(tenant.Scope(tenantID)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StoreModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID), paginate(filter, StoreSortFields, "code")).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]store.Store, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// ExistsByCode reports whether the tenant already uses code
func (r *GormStoreRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StoreModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a store
func (r *GormStoreRepository) Save(ctx context.Context, s *store.Store) error {
	err := r.db.WithContext(ctx).Save(models.StoreModelFromDomain(s)).Error
	return uniqueViolation(err, nil, shared.ErrAlreadyExists)
}

var _ store.StoreRepository = (*GormStoreRepository)(nil)
