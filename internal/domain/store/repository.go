package store

import (
	"context"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
)

// StoreRepository defines persistence for stores
type StoreRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Store, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Store, int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, store *Store) error
}
