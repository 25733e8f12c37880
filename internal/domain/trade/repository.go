package trade

import (
	"context"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
)

// SaleFilter defines filtering options for sale queries
type SaleFilter struct {
	shared.Filter
	StoreID *uuid.UUID
	Status  *SaleStatus
}

// SaleRepository defines persistence for sales
type SaleRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)

	// FindByIDForUpdate loads the sale under a row lock so concurrent
	// payments cannot overpay it
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)

	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter SaleFilter) ([]Sale, int64, error)
	Save(ctx context.Context, sale *Sale) error
}
