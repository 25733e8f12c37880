package shared

import (
	"context"

	"github.com/google/uuid"
)

// DocumentNumberGenerator hands out per-tenant document numbers such as
// "MVT-202601-00001". Numbers are unique per tenant and prefix.
type DocumentNumberGenerator interface {
	Next(ctx context.Context, tenantID uuid.UUID, prefix string) (string, error)
}
