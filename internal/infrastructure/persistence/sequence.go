package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/erp/treasury/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentNumberGenerator hands out "PREFIX-YYYYMM-00001" numbers from
// the document_sequences counter table. The upsert locks the counter row until
// the surrounding transaction commits, so numbers are released in commit order.
type GormDocumentNumberGenerator struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormDocumentNumberGenerator creates a new GormDocumentNumberGenerator
func NewGormDocumentNumberGenerator(db *gorm.DB) *GormDocumentNumberGenerator {
	return &GormDocumentNumberGenerator{db: db, now: time.Now}
}

// Next increments and returns the tenant's counter for prefix in the current month
func (g *GormDocumentNumberGenerator) Next(ctx context.Context, tenantID uuid.UUID, prefix string) (string, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", shared.NewDomainError("INVALID_PREFIX", "Document number prefix cannot be empty")
	}
	now := g.now()
	period := now.Format("200601")

	var current models.DocumentSequenceModel
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq := models.DocumentSequenceModel{
			TenantID:  tenantID,
			Prefix:    prefix,
			Period:    period,
			LastValue: 1,
			UpdatedAt: now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "prefix"}, {Name: "period"}},
			DoUpdates: clause.Assignments(map[string]any{
				"last_value": gorm.Expr("document_sequences.last_value + 1"),
				"updated_at": now,
			}),
		}).Create(&seq).Error; err != nil {
			return fmt.Errorf("failed to advance %s sequence: %w", prefix, err)
		}

		// The upsert holds the row lock until commit, so this read sees our value
		if err := tx.Scopes(tenant.Scope(tenantID)).
			Where("prefix = ? AND period = ?", prefix, period).
			Take(&current).Error; err != nil {
			return fmt.Errorf("failed to read %s sequence: %w", prefix, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%05d", prefix, period, current.LastValue), nil
}

var _ shared.DocumentNumberGenerator = (*GormDocumentNumberGenerator)(nil)
