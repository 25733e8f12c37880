package persistence

import (
	"testing"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/erp/treasury/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "DESC"},
		{"asc", "ASC"},
		{"  ASC ", "ASC"},
		{"desc", "DESC"},
		{"ASC; DROP TABLE cash_movements;--", "DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"whitelisted", "amount", "amount"},
		{"trimmed", "  recorded_at ", "recorded_at"},
		{"unknown falls back", "tenant_id", "created_at"},
		{"empty falls back", "", "created_at"},
		{"injection falls back", "amount; DROP TABLE cashboxes", "created_at"},
		{"case sensitive", "AMOUNT", "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, MovementSortFields, "created_at"))
		})
	}
}

func TestPaginate(t *testing.T) {
	db, _, mockDB := newMockGorm(t)
	defer mockDB.Close()

	tests := []struct {
		name   string
		filter shared.Filter
		order  string
	}{
		{"whitelisted ascending", shared.Filter{OrderBy: "amount", OrderDir: "asc"}, "ORDER BY amount ASC, id ASC"},
		{"unknown column falls back", shared.Filter{OrderBy: "tenant_id", OrderDir: "asc"}, "ORDER BY created_at ASC, id ASC"},
		{"defaults", shared.Filter{}, "ORDER BY created_at DESC, id DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows []models.CashMovementModel
			stmt := db.Session(&gorm.Session{DryRun: true}).
				Scopes(tenant.Scope(uuid.New()), paginate(tt.filter, MovementSortFields, "created_at")).
				Find(&rows).Statement
			assert.Contains(t, stmt.SQL.String(), tt.order)
		})
	}
}
