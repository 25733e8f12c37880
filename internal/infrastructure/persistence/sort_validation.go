package persistence

import (
	"fmt"
	"strings"

	"github.com/erp/treasury/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder normalises the sort order to ASC or DESC, DESC by default
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "ASC") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, defaultField otherwise
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// Allowed sort fields per table
var (
	StoreSortFields = map[string]bool{
		"created_at": true,
		"code":       true,
		"name":       true,
	}

	CashboxSortFields = map[string]bool{
		"created_at": true,
		"code":       true,
		"balance":    true,
	}

	SessionSortFields = map[string]bool{
		"created_at": true,
		"opened_at":  true,
		"closed_at":  true,
	}

	MovementSortFields = map[string]bool{
		"created_at":      true,
		"recorded_at":     true,
		"amount":          true,
		"movement_number": true,
	}

	SaleSortFields = map[string]bool{
		"created_at":   true,
		"sale_number":  true,
		"total_amount": true,
		"paid_amount":  true,
	}

	ExpenseSortFields = map[string]bool{
		"created_at":  true,
		"incurred_at": true,
		"amount":      true,
	}

	PaymentSortFields = map[string]bool{
		"created_at": true,
		"paid_at":    true,
		"amount":     true,
	}
)

// paginate orders by a whitelisted column with id as tie breaker and applies the page window
func paginate(f shared.Filter, allowed map[string]bool, defaultField string) func(db *gorm.DB) *gorm.DB {
	f = f.Normalize()
	field := ValidateSortField(f.OrderBy, allowed, defaultField)
	order := ValidateSortOrder(f.OrderDir)
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(fmt.Sprintf("%s %s, id %s", field, order, order)).
			Limit(f.PageSize).
			Offset(f.Offset())
	}
}
