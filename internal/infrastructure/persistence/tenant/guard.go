package tenant

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrTenantIDRequired is returned when a scope is built without a tenant
	ErrTenantIDRequired = errors.New("tenant_id is required")

	// ErrTenantFilterMissing is returned when a read on a tenant owned table has no tenant condition
	ErrTenantFilterMissing = errors.New("query on tenant owned table is missing a tenant_id condition")
)

const guardName = "tenant:guard"

// RegisterGuard installs callbacks that reject reads and deletes on tenant
// owned tables lacking a tenant_id condition. Writes carry the tenant in the
// row itself and are not checked.
func RegisterGuard(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register(guardName, guard); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register(guardName, guard); err != nil {
		return err
	}
	return db.Callback().Delete().Before("gorm:delete").Register(guardName, guard)
}

func guard(db *gorm.DB) {
	stmt := db.Statement
	if db.Error != nil || stmt.Unscoped || stmt.Schema == nil {
		return
	}
	if stmt.Schema.LookUpField(Column) == nil {
		return
	}
	if hasTenantCondition(stmt) {
		return
	}
	_ = db.AddError(ErrTenantFilterMissing)
}

func hasTenantCondition(stmt *gorm.Statement) bool {
	c, ok := stmt.Clauses["WHERE"]
	if !ok {
		return false
	}
	where, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, expr := range where.Exprs {
		if mentionsTenant(expr) {
			return true
		}
	}
	return false
}

func mentionsTenant(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Expr:
		return strings.Contains(e.SQL, Column)
	case clause.NamedExpr:
		return strings.Contains(e.SQL, Column)
	case clause.Eq:
		return columnName(e.Column) == Column
	case clause.IN:
		return columnName(e.Column) == Column
	case clause.AndConditions:
		for _, sub := range e.Exprs {
			if mentionsTenant(sub) {
				return true
			}
		}
	}
	return false
}

func columnName(v any) string {
	switch c := v.(type) {
	case clause.Column:
		return c.Name
	case string:
		return c
	}
	return ""
}
