// Package tenant provides explicit tenant and store scoping for GORM queries.
//
// Every repository method receives the tenant ID as an argument; nothing is
// read from the request context. The guard callbacks turn a forgotten tenant
// filter on a tenant owned table into an error instead of a cross-tenant read.
//
// Usage:
//
//	tenant.RegisterGuard(db)
//	db.Scopes(tenant.Scope(tenantID), tenant.StoreScope("store_id", storeID)).Find(&rows)
package tenant

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column is the tenant column shared by every tenant owned table
const Column = "tenant_id"

// Scope filters a query to one tenant
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where(Column+" = ?", tenantID)
	}
}

// StoreScope filters a query to one store when storeID is set.
// A nil storeID leaves the query tenant wide.
func StoreScope(column string, storeID *uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if storeID == nil {
			return db
		}
		return db.Where(column+" = ?", *storeID)
	}
}
