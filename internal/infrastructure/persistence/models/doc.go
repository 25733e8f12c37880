// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
//   - base.go: shared base models (BaseModel, AggregateModel, TenantAggregateModel)
//   - cashbox.go: registers, sessions, ledger entries and denomination counts
//   - store.go: stores
//   - trade.go: sales
//   - finance.go: expenses and the invoice, supplier and loan payment tables
//   - sequence.go: per-tenant document number counters
//
// Every model round trips through ToDomain and a FromDomain constructor.
package models
