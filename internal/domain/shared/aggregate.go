package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// GetVersion returns the aggregate version
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion bumps the version and the update timestamp
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
	a.Touch()
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// TenantAggregateRoot extends BaseAggregateRoot with the owning tenant
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID  uuid.UUID
	CreatedBy *uuid.UUID
}

// NewTenantAggregateRoot creates a new tenant-scoped aggregate root
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		TenantID:          tenantID,
	}
}

// SetCreatedBy records the user that created the aggregate
func (t *TenantAggregateRoot) SetCreatedBy(userID uuid.UUID) {
	if userID == uuid.Nil {
		return
	}
	t.CreatedBy = &userID
}

// BelongsTo reports whether the aggregate is owned by tenantID
func (t *TenantAggregateRoot) BelongsTo(tenantID uuid.UUID) bool {
	return t.TenantID == tenantID
}
