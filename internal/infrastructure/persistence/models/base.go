package models

import (
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel extends BaseModel with the aggregate version
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// TenantAggregateModel extends AggregateModel with tenant ID and creator info
type TenantAggregateModel struct {
	AggregateModel
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
}

// FromDomainTenantAggregateRoot populates TenantAggregateModel from domain TenantAggregateRoot
func (m *TenantAggregateModel) FromDomainTenantAggregateRoot(t shared.TenantAggregateRoot) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.TenantID = t.TenantID
	m.CreatedBy = t.CreatedBy
}

// ToDomainTenantAggregateRoot rebuilds the domain root. Pending events are not persisted.
func (m *TenantAggregateModel) ToDomainTenantAggregateRoot() shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		TenantID:  m.TenantID,
		CreatedBy: m.CreatedBy,
	}
}
