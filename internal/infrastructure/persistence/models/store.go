package models

import (
	"github.com/erp/treasury/internal/domain/store"
)

// StoreModel is the persistence model for stores
type StoreModel struct {
	TenantAggregateModel
	Code     string `gorm:"type:varchar(30);not null;index"`
	Name     string `gorm:"type:varchar(100);not null"`
	Address  string `gorm:"type:varchar(500)"`
	Phone    string `gorm:"type:varchar(50)"`
	IsActive bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (StoreModel) TableName() string {
	return "stores"
}

// ToDomain converts the persistence model to a domain Store
func (m *StoreModel) ToDomain() *store.Store {
	return &store.Store{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Code:                m.Code,
		Name:                m.Name,
		Address:             m.Address,
		Phone:               m.Phone,
		IsActive:            m.IsActive,
	}
}

// StoreModelFromDomain creates a new persistence model from a domain Store
func StoreModelFromDomain(s *store.Store) *StoreModel {
	m := &StoreModel{
		Code:     s.Code,
		Name:     s.Name,
		Address:  s.Address,
		Phone:    s.Phone,
		IsActive: s.IsActive,
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}
