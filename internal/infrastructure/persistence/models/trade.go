package models

import (
	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale aggregate root.
// paid_amount is the only column the balance computation reads.
type SaleModel struct {
	TenantAggregateModel
	SaleNumber   string                 `gorm:"type:varchar(50);not null;index"`
	StoreID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	CustomerName string                 `gorm:"type:varchar(200)"`
	TotalAmount  decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	PaidAmount   decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Channel      cashbox.PaymentChannel `gorm:"type:varchar(20);not null"`
	Status       trade.SaleStatus       `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Remark       string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale
func (m *SaleModel) ToDomain() *trade.Sale {
	return &trade.Sale{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		SaleNumber:          m.SaleNumber,
		StoreID:             m.StoreID,
		CustomerName:        m.CustomerName,
		TotalAmount:         m.TotalAmount,
		PaidAmount:          m.PaidAmount,
		Channel:             m.Channel,
		Status:              m.Status,
		Remark:              m.Remark,
	}
}

// SaleModelFromDomain creates a new persistence model from a domain Sale
func SaleModelFromDomain(s *trade.Sale) *SaleModel {
	m := &SaleModel{
		SaleNumber:   s.SaleNumber,
		StoreID:      s.StoreID,
		CustomerName: s.CustomerName,
		TotalAmount:  s.TotalAmount,
		PaidAmount:   s.PaidAmount,
		Channel:      s.Channel,
		Status:       s.Status,
		Remark:       s.Remark,
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}
