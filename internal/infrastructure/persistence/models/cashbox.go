package models

import (
	"time"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashboxModel is the persistence model for the Cashbox aggregate root.
// The partial unique index keeps one active cashbox per store.
type CashboxModel struct {
	TenantAggregateModel
	StoreID  uuid.UUID       `gorm:"type:uuid;not null;index;index:idx_cashboxes_active_store,unique,where:is_active = true"`
	Code     string          `gorm:"type:varchar(50);not null;index"`
	Name     string          `gorm:"type:varchar(100);not null"`
	Balance  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsActive bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CashboxModel) TableName() string {
	return "cashboxes"
}

// ToDomain converts the persistence model to a domain Cashbox
func (m *CashboxModel) ToDomain() *cashbox.Cashbox {
	return &cashbox.Cashbox{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		StoreID:             m.StoreID,
		Code:                m.Code,
		Name:                m.Name,
		Balance:             m.Balance,
		IsActive:            m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Cashbox
func (m *CashboxModel) FromDomain(cb *cashbox.Cashbox) {
	m.FromDomainTenantAggregateRoot(cb.TenantAggregateRoot)
	m.StoreID = cb.StoreID
	m.Code = cb.Code
	m.Name = cb.Name
	m.Balance = cb.Balance
	m.IsActive = cb.IsActive
}

// CashboxModelFromDomain creates a new persistence model from a domain Cashbox
func CashboxModelFromDomain(cb *cashbox.Cashbox) *CashboxModel {
	m := &CashboxModel{}
	m.FromDomain(cb)
	return m
}

// CashboxSessionModel is the persistence model for register sessions.
// At most one OPEN row exists per cashbox.
type CashboxSessionModel struct {
	TenantAggregateModel
	CashboxID              uuid.UUID             `gorm:"type:uuid;not null;index;index:idx_cashbox_sessions_open,unique,where:status = 'OPEN'"`
	StoreID                uuid.UUID             `gorm:"type:uuid;not null;index"`
	OperatorID             uuid.UUID             `gorm:"type:uuid;not null"`
	Status                 cashbox.SessionStatus `gorm:"type:varchar(10);not null;default:'OPEN';index"`
	OpenedAt               time.Time             `gorm:"not null;index"`
	ClosedAt               *time.Time
	ClosedBy               *uuid.UUID       `gorm:"type:uuid"`
	OpeningBalance         decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	ExpectedClosingBalance *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ActualClosingBalance   *decimal.Decimal `gorm:"type:decimal(18,4)"`
	OpeningNotes           string           `gorm:"type:text"`
	ClosingNotes           string           `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CashboxSessionModel) TableName() string {
	return "cashbox_sessions"
}

// ToDomain converts the persistence model to a domain Session
func (m *CashboxSessionModel) ToDomain() *cashbox.Session {
	return &cashbox.Session{
		TenantAggregateRoot:    m.ToDomainTenantAggregateRoot(),
		CashboxID:              m.CashboxID,
		StoreID:                m.StoreID,
		OperatorID:             m.OperatorID,
		Status:                 m.Status,
		OpenedAt:               m.OpenedAt,
		ClosedAt:               m.ClosedAt,
		ClosedBy:               m.ClosedBy,
		OpeningBalance:         m.OpeningBalance,
		ExpectedClosingBalance: m.ExpectedClosingBalance,
		ActualClosingBalance:   m.ActualClosingBalance,
		OpeningNotes:           m.OpeningNotes,
		ClosingNotes:           m.ClosingNotes,
	}
}

// FromDomain populates the persistence model from a domain Session
func (m *CashboxSessionModel) FromDomain(s *cashbox.Session) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.CashboxID = s.CashboxID
	m.StoreID = s.StoreID
	m.OperatorID = s.OperatorID
	m.Status = s.Status
	m.OpenedAt = s.OpenedAt
	m.ClosedAt = s.ClosedAt
	m.ClosedBy = s.ClosedBy
	m.OpeningBalance = s.OpeningBalance
	m.ExpectedClosingBalance = s.ExpectedClosingBalance
	m.ActualClosingBalance = s.ActualClosingBalance
	m.OpeningNotes = s.OpeningNotes
	m.ClosingNotes = s.ClosingNotes
}

// CashboxSessionModelFromDomain creates a new persistence model from a domain Session
func CashboxSessionModelFromDomain(s *cashbox.Session) *CashboxSessionModel {
	m := &CashboxSessionModel{}
	m.FromDomain(s)
	return m
}

// CashMovementModel is the persistence model for ledger entries.
// store_id is resolved at write time so store scoped sums need no join.
type CashMovementModel struct {
	TenantAggregateModel
	MovementNumber string                 `gorm:"type:varchar(50);not null;index"`
	SessionID      *uuid.UUID             `gorm:"type:uuid;index"`
	CashboxID      *uuid.UUID             `gorm:"type:uuid;index"`
	StoreID        *uuid.UUID             `gorm:"type:uuid;index"`
	Direction      cashbox.Direction      `gorm:"type:varchar(3);not null"`
	Category       cashbox.Category       `gorm:"type:varchar(30);not null;index"`
	Channel        cashbox.PaymentChannel `gorm:"type:varchar(20);not null"`
	Amount         decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Reference      string                 `gorm:"type:varchar(100)"`
	Description    string                 `gorm:"type:varchar(500)"`
	Notes          string                 `gorm:"type:text"`
	SaleID         *uuid.UUID             `gorm:"type:uuid;index"`
	SourceType     *cashbox.SourceType    `gorm:"type:varchar(30)"`
	SourceID       *uuid.UUID             `gorm:"type:uuid;index"`
	RecordedBy     *uuid.UUID             `gorm:"type:uuid"`
	RecordedAt     time.Time              `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (CashMovementModel) TableName() string {
	return "cash_movements"
}

// ToDomain converts the persistence model to a domain Movement
func (m *CashMovementModel) ToDomain() *cashbox.Movement {
	return &cashbox.Movement{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		MovementNumber:      m.MovementNumber,
		SessionID:           m.SessionID,
		CashboxID:           m.CashboxID,
		StoreID:             m.StoreID,
		Direction:           m.Direction,
		Category:            m.Category,
		Channel:             m.Channel,
		Amount:              m.Amount,
		Reference:           m.Reference,
		Description:         m.Description,
		Notes:               m.Notes,
		SaleID:              m.SaleID,
		SourceType:          m.SourceType,
		SourceID:            m.SourceID,
		RecordedBy:          m.RecordedBy,
		RecordedAt:          m.RecordedAt,
	}
}

// FromDomain populates the persistence model from a domain Movement
func (m *CashMovementModel) FromDomain(mv *cashbox.Movement) {
	m.FromDomainTenantAggregateRoot(mv.TenantAggregateRoot)
	m.MovementNumber = mv.MovementNumber
	m.SessionID = mv.SessionID
	m.CashboxID = mv.CashboxID
	m.StoreID = mv.StoreID
	m.Direction = mv.Direction
	m.Category = mv.Category
	m.Channel = mv.Channel
	m.Amount = mv.Amount
	m.Reference = mv.Reference
	m.Description = mv.Description
	m.Notes = mv.Notes
	m.SaleID = mv.SaleID
	m.SourceType = mv.SourceType
	m.SourceID = mv.SourceID
	m.RecordedBy = mv.RecordedBy
	m.RecordedAt = mv.RecordedAt
}

// CashMovementModelFromDomain creates a new persistence model from a domain Movement
func CashMovementModelFromDomain(mv *cashbox.Movement) *CashMovementModel {
	m := &CashMovementModel{}
	m.FromDomain(mv)
	return m
}

// CashCountModel is the persistence model for denomination counts.
// Lines are stored as a JSON array of {kind, value, quantity}.
type CashCountModel struct {
	BaseModel
	TenantID  uuid.UUID                  `gorm:"type:uuid;not null;index"`
	SessionID uuid.UUID                  `gorm:"type:uuid;not null;index"`
	CountType cashbox.CountType          `gorm:"type:varchar(10);not null"`
	Lines     []cashbox.DenominationLine `gorm:"type:jsonb;serializer:json;not null"`
	Total     decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	CountedBy *uuid.UUID                 `gorm:"type:uuid"`
	Notes     string                     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CashCountModel) TableName() string {
	return "cash_counts"
}

// ToDomain converts the persistence model to a domain CashCount
func (m *CashCountModel) ToDomain() *cashbox.CashCount {
	lines := make([]cashbox.DenominationLine, len(m.Lines))
	copy(lines, m.Lines)
	cashbox.SortLines(lines)
	return &cashbox.CashCount{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		TenantID:   m.TenantID,
		SessionID:  m.SessionID,
		CountType:  m.CountType,
		Lines:      lines,
		Total:      m.Total,
		CountedBy:  m.CountedBy,
		Notes:      m.Notes,
	}
}

// CashCountModelFromDomain creates a new persistence model from a domain CashCount
func CashCountModelFromDomain(c *cashbox.CashCount) *CashCountModel {
	m := &CashCountModel{
		TenantID:  c.TenantID,
		SessionID: c.SessionID,
		CountType: c.CountType,
		Lines:     c.Lines,
		Total:     c.Total,
		CountedBy: c.CountedBy,
		Notes:     c.Notes,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}
