package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentSequenceModel holds the last number handed out per tenant, prefix and month
type DocumentSequenceModel struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Prefix    string    `gorm:"type:varchar(10);primaryKey"`
	Period    string    `gorm:"type:varchar(6);primaryKey"`
	LastValue int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}
