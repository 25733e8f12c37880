package cashbox

import (
	"time"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementNumberPrefix prefixes every ledger entry number
const MovementNumberPrefix = "MVT"

// CashboxResponse represents a cashbox in API responses
type CashboxResponse struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	StoreID   uuid.UUID       `json:"store_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Version   int             `json:"version"`
}

// CashboxListFilter represents filter options for the cashbox list
type CashboxListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	StoreID  string `form:"store_id" binding:"omitempty,uuid"`
	IsActive *bool  `form:"is_active"`
}

// SessionResponse represents a register session in API responses
type SessionResponse struct {
	ID                     uuid.UUID        `json:"id"`
	TenantID               uuid.UUID        `json:"tenant_id"`
	CashboxID              uuid.UUID        `json:"cashbox_id"`
	StoreID                uuid.UUID        `json:"store_id"`
	OperatorID             uuid.UUID        `json:"operator_id"`
	Status                 string           `json:"status"`
	OpenedAt               time.Time        `json:"opened_at"`
	ClosedAt               *time.Time       `json:"closed_at,omitempty"`
	ClosedBy               *uuid.UUID       `json:"closed_by,omitempty"`
	OpeningBalance         decimal.Decimal  `json:"opening_balance"`
	ExpectedClosingBalance *decimal.Decimal `json:"expected_closing_balance,omitempty"`
	ActualClosingBalance   *decimal.Decimal `json:"actual_closing_balance,omitempty"`
	Discrepancy            *decimal.Decimal `json:"discrepancy,omitempty"`
	OpeningNotes           string           `json:"opening_notes,omitempty"`
	ClosingNotes           string           `json:"closing_notes,omitempty"`
	Version                int              `json:"version"`
}

// OpenSessionRequest represents a request to open a register session
type OpenSessionRequest struct {
	OpeningBalance decimal.Decimal `json:"opening_balance" binding:"required"`
	Notes          string          `json:"notes" binding:"max=2000"`
	// OpeningCount optionally records the counted float, keyed by denomination ("note_10000")
	OpeningCount map[string]int `json:"opening_count"`
}

// CloseSessionRequest represents a request to close a register session
type CloseSessionRequest struct {
	ActualClosingBalance decimal.Decimal `json:"actual_closing_balance" binding:"required"`
	Notes                string          `json:"notes" binding:"max=2000"`
	ClosingCount         map[string]int  `json:"closing_count"`
}

// SessionListFilter represents filter options for the session list
type SessionListFilter struct {
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	CashboxID string     `form:"cashbox_id" binding:"omitempty,uuid"`
	Status    string     `form:"status" binding:"omitempty,oneof=OPEN CLOSED"`
	From      *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// SessionSummary is the running position of a session
type SessionSummary struct {
	SessionID      uuid.UUID        `json:"session_id"`
	Status         string           `json:"status"`
	OpeningBalance decimal.Decimal  `json:"opening_balance"`
	Inflows        decimal.Decimal  `json:"inflows"`
	Outflows       decimal.Decimal  `json:"outflows"`
	Expected       decimal.Decimal  `json:"expected"`
	Actual         *decimal.Decimal `json:"actual,omitempty"`
	Discrepancy    *decimal.Decimal `json:"discrepancy,omitempty"`
	MovementCount  int64            `json:"movement_count"`
	CountCount     int              `json:"count_count"`
}

// MovementResponse represents a ledger entry in API responses
type MovementResponse struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	MovementNumber string          `json:"movement_number"`
	SessionID      *uuid.UUID      `json:"session_id,omitempty"`
	CashboxID      *uuid.UUID      `json:"cashbox_id,omitempty"`
	StoreID        *uuid.UUID      `json:"store_id,omitempty"`
	Direction      string          `json:"direction"`
	Category       string          `json:"category"`
	Channel        string          `json:"channel"`
	Amount         decimal.Decimal `json:"amount"`
	Reference      string          `json:"reference,omitempty"`
	Description    string          `json:"description,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	SaleID         *uuid.UUID      `json:"sale_id,omitempty"`
	SourceType     *string         `json:"source_type,omitempty"`
	SourceID       *uuid.UUID      `json:"source_id,omitempty"`
	RecordedBy     *uuid.UUID      `json:"recorded_by,omitempty"`
	RecordedAt     time.Time       `json:"recorded_at"`
}

// RecordMovementRequest represents a request to record a ledger entry.
// SessionID binds the entry to a session; otherwise StoreID makes it a
// store level entry and neither makes it a tenant level entry.
type RecordMovementRequest struct {
	SessionID   *uuid.UUID      `json:"session_id"`
	StoreID     *uuid.UUID      `json:"store_id"`
	Direction   string          `json:"direction" binding:"required,oneof=in out"`
	Category    string          `json:"category" binding:"required"`
	Channel     string          `json:"channel" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Reference   string          `json:"reference" binding:"max=100"`
	Description string          `json:"description" binding:"max=500"`
	Notes       string          `json:"notes"`
}

// MovementListFilter represents filter options for the movement list
type MovementListFilter struct {
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	SessionID string     `form:"session_id" binding:"omitempty,uuid"`
	StoreID   string     `form:"store_id" binding:"omitempty,uuid"`
	Direction string     `form:"direction" binding:"omitempty,oneof=in out"`
	Category  string     `form:"category" binding:"omitempty,cash_category"`
	Channel   string     `form:"channel" binding:"omitempty,payment_channel"`
	From      *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// CashCountResponse represents a denomination count in API responses
type CashCountResponse struct {
	ID        uuid.UUID                  `json:"id"`
	SessionID uuid.UUID                  `json:"session_id"`
	CountType string                     `json:"count_type"`
	Lines     []cashbox.DenominationLine `json:"lines"`
	Total     decimal.Decimal            `json:"total"`
	CountedBy *uuid.UUID                 `json:"counted_by,omitempty"`
	Notes     string                     `json:"notes,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
}

// RecordCountRequest represents a request to record a denomination count
type RecordCountRequest struct {
	CountType  string         `json:"count_type" binding:"required,oneof=opening closing interim"`
	Quantities map[string]int `json:"quantities" binding:"required"`
	Notes      string         `json:"notes"`
}

// BalanceResponse is a computed balance with its breakdown
type BalanceResponse struct {
	Channel     string                     `json:"channel"`
	StoreID     *uuid.UUID                 `json:"store_id,omitempty"`
	RuleVersion int                        `json:"rule_version"`
	Inflows     decimal.Decimal            `json:"inflows"`
	Outflows    decimal.Decimal            `json:"outflows"`
	Balance     decimal.Decimal            `json:"balance"`
	Components  []cashbox.BalanceComponent `json:"components"`
}

// DriftReport compares a cashbox's cached balance with its recomputation.
// Drift is computed - cached.
type DriftReport struct {
	CashboxID   uuid.UUID                  `json:"cashbox_id"`
	StoreID     uuid.UUID                  `json:"store_id"`
	Code        string                     `json:"code"`
	Cached      decimal.Decimal            `json:"cached"`
	Computed    decimal.Decimal            `json:"computed"`
	Drift       decimal.Decimal            `json:"drift"`
	InSync      bool                       `json:"in_sync"`
	RuleVersion int                        `json:"rule_version"`
	Components  []cashbox.BalanceComponent `json:"components"`
	Resynced    bool                       `json:"resynced"`
}

// ToCashboxResponse converts a domain cashbox into its response
func ToCashboxResponse(cb *cashbox.Cashbox) *CashboxResponse {
	return &CashboxResponse{
		ID:        cb.ID,
		TenantID:  cb.TenantID,
		StoreID:   cb.StoreID,
		Code:      cb.Code,
		Name:      cb.Name,
		Balance:   cb.Balance,
		IsActive:  cb.IsActive,
		CreatedAt: cb.CreatedAt,
		UpdatedAt: cb.UpdatedAt,
		Version:   cb.Version,
	}
}

func toSessionResponse(s *cashbox.Session) *SessionResponse {
	return &SessionResponse{
		ID:                     s.ID,
		TenantID:               s.TenantID,
		CashboxID:              s.CashboxID,
		StoreID:                s.StoreID,
		OperatorID:             s.OperatorID,
		Status:                 string(s.Status),
		OpenedAt:               s.OpenedAt,
		ClosedAt:               s.ClosedAt,
		ClosedBy:               s.ClosedBy,
		OpeningBalance:         s.OpeningBalance,
		ExpectedClosingBalance: s.ExpectedClosingBalance,
		ActualClosingBalance:   s.ActualClosingBalance,
		Discrepancy:            s.Discrepancy(),
		OpeningNotes:           s.OpeningNotes,
		ClosingNotes:           s.ClosingNotes,
		Version:                s.Version,
	}
}

func toMovementResponse(m *cashbox.Movement) *MovementResponse {
	r := &MovementResponse{
		ID:             m.ID,
		TenantID:       m.TenantID,
		MovementNumber: m.MovementNumber,
		SessionID:      m.SessionID,
		CashboxID:      m.CashboxID,
		StoreID:        m.StoreID,
		Direction:      string(m.Direction),
		Category:       string(m.Category),
		Channel:        string(m.Channel),
		Amount:         m.Amount,
		Reference:      m.Reference,
		Description:    m.Description,
		Notes:          m.Notes,
		SaleID:         m.SaleID,
		SourceID:       m.SourceID,
		RecordedBy:     m.RecordedBy,
		RecordedAt:     m.RecordedAt,
	}
	if m.SourceType != nil {
		st := string(*m.SourceType)
		r.SourceType = &st
	}
	return r
}

func toCashCountResponse(c *cashbox.CashCount) *CashCountResponse {
	return &CashCountResponse{
		ID:        c.ID,
		SessionID: c.SessionID,
		CountType: string(c.CountType),
		Lines:     c.Lines,
		Total:     c.Total,
		CountedBy: c.CountedBy,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
	}
}

func toBalanceResponse(b cashbox.BalanceBreakdown, storeID *uuid.UUID) *BalanceResponse {
	return &BalanceResponse{
		Channel:     b.Channel.String(),
		StoreID:     storeID,
		RuleVersion: b.RuleVersion,
		Inflows:     b.Inflows,
		Outflows:    b.Outflows,
		Balance:     b.Balance,
		Components:  b.Components,
	}
}

func newDriftReport(cb *cashbox.Cashbox, b cashbox.BalanceBreakdown) *DriftReport {
	drift := b.Balance.Sub(cb.Balance)
	return &DriftReport{
		CashboxID:   cb.ID,
		StoreID:     cb.StoreID,
		Code:        cb.Code,
		Cached:      cb.Balance,
		Computed:    b.Balance,
		Drift:       drift,
		InSync:      drift.IsZero(),
		RuleVersion: b.RuleVersion,
		Components:  b.Components,
	}
}

// ParseOptionalID parses an optional UUID filter value. An empty value is nil.
func ParseOptionalID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, shared.NewDomainErrorf("INVALID_INPUT", "Invalid %s", field)
	}
	return &id, nil
}

// PageFilter builds a normalised shared.Filter from list query values
func PageFilter(page, pageSize int, orderBy, orderDir string) shared.Filter {
	return shared.Filter{Page: page, PageSize: pageSize, OrderBy: orderBy, OrderDir: orderDir}.Normalize()
}
