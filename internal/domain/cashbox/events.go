package cashbox

import (
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type names
const (
	AggregateTypeCashbox  = "Cashbox"
	AggregateTypeSession  = "CashboxSession"
	AggregateTypeMovement = "CashMovement"
)

// Event types
const (
	EventTypeCashboxCreated       = "CashboxCreated"
	EventTypeCashboxStatusChanged = "CashboxStatusChanged"
	EventTypeCashboxResynced      = "CashboxResynced"
	EventTypeSessionOpened        = "CashboxSessionOpened"
	EventTypeSessionClosed        = "CashboxSessionClosed"
	EventTypeMovementRecorded     = "CashMovementRecorded"
)

// CashboxCreatedEvent is raised when a store's cashbox is created
type CashboxCreatedEvent struct {
	shared.BaseDomainEvent
	CashboxID uuid.UUID `json:"cashbox_id"`
	StoreID   uuid.UUID `json:"store_id"`
	Code      string    `json:"code"`
}

func NewCashboxCreatedEvent(cb *Cashbox) *CashboxCreatedEvent {
	return &CashboxCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashboxCreated, AggregateTypeCashbox, cb.ID, cb.TenantID),
		CashboxID:       cb.ID,
		StoreID:         cb.StoreID,
		Code:            cb.Code,
	}
}

// CashboxStatusChangedEvent is raised on activation and deactivation
type CashboxStatusChangedEvent struct {
	shared.BaseDomainEvent
	CashboxID uuid.UUID `json:"cashbox_id"`
	StoreID   uuid.UUID `json:"store_id"`
	IsActive  bool      `json:"is_active"`
}

func NewCashboxStatusChangedEvent(cb *Cashbox) *CashboxStatusChangedEvent {
	return &CashboxStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashboxStatusChanged, AggregateTypeCashbox, cb.ID, cb.TenantID),
		CashboxID:       cb.ID,
		StoreID:         cb.StoreID,
		IsActive:        cb.IsActive,
	}
}

// CashboxResyncedEvent is raised when a recomputation corrected the cached balance
type CashboxResyncedEvent struct {
	shared.BaseDomainEvent
	CashboxID       uuid.UUID       `json:"cashbox_id"`
	StoreID         uuid.UUID       `json:"store_id"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	Balance         decimal.Decimal `json:"balance"`
	Drift           decimal.Decimal `json:"drift"`
	RuleVersion     int             `json:"rule_version"`
}

func NewCashboxResyncedEvent(cb *Cashbox, previous, drift decimal.Decimal, ruleVersion int) *CashboxResyncedEvent {
	return &CashboxResyncedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashboxResynced, AggregateTypeCashbox, cb.ID, cb.TenantID),
		CashboxID:       cb.ID,
		StoreID:         cb.StoreID,
		PreviousBalance: previous,
		Balance:         cb.Balance,
		Drift:           drift,
		RuleVersion:     ruleVersion,
	}
}

// SessionOpenedEvent is raised when a session opens
type SessionOpenedEvent struct {
	shared.BaseDomainEvent
	SessionID      uuid.UUID       `json:"session_id"`
	CashboxID      uuid.UUID       `json:"cashbox_id"`
	StoreID        uuid.UUID       `json:"store_id"`
	OperatorID     uuid.UUID       `json:"operator_id"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

func NewSessionOpenedEvent(s *Session) *SessionOpenedEvent {
	return &SessionOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionOpened, AggregateTypeSession, s.ID, s.TenantID),
		SessionID:       s.ID,
		CashboxID:       s.CashboxID,
		StoreID:         s.StoreID,
		OperatorID:      s.OperatorID,
		OpeningBalance:  s.OpeningBalance,
	}
}

// SessionClosedEvent is raised when a session closes with its reconciliation figures
type SessionClosedEvent struct {
	shared.BaseDomainEvent
	SessionID              uuid.UUID       `json:"session_id"`
	CashboxID              uuid.UUID       `json:"cashbox_id"`
	StoreID                uuid.UUID       `json:"store_id"`
	OperatorID             uuid.UUID       `json:"operator_id"`
	OpeningBalance         decimal.Decimal `json:"opening_balance"`
	ExpectedClosingBalance decimal.Decimal `json:"expected_closing_balance"`
	ActualClosingBalance   decimal.Decimal `json:"actual_closing_balance"`
	Discrepancy            decimal.Decimal `json:"discrepancy"`
	ClosingNotes           string          `json:"closing_notes"`
}

func NewSessionClosedEvent(s *Session) *SessionClosedEvent {
	e := &SessionClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionClosed, AggregateTypeSession, s.ID, s.TenantID),
		SessionID:       s.ID,
		CashboxID:       s.CashboxID,
		StoreID:         s.StoreID,
		OperatorID:      s.OperatorID,
		OpeningBalance:  s.OpeningBalance,
		ClosingNotes:    s.ClosingNotes,
	}
	if s.ExpectedClosingBalance != nil {
		e.ExpectedClosingBalance = *s.ExpectedClosingBalance
	}
	if s.ActualClosingBalance != nil {
		e.ActualClosingBalance = *s.ActualClosingBalance
	}
	if d := s.Discrepancy(); d != nil {
		e.Discrepancy = *d
	}
	return e
}

// MovementRecordedEvent is raised for every ledger entry
type MovementRecordedEvent struct {
	shared.BaseDomainEvent
	MovementID     uuid.UUID       `json:"movement_id"`
	MovementNumber string          `json:"movement_number"`
	SessionID      *uuid.UUID      `json:"session_id,omitempty"`
	StoreID        *uuid.UUID      `json:"store_id,omitempty"`
	Direction      Direction       `json:"direction"`
	Category       Category        `json:"category"`
	Channel        PaymentChannel  `json:"channel"`
	Amount         decimal.Decimal `json:"amount"`
	effects        []CashEffect
}

func NewMovementRecordedEvent(m *Movement) *MovementRecordedEvent {
	return &MovementRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMovementRecorded, AggregateTypeMovement, m.ID, m.TenantID),
		MovementID:      m.ID,
		MovementNumber:  m.MovementNumber,
		SessionID:       m.SessionID,
		StoreID:         m.StoreID,
		Direction:       m.Direction,
		Category:        m.Category,
		Channel:         m.Channel,
		Amount:          m.Amount,
		effects:         m.Effects(CurrentRules()),
	}
}

// CashEffects implements CashAffecting
func (e *MovementRecordedEvent) CashEffects() []CashEffect {
	return e.effects
}
