package cashbox

import (
	"context"
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
)

// CashboxFilter defines filtering options for cashbox queries
type CashboxFilter struct {
	shared.Filter
	StoreID  *uuid.UUID
	IsActive *bool
}

// CashboxRepository defines persistence for cashboxes
type CashboxRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Cashbox, error)

	// FindByIDForUpdate loads the cashbox holding an exclusive row lock
	// until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Cashbox, error)

	FindActiveByStore(ctx context.Context, tenantID, storeID uuid.UUID) (*Cashbox, error)

	// LockByStore locks every cashbox of the store, retired ones included,
	// in id order
	LockByStore(ctx context.Context, tenantID, storeID uuid.UUID) ([]Cashbox, error)

	// LockAllForTenant locks every cashbox of the tenant in id order
	LockAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Cashbox, error)

	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter CashboxFilter) ([]Cashbox, int64, error)
	Save(ctx context.Context, cashbox *Cashbox) error
}

// SessionFilter defines filtering options for session queries
type SessionFilter struct {
	shared.Filter
	CashboxID *uuid.UUID
	Status    *SessionStatus
	From      *time.Time
	To        *time.Time
}

// SessionRepository defines persistence for register sessions
type SessionRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Session, error)

	// FindOpenByCashbox returns shared.ErrNotFound when the cashbox has no open session
	FindOpenByCashbox(ctx context.Context, tenantID, cashboxID uuid.UUID) (*Session, error)
	FindOpenByStore(ctx context.Context, tenantID, storeID uuid.UUID) (*Session, error)

	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter SessionFilter) ([]Session, int64, error)
	Save(ctx context.Context, session *Session) error
}

// MovementFilter defines filtering options for movement queries
type MovementFilter struct {
	shared.Filter
	SessionID *uuid.UUID
	StoreID   *uuid.UUID
	Direction *Direction
	Category  *Category
	Channel   *PaymentChannel
	From      *time.Time
	To        *time.Time
}

// MovementRepository persists ledger entries. Entries are append only.
type MovementRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Movement, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter MovementFilter) ([]Movement, int64, error)

	// SumBySession totals the session's entries by direction
	SumBySession(ctx context.Context, tenantID, sessionID uuid.UUID) (MovementTotals, error)

	Create(ctx context.Context, movement *Movement) error
}

// CashCountRepository persists denomination counts. Counts are append only.
type CashCountRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CashCount, error)
	FindBySession(ctx context.Context, tenantID, sessionID uuid.UUID) ([]CashCount, error)
	Create(ctx context.Context, count *CashCount) error
}

// BalanceSource aggregates the records a balance is derived from.
// A nil storeID aggregates the whole tenant.
type BalanceSource interface {
	SourceTotals(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID) (SourceTotals, error)
}
