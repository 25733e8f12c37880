package cashbox

import (
	"strings"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cashbox is the cash drawer of a physical store. Balance is a cached running
// total of the store's cash position, maintained by the register synchronizer
// and reconcilable against a full recomputation.
type Cashbox struct {
	shared.TenantAggregateRoot
	StoreID  uuid.UUID
	Code     string
	Name     string
	Balance  decimal.Decimal
	IsActive bool
}

// NewCashbox creates the active cashbox of a store with a zero balance
func NewCashbox(tenantID, storeID uuid.UUID, code, name string) (*Cashbox, error) {
	code = strings.TrimSpace(code)
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STORE", "Store ID cannot be empty")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Cashbox code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Cashbox code cannot exceed 50 characters")
	}
	if name == "" {
		name = code
	}

	cb := &Cashbox{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		StoreID:             storeID,
		Code:                code,
		Name:                name,
		Balance:             decimal.Zero,
		IsActive:            true,
	}
	cb.AddDomainEvent(NewCashboxCreatedEvent(cb))
	return cb, nil
}

// ApplyDelta adds a signed amount to the cached balance. It is the only way
// the cache moves outside a resync, and callers must hold the row lock.
func (c *Cashbox) ApplyDelta(delta decimal.Decimal) {
	if delta.IsZero() {
		return
	}
	c.Balance = c.Balance.Add(delta)
	c.IncrementVersion()
}

// Resync overwrites the cached balance with a recomputed value and returns
// the drift that was corrected (computed - cached).
func (c *Cashbox) Resync(computed decimal.Decimal, ruleVersion int) decimal.Decimal {
	drift := computed.Sub(c.Balance)
	if drift.IsZero() {
		return drift
	}
	previous := c.Balance
	c.Balance = computed
	c.IncrementVersion()
	c.AddDomainEvent(NewCashboxResyncedEvent(c, previous, drift, ruleVersion))
	return drift
}

// Deactivate retires the cashbox. The caller checks that no session is open.
func (c *Cashbox) Deactivate() error {
	if !c.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Cashbox is already inactive")
	}
	c.IsActive = false
	c.IncrementVersion()
	c.AddDomainEvent(NewCashboxStatusChangedEvent(c))
	return nil
}

// Activate brings a retired cashbox back. The caller checks that the store
// has no other active cashbox.
func (c *Cashbox) Activate() error {
	if c.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Cashbox is already active")
	}
	c.IsActive = true
	c.IncrementVersion()
	c.AddDomainEvent(NewCashboxStatusChangedEvent(c))
	return nil
}

// EnsureActive fails when the cashbox cannot take sessions
func (c *Cashbox) EnsureActive() error {
	if !c.IsActive {
		return ErrCashboxInactive
	}
	return nil
}
