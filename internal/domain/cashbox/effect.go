package cashbox

import (
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashEffect is the signed change a write makes to one tracked position of a store.
// StoreID is nil for tenant level records.
type CashEffect struct {
	TenantID uuid.UUID
	StoreID  *uuid.UUID
	Channel  BalanceChannel
	Delta    decimal.Decimal
	Source   SourceRef
	// Mirror asks for a session ledger entry of this category when the
	// effect lands in a store with an open session.
	Mirror Category
}

// IsDebit reports whether the effect decreases the position
func (e CashEffect) IsDebit() bool {
	return e.Delta.IsNegative()
}

// CashAffecting is implemented by every domain event that moves money.
// The register synchronizer consumes these inside the writing transaction.
type CashAffecting interface {
	CashEffects() []CashEffect
}

// CollectEffects gathers the effects of all cash-affecting events in order
func CollectEffects(events []shared.DomainEvent) []CashEffect {
	var out []CashEffect
	for _, e := range events {
		if ca, ok := e.(CashAffecting); ok {
			out = append(out, ca.CashEffects()...)
		}
	}
	return out
}

// SourceEffect builds the effect of a transaction source record paid through channel.
// Untracked channels produce no effect.
func SourceEffect(tenantID, storeID uuid.UUID, channel PaymentChannel, delta decimal.Decimal, source SourceRef) []CashEffect {
	bc, ok := BalanceChannelOf(channel)
	if !ok || delta.IsZero() {
		return nil
	}
	sid := storeID
	return []CashEffect{{
		TenantID: tenantID,
		StoreID:  &sid,
		Channel:  bc,
		Delta:    delta,
		Source:   source,
		Mirror:   source.Type.Category(),
	}}
}
