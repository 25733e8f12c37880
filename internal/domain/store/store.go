package store

import (
	"regexp"
	"strings"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{0,29}$`)

// Store is a physical point of sale of a tenant
type Store struct {
	shared.TenantAggregateRoot
	Code     string
	Name     string
	Address  string
	Phone    string
	IsActive bool
}

// NewStore creates an active store. Codes are normalised to upper case.
func NewStore(tenantID uuid.UUID, code, name string) (*Store, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	if !codePattern.MatchString(code) {
		return nil, shared.NewDomainError("INVALID_CODE", "Store code must be 1-30 letters, digits, '-' or '_'")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Store name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Store name cannot exceed 100 characters")
	}

	s := &Store{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		IsActive:            true,
	}
	s.AddDomainEvent(NewStoreCreatedEvent(s))
	return s, nil
}

// SetContact sets address and phone
func (s *Store) SetContact(address, phone string) {
	s.Address = strings.TrimSpace(address)
	s.Phone = strings.TrimSpace(phone)
}

// CashboxCode returns the code given to the store's cashbox
func (s *Store) CashboxCode() string {
	return "CB-" + s.Code
}

// StoreCreatedEvent is raised when a store is opened
type StoreCreatedEvent struct {
	shared.BaseDomainEvent
	StoreID uuid.UUID `json:"store_id"`
	Code    string    `json:"code"`
	Name    string    `json:"name"`
}

// NewStoreCreatedEvent creates a new StoreCreatedEvent
func NewStoreCreatedEvent(s *Store) *StoreCreatedEvent {
	return &StoreCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StoreCreated", "Store", s.ID, s.TenantID),
		StoreID:         s.ID,
		Code:            s.Code,
		Name:            s.Name,
	}
}
