package store

import (
	"context"
	"fmt"
	"time"

	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/domain/store"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateStoreRequest represents a request to open a store
type CreateStoreRequest struct {
	Code    string `json:"code" binding:"required,min=1,max=30"`
	Name    string `json:"name" binding:"required,min=1,max=100"`
	Address string `json:"address" binding:"max=500"`
	Phone   string `json:"phone" binding:"max=50"`
}

// StoreResponse represents a store in API responses
type StoreResponse struct {
	ID        uuid.UUID                   `json:"id"`
	TenantID  uuid.UUID                   `json:"tenant_id"`
	Code      string                      `json:"code"`
	Name      string                      `json:"name"`
	Address   string                      `json:"address,omitempty"`
	Phone     string                      `json:"phone,omitempty"`
	IsActive  bool                        `json:"is_active"`
	Cashbox   *appcashbox.CashboxResponse `json:"cashbox,omitempty"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

// StoreListFilter represents filter options for the store list
type StoreListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func toStoreResponse(s *store.Store) *StoreResponse {
	return &StoreResponse{
		ID:        s.ID,
		TenantID:  s.TenantID,
		Code:      s.Code,
		Name:      s.Name,
		Address:   s.Address,
		Phone:     s.Phone,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// StoreService handles store administration
type StoreService struct {
	stores  store.StoreRepository
	txScope appcashbox.TransactionScope
	events  shared.EventPublisher
	logger  *zap.Logger
}

// NewStoreService creates a new StoreService
func NewStoreService(stores store.StoreRepository, txScope appcashbox.TransactionScope, events shared.EventPublisher, logger *zap.Logger) *StoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreService{stores: stores, txScope: txScope, events: events, logger: logger}
}

// Create opens a store together with its cashbox
func (s *StoreService) Create(ctx context.Context, tenantID uuid.UUID, req CreateStoreRequest) (*StoreResponse, error) {
	st, err := store.NewStore(tenantID, req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	st.SetContact(req.Address, req.Phone)

	cb, err := cashbox.NewCashbox(tenantID, st.ID, st.CashboxCode(), st.Name)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos appcashbox.TransactionalRepositories) error {
		exists, err := repos.Stores().ExistsByCode(ctx, tenantID, st.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainErrorf("ALREADY_EXISTS", "Store code %s already exists", st.Code)
		}
		if err := repos.Stores().Save(ctx, st); err != nil {
			return fmt.Errorf("failed to save store: %w", err)
		}
		return repos.Cashboxes().Save(ctx, cb)
	})
	if err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("Store created",
		zap.String("store_id", st.ID.String()),
		zap.String("code", st.Code),
		zap.String("cashbox_id", cb.ID.String()),
	)
	events := append(st.GetDomainEvents(), cb.GetDomainEvents()...)
	appcashbox.PublishEvents(ctx, s.events, s.logger, events)

	resp := toStoreResponse(st)
	resp.Cashbox = appcashbox.ToCashboxResponse(cb)
	return resp, nil
}

// Get returns a store by ID
func (s *StoreService) Get(ctx context.Context, tenantID, id uuid.UUID) (*StoreResponse, error) {
	st, err := s.stores.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toStoreResponse(st), nil
}

// List lists stores with paging
func (s *StoreService) List(ctx context.Context, tenantID uuid.UUID, filter StoreListFilter) ([]StoreResponse, int64, error) {
	stores, total, err := s.stores.FindAllForTenant(ctx, tenantID,
		appcashbox.PageFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir))
	if err != nil {
		return nil, 0, err
	}
	out := make([]StoreResponse, len(stores))
	for i := range stores {
		out[i] = *toStoreResponse(&stores[i])
	}
	return out, total, nil
}
