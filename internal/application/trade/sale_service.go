package trade

import (
	"context"
	"time"

	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/domain/trade"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/erp/treasury/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleNumberPrefix prefixes sale document numbers
const SaleNumberPrefix = "SO"

// CreateSaleRequest represents a request to record a sale
type CreateSaleRequest struct {
	StoreID        uuid.UUID        `json:"store_id" binding:"required"`
	CustomerName   string           `json:"customer_name" binding:"max=200"`
	TotalAmount    decimal.Decimal  `json:"total_amount" binding:"required"`
	Channel        string           `json:"channel" binding:"required"`
	InitialPayment *decimal.Decimal `json:"initial_payment"`
	Remark         string           `json:"remark" binding:"max=500"`
}

// SalePaymentRequest represents a payment or refund against a sale
type SalePaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason" binding:"max=500"`
}

// CancelSaleRequest represents a request to cancel a sale
type CancelSaleRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID           uuid.UUID       `json:"id"`
	TenantID     uuid.UUID       `json:"tenant_id"`
	SaleNumber   string          `json:"sale_number"`
	StoreID      uuid.UUID       `json:"store_id"`
	CustomerName string          `json:"customer_name,omitempty"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	Remaining    decimal.Decimal `json:"remaining"`
	Channel      string          `json:"channel"`
	Status       string          `json:"status"`
	Remark       string          `json:"remark,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Version      int             `json:"version"`
}

// SaleListFilter represents filter options for the sale list
type SaleListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	StoreID  string `form:"store_id" binding:"omitempty,uuid"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING PARTIALLY_PAID PAID CANCELLED"`
}

func toSaleResponse(s *trade.Sale) *SaleResponse {
	return &SaleResponse{
		ID:           s.ID,
		TenantID:     s.TenantID,
		SaleNumber:   s.SaleNumber,
		StoreID:      s.StoreID,
		CustomerName: s.CustomerName,
		TotalAmount:  s.TotalAmount,
		PaidAmount:   s.PaidAmount,
		Remaining:    s.RemainingAmount(),
		Channel:      string(s.Channel),
		Status:       string(s.Status),
		Remark:       s.Remark,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		Version:      s.Version,
	}
}

// SaleService handles sale use cases. Every paid amount change runs the
// register synchronizer in the same transaction.
type SaleService struct {
	sales   trade.SaleRepository
	txScope appcashbox.TransactionScope
	sync    *appcashbox.Synchronizer
	events  shared.EventPublisher
	logger  *zap.Logger
}

// NewSaleService creates a new SaleService
func NewSaleService(
	sales trade.SaleRepository,
	txScope appcashbox.TransactionScope,
	sync *appcashbox.Synchronizer,
	events shared.EventPublisher,
	logger *zap.Logger,
) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sync == nil {
		sync = appcashbox.NewSynchronizer(nil, nil, logger)
	}
	return &SaleService{sales: sales, txScope: txScope, sync: sync, events: events, logger: logger}
}

// Create records a sale, optionally with a first payment
func (s *SaleService) Create(ctx context.Context, tenantID uuid.UUID, req CreateSaleRequest) (_ *SaleResponse, err error) {
	channel, err := cashbox.ParsePaymentChannel(req.Channel)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "sale", "create",
		telemetry.AttrTenantID.String(tenantID.String()),
		telemetry.AttrStoreID.String(req.StoreID.String()),
	)
	defer func() { telemetry.End(span, err) }()

	var sale *trade.Sale
	err = s.txScope.Execute(ctx, func(repos appcashbox.TransactionalRepositories) error {
		if _, err := repos.Stores().FindByIDForTenant(ctx, tenantID, req.StoreID); err != nil {
			return err
		}
		number, err := repos.Numbers().Next(ctx, tenantID, SaleNumberPrefix)
		if err != nil {
			return err
		}
		sale, err = trade.NewSale(tenantID, req.StoreID, number, req.TotalAmount, channel)
		if err != nil {
			return err
		}
		sale.SetCustomer(req.CustomerName)
		sale.Remark = req.Remark
		if req.InitialPayment != nil && !req.InitialPayment.IsZero() {
			if err := sale.RecordPayment(*req.InitialPayment); err != nil {
				return err
			}
		}
		if err := s.sync.ApplyEvents(ctx, repos, tenantID, sale.GetDomainEvents()); err != nil {
			return err
		}
		return repos.Sales().Save(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("Sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.String("sale_number", sale.SaleNumber),
		zap.String("paid_amount", sale.PaidAmount.String()),
	)
	appcashbox.PublishEvents(ctx, s.events, s.logger, sale.GetDomainEvents())
	return toSaleResponse(sale), nil
}

// mutate loads the sale under its row lock, applies fn and the resulting
// cash effects, then saves it
func (s *SaleService) mutate(ctx context.Context, tenantID, id uuid.UUID, fn func(*trade.Sale) error) (*trade.Sale, error) {
	var sale *trade.Sale
	err := s.txScope.Execute(ctx, func(repos appcashbox.TransactionalRepositories) error {
		var err error
		sale, err = repos.Sales().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := fn(sale); err != nil {
			return err
		}
		if err := s.sync.ApplyEvents(ctx, repos, tenantID, sale.GetDomainEvents()); err != nil {
			return err
		}
		return repos.Sales().Save(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	appcashbox.PublishEvents(ctx, s.events, s.logger, sale.GetDomainEvents())
	return sale, nil
}

// RecordPayment adds a payment to a sale
func (s *SaleService) RecordPayment(ctx context.Context, tenantID, id uuid.UUID, req SalePaymentRequest) (*SaleResponse, error) {
	sale, err := s.mutate(ctx, tenantID, id, func(sale *trade.Sale) error {
		return sale.RecordPayment(req.Amount)
	})
	if err != nil {
		return nil, err
	}
	return toSaleResponse(sale), nil
}

// Refund returns part of the paid amount to the customer
func (s *SaleService) Refund(ctx context.Context, tenantID, id uuid.UUID, req SalePaymentRequest) (*SaleResponse, error) {
	sale, err := s.mutate(ctx, tenantID, id, func(sale *trade.Sale) error {
		return sale.RefundPayment(req.Amount, req.Reason)
	})
	if err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("Sale refunded",
		zap.String("sale_id", id.String()),
		zap.String("amount", req.Amount.String()),
	)
	return toSaleResponse(sale), nil
}

// Cancel voids an unpaid sale
func (s *SaleService) Cancel(ctx context.Context, tenantID, id uuid.UUID, req CancelSaleRequest) (*SaleResponse, error) {
	sale, err := s.mutate(ctx, tenantID, id, func(sale *trade.Sale) error {
		return sale.Cancel(req.Reason)
	})
	if err != nil {
		return nil, err
	}
	return toSaleResponse(sale), nil
}

// Get returns a sale by ID
func (s *SaleService) Get(ctx context.Context, tenantID, id uuid.UUID) (*SaleResponse, error) {
	sale, err := s.sales.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toSaleResponse(sale), nil
}

// List lists sales with filtering and paging
func (s *SaleService) List(ctx context.Context, tenantID uuid.UUID, filter SaleListFilter) ([]SaleResponse, int64, error) {
	domainFilter := trade.SaleFilter{
		Filter: appcashbox.PageFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir),
	}
	storeID, err := appcashbox.ParseOptionalID("store_id", filter.StoreID)
	if err != nil {
		return nil, 0, err
	}
	domainFilter.StoreID = storeID
	if filter.Status != "" {
		status := trade.SaleStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainErrorf("INVALID_INPUT", "Unknown sale status %q", filter.Status)
		}
		domainFilter.Status = &status
	}

	sales, total, err := s.sales.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SaleResponse, len(sales))
	for i := range sales {
		out[i] = *toSaleResponse(&sales[i])
	}
	return out, total, nil
}
