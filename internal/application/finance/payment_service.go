package finance

import (
	"context"
	"time"

	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/finance"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordPaymentRequest represents a request to record an invoice, supplier
// or loan payment. CounterpartID is the invoice, supplier or loan paid.
type RecordPaymentRequest struct {
	StoreID       uuid.UUID       `json:"store_id" binding:"required"`
	CounterpartID uuid.UUID       `json:"counterpart_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Channel       string          `json:"channel" binding:"required"`
	Reference     string          `json:"reference" binding:"max=100"`
	Remark        string          `json:"remark" binding:"max=500"`
}

// PaymentResponse represents a payment record in API responses
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	Kind          string          `json:"kind"`
	PaymentNumber string          `json:"payment_number"`
	StoreID       uuid.UUID       `json:"store_id"`
	CounterpartID uuid.UUID       `json:"counterpart_id"`
	Amount        decimal.Decimal `json:"amount"`
	Channel       string          `json:"channel"`
	Reference     string          `json:"reference,omitempty"`
	Remark        string          `json:"remark,omitempty"`
	PaidAt        time.Time       `json:"paid_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PaymentListFilter represents filter options for payment lists
type PaymentListFilter struct {
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	StoreID  string     `form:"store_id" binding:"omitempty,uuid"`
	From     *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To       *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

func toPaymentResponse(kind finance.PaymentKind, p *finance.PaymentRecord, counterpartID uuid.UUID) *PaymentResponse {
	return &PaymentResponse{
		ID:            p.ID,
		TenantID:      p.TenantID,
		Kind:          string(kind),
		PaymentNumber: p.PaymentNumber,
		StoreID:       p.StoreID,
		CounterpartID: counterpartID,
		Amount:        p.Amount,
		Channel:       string(p.Channel),
		Reference:     p.Reference,
		Remark:        p.Remark,
		PaidAt:        p.PaidAt,
		CreatedAt:     p.CreatedAt,
	}
}

// PaymentService records the immutable payment records of a store
type PaymentService struct {
	invoices  finance.InvoicePaymentRepository
	suppliers finance.SupplierPaymentRepository
	loans     finance.LoanPaymentRepository
	txScope   appcashbox.TransactionScope
	sync      *appcashbox.Synchronizer
	events    shared.EventPublisher
	logger    *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	invoices finance.InvoicePaymentRepository,
	suppliers finance.SupplierPaymentRepository,
	loans finance.LoanPaymentRepository,
	txScope appcashbox.TransactionScope,
	sync *appcashbox.Synchronizer,
	events shared.EventPublisher,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sync == nil {
		sync = appcashbox.NewSynchronizer(nil, nil, logger)
	}
	return &PaymentService{
		invoices:  invoices,
		suppliers: suppliers,
		loans:     loans,
		txScope:   txScope,
		sync:      sync,
		events:    events,
		logger:    logger,
	}
}

// paymentAggregate is the part of a payment the record workflow needs
type paymentAggregate interface {
	GetDomainEvents() []shared.DomainEvent
}

// record runs the shared workflow: allocate a number, build the payment,
// apply its cash effects and persist it, all in one transaction
func (s *PaymentService) record(
	ctx context.Context,
	tenantID uuid.UUID,
	kind finance.PaymentKind,
	req RecordPaymentRequest,
	build func(number string, channel cashbox.PaymentChannel) (paymentAggregate, *finance.PaymentRecord, error),
	create func(ctx context.Context, repos appcashbox.TransactionalRepositories, p paymentAggregate) error,
) (*finance.PaymentRecord, error) {
	channel, err := cashbox.ParsePaymentChannel(req.Channel)
	if err != nil {
		return nil, err
	}

	var agg paymentAggregate
	var rec *finance.PaymentRecord
	err = s.txScope.Execute(ctx, func(repos appcashbox.TransactionalRepositories) error {
		if _, err := repos.Stores().FindByIDForTenant(ctx, tenantID, req.StoreID); err != nil {
			return err
		}
		number, err := repos.Numbers().Next(ctx, tenantID, kind.NumberPrefix())
		if err != nil {
			return err
		}
		agg, rec, err = build(number, channel)
		if err != nil {
			return err
		}
		rec.Remark = req.Remark
		if err := s.sync.ApplyEvents(ctx, repos, tenantID, agg.GetDomainEvents()); err != nil {
			return err
		}
		return create(ctx, repos, agg)
	})
	if err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("Payment recorded",
		zap.String("kind", string(kind)),
		zap.String("payment_id", rec.ID.String()),
		zap.String("payment_number", rec.PaymentNumber),
		zap.String("channel", channel.String()),
		zap.String("amount", rec.Amount.String()),
	)
	appcashbox.PublishEvents(ctx, s.events, s.logger, agg.GetDomainEvents())
	return rec, nil
}

// RecordInvoicePayment records money received against an invoice
func (s *PaymentService) RecordInvoicePayment(ctx context.Context, tenantID uuid.UUID, req RecordPaymentRequest) (*PaymentResponse, error) {
	rec, err := s.record(ctx, tenantID, finance.PaymentKindInvoice, req,
		func(number string, channel cashbox.PaymentChannel) (paymentAggregate, *finance.PaymentRecord, error) {
			p, err := finance.NewInvoicePayment(tenantID, req.StoreID, req.CounterpartID, number, req.Amount, channel, req.Reference)
			if err != nil {
				return nil, nil, err
			}
			return p, &p.PaymentRecord, nil
		},
		func(ctx context.Context, repos appcashbox.TransactionalRepositories, p paymentAggregate) error {
			return repos.InvoicePayments().Create(ctx, p.(*finance.InvoicePayment))
		})
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(finance.PaymentKindInvoice, rec, req.CounterpartID), nil
}

// RecordSupplierPayment records money paid to a supplier
func (s *PaymentService) RecordSupplierPayment(ctx context.Context, tenantID uuid.UUID, req RecordPaymentRequest) (*PaymentResponse, error) {
	rec, err := s.record(ctx, tenantID, finance.PaymentKindSupplier, req,
		func(number string, channel cashbox.PaymentChannel) (paymentAggregate, *finance.PaymentRecord, error) {
			p, err := finance.NewSupplierPayment(tenantID, req.StoreID, req.CounterpartID, number, req.Amount, channel, req.Reference)
			if err != nil {
				return nil, nil, err
			}
			return p, &p.PaymentRecord, nil
		},
		func(ctx context.Context, repos appcashbox.TransactionalRepositories, p paymentAggregate) error {
			return repos.SupplierPayments().Create(ctx, p.(*finance.SupplierPayment))
		})
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(finance.PaymentKindSupplier, rec, req.CounterpartID), nil
}

// RecordLoanPayment records a loan repayment
func (s *PaymentService) RecordLoanPayment(ctx context.Context, tenantID uuid.UUID, req RecordPaymentRequest) (*PaymentResponse, error) {
	rec, err := s.record(ctx, tenantID, finance.PaymentKindLoan, req,
		func(number string, channel cashbox.PaymentChannel) (paymentAggregate, *finance.PaymentRecord, error) {
			p, err := finance.NewLoanPayment(tenantID, req.StoreID, req.CounterpartID, number, req.Amount, channel, req.Reference)
			if err != nil {
				return nil, nil, err
			}
			return p, &p.PaymentRecord, nil
		},
		func(ctx context.Context, repos appcashbox.TransactionalRepositories, p paymentAggregate) error {
			return repos.LoanPayments().Create(ctx, p.(*finance.LoanPayment))
		})
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(finance.PaymentKindLoan, rec, req.CounterpartID), nil
}

// GetInvoicePayment returns an invoice payment by ID
func (s *PaymentService) GetInvoicePayment(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.invoices.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(finance.PaymentKindInvoice, &p.PaymentRecord, p.InvoiceID), nil
}

// GetSupplierPayment returns a supplier payment by ID
func (s *PaymentService) GetSupplierPayment(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.suppliers.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(finance.PaymentKindSupplier, &p.PaymentRecord, p.SupplierID), nil
}

// GetLoanPayment returns a loan payment by ID
func (s *PaymentService) GetLoanPayment(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.loans.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(finance.PaymentKindLoan, &p.PaymentRecord, p.LoanID), nil
}

func toPaymentFilter(filter PaymentListFilter) (finance.PaymentFilter, error) {
	storeID, err := appcashbox.ParseOptionalID("store_id", filter.StoreID)
	if err != nil {
		return finance.PaymentFilter{}, err
	}
	return finance.PaymentFilter{
		Filter:  appcashbox.PageFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir),
		StoreID: storeID,
		From:    filter.From,
		To:      filter.To,
	}, nil
}

// ListInvoicePayments lists invoice payments
func (s *PaymentService) ListInvoicePayments(ctx context.Context, tenantID uuid.UUID, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	f, err := toPaymentFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	payments, total, err := s.invoices.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = *toPaymentResponse(finance.PaymentKindInvoice, &payments[i].PaymentRecord, payments[i].InvoiceID)
	}
	return out, total, nil
}

// ListSupplierPayments lists supplier payments
func (s *PaymentService) ListSupplierPayments(ctx context.Context, tenantID uuid.UUID, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	f, err := toPaymentFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	payments, total, err := s.suppliers.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = *toPaymentResponse(finance.PaymentKindSupplier, &payments[i].PaymentRecord, payments[i].SupplierID)
	}
	return out, total, nil
}

// ListLoanPayments lists loan repayments
func (s *PaymentService) ListLoanPayments(ctx context.Context, tenantID uuid.UUID, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	f, err := toPaymentFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	payments, total, err := s.loans.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = *toPaymentResponse(finance.PaymentKindLoan, &payments[i].PaymentRecord, payments[i].LoanID)
	}
	return out, total, nil
}
