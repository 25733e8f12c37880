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

// ExpenseNumberPrefix prefixes expense document numbers
const ExpenseNumberPrefix = "EXP"

// CreateExpenseRequest represents a request to record an expense
type CreateExpenseRequest struct {
	StoreID     uuid.UUID       `json:"store_id" binding:"required"`
	Category    string          `json:"category" binding:"required,oneof=RENT UTILITIES SALARY SUPPLIES TRANSPORT MAINTENANCE TAX OTHER"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"required,max=500"`
	IncurredAt  *time.Time      `json:"incurred_at"`
	Remark      string          `json:"remark" binding:"max=500"`
}

// PayExpenseRequest represents a request to pay an expense
type PayExpenseRequest struct {
	Channel string `json:"channel" binding:"required"`
}

// ReasonRequest carries the reason of a reversal or cancellation
type ReasonRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	ExpenseNumber string          `json:"expense_number"`
	StoreID       uuid.UUID       `json:"store_id"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	IncurredAt    time.Time       `json:"incurred_at"`
	Status        string          `json:"status"`
	Channel       *string         `json:"channel,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	PaidBy        *uuid.UUID      `json:"paid_by,omitempty"`
	Remark        string          `json:"remark,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// ExpenseListFilter represents filter options for the expense list
type ExpenseListFilter struct {
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	StoreID  string     `form:"store_id" binding:"omitempty,uuid"`
	Status   string     `form:"status" binding:"omitempty,oneof=PENDING PAID CANCELLED"`
	Category string     `form:"category"`
	From     *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To       *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

func toExpenseResponse(e *finance.Expense) *ExpenseResponse {
	r := &ExpenseResponse{
		ID:            e.ID,
		TenantID:      e.TenantID,
		ExpenseNumber: e.ExpenseNumber,
		StoreID:       e.StoreID,
		Category:      string(e.Category),
		Amount:        e.Amount,
		Description:   e.Description,
		IncurredAt:    e.IncurredAt,
		Status:        string(e.Status),
		PaidAt:        e.PaidAt,
		PaidBy:        e.PaidBy,
		Remark:        e.Remark,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
		Version:       e.Version,
	}
	if e.Channel != nil {
		ch := string(*e.Channel)
		r.Channel = &ch
	}
	return r
}

// ExpenseService handles expense use cases
type ExpenseService struct {
	expenses finance.ExpenseRepository
	txScope  appcashbox.TransactionScope
	sync     *appcashbox.Synchronizer
	events   shared.EventPublisher
	logger   *zap.Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenses finance.ExpenseRepository,
	txScope appcashbox.TransactionScope,
	sync *appcashbox.Synchronizer,
	events shared.EventPublisher,
	logger *zap.Logger,
) *ExpenseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sync == nil {
		sync = appcashbox.NewSynchronizer(nil, nil, logger)
	}
	return &ExpenseService{expenses: expenses, txScope: txScope, sync: sync, events: events, logger: logger}
}

// Create records a pending expense. Nothing moves until it is paid.
func (s *ExpenseService) Create(ctx context.Context, tenantID uuid.UUID, req CreateExpenseRequest) (*ExpenseResponse, error) {
	var incurredAt time.Time
	if req.IncurredAt != nil {
		incurredAt = *req.IncurredAt
	}

	var expense *finance.Expense
	err := s.txScope.Execute(ctx, func(repos appcashbox.TransactionalRepositories) error {
		if _, err := repos.Stores().FindByIDForTenant(ctx, tenantID, req.StoreID); err != nil {
			return err
		}
		number, err := repos.Numbers().Next(ctx, tenantID, ExpenseNumberPrefix)
		if err != nil {
			return err
		}
		expense, err = finance.NewExpense(tenantID, req.StoreID, number,
			finance.ExpenseCategory(req.Category), req.Amount, req.Description, incurredAt)
		if err != nil {
			return err
		}
		expense.Remark = req.Remark
		return repos.Expenses().Save(ctx, expense)
	})
	if err != nil {
		return nil, err
	}
	appcashbox.PublishEvents(ctx, s.events, s.logger, expense.GetDomainEvents())
	return toExpenseResponse(expense), nil
}

func (s *ExpenseService) mutate(ctx context.Context, tenantID, id uuid.UUID, fn func(*finance.Expense) error) (*finance.Expense, error) {
	var expense *finance.Expense
	err := s.txScope.Execute(ctx, func(repos appcashbox.TransactionalRepositories) error {
		var err error
		expense, err = repos.Expenses().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := fn(expense); err != nil {
			return err
		}
		if err := s.sync.ApplyEvents(ctx, repos, tenantID, expense.GetDomainEvents()); err != nil {
			return err
		}
		return repos.Expenses().Save(ctx, expense)
	})
	if err != nil {
		return nil, err
	}
	appcashbox.PublishEvents(ctx, s.events, s.logger, expense.GetDomainEvents())
	return expense, nil
}

// Pay settles a pending expense. Debits on tracked channels are refused when
// the store's position cannot cover them.
func (s *ExpenseService) Pay(ctx context.Context, tenantID, id, paidBy uuid.UUID, req PayExpenseRequest) (*ExpenseResponse, error) {
	channel, err := cashbox.ParsePaymentChannel(req.Channel)
	if err != nil {
		return nil, err
	}
	expense, err := s.mutate(ctx, tenantID, id, func(e *finance.Expense) error {
		return e.Pay(channel, paidBy)
	})
	if err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("Expense paid",
		zap.String("expense_id", id.String()),
		zap.String("channel", channel.String()),
		zap.String("amount", expense.Amount.String()),
	)
	return toExpenseResponse(expense), nil
}

// ReversePayment moves a paid expense back to pending
func (s *ExpenseService) ReversePayment(ctx context.Context, tenantID, id uuid.UUID, req ReasonRequest) (*ExpenseResponse, error) {
	expense, err := s.mutate(ctx, tenantID, id, func(e *finance.Expense) error {
		return e.ReversePayment(req.Reason)
	})
	if err != nil {
		return nil, err
	}
	return toExpenseResponse(expense), nil
}

// Cancel drops a pending expense
func (s *ExpenseService) Cancel(ctx context.Context, tenantID, id uuid.UUID, req ReasonRequest) (*ExpenseResponse, error) {
	expense, err := s.mutate(ctx, tenantID, id, func(e *finance.Expense) error {
		return e.Cancel(req.Reason)
	})
	if err != nil {
		return nil, err
	}
	return toExpenseResponse(expense), nil
}

// Get returns an expense by ID
func (s *ExpenseService) Get(ctx context.Context, tenantID, id uuid.UUID) (*ExpenseResponse, error) {
	expense, err := s.expenses.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toExpenseResponse(expense), nil
}

// List lists expenses with filtering and paging
func (s *ExpenseService) List(ctx context.Context, tenantID uuid.UUID, filter ExpenseListFilter) ([]ExpenseResponse, int64, error) {
	domainFilter := finance.ExpenseFilter{
		Filter: appcashbox.PageFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir),
		From:   filter.From,
		To:     filter.To,
	}
	storeID, err := appcashbox.ParseOptionalID("store_id", filter.StoreID)
	if err != nil {
		return nil, 0, err
	}
	domainFilter.StoreID = storeID
	if filter.Status != "" {
		status := finance.ExpenseStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainErrorf("INVALID_INPUT", "Unknown expense status %q", filter.Status)
		}
		domainFilter.Status = &status
	}
	if filter.Category != "" {
		category := finance.ExpenseCategory(filter.Category)
		if !category.IsValid() {
			return nil, 0, shared.NewDomainErrorf("INVALID_INPUT", "Unknown expense category %q", filter.Category)
		}
		domainFilter.Category = &category
	}

	expenses, total, err := s.expenses.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		out[i] = *toExpenseResponse(&expenses[i])
	}
	return out, total, nil
}
