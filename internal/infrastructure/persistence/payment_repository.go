package persistence

import (
	"context"

	"github.com/erp/treasury/internal/domain/finance"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/erp/treasury/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// paymentScope applies the filters shared by the three payment tables
func paymentScope(tenantID uuid.UUID, filter finance.PaymentFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(tenant.Scope(tenantID), tenant.StoreScope("store_id", filter.StoreID))
		if filter.From != nil {
			db = db.Where("paid_at >= ?", *filter.From)
		}
		if filter.To != nil {
			db = db.Where("paid_at <= ?", *filter.To)
		}
		return db
	}
}

// GormInvoicePaymentRepository implements finance.InvoicePaymentRepository using GORM
type GormInvoicePaymentRepository struct {
	db *gorm.DB
}

// NewGormInvoicePaymentRepository creates a new GormInvoicePaymentRepository
func NewGormInvoicePaymentRepository(db *gorm.DB) *GormInvoicePaymentRepository {
	return &GormInvoicePaymentRepository{db: db}
}

// FindByIDForTenant finds an invoice payment by ID
func (r *GormInvoicePaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.InvoicePayment, error) {
	var model models.InvoicePaymentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		Take(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists invoice payments with filtering and paging
func (r *GormInvoicePaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.PaymentFilter) ([]finance.InvoicePayment, int64, error) {
	scope := paymentScope(tenantID, filter)

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.InvoicePaymentModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InvoicePaymentModel
	if err := r.db.WithContext(ctx).
		Scopes(scope, paginate(filter.Filter, PaymentSortFields, "paid_at")).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]finance.InvoicePayment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Create inserts an invoice payment
func (r *GormInvoicePaymentRepository) Create(ctx context.Context, p *finance.InvoicePayment) error {
	err := r.db.WithContext(ctx).Create(models.InvoicePaymentModelFromDomain(p)).Error
	return uniqueViolation(err, nil, shared.ErrAlreadyExists)
}

// GormSupplierPaymentRepository implements finance.SupplierPaymentRepository using GORM
type GormSupplierPaymentRepository struct {
	db *gorm.DB
}

// NewGormSupplierPaymentRepository creates a new GormSupplierPaymentRepository
func NewGormSupplierPaymentRepository(db *gorm.DB) *GormSupplierPaymentRepository {
	return &GormSupplierPaymentRepository{db: db}
}

// FindByIDForTenant finds a supplier payment by ID
func (r *GormSupplierPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.SupplierPayment, error) {
	var model models.SupplierPaymentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		Take(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists supplier payments with filtering and paging
func (r *GormSupplierPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.PaymentFilter) ([]finance.SupplierPayment, int64, error) {
	scope := paymentScope(tenantID, filter)

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.SupplierPaymentModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SupplierPaymentModel
	if err := r.db.WithContext(ctx).
		Scopes(scope, paginate(filter.Filter, PaymentSortFields, "paid_at")).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]finance.SupplierPayment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Create inserts a supplier payment
func (r *GormSupplierPaymentRepository) Create(ctx context.Context, p *finance.SupplierPayment) error {
	err := r.db.WithContext(ctx).Create(models.SupplierPaymentModelFromDomain(p)).Error
	return uniqueViolation(err, nil, shared.ErrAlreadyExists)
}

// GormLoanPaymentRepository implements finance.LoanPaymentRepository using GORM
type GormLoanPaymentRepository struct {
	db *gorm.DB
}

// NewGormLoanPaymentRepository creates a new GormLoanPaymentRepository
func NewGormLoanPaymentRepository(db *gorm.DB) *GormLoanPaymentRepository {
	return &GormLoanPaymentRepository{db: db}
}

// FindByIDForTenant finds a loan payment by ID
func (r *GormLoanPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.LoanPayment, error) {
	var model models.LoanPaymentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		Take(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists loan payments with filtering and paging
func (r *GormLoanPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter finance.PaymentFilter) ([]finance.LoanPayment, int64, error) {
	scope := paymentScope(tenantID, filter)

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.LoanPaymentModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.LoanPaymentModel
	if err := r.db.WithContext(ctx).
		Scopes(scope, paginate(filter.Filter, PaymentSortFields, "paid_at")).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]finance.LoanPayment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Create inserts a loan payment
func (r *GormLoanPaymentRepository) Create(ctx context.Context, p *finance.LoanPayment) error {
	err := r.db.WithContext(ctx).Create(models.LoanPaymentModelFromDomain(p)).Error
	return uniqueViolation(err, nil, shared.ErrAlreadyExists)
}

var (
	_ finance.InvoicePaymentRepository  = (*GormInvoicePaymentRepository)(nil)
	_ finance.SupplierPaymentRepository = (*GormSupplierPaymentRepository)(nil)
	_ finance.LoanPaymentRepository     = (*GormLoanPaymentRepository)(nil)
)
