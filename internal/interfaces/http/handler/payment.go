package handler

import (
	"context"
	"net/http"

	appfinance "github.com/erp/treasury/internal/application/finance"
	"github.com/erp/treasury/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// paymentOps binds one payment kind to its service methods
type paymentOps struct {
	record func(ctx context.Context, tenantID uuid.UUID, req appfinance.RecordPaymentRequest) (*appfinance.PaymentResponse, error)
	get    func(ctx context.Context, tenantID, id uuid.UUID) (*appfinance.PaymentResponse, error)
	list   func(ctx context.Context, tenantID uuid.UUID, filter appfinance.PaymentListFilter) ([]appfinance.PaymentResponse, int64, error)
}

// PaymentHandler serves invoice, supplier and loan payments. The :kind path
// segment is one of invoices, suppliers or loans.
type PaymentHandler struct {
	BaseHandler
	kinds map[string]paymentOps
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *appfinance.PaymentService) *PaymentHandler {
	return &PaymentHandler{kinds: map[string]paymentOps{
		"invoices":  {payments.RecordInvoicePayment, payments.GetInvoicePayment, payments.ListInvoicePayments},
		"suppliers": {payments.RecordSupplierPayment, payments.GetSupplierPayment, payments.ListSupplierPayments},
		"loans":     {payments.RecordLoanPayment, payments.GetLoanPayment, payments.ListLoanPayments},
	}}
}

func (h *PaymentHandler) ops(c *gin.Context) (paymentOps, bool) {
	ops, ok := h.kinds[c.Param("kind")]
	if !ok {
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Unknown payment kind")
	}
	return ops, ok
}

// Record records an immutable payment. POST /payments/:kind
func (h *PaymentHandler) Record(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	ops, ok := h.ops(c)
	if !ok {
		return
	}
	var req appfinance.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	payment, err := ops.record(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// Get returns one payment. GET /payments/:kind/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	ops, ok := h.ops(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	payment, err := ops.get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// List returns payments of one kind. GET /payments/:kind
func (h *PaymentHandler) List(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	ops, ok := h.ops(c)
	if !ok {
		return
	}
	var filter appfinance.PaymentListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := ops.list(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}
