package handler

import (
	"context"

	apptrade "github.com/erp/treasury/internal/application/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SaleHandler serves sale endpoints
type SaleHandler struct {
	BaseHandler
	sales *apptrade.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(sales *apptrade.SaleService) *SaleHandler {
	return &SaleHandler{sales: sales}
}

// Create records a sale. POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	var req apptrade.CreateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sale, err := h.sales.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// Get returns one sale. GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	sale, err := h.sales.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// List returns sales. GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	var filter apptrade.SaleListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := h.sales.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// Pay records a payment against a sale. POST /sales/:id/payments
func (h *SaleHandler) Pay(c *gin.Context) {
	h.paymentAction(c, h.sales.RecordPayment)
}

// Refund gives money back on a sale. POST /sales/:id/refunds
func (h *SaleHandler) Refund(c *gin.Context) {
	h.paymentAction(c, h.sales.Refund)
}

type salePaymentFunc func(ctx context.Context, tenantID, id uuid.UUID, req apptrade.SalePaymentRequest) (*apptrade.SaleResponse, error)

func (h *SaleHandler) paymentAction(c *gin.Context, action salePaymentFunc) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req apptrade.SalePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sale, err := action(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Cancel cancels an unpaid sale. POST /sales/:id/cancel
func (h *SaleHandler) Cancel(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req apptrade.CancelSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sale, err := h.sales.Cancel(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}
