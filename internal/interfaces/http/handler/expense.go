package handler

import (
	appfinance "github.com/erp/treasury/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// ExpenseHandler serves expense endpoints
type ExpenseHandler struct {
	BaseHandler
	expenses *appfinance.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenses *appfinance.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

// Create records a pending expense. POST /expenses
func (h *ExpenseHandler) Create(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	var req appfinance.CreateExpenseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	expense, err := h.expenses.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, expense)
}

// Get returns one expense. GET /expenses/:id
func (h *ExpenseHandler) Get(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	expense, err := h.expenses.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expense)
}

// List returns expenses. GET /expenses
func (h *ExpenseHandler) List(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	var filter appfinance.ExpenseListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := h.expenses.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// Pay pays a pending expense. POST /expenses/:id/pay
func (h *ExpenseHandler) Pay(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appfinance.PayExpenseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	expense, err := h.expenses.Pay(c.Request.Context(), tenantID, id, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expense)
}

// ReversePayment reverts a paid expense to pending. POST /expenses/:id/reverse
func (h *ExpenseHandler) ReversePayment(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appfinance.ReasonRequest
	if !h.bindJSON(c, &req) {
		return
	}
	expense, err := h.expenses.ReversePayment(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expense)
}

// Cancel cancels a pending expense. POST /expenses/:id/cancel
func (h *ExpenseHandler) Cancel(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appfinance.ReasonRequest
	if !h.bindJSON(c, &req) {
		return
	}
	expense, err := h.expenses.Cancel(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expense)
}
