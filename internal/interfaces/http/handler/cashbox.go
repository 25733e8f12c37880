package handler

import (
	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	"github.com/gin-gonic/gin"
)

// CashboxHandler serves register (cashbox) endpoints
type CashboxHandler struct {
	BaseHandler
	registers *appcashbox.RegisterService
	sessions  *appcashbox.SessionService
	balances  *appcashbox.BalanceService
}

// NewCashboxHandler creates a new CashboxHandler
func NewCashboxHandler(
	registers *appcashbox.RegisterService,
	sessions *appcashbox.SessionService,
	balances *appcashbox.BalanceService,
) *CashboxHandler {
	return &CashboxHandler{registers: registers, sessions: sessions, balances: balances}
}

// CurrentBalanceResponse is the cached balance of one cashbox
type CurrentBalanceResponse struct {
	CashboxID string `json:"cashbox_id"`
	Balance   string `json:"balance"`
}

// List returns the tenant's cashboxes. GET /cashboxes
func (h *CashboxHandler) List(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	var filter appcashbox.CashboxListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := h.registers.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// Get returns one cashbox. GET /cashboxes/:id
func (h *CashboxHandler) Get(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	cb, err := h.registers.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cb)
}

// CurrentBalance returns the cached balance. GET /cashboxes/:id/balance
func (h *CashboxHandler) CurrentBalance(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	balance, err := h.balances.RegisterCurrentBalance(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CurrentBalanceResponse{CashboxID: id.String(), Balance: balance.String()})
}

// Verify compares the cached balance with its recomputation. GET /cashboxes/:id/verify
func (h *CashboxHandler) Verify(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	report, err := h.balances.VerifyRegister(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// VerifyAll checks every cashbox of the tenant. GET /cashboxes/verify
func (h *CashboxHandler) VerifyAll(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	reports, err := h.balances.VerifyTenant(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reports)
}

// Resync overwrites the cached balance with its recomputation. POST /cashboxes/:id/resync
func (h *CashboxHandler) Resync(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	report, err := h.balances.ResyncRegister(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Activate makes the cashbox the store's active one. POST /cashboxes/:id/activate
func (h *CashboxHandler) Activate(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	cb, err := h.registers.Activate(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cb)
}

// Deactivate retires the cashbox. POST /cashboxes/:id/deactivate
func (h *CashboxHandler) Deactivate(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	cb, err := h.registers.Deactivate(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cb)
}

// OpenSession opens a session on the cashbox. POST /cashboxes/:id/sessions
func (h *CashboxHandler) OpenSession(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appcashbox.OpenSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	session, err := h.sessions.Open(c.Request.Context(), tenantID, id, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// ListSessions returns the sessions of the cashbox. GET /cashboxes/:id/sessions
func (h *CashboxHandler) ListSessions(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var filter appcashbox.SessionListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := h.sessions.ListSessionsByCashbox(c.Request.Context(), tenantID, id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}
