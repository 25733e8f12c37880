package handler

import (
	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	"github.com/gin-gonic/gin"
)

// SessionHandler serves register session endpoints
type SessionHandler struct {
	BaseHandler
	sessions *appcashbox.SessionService
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions *appcashbox.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// List returns sessions across cashboxes. GET /sessions
func (h *SessionHandler) List(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	var filter appcashbox.SessionListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := h.sessions.ListSessions(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// Get returns one session. GET /sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	session, err := h.sessions.GetSession(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// Close closes an open session with the counted balance. POST /sessions/:id/close
func (h *SessionHandler) Close(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appcashbox.CloseSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	session, err := h.sessions.Close(c.Request.Context(), tenantID, id, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// Summary returns the running position of a session. GET /sessions/:id/summary
func (h *SessionHandler) Summary(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	summary, err := h.sessions.Summary(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// RecordCount records a denomination count. POST /sessions/:id/counts
func (h *SessionHandler) RecordCount(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appcashbox.RecordCountRequest
	if !h.bindJSON(c, &req) {
		return
	}
	count, err := h.sessions.RecordCount(c.Request.Context(), tenantID, id, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, count)
}

// ListCounts returns the counts of a session. GET /sessions/:id/counts
func (h *SessionHandler) ListCounts(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	counts, err := h.sessions.ListCounts(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, counts)
}

// ListMovements returns the ledger entries of a session. GET /sessions/:id/movements
func (h *SessionHandler) ListMovements(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var q pageQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page := appcashbox.PageFilter(q.Page, q.PageSize, q.OrderBy, q.OrderDir)
	list, total, err := h.sessions.ListSessionMovements(c.Request.Context(), tenantID, id, page)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, page.Page, page.PageSize)
}

// pageQuery binds plain pagination query parameters
type pageQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}
