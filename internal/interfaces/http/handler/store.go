package handler

import (
	appstore "github.com/erp/treasury/internal/application/store"
	"github.com/gin-gonic/gin"
)

// StoreHandler serves store endpoints
type StoreHandler struct {
	BaseHandler
	stores *appstore.StoreService
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(stores *appstore.StoreService) *StoreHandler {
	return &StoreHandler{stores: stores}
}

// Create opens a store and its cashbox. POST /stores
func (h *StoreHandler) Create(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	var req appstore.CreateStoreRequest
	if !h.bindJSON(c, &req) {
		return
	}
	st, err := h.stores.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, st)
}

// Get returns one store. GET /stores/:id
func (h *StoreHandler) Get(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	st, err := h.stores.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}

// List returns the tenant's stores. GET /stores
func (h *StoreHandler) List(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	var filter appstore.StoreListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := h.stores.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}
