package handler

import (
	"strings"

	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	"github.com/erp/treasury/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// MaxIdempotencyKeyLength caps the Idempotency-Key header
const MaxIdempotencyKeyLength = 128

// MovementHandler serves ledger entry endpoints
type MovementHandler struct {
	BaseHandler
	movements *appcashbox.MovementService
}

// NewMovementHandler creates a new MovementHandler
func NewMovementHandler(movements *appcashbox.MovementService) *MovementHandler {
	return &MovementHandler{movements: movements}
}

// Record records a manual ledger entry. POST /movements
//
// A client retrying with the same Idempotency-Key gets the first entry back
// instead of a second one.
func (h *MovementHandler) Record(c *gin.Context) {
	tenantID, userID, ok := h.caller(c)
	if !ok {
		return
	}
	key := strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
	if len(key) > MaxIdempotencyKeyLength {
		h.BadRequest(c, "Idempotency-Key is too long")
		return
	}
	var req appcashbox.RecordMovementRequest
	if !h.bindJSON(c, &req) {
		return
	}
	movement, err := h.movements.Record(c.Request.Context(), tenantID, userID, req, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// Get returns one ledger entry. GET /movements/:id
func (h *MovementHandler) Get(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	movement, err := h.movements.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movement)
}

// List returns ledger entries. GET /movements
func (h *MovementHandler) List(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	var filter appcashbox.MovementListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := h.movements.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}
