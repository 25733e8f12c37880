package handler

import (
	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/gin-gonic/gin"
)

// BalanceHandler serves computed positions
type BalanceHandler struct {
	BaseHandler
	balances *appcashbox.BalanceService
}

// NewBalanceHandler creates a new BalanceHandler
func NewBalanceHandler(balances *appcashbox.BalanceService) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

// Compute returns the balance of a channel with its components.
// GET /balances/:channel?store_id=&rule_version=
//
// Without store_id the position covers the whole tenant.
func (h *BalanceHandler) Compute(c *gin.Context) {
	tenantID, _, ok := h.caller(c)
	if !ok {
		return
	}
	ch, err := cashbox.ParseBalanceChannel(c.Param("channel"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	storeID, ok := h.optionalQueryID(c, "store_id")
	if !ok {
		return
	}
	ruleVersion, ok := h.optionalQueryInt(c, "rule_version")
	if !ok {
		return
	}
	resp, err := h.balances.Breakdown(c.Request.Context(), tenantID, ch, storeID, ruleVersion)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
