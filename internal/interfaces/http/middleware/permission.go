package middleware

import (
	"net/http"

	"github.com/erp/treasury/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Register permissions carried in access tokens
const (
	PermTreasuryRead   = "treasury:read"
	PermTreasuryWrite  = "treasury:write"
	PermTreasuryManage = "treasury:manage"
	PermSessionOperate = "register_session:operate"
	PermFinanceWrite   = "finance:write"
	PermStoreManage    = "store:manage"
)

// RequirePermission rejects callers whose identity lacks any of perms
func RequirePermission(log *zap.Logger, perms ...string) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}
		for _, p := range perms {
			if id.HasPermission(p) {
				c.Next()
				return
			}
		}

		log.Warn("Permission denied",
			zap.String("user_id", id.UserID.String()),
			zap.String("tenant_id", id.TenantID.String()),
			zap.Strings("required_any", perms),
			zap.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusForbidden,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Permission denied", GetRequestID(c)))
	}
}
