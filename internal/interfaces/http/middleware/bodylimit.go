package middleware

import (
	"net/http"

	"github.com/erp/treasury/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DefaultMaxBodySize applies when no limit is configured
const DefaultMaxBodySize int64 = 1 << 20

// BodyLimit rejects bodies larger than maxBytes
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "Request body exceeds maximum allowed size", GetRequestID(c)))
			return
		}
		// Streamed bodies without Content-Length are cut off by the reader
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
