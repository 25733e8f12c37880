package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/erp/treasury/internal/interfaces/http/dto"
	"github.com/erp/treasury/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// caller returns the tenant and user resolved by the auth middleware.
// It answers 401 and returns false when they are missing.
func (h *BaseHandler) caller(c *gin.Context) (tenantID, userID uuid.UUID, ok bool) {
	id, found := middleware.GetIdentity(c)
	if !found || id.TenantID == uuid.Nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	return id.TenantID, id.UserID, true
}

// pathID parses a UUID path parameter, answering 400 when it is malformed
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// optionalQueryID parses an optional UUID query parameter
func (h *BaseHandler) optionalQueryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.BadRequest(c, "Invalid "+name)
		return nil, false
	}
	return &id, true
}

// optionalQueryInt parses an optional integer query parameter
func (h *BaseHandler) optionalQueryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		h.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return n, true
}

// bindJSON binds the request body, answering 400 with field details on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds the query string, answering 400 with field details on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts service errors to HTTP responses. Domain errors keep
// their code, message and details; anything else is logged and answered 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewDetailedErrorResponse(
			code, domainErr.Message, middleware.GetRequestID(c), domainErr.Details))
		return
	}

	logger.L(c.Request.Context()).Error("Unhandled request error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	h.InternalError(c, "An unexpected error occurred")
}
