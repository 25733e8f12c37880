package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/erp/treasury/internal/infrastructure/config"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header and gin context keys shared by the request pipeline
const (
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
	RequestIDKey         = "request_id"

	// MaxRequestIDLength caps client supplied request IDs
	MaxRequestIDLength = 128
)

// CORSConfig holds CORS middleware configuration
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig returns the defaults. AllowOrigins is empty, so no
// cross-origin request is allowed until origins are configured.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type", "Authorization", HeaderRequestID, HeaderIdempotencyKey,
			HeaderTenantID, HeaderUserID, "Accept", "Origin",
		},
		ExposeHeaders:    []string{HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// CORSFromHTTPConfig overlays the configured origins, methods and headers on the defaults
func CORSFromHTTPConfig(cfg config.HTTPConfig) CORSConfig {
	out := DefaultCORSConfig()
	if len(cfg.CORSAllowOrigins) > 0 {
		out.AllowOrigins = cfg.CORSAllowOrigins
	}
	if len(cfg.CORSAllowMethods) > 0 {
		out.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		out.AllowHeaders = cfg.CORSAllowHeaders
	}
	return out
}

// CORS returns a middleware that handles CORS with default configuration
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig())
}

// CORSWithConfig returns a CORS middleware with custom configuration
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	allowWildcard := false
	allowed := make(map[string]struct{}, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			allowWildcard = true
		}
		allowed[o] = struct{}{}
	}

	resolve := func(origin string) string {
		if allowWildcard {
			return "*"
		}
		if _, ok := allowed[origin]; ok && origin != "" {
			return origin
		}
		return ""
	}

	return func(c *gin.Context) {
		if origin := resolve(c.GetHeader("Origin")); origin != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			if cfg.AllowCredentials && origin != "*" {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", "))
			h.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", "))
			if len(cfg.ExposeHeaders) > 0 {
				h.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposeHeaders, ", "))
			}
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge.Seconds())))
			}
		}

		// Preflight always ends here, with or without CORS headers
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestID assigns each request an ID, echoes it in the response and
// stores it in both the gin context and the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if len(requestID) > MaxRequestIDLength {
			requestID = requestID[:MaxRequestIDLength]
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(HeaderRequestID, requestID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// GetRequestID returns the request ID assigned by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// SecurityConfig holds configuration for security headers
type SecurityConfig struct {
	HSTSEnabled bool
	HSTSMaxAge  int // seconds
}

// Secure adds the security headers an API needs. HSTS is only sent when enabled,
// which the server does in production.
func Secure(cfg SecurityConfig) gin.HandlerFunc {
	hsts := ""
	if cfg.HSTSEnabled {
		maxAge := cfg.HSTSMaxAge
		if maxAge <= 0 {
			maxAge = 31536000
		}
		hsts = "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains"
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		if hsts != "" {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}
