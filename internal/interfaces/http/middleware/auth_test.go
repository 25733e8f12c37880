package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/treasury/internal/infrastructure/auth"
	"github.com/erp/treasury/internal/infrastructure/config"
	"github.com/erp/treasury/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newAuthRouter(cfg AuthConfig, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Authenticate(cfg))
	handlers := append(extra, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"tenant": GetTenantID(c).String(),
			"user":   GetUserID(c).String(),
		})
	})
	r.GET("/api/v1/cashboxes", handlers...)
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func TestAuthenticate_BearerToken(t *testing.T) {
	jwtSvc := auth.NewJWTService(config.JWTConfig{Secret: "test-secret", Issuer: "erp"})
	tenantID, userID := uuid.New(), uuid.New()
	token, err := jwtSvc.Issue(auth.Identity{TenantID: tenantID, UserID: userID, Username: "cashier"}, time.Hour)
	require.NoError(t, err)

	r := newAuthRouter(AuthConfig{Verifier: jwtSvc})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cashboxes", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, tenantID.String(), body["tenant"])
	assert.Equal(t, userID.String(), body["user"])
}

func TestAuthenticate_Rejections(t *testing.T) {
	jwtSvc := auth.NewJWTService(config.JWTConfig{Secret: "test-secret"})
	expired, err := jwtSvc.Issue(auth.Identity{TenantID: uuid.New(), UserID: uuid.New()}, -time.Minute)
	require.NoError(t, err)

	core, logs := observer.New(zap.WarnLevel)
	r := newAuthRouter(AuthConfig{Verifier: jwtSvc, SkipPaths: []string{"/health"}, Logger: zap.New(core)})

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing", "", dto.ErrCodeTokenInvalid},
		{"not bearer", "Basic abc", dto.ErrCodeTokenInvalid},
		{"garbage", BearerPrefix + "not-a-jwt", dto.ErrCodeTokenInvalid},
		{"expired", BearerPrefix + expired, dto.ErrCodeTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cashboxes", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := serve(r, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
	assert.Equal(t, len(tests), logs.FilterMessage("Authentication failed").Len())

	t.Run("skip path", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuthenticate_HeaderIdentity(t *testing.T) {
	tenantID, userID := uuid.New(), uuid.New()
	newReq := func(tenant, user string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cashboxes", nil)
		req.Header.Set(HeaderTenantID, tenant)
		req.Header.Set(HeaderUserID, user)
		return req
	}

	t.Run("ignored when disabled", func(t *testing.T) {
		r := newAuthRouter(AuthConfig{})
		w := serve(r, newReq(tenantID.String(), userID.String()))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("accepted when enabled", func(t *testing.T) {
		r := newAuthRouter(AuthConfig{AllowHeaderIdentity: true})
		w := serve(r, newReq(tenantID.String(), userID.String()))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), tenantID.String())
	})

	t.Run("tenant must be a uuid", func(t *testing.T) {
		r := newAuthRouter(AuthConfig{AllowHeaderIdentity: true})
		w := serve(r, newReq("store-1", userID.String()))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Tenant is required", decodeError(t, w).Message)
	})

	t.Run("user is required", func(t *testing.T) {
		r := newAuthRouter(AuthConfig{AllowHeaderIdentity: true})
		w := serve(r, newReq(tenantID.String(), ""))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "User is required", decodeError(t, w).Message)
	})
}

func TestRequirePermission(t *testing.T) {
	jwtSvc := auth.NewJWTService(config.JWTConfig{Secret: "test-secret"})
	issue := func(perms ...string) string {
		tok, err := jwtSvc.Issue(auth.Identity{TenantID: uuid.New(), UserID: uuid.New(), Permissions: perms}, time.Hour)
		require.NoError(t, err)
		return tok
	}
	r := newAuthRouter(AuthConfig{Verifier: jwtSvc}, RequirePermission(nil, PermTreasuryRead, PermTreasuryManage))

	tests := []struct {
		name   string
		perms  []string
		status int
	}{
		{"exact", []string{PermTreasuryRead}, http.StatusOK},
		{"any of", []string{PermTreasuryManage}, http.StatusOK},
		{"wildcard", []string{"*"}, http.StatusOK},
		{"missing", []string{PermFinanceWrite}, http.StatusForbidden},
		{"none", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cashboxes", nil)
			req.Header.Set(AuthHeaderKey, BearerPrefix+issue(tt.perms...))
			w := serve(r, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusForbidden {
				assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, w).Code)
			}
		})
	}
}
