package auth

import (
	"testing"
	"time"

	"github.com/erp/treasury/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *JWTService {
	return NewJWTService(config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", Issuer: "erp-backend"})
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestService()
	id := Identity{TenantID: uuid.New(), UserID: uuid.New(), Username: "cashier", Permissions: []string{"cashbox:operate"}}

	token, err := svc.Issue(id, time.Hour)
	require.NoError(t, err)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id.TenantID, got.TenantID)
	assert.Equal(t, id.UserID, got.UserID)
	assert.True(t, got.HasPermission("cashbox:operate"))
	assert.False(t, got.HasPermission("cashbox:admin"))
}

func TestJWTService_Expired(t *testing.T) {
	svc := newTestService()
	token, err := svc.Issue(Identity{TenantID: uuid.New(), UserID: uuid.New()}, time.Minute)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, err := newTestService().Issue(Identity{TenantID: uuid.New(), UserID: uuid.New()}, time.Hour)
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "another-secret-another-secret-xx", Issuer: "erp-backend"})
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_WrongIssuer(t *testing.T) {
	token, err := NewJWTService(config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", Issuer: "someone-else"}).
		Issue(Identity{TenantID: uuid.New(), UserID: uuid.New()}, time.Hour)
	require.NoError(t, err)

	_, err = newTestService().Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_MissingTenant(t *testing.T) {
	svc := newTestService()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "erp-backend",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrMissingTenantID)
}

func TestJWTService_RejectsRefreshToken(t *testing.T) {
	svc := newTestService()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "erp-backend",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TenantID:  uuid.NewString(),
		UserID:    uuid.NewString(),
		TokenType: "refresh",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}
