package auth

import (
	"errors"
	"time"

	"github.com/erp/treasury/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingTenantID  = errors.New("missing tenant_id in claims")
	ErrMissingUserID    = errors.New("missing user_id in claims")
)

// Claims are the access token claims shared with the identity service
type Claims struct {
	jwt.RegisteredClaims
	TenantID    string   `json:"tenant_id"`
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	Permissions []string `json:"permissions,omitempty"`
	TokenType   string   `json:"token_type"`
}

// Identity is the caller resolved from a verified token
type Identity struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	Username    string
	Permissions []string
}

// HasPermission reports whether the identity carries perm or the "*" wildcard
func (i Identity) HasPermission(perm string) bool {
	for _, p := range i.Permissions {
		if p == perm || p == "*" {
			return true
		}
	}
	return false
}

// JWTService verifies access tokens. It can also mint them for tooling and tests.
type JWTService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{secret: []byte(cfg.Secret), issuer: cfg.Issuer, now: time.Now}
}

// Issue signs an access token for identity valid for ttl
func (s *JWTService) Issue(id Identity, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   id.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID:    id.TenantID.String(),
		UserID:      id.UserID.String(),
		Username:    id.Username,
		Permissions: id.Permissions,
		TokenType:   "access",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses an access token and returns the caller identity
func (s *JWTService) Verify(tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || (claims.TokenType != "" && claims.TokenType != "access") {
		return nil, ErrInvalidClaims
	}

	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return nil, ErrMissingTenantID
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrMissingUserID
	}

	return &Identity{
		TenantID:    tenantID,
		UserID:      userID,
		Username:    claims.Username,
		Permissions: claims.Permissions,
	}, nil
}
