// Package auth handles the provider-facing side of authentication: login,
// session JWTs, and the middleware guarding the /api routes. This is the
// caller's credential, distinct from the gateway's own exchange token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried in a caller session token.
type Claims struct {
	jwt.RegisteredClaims
	Username   string `json:"username"`
	Role       string `json:"role"`
	ProviderID string `json:"provider_id"`
}

// TokenService issues and validates HS256 session tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

// NewTokenService builds a token service. ttl <= 0 defaults to 8 hours.
func NewTokenService(signingKey, issuer string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &TokenService{signingKey: []byte(signingKey), issuer: issuer, ttl: ttl}
}

// Issue mints a session token for an authenticated user.
func (s *TokenService) Issue(u User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
		Username:   u.Username,
		Role:       u.Role,
		ProviderID: u.ProviderID,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ErrTokenExpired marks a session that requires a fresh login rather than a
// corrected request.
var ErrTokenExpired = errors.New("session token expired")

// ErrTokenInvalid marks a malformed or mis-signed token.
var ErrTokenInvalid = errors.New("invalid session token")

// Validate parses and verifies a session token.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
