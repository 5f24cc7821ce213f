package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that are malformed, expired, signed
// with another key or of the wrong kind.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

const tokenIssuer = "fareledger"

// TokenKind separates short-lived access tokens from refresh tokens.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Subject is the identity a session token speaks for.
type Subject struct {
	TenantID string
	UserID   string
	Role     string
}

// Claims is the token payload. The user id travels as the registered "sub".
type Claims struct {
	jwt.RegisteredClaims
	TenantID string    `json:"tid"`
	Role     string    `json:"role"`
	Kind     TokenKind `json:"typ"`
}

// Identity returns the subject the claims were issued for.
func (c *Claims) Identity() Subject {
	return Subject{TenantID: c.TenantID, UserID: c.Subject, Role: c.Role}
}

// Sign issues an HS256 token of the given kind for sub, valid for ttl.
func Sign(secret string, sub Subject, kind TokenKind, ttl time.Duration) (string, error) {
	now := time.Now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.UserID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TenantID: sub.TenantID,
		Role:     sub.Role,
		Kind:     kind,
	}).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.Sign: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, issuer and expiry and returns the claims of a
// token naming both a tenant and a user.
func Parse(secret, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("auth.Parse: %w", ErrInvalidToken)
	}
	if claims.TenantID == "" || claims.Subject == "" {
		return nil, fmt.Errorf("auth.Parse: missing subject: %w", ErrInvalidToken)
	}
	return claims, nil
}

// ParseKind is Parse restricted to tokens of one kind.
func ParseKind(secret, token string, kind TokenKind) (*Claims, error) {
	claims, err := Parse(secret, token)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("auth.ParseKind: want %s token: %w", kind, ErrInvalidToken)
	}
	return claims, nil
}
