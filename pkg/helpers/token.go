package helpers

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

const (
	TokenFormatJWT    = "jwt"
	TokenFormatPASETO = "paseto"
)

// TokenClaims is the identity carried by a verified token.
type TokenClaims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenManager issues and verifies time-limited identity tokens.
// Verify returns ErrTokenExpired once now >= ExpiresAt and ErrTokenInvalid for any other failure.
type TokenManager interface {
	Issue(userID string) (token string, expiresAt time.Time, err error)
	Verify(token string) (*TokenClaims, error)
}

// NewTokenManager builds the manager for format ("jwt" or "paseto").
func NewTokenManager(format, secret string, ttl time.Duration) (TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	switch strings.ToLower(format) {
	case "", TokenFormatJWT:
		return NewJWTManager(secret, ttl), nil
	case TokenFormatPASETO:
		return NewPasetoManager(secret, ttl)
	default:
		return nil, fmt.Errorf("unknown token format %q", format)
	}
}

// expiryFor is now+ttl at millisecond precision. Both token formats carry exp
// at that precision, so the returned expiry and the embedded one agree.
func expiryFor(now time.Time, ttl time.Duration) time.Time {
	return now.Add(ttl).Truncate(time.Millisecond)
}

// expired treats the exact expiry instant as expired.
func expired(now, exp time.Time) bool {
	return !now.Before(exp)
}

// deriveKey stretches an arbitrary secret into a 32-byte key.
func deriveKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}
