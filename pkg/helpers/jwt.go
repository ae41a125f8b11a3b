package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func init() {
	// whole-second NumericDates would cut up to a second off every token
	jwt.TimePrecision = time.Microsecond
}

// JWTManager issues HS256-signed JWTs whose subject is the user id.
type JWTManager struct {
	Secret []byte
	TTL    time.Duration

	now func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{Secret: []byte(secret), TTL: ttl, now: time.Now}
}

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

func (m *JWTManager) Issue(userID string) (string, time.Time, error) {
	now := m.now()
	exp := expiryFor(now, m.TTL)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

func (m *JWTManager) Verify(tokenStr string) (*TokenClaims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tkn.Valid || claims.UserID == "" || claims.ExpiresAt == nil {
		return nil, ErrTokenInvalid
	}
	// exp travels as a float of seconds; rounding recovers the issued millisecond
	exp := claims.ExpiresAt.Time.Round(time.Millisecond)
	if expired(m.now(), exp) {
		return nil, ErrTokenExpired
	}
	out := &TokenClaims{UserID: claims.UserID, ExpiresAt: exp}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
