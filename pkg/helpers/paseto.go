package helpers

import (
	"time"

	"aidanwoods.dev/go-paseto"
)

// PasetoManager issues v4.local tokens. The symmetric key is derived from the configured secret.
type PasetoManager struct {
	key paseto.V4SymmetricKey
	TTL time.Duration

	now func() time.Time
}

func NewPasetoManager(secret string, ttl time.Duration) (*PasetoManager, error) {
	key, err := paseto.V4SymmetricKeyFromBytes(deriveKey(secret))
	if err != nil {
		return nil, err
	}
	return &PasetoManager{key: key, TTL: ttl, now: time.Now}, nil
}

func (m *PasetoManager) Issue(userID string) (string, time.Time, error) {
	now := m.now()
	exp := expiryFor(now, m.TTL)

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	// SetExpiration formats with whole seconds; keep the fraction
	token.SetString("exp", exp.UTC().Format(time.RFC3339Nano))
	token.SetSubject(userID)

	return token.V4Encrypt(m.key, nil), exp, nil
}

func (m *PasetoManager) Verify(tokenStr string) (*TokenClaims, error) {
	// expiry is checked below against the manager clock
	parser := paseto.NewParserWithoutExpiryCheck()
	token, err := parser.ParseV4Local(m.key, tokenStr, nil)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	userID, err := token.GetSubject()
	if err != nil || userID == "" {
		return nil, ErrTokenInvalid
	}
	exp, err := token.GetExpiration()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if expired(m.now(), exp) {
		return nil, ErrTokenExpired
	}
	iat, _ := token.GetIssuedAt()
	return &TokenClaims{UserID: userID, IssuedAt: iat, ExpiresAt: exp}, nil
}
