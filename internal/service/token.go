package service

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/keys"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
)

// DefaultTokenLifetime is the exp horizon of issued bearer tokens. It is
// independent of the session TTL.
const DefaultTokenLifetime = 7 * 24 * time.Hour

type tokenClaims struct {
	Payload model.Payload `json:"payload"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies RS256 bearer tokens. Verification checks
// only the signature and exp; it never consults the session cache.
type TokenCodec struct {
	signKey   *rsa.PrivateKey
	verifyKey *rsa.PublicKey
	kid       string
	lifetime  time.Duration
	now       func() time.Time
}

// TokenOption configures a TokenCodec.
type TokenOption func(*TokenCodec)

// WithClock replaces time.Now for both issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCodec) { c.now = now }
}

// WithLifetime overrides DefaultTokenLifetime.
func WithLifetime(d time.Duration) TokenOption {
	return func(c *TokenCodec) { c.lifetime = d }
}

// NewTokenCodec builds a codec over the signing pair in m.
func NewTokenCodec(m *keys.Material, opts ...TokenOption) *TokenCodec {
	c := &TokenCodec{
		signKey:   m.SigningKey(),
		verifyKey: m.VerifyKey(),
		kid:       m.KeyID(),
		lifetime:  DefaultTokenLifetime,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs p into a compact JWT.
func (c *TokenCodec) Issue(p model.Payload) (string, error) {
	now := c.now()
	claims := tokenClaims{
		Payload: p,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = c.kid
	signed, err := tok.SignedString(c.signKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the payload of raw when its RS256 signature is valid and it
// has not expired. Any other outcome is reported as false.
func (c *TokenCodec) Verify(raw string) (model.Payload, bool) {
	var claims tokenClaims
	tok, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (interface{}, error) { return c.verifyKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !tok.Valid {
		return model.Payload{}, false
	}
	if claims.Payload.AdminID <= 0 || claims.Payload.Token == "" {
		return model.Payload{}, false
	}
	return claims.Payload, true
}
