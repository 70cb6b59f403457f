package tokenizer

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sphinx-bounties/auth/core"
	"github.com/sphinx-bounties/auth/ports"
)

const AudienceSession = "session"

// JWTCodec implements the SessionCodec interface using HS256 JWTs signed with
// a server-held secret. The secret and validity window are injected at
// construction time so tests can run with distinct secrets.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTCodec creates a new JWT session codec
func NewJWTCodec(secret []byte, ttl time.Duration) ports.SessionCodec {
	return &JWTCodec{secret: secret, ttl: ttl}
}

// Mint produces a signed token asserting pubkey with expiry now+ttl
func (c *JWTCodec) Mint(pubkey string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   pubkey,
			Audience:  jwt.ClaimStrings{AudienceSession},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// Validate verifies signature and expiry. Tampering, malformed structure,
// wrong signing method and expiry all yield nil, never an error: the caller
// treats nil uniformly as "unauthenticated".
func (c *JWTCodec) Validate(tokenStr string) *core.Session {
	if tokenStr == "" {
		return nil
	}

	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithAudience(AudienceSession), jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil
	}

	if !core.ValidPubkey(claims.Subject) {
		return nil
	}

	return &core.Session{
		Pubkey:    claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
}
