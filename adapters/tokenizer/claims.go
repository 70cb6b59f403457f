package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the claims carried by a session cookie token. The pubkey
// rides in the registered Subject claim.
type SessionClaims struct {
	jwt.RegisteredClaims
}
