package ports

import "github.com/sphinx-bounties/auth/core"

// SessionCodec mints and validates self-contained session tokens.
type SessionCodec interface {
	// Mint produces a signed token asserting pubkey with a fixed validity window.
	Mint(pubkey string) (string, error)

	// Validate verifies signature and expiry. Any tampering, malformed
	// structure or expiry yields nil; callers treat nil uniformly as
	// "unauthenticated".
	Validate(token string) *core.Session
}
