package core

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// pubkeyPattern matches a compressed secp256k1 public key: a 02/03 parity
// prefix followed by the 32-byte X coordinate, hex encoded.
var pubkeyPattern = regexp.MustCompile(`^0[23][0-9a-fA-F]{64}$`)

// ValidPubkey reports whether s is a well-formed compressed secp256k1 public key.
func ValidPubkey(s string) bool {
	return pubkeyPattern.MatchString(s)
}

// Challenge represents a single-use login challenge handed to a Lightning wallet.
type Challenge struct {
	K1               string    // 32 random bytes, hex encoded; primary key
	EncodedChallenge string    // bech32-encoded callback URL, wallet-scannable
	DeepLink         string    // app-invocable URI for mobile wallets
	BoundPubkey      string    // set exactly once on successful completion
	Used             bool      // true after the first successful completion
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

// Expired reports whether the challenge is past its validity horizon.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Session represents an authenticated browser session. It is never stored
// server-side; the signed cookie token is the only copy.
type Session struct {
	Pubkey    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// WorkspaceRole is a member's role within a workspace.
type WorkspaceRole string

const (
	RoleOwner  WorkspaceRole = "OWNER"
	RoleAdmin  WorkspaceRole = "ADMIN"
	RoleMember WorkspaceRole = "MEMBER"
	RoleViewer WorkspaceRole = "VIEWER"
)

// CanManage reports whether the role may perform workspace management actions
// (settings, member changes, budget).
func (r WorkspaceRole) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Workspace is the slice of the workspace model the auth core touches.
type Workspace struct {
	ID     string
	Name   string
	Budget decimal.Decimal
}
