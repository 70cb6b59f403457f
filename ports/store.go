package ports

import (
	"context"

	"github.com/sphinx-bounties/auth/core"
)

// ChallengeStore persists login challenges keyed by k1.
type ChallengeStore interface {
	// Save persists a freshly created challenge.
	Save(ctx context.Context, challenge *core.Challenge) error

	// Get returns the challenge for k1, or core.ErrChallengeNotFound.
	// Expiry is not evaluated here; callers check Challenge.Expired.
	Get(ctx context.Context, k1 string) (*core.Challenge, error)

	// Complete atomically binds pubkey to the challenge and marks it used.
	// Exactly one concurrent call for the same k1 can succeed: the losers
	// observe core.ErrChallengeConflict. Expired challenges fail with
	// core.ErrChallengeExpired, unknown ones with core.ErrChallengeNotFound.
	Complete(ctx context.Context, k1, pubkey string) error
}

// MembershipStore is the read side of workspace membership used for
// authorization decisions.
type MembershipStore interface {
	// Role returns the role pubkey holds in the workspace.
	// Returns core.ErrWorkspaceNotFound or core.ErrNotAMember.
	Role(ctx context.Context, workspaceID, pubkey string) (core.WorkspaceRole, error)

	// Workspace returns the workspace record, or core.ErrWorkspaceNotFound.
	Workspace(ctx context.Context, workspaceID string) (*core.Workspace, error)
}
