package core

import "errors"

var (
	// ErrChallengeNotFound is returned when no challenge matches the given k1
	ErrChallengeNotFound = errors.New("challenge not found")

	// ErrChallengeExpired is returned when a challenge is past its expiry
	ErrChallengeExpired = errors.New("challenge has expired")

	// ErrChallengeConflict is returned when a challenge has already been completed
	ErrChallengeConflict = errors.New("challenge already completed")

	// ErrInvalidSignature is returned when a wallet signature does not verify
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidPubkey is returned when a public key is malformed
	ErrInvalidPubkey = errors.New("invalid public key")

	// ErrSessionInvalid is returned when a session token is missing, tampered or expired
	ErrSessionInvalid = errors.New("session is invalid")

	// ErrWorkspaceNotFound is returned when a workspace does not exist
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrNotAMember is returned when a pubkey holds no role in a workspace
	ErrNotAMember = errors.New("not a workspace member")

	// ErrForbidden is returned when a valid session lacks the required role
	ErrForbidden = errors.New("insufficient role")

	// ErrStoreFailure is returned when a storage operation fails
	ErrStoreFailure = errors.New("store operation failed")
)
