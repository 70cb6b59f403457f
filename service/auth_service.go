package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sphinx-bounties/auth/core"
	"github.com/sphinx-bounties/auth/internal/lnauth"
	"github.com/sphinx-bounties/auth/internal/lnurl"
	"github.com/sphinx-bounties/auth/ports"
)

// AuthService handles the login challenge lifecycle and session issuance
type AuthService struct {
	challenges ports.ChallengeStore
	codec      ports.SessionCodec
	eventPub   ports.EventPublisher

	host         string
	challengeTTL time.Duration
}

// NewAuthService creates a new authentication service. host is the public
// hostname embedded in wallet callback URLs.
func NewAuthService(
	challenges ports.ChallengeStore,
	codec ports.SessionCodec,
	eventPub ports.EventPublisher,
	host string,
	challengeTTL time.Duration,
) *AuthService {
	return &AuthService{
		challenges:   challenges,
		codec:        codec,
		eventPub:     eventPub,
		host:         host,
		challengeTTL: challengeTTL,
	}
}

// CreateChallenge generates a new single-use login challenge and persists it
func (s *AuthService) CreateChallenge(ctx context.Context) (*core.Challenge, error) {
	k1, err := lnurl.NewK1()
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	encoded, err := lnurl.EncodeChallenge(s.host, k1)
	if err != nil {
		return nil, fmt.Errorf("failed to encode challenge: %w", err)
	}

	now := time.Now()
	challenge := &core.Challenge{
		K1:               k1,
		EncodedChallenge: encoded,
		DeepLink:         lnurl.DeepLink(s.host, k1),
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.challengeTTL),
	}

	if err := s.challenges.Save(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to save challenge: %w", err)
	}

	return challenge, nil
}

// CheckStatus reports whether the challenge for k1 has been completed.
// Side-effect free and idempotent; the browser polls it repeatedly.
func (s *AuthService) CheckStatus(ctx context.Context, k1 string) (*core.Challenge, error) {
	challenge, err := s.challenges.Get(ctx, k1)
	if err != nil {
		return nil, err
	}

	if challenge.Expired(time.Now()) {
		return nil, core.ErrChallengeExpired
	}

	return challenge, nil
}

// CompleteLogin verifies the wallet signature over k1 and atomically binds
// pubkey to the challenge. Replays and concurrent duplicates lose with
// core.ErrChallengeConflict.
func (s *AuthService) CompleteLogin(ctx context.Context, k1, signature, pubkey string) error {
	if !core.ValidPubkey(pubkey) {
		return core.ErrInvalidPubkey
	}

	challenge, err := s.challenges.Get(ctx, k1)
	if err != nil {
		return err
	}
	if challenge.Expired(time.Now()) {
		return core.ErrChallengeExpired
	}
	if challenge.Used {
		return core.ErrChallengeConflict
	}

	if !lnauth.Verify(k1, signature, pubkey) {
		return core.ErrInvalidSignature
	}

	// The store re-checks used/expired inside a single atomic update; the
	// checks above only short-circuit the common cases before crypto work.
	if err := s.challenges.Complete(ctx, k1, pubkey); err != nil {
		return err
	}

	if err := s.eventPub.PublishLogin(ctx, pubkey); err != nil {
		slog.Warn("failed to publish login event", "error", err)
	}

	return nil
}

// IssueSession mints a signed session token for pubkey
func (s *AuthService) IssueSession(pubkey string) (string, error) {
	return s.codec.Mint(pubkey)
}

// ValidateSession validates a session token; nil means unauthenticated
func (s *AuthService) ValidateSession(token string) *core.Session {
	return s.codec.Validate(token)
}

// Logout publishes a logout event. The session itself lives only in the
// cookie, so clearing the cookie at the transport layer is the real logout.
func (s *AuthService) Logout(ctx context.Context, pubkey string) {
	if err := s.eventPub.PublishLogout(ctx, pubkey); err != nil {
		slog.Warn("failed to publish logout event", "error", err)
	}
}
