package store

import (
	"context"
	"sync"
	"time"

	"github.com/sphinx-bounties/auth/core"
)

// MemoryStore is an in-memory implementation of the ChallengeStore and
// MembershipStore interfaces, used in development and tests.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[string]*core.Challenge
	workspaces map[string]*core.Workspace
	members    map[string]map[string]core.WorkspaceRole // workspaceID -> pubkey -> role
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		challenges: make(map[string]*core.Challenge),
		workspaces: make(map[string]*core.Workspace),
		members:    make(map[string]map[string]core.WorkspaceRole),
	}
}

// Save persists a challenge keyed by k1
func (s *MemoryStore) Save(ctx context.Context, challenge *core.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *challenge
	s.challenges[challenge.K1] = &cp
	return nil
}

// Get returns a copy of the challenge for k1
func (s *MemoryStore) Get(ctx context.Context, k1 string) (*core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[k1]
	if !ok {
		return nil, core.ErrChallengeNotFound
	}

	cp := *challenge
	return &cp, nil
}

// Complete atomically flips the challenge from unused to used and binds the
// pubkey. The mutex makes the check-and-set a single critical section, so
// exactly one of any number of concurrent completions can win.
func (s *MemoryStore) Complete(ctx context.Context, k1, pubkey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[k1]
	if !ok {
		return core.ErrChallengeNotFound
	}
	if challenge.Expired(time.Now()) {
		return core.ErrChallengeExpired
	}
	if challenge.Used {
		return core.ErrChallengeConflict
	}

	challenge.Used = true
	challenge.BoundPubkey = pubkey
	return nil
}

// PutWorkspace stores a workspace record
func (s *MemoryStore) PutWorkspace(ws *core.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *ws
	s.workspaces[ws.ID] = &cp
}

// PutMember assigns a role to a pubkey within a workspace
func (s *MemoryStore) PutMember(workspaceID, pubkey string, role core.WorkspaceRole) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.members[workspaceID] == nil {
		s.members[workspaceID] = make(map[string]core.WorkspaceRole)
	}
	s.members[workspaceID][pubkey] = role
}

// Role returns the role pubkey holds in the workspace
func (s *MemoryStore) Role(ctx context.Context, workspaceID, pubkey string) (core.WorkspaceRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workspaces[workspaceID]; !ok {
		return "", core.ErrWorkspaceNotFound
	}

	role, ok := s.members[workspaceID][pubkey]
	if !ok {
		return "", core.ErrNotAMember
	}

	return role, nil
}

// Workspace returns a copy of the workspace record
func (s *MemoryStore) Workspace(ctx context.Context, workspaceID string) (*core.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.workspaces[workspaceID]
	if !ok {
		return nil, core.ErrWorkspaceNotFound
	}

	cp := *ws
	return &cp, nil
}
