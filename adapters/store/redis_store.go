package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/sphinx-bounties/auth/core"
)

const (
	challengeKeyPrefix = "auth:challenge:"
	workspaceKeyPrefix = "auth:workspace:"

	// challengeGrace keeps expired challenge rows around briefly so status
	// polls can report Expired instead of NotFound right after expiry.
	challengeGrace = 10 * time.Minute
)

// completeScript is the atomic conditional update for challenge completion.
// All checks and the write happen in one script execution, so only one of any
// number of concurrent completion attempts can flip used from 0 to 1.
var completeScript = redis.NewScript(`
local key = KEYS[1]
if redis.call("EXISTS", key) == 0 then
	return "notfound"
end
local expires = tonumber(redis.call("HGET", key, "expires_at"))
if tonumber(ARGV[2]) > expires then
	return "expired"
end
if redis.call("HGET", key, "used") == "1" then
	return "conflict"
end
redis.call("HSET", key, "used", "1", "pubkey", ARGV[1])
return "ok"
`)

// RedisStore is a Redis implementation of the ChallengeStore and
// MembershipStore interfaces.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func challengeKey(k1 string) string {
	return challengeKeyPrefix + k1
}

// Save persists a challenge row with a TTL slightly past its expiry
func (s *RedisStore) Save(ctx context.Context, challenge *core.Challenge) error {
	key := challengeKey(challenge.K1)

	fields := map[string]interface{}{
		"encoded":    challenge.EncodedChallenge,
		"deep_link":  challenge.DeepLink,
		"pubkey":     challenge.BoundPubkey,
		"used":       boolField(challenge.Used),
		"created_at": challenge.CreatedAt.Unix(),
		"expires_at": challenge.ExpiresAt.Unix(),
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, time.Until(challenge.ExpiresAt)+challengeGrace)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save challenge: %w", err)
	}

	return nil
}

// Get returns the challenge row for k1
func (s *RedisStore) Get(ctx context.Context, k1 string) (*core.Challenge, error) {
	fields, err := s.client.HGetAll(ctx, challengeKey(k1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}
	if len(fields) == 0 {
		return nil, core.ErrChallengeNotFound
	}

	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt challenge row: %w", err)
	}
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt challenge row: %w", err)
	}

	return &core.Challenge{
		K1:               k1,
		EncodedChallenge: fields["encoded"],
		DeepLink:         fields["deep_link"],
		BoundPubkey:      fields["pubkey"],
		Used:             fields["used"] == "1",
		CreatedAt:        time.Unix(createdAt, 0),
		ExpiresAt:        time.Unix(expiresAt, 0),
	}, nil
}

// Complete runs the atomic conditional update binding pubkey to the challenge
func (s *RedisStore) Complete(ctx context.Context, k1, pubkey string) error {
	res, err := completeScript.Run(ctx, s.client, []string{challengeKey(k1)}, pubkey, time.Now().Unix()).Text()
	if err != nil {
		return fmt.Errorf("failed to complete challenge: %w", err)
	}

	switch res {
	case "ok":
		return nil
	case "notfound":
		return core.ErrChallengeNotFound
	case "expired":
		return core.ErrChallengeExpired
	case "conflict":
		return core.ErrChallengeConflict
	default:
		return fmt.Errorf("%w: unexpected script result %q", core.ErrStoreFailure, res)
	}
}

// PutWorkspace stores a workspace record
func (s *RedisStore) PutWorkspace(ctx context.Context, ws *core.Workspace) error {
	key := workspaceKeyPrefix + ws.ID

	err := s.client.HSet(ctx, key, map[string]interface{}{
		"name":   ws.Name,
		"budget": ws.Budget.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to save workspace: %w", err)
	}

	return nil
}

// PutMember assigns a role to a pubkey within a workspace
func (s *RedisStore) PutMember(ctx context.Context, workspaceID, pubkey string, role core.WorkspaceRole) error {
	key := workspaceKeyPrefix + workspaceID + ":members"

	if err := s.client.HSet(ctx, key, pubkey, string(role)).Err(); err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}

	return nil
}

// Role returns the role pubkey holds in the workspace
func (s *RedisStore) Role(ctx context.Context, workspaceID, pubkey string) (core.WorkspaceRole, error) {
	exists, err := s.client.Exists(ctx, workspaceKeyPrefix+workspaceID).Result()
	if err != nil {
		return "", fmt.Errorf("failed to check workspace: %w", err)
	}
	if exists == 0 {
		return "", core.ErrWorkspaceNotFound
	}

	role, err := s.client.HGet(ctx, workspaceKeyPrefix+workspaceID+":members", pubkey).Result()
	if errors.Is(err, redis.Nil) {
		return "", core.ErrNotAMember
	}
	if err != nil {
		return "", fmt.Errorf("failed to load role: %w", err)
	}

	return core.WorkspaceRole(role), nil
}

// Workspace returns the workspace record
func (s *RedisStore) Workspace(ctx context.Context, workspaceID string) (*core.Workspace, error) {
	fields, err := s.client.HGetAll(ctx, workspaceKeyPrefix+workspaceID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	if len(fields) == 0 {
		return nil, core.ErrWorkspaceNotFound
	}

	budget, err := decimal.NewFromString(fields["budget"])
	if err != nil {
		return nil, fmt.Errorf("corrupt workspace budget: %w", err)
	}

	return &core.Workspace{
		ID:     workspaceID,
		Name:   fields["name"],
		Budget: budget,
	}, nil
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
