package gate

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/sphinx-bounties/auth/ports"
)

// Response header names set by the engine. These are part of the external
// contract; downstream handlers and the frontend read them.
const (
	HeaderRequestID    = "x-request-id"
	HeaderAuthPubkey   = "x-auth-pubkey"
	HeaderWorkspaceID  = "x-workspace-id"
	HeaderGateRequired = "x-gate-required"
)

const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
)

// RequestView is the slice of an inbound request the engine looks at. It is
// deliberately framework-free so decisions are testable as pure functions.
type RequestView struct {
	Path    string
	Cookies map[string]string
	Headers map[string]string
}

// Decision is the outcome of gating one request. Either Proceed is true or
// Redirect names the target; Headers are set on the response in both cases.
type Decision struct {
	Proceed  bool
	Redirect string
	Headers  map[string]string
}

// GateConfig controls the site-wide pre-auth access gate: a coarse filter,
// independent of user identity, that only lets marked requests past the root
// page.
type GateConfig struct {
	Enabled    bool
	Code       string
	CookieName string
}

// Engine combines session presence, route classification and authorization
// rules into a single allow/redirect/annotate decision per request. It holds
// no mutable state and is safe for arbitrary concurrent use.
type Engine struct {
	classifier    *Classifier
	codec         ports.SessionCodec
	members       ports.MembershipStore
	superAdmins   map[string]bool
	gate          GateConfig
	sessionCookie string
}

// NewEngine creates a decision engine. superAdmins is the static allow-list
// of pubkeys admitted to admin routes; sessionCookie names the cookie the
// session token rides in.
func NewEngine(
	classifier *Classifier,
	codec ports.SessionCodec,
	members ports.MembershipStore,
	superAdmins []string,
	gate GateConfig,
	sessionCookie string,
) *Engine {
	allowed := make(map[string]bool, len(superAdmins))
	for _, pk := range superAdmins {
		allowed[pk] = true
	}

	return &Engine{
		classifier:    classifier,
		codec:         codec,
		members:       members,
		superAdmins:   allowed,
		gate:          gate,
		sessionCookie: sessionCookie,
	}
}

// Decide runs the per-request state machine: request ID, bypasses, site gate,
// session resolution, then authorization. Every branch terminates in a
// concrete decision; collaborator failures deny, never allow.
func (e *Engine) Decide(ctx context.Context, req RequestView) Decision {
	headers := map[string]string{HeaderRequestID: uuid.New().String()}

	cls := e.classifier.Classify(req.Path)

	// Static assets and the auth endpoints themselves bypass everything;
	// gating them would make login impossible.
	if cls.Kind == KindStatic || cls.Kind == KindAuth {
		return Decision{Proceed: true, Headers: headers}
	}

	if e.gate.Enabled && req.Cookies[e.gate.CookieName] != e.gate.Code {
		if req.Path == "/" {
			headers[HeaderGateRequired] = "true"
			return Decision{Proceed: true, Headers: headers}
		}
		return Decision{Redirect: "/", Headers: headers}
	}

	session := e.codec.Validate(req.Cookies[e.sessionCookie])

	if session != nil {
		headers[HeaderAuthPubkey] = session.Pubkey
	}

	switch cls.Kind {
	case KindProtected:
		if session == nil {
			target := LoginPath + "?redirect=" + url.QueryEscape(req.Path)
			return Decision{Redirect: target, Headers: headers}
		}

	case KindAdmin:
		if session == nil || !e.superAdmins[session.Pubkey] {
			return Decision{Redirect: UnauthorizedPath, Headers: headers}
		}
	}

	// Workspace-role enforcement is additive: it applies on top of whichever
	// public/protected/admin decision was reached above.
	if cls.WorkspaceID != "" && cls.Management {
		if session == nil || !e.canManage(ctx, cls.WorkspaceID, session.Pubkey) {
			return Decision{Redirect: UnauthorizedPath, Headers: headers}
		}
	}

	if cls.WorkspaceID != "" {
		headers[HeaderWorkspaceID] = cls.WorkspaceID
	}

	return Decision{Proceed: true, Headers: headers}
}

// canManage looks up the caller's workspace role. Any lookup failure,
// including a missing workspace, reads as "no": denying is the safe answer
// and does not leak workspace existence to unauthorized callers.
func (e *Engine) canManage(ctx context.Context, workspaceID, pubkey string) bool {
	role, err := e.members.Role(ctx, workspaceID, pubkey)
	if err != nil {
		slog.Debug("workspace role lookup denied", "workspace", workspaceID, "error", err)
		return false
	}
	return role.CanManage()
}
