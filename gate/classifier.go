// Package gate decides, per inbound request, whether a caller may proceed.
// It is framework-free: the transport layer feeds it a RequestView and
// executes the resulting Decision.
package gate

import (
	"regexp"
	"strings"
)

// Kind is the primary access category of a request path.
type Kind int

const (
	// KindStatic is a static asset; the gate passes it through untouched.
	KindStatic Kind = iota
	// KindAuth is a login/callback/status endpoint; always reachable.
	KindAuth
	// KindPublic is readable without a session.
	KindPublic
	// KindProtected requires a valid session.
	KindProtected
	// KindAdmin requires a session whose pubkey is on the super-admin list.
	KindAdmin
)

// Classification is the result of classifying a path. WorkspaceID is set when
// the path addresses a specific workspace; Management marks the subset of
// workspace paths that require an OWNER or ADMIN role. Workspace scoping is
// additive: it never replaces the Kind decision.
type Classification struct {
	Kind        Kind
	WorkspaceID string
	Management  bool
}

// Tables are the declarative route tables the classifier evaluates, injected
// at construction time so tests can run with their own tables.
type Tables struct {
	// AuthPrefixes short-circuit everything else; login must stay reachable.
	AuthPrefixes []string
	// PublicRoutes match exactly or as a path-segment prefix.
	PublicRoutes []string
	// ProtectedPrefixes match as a path-segment prefix.
	ProtectedPrefixes []string
	// AdminPattern matches the admin area.
	AdminPattern *regexp.Regexp
	// WorkspacePrefix precedes the workspace identifier segment.
	WorkspacePrefix string
	// ManagementActions are the workspace sub-route segments that require a
	// management role.
	ManagementActions []string
}

// DefaultTables are the route tables of the bounties application.
func DefaultTables() Tables {
	return Tables{
		AuthPrefixes:      []string{"/auth"},
		PublicRoutes:      []string{"/", "/bounties", "/people", "/leaderboard", "/search", "/workspaces"},
		ProtectedPrefixes: []string{"/dashboard", "/profile", "/settings", "/notifications"},
		AdminPattern:      regexp.MustCompile(`^/admin(/.*)?$`),
		WorkspacePrefix:   "/workspaces/",
		ManagementActions: []string{"settings", "members", "budget"},
	}
}

var staticSuffixes = []string{
	".js", ".css", ".map", ".ico", ".png", ".jpg", ".svg", ".webp",
	".woff", ".woff2", ".ttf", ".txt", ".webmanifest",
}

// Classifier categorizes request paths against static tables. It is a pure
// function of the path: total, deterministic and safe for concurrent use.
type Classifier struct {
	tables Tables
}

// NewClassifier creates a classifier over the given tables
func NewClassifier(tables Tables) *Classifier {
	return &Classifier{tables: tables}
}

// Classify maps a path to its access category. Evaluation order is fixed:
// static assets, auth, public, protected, admin; anything unlisted is
// protected. Workspace scoping is extracted independently and attached to
// whichever kind won.
func (c *Classifier) Classify(path string) Classification {
	if isStaticAsset(path) {
		return Classification{Kind: KindStatic}
	}

	if matchesPrefix(path, c.tables.AuthPrefixes) {
		return Classification{Kind: KindAuth}
	}

	cls := Classification{Kind: KindProtected}
	switch {
	case matchesPublic(path, c.tables.PublicRoutes):
		cls.Kind = KindPublic
	case matchesPrefix(path, c.tables.ProtectedPrefixes):
		cls.Kind = KindProtected
	case c.tables.AdminPattern != nil && c.tables.AdminPattern.MatchString(path):
		cls.Kind = KindAdmin
	}

	cls.WorkspaceID, cls.Management = c.workspaceScope(path)
	return cls
}

// workspaceScope extracts the workspace identifier following the workspace
// prefix and reports whether the sub-route is a management action.
func (c *Classifier) workspaceScope(path string) (string, bool) {
	if c.tables.WorkspacePrefix == "" || !strings.HasPrefix(path, c.tables.WorkspacePrefix) {
		return "", false
	}

	rest := strings.TrimPrefix(path, c.tables.WorkspacePrefix)
	segments := strings.Split(rest, "/")
	if segments[0] == "" {
		return "", false
	}

	id := segments[0]
	if len(segments) < 2 {
		return id, false
	}

	for _, action := range c.tables.ManagementActions {
		if segments[1] == action {
			return id, true
		}
	}
	return id, false
}

func isStaticAsset(path string) bool {
	if strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/assets/") || strings.HasPrefix(path, "/_next/") {
		return true
	}
	for _, suffix := range staticSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func matchesPublic(path string, routes []string) bool {
	for _, route := range routes {
		if path == route {
			return true
		}
		if route != "/" && strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}
