package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sphinx-bounties/auth/core"
	"github.com/sphinx-bounties/auth/ports"
	"github.com/sphinx-bounties/auth/service"
)

// AuthHandlers contains HTTP handlers for the auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	members     ports.MembershipStore
	cookies     *CookieBinder
	devMode     bool
}

// NewAuthHandlers creates new auth handlers. devMode enables the login
// bypass endpoint and must be false outside development.
func NewAuthHandlers(authService *service.AuthService, members ports.MembershipStore, cookies *CookieBinder, devMode bool) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		members:     members,
		cookies:     cookies,
		devMode:     devMode,
	}
}

// Challenge handles login initiation: it creates a fresh challenge and
// returns the wallet-facing encodings.
func (h *AuthHandlers) Challenge(c *gin.Context) {
	challenge, err := h.authService.CreateChallenge(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"k1":        challenge.K1,
		"challenge": challenge.EncodedChallenge,
		"deep_link": challenge.DeepLink,
	})
}

// Poll reports login status for a challenge. The browser calls this
// repeatedly; on the first authenticated poll the session cookie is minted
// and attached, so the session lands on the polling browser rather than on
// the wallet's HTTP client.
func (h *AuthHandlers) Poll(c *gin.Context) {
	k1 := c.Param("k1")

	challenge, err := h.authService.CheckStatus(c.Request.Context(), k1)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrChallengeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Challenge not found"})
		case errors.Is(err, core.ErrChallengeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Challenge expired"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check challenge"})
		}
		return
	}

	if !challenge.Used || challenge.BoundPubkey == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "pubkey": nil})
		return
	}

	token, err := h.authService.IssueSession(challenge.BoundPubkey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}
	h.cookies.Attach(c, token)

	c.JSON(http.StatusOK, gin.H{"authenticated": true, "pubkey": challenge.BoundPubkey})
}

// Verify is the wallet callback completing a challenge. Wallets call it with
// k1, sig and key as query parameters (LNURL-auth); form fields work too.
func (h *AuthHandlers) Verify(c *gin.Context) {
	k1 := firstOf(c, "k1")
	sig := firstOf(c, "sig")
	key := firstOf(c, "key")

	err := h.authService.CompleteLogin(c.Request.Context(), k1, sig, key)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrChallengeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"status": "ERROR", "reason": "Challenge not found"})
		case errors.Is(err, core.ErrChallengeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"status": "ERROR", "reason": "Challenge expired"})
		case errors.Is(err, core.ErrChallengeConflict):
			c.JSON(http.StatusConflict, gin.H{"status": "ERROR", "reason": "Challenge already completed"})
		case errors.Is(err, core.ErrInvalidSignature), errors.Is(err, core.ErrInvalidPubkey):
			// Bad signatures and malformed input are deliberately not
			// distinguished at this boundary.
			c.JSON(http.StatusUnauthorized, gin.H{"status": "ERROR", "reason": "Unauthorized"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"status": "ERROR", "reason": "Verification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

// Session returns the authenticated identity bound to the session cookie
func (h *AuthHandlers) Session(c *gin.Context) {
	session := h.authService.ValidateSession(h.cookies.Read(c))
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user":          gin.H{"pubkey": session.Pubkey},
	})
}

// Logout clears the session cookie. A missing or invalid session still
// clears the cookie; logout never fails toward the user.
func (h *AuthHandlers) Logout(c *gin.Context) {
	if session := h.authService.ValidateSession(h.cookies.Read(c)); session != nil {
		h.authService.Logout(c.Request.Context(), session.Pubkey)
	}

	h.cookies.Detach(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// DevLogin mints a session directly from a supplied pubkey, skipping wallet
// verification. Refused outside development before the payload is even read.
func (h *AuthHandlers) DevLogin(c *gin.Context) {
	if !h.devMode {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not available"})
		return
	}

	var req struct {
		Pubkey string `json:"pubkey" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !core.ValidPubkey(req.Pubkey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pubkey"})
		return
	}

	token, err := h.authService.IssueSession(req.Pubkey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}
	h.cookies.Attach(c, token)

	c.JSON(http.StatusOK, gin.H{"authenticated": true, "pubkey": req.Pubkey})
}

// WorkspaceBudget returns a workspace's budget. The gate middleware has
// already enforced the management role before this handler runs.
func (h *AuthHandlers) WorkspaceBudget(c *gin.Context) {
	workspace, err := h.members.Workspace(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, core.ErrWorkspaceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Workspace not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load workspace"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workspace_id": workspace.ID,
		"budget":       workspace.Budget.String(),
	})
}

// firstOf reads a parameter from the query string or, failing that, the
// posted form.
func firstOf(c *gin.Context, name string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	return c.PostForm(name)
}
