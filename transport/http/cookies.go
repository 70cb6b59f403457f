package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Cookie names are part of the external contract; renaming one logs every
// browser out.
const (
	SessionCookieName = "sphinx_session"
	GateCookieName    = "sphinx_gate"
)

// CookieBinder owns the session cookie: one place defines the attribute set
// so attach and detach always agree. Mismatched attributes between set and
// clear leave the cookie behind in the browser.
type CookieBinder struct {
	maxAge int
	secure bool
}

// NewCookieBinder creates a cookie binder. secure should be true outside
// local development.
func NewCookieBinder(ttl time.Duration, secure bool) *CookieBinder {
	return &CookieBinder{maxAge: int(ttl.Seconds()), secure: secure}
}

// Attach binds the session token to the response cookie
func (b *CookieBinder) Attach(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, b.maxAge, "/", "", b.secure, true)
}

// Detach overwrites the cookie with an immediately expired empty value,
// using the identical attribute set.
func (b *CookieBinder) Detach(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", b.secure, true)
}

// Read extracts the session token from the request; absence is not an error
func (b *CookieBinder) Read(c *gin.Context) string {
	token, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return token
}
