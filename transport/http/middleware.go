package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sphinx-bounties/auth/gate"
)

// GateMiddleware runs the access decision engine before every handler. It
// adapts the framework request into a gate.RequestView, applies the decision
// headers and either passes through or redirects.
func GateMiddleware(engine *gate.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := decide(engine, c)

		for name, value := range decision.Headers {
			c.Header(name, value)
		}

		if !decision.Proceed {
			c.Redirect(http.StatusFound, decision.Redirect)
			c.Abort()
			return
		}

		c.Next()
	}
}

// decide runs the engine fail-closed: an unexpected panic in any
// collaborator becomes a redirect to root, never a pass-through.
func decide(engine *gate.Engine, c *gin.Context) (decision gate.Decision) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("gate decision panicked", "path", c.Request.URL.Path, "method", c.Request.Method, "panic", r)
			decision = gate.Decision{Redirect: "/", Headers: decision.Headers}
		}
	}()

	view := gate.RequestView{
		Path:    c.Request.URL.Path,
		Cookies: make(map[string]string),
		Headers: make(map[string]string),
	}
	for _, cookie := range c.Request.Cookies() {
		view.Cookies[cookie.Name] = cookie.Value
	}
	for name := range c.Request.Header {
		view.Headers[name] = c.Request.Header.Get(name)
	}

	return engine.Decide(c.Request.Context(), view)
}
