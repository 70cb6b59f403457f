package http

import (
	"github.com/gin-gonic/gin"

	"github.com/sphinx-bounties/auth/gate"
	"github.com/sphinx-bounties/auth/ports"
	"github.com/sphinx-bounties/auth/service"
)

// RouterConfig carries the collaborators the router wires together.
type RouterConfig struct {
	AuthService *service.AuthService
	Members     ports.MembershipStore
	Engine      *gate.Engine
	Cookies     *CookieBinder
	DevMode     bool
}

// SetupRouter sets up the Gin router with the gate middleware in front of
// every route.
func SetupRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), GateMiddleware(cfg.Engine))

	handlers := NewAuthHandlers(cfg.AuthService, cfg.Members, cfg.Cookies, cfg.DevMode)

	auth := router.Group("/auth")
	{
		auth.GET("/challenge", handlers.Challenge)
		auth.GET("/poll/:k1", handlers.Poll)
		auth.GET("/verify", handlers.Verify)
		auth.POST("/verify", handlers.Verify)
		auth.GET("/session", handlers.Session)
		auth.POST("/logout", handlers.Logout)
		auth.POST("/dev/login", handlers.DevLogin)
	}

	router.GET("/workspaces/:id/budget", handlers.WorkspaceBudget)

	return router
}
