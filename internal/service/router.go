package service

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jortega/cuaderno/internal/auth"
	"github.com/jortega/cuaderno/internal/middleware"
	"github.com/jortega/cuaderno/internal/remote"
)

// Deps carries what the router needs.
type Deps struct {
	Authenticator auth.Authenticator
	JWTManager    *auth.JWTManager
	Docs          remote.Store
	Logger        *slog.Logger
}

// NewRouter builds the sync server's gin engine: auth endpoints,
// token-guarded snapshot endpoints, health and metrics.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	authHandlers := NewAuthHandlers(deps.Authenticator, deps.JWTManager, deps.Logger)
	snapHandlers := NewSnapshotHandlers(deps.Docs, deps.Logger)

	api := r.Group("/api")
	{
		api.POST("/auth/register", authHandlers.Register)
		api.POST("/auth/login", authHandlers.Login)

		guarded := api.Group("/", middleware.RequireAuth(deps.JWTManager))
		{
			guarded.GET("/snapshot", snapHandlers.Get)
			guarded.PUT("/snapshot", snapHandlers.Put)
		}
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
