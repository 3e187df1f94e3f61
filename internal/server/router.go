package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/watchtogether/server/internal/auth"
	"github.com/watchtogether/server/internal/config"
	"github.com/watchtogether/server/internal/logger"
	"github.com/watchtogether/server/internal/metrics"
	"github.com/watchtogether/server/internal/profile"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config         config.Config
	DB             Pinger
	ObjectStore    BucketChecker
	Logger         *zap.Logger
	AuthService    *auth.Service
	ProfileService *profile.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(recovery())
	router.Use(logger.Middleware(deps.Logger))
	router.Use(metrics.Middleware())
	router.Use(secureHeaders(deps.Config))
	router.Use(corsMiddleware(deps.Config.CORS))

	registerHealthRoutes(router, deps)
	registerDocsRoutes(router)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	if deps.AuthService != nil {
		users := router.Group("/user")
		auth.RegisterRoutes(users, deps.AuthService)

		if deps.ProfileService != nil {
			protected := router.Group("/user")
			protected.Use(auth.Authenticate(deps.AuthService))
			profile.RegisterRoutes(protected, deps.ProfileService)
		}
	}

	return router
}
