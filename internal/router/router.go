package router

import (
	"github.com/gin-gonic/gin"

	"github.com/pageza/saveurs/backend/internal/api"
	"github.com/pageza/saveurs/backend/internal/middleware"
)

// Handlers are the route groups mounted by SetupRouter
type Handlers struct {
	Health *api.HealthHandler
	Search *api.RecipeSearchHandler
}

// SetupRouter configures middleware and routes. The health probe sits at the
// root, outside rate limiting; the search API lives under /api/v1.
func SetupRouter(h Handlers, allowedOrigins []string, limiter middleware.Limiter) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.AccessLog(),
		middleware.Recovery(),
		middleware.CORS(allowedOrigins),
	)
	router.NoRoute(middleware.NotFound())

	h.Health.RegisterRoutes(router)

	// API v1 routes
	v1 := router.Group("/api/v1")
	if limiter != nil {
		v1.Use(middleware.RateLimit(limiter))
	}
	h.Search.RegisterRoutes(v1)

	return router
}
