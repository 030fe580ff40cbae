package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pageza/saveurs/backend/internal/database"
	"github.com/pageza/saveurs/backend/internal/logging"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports whether the database and Redis answer
type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewHealthHandler accepts a nil redis client when Redis is not configured
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

func (h *HealthHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", h.Health)
}

// Health returns 200 while the database is reachable. Redis only degrades
// the status since every Redis-backed feature has a fallback.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "ok", Redis: "disabled"}
	status := http.StatusOK

	if err := database.HealthCheck(ctx, h.db); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("database health check failed")
		resp.Status = "unavailable"
		resp.Database = "error"
		status = http.StatusServiceUnavailable
	}

	if h.redis != nil {
		resp.Redis = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("redis health check failed")
			resp.Redis = "error"
			if status == http.StatusOK {
				resp.Status = "degraded"
			}
		}
	}

	c.JSON(status, resp)
}
