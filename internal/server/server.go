package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/saveurs/backend/config"
	"github.com/pageza/saveurs/backend/internal/api"
	"github.com/pageza/saveurs/backend/internal/logging"
	"github.com/pageza/saveurs/backend/internal/middleware"
	"github.com/pageza/saveurs/backend/internal/router"
	"github.com/pageza/saveurs/backend/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	http    *http.Server
	db      *gorm.DB
	catalog *service.CatalogService
	search  *service.SearchService
}

// New wires services, middleware and routes. redisClient may be nil, in which
// case the catalog is cached in-process only and rate limiting is per instance.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	catalog := service.NewCatalogService(db, redisClient, cfg.CatalogTTL)
	search := service.NewSearchService(db, cfg.SearchTimeout, service.BreakerConfig{
		FailureThreshold: cfg.BreakerFailureThreshold,
		OpenTimeout:      cfg.BreakerOpenTimeout,
	})

	engine := router.SetupRouter(router.Handlers{
		Health: api.NewHealthHandler(db, redisClient),
		Search: api.NewRecipeSearchHandler(catalog, search),
	}, cfg.AllowedOrigins, newLimiter(cfg, redisClient))

	return &Server{
		router:  engine,
		db:      db,
		catalog: catalog,
		search:  search,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.SearchTimeout + 5*time.Second,
		},
	}
}

func newLimiter(cfg *config.Config, redisClient *redis.Client) middleware.Limiter {
	limits := middleware.SearchRateLimit(cfg.RateLimitPerMinute)
	if redisClient != nil {
		return middleware.NewRateLimiter(redisClient, limits)
	}
	logging.Warn().Msg("redis not configured, rate limiting is per instance")
	return middleware.NewLocalRateLimiter(limits)
}

// Router exposes the handler for tests and embedding
func (s *Server) Router() http.Handler {
	return s.router
}

// Catalog returns the catalog service so callers can invalidate it
func (s *Server) Catalog() *service.CatalogService {
	return s.catalog
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then drains in-flight
// requests for up to shutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", ln.Addr().String()).Msg("server listening")
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}
