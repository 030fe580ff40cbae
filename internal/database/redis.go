package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pageza/saveurs/backend/config"
	"github.com/pageza/saveurs/backend/internal/logging"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates a new Redis client and pings it
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	// Use Redis URL if provided (for production deployments)
	if cfg.RedisURL != "" {
		parsedOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		opts = parsedOpts
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info().Str("addr", opts.Addr).Msg("successfully connected to Redis")
	return client, nil
}

// OptionalRedis dials Redis when it is configured. A missing or unreachable
// Redis yields a nil client; callers run without cache and rate limiting.
func OptionalRedis(cfg *config.Config) *redis.Client {
	if !cfg.RedisEnabled() {
		logging.Info().Msg("redis not configured, running without cache")
		return nil
	}
	client, err := NewRedisClient(cfg)
	if err != nil {
		logging.Warn().Err(err).Msg("redis unavailable, running without cache")
		return nil
	}
	return client
}
