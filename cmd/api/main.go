package main

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/saveurs/backend/config"
	"github.com/pageza/saveurs/backend/internal/database"
	"github.com/pageza/saveurs/backend/internal/logging"
	"github.com/pageza/saveurs/backend/internal/server"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logging.Warn().Err(err).Msg("could not read .env file")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if cfg.DBDriver == database.DriverSQLite {
		// postgres schemas are owned by cmd/migrate
		if err := database.AutoMigrate(db); err != nil {
			logging.Fatal().Err(err).Msg("failed to migrate sqlite database")
		}
	}

	var redisClient *redis.Client
	if config.IsProduction() {
		redisClient, err = database.NewRedisClient(cfg)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to connect to redis")
		}
	} else {
		redisClient = database.OptionalRedis(cfg)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	srv := server.New(cfg, db, redisClient)
	if err := srv.Start(); err != nil {
		logging.Fatal().Err(err).Msg("server error")
	}
	logging.Info().Msg("server stopped")
}
