package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/pageza/saveurs/backend/config"
	"github.com/pageza/saveurs/backend/internal/database"
	"github.com/pageza/saveurs/backend/internal/logging"
)

func main() {
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	dir := flag.String("dir", "", "Migrations directory (defaults to MIGRATIONS_DIR or ./migrations)")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		logging.Warn().Err(err).Msg("could not read .env file")
	}

	dsn := os.Getenv("DATABASE_URL")
	migrationsDir := *dir
	if dsn == "" || migrationsDir == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			logging.Fatal().Err(err).Msg("DATABASE_URL is not set and configuration is invalid")
		}
		logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
		if dsn == "" {
			dsn = cfg.PostgresURL()
		}
		if migrationsDir == "" {
			migrationsDir = cfg.MigrationsDir
		}
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *rollback {
		version, err := database.Rollback(ctx, db, migrationsDir)
		if err != nil {
			logging.Fatal().Err(err).Msg("rollback failed")
		}
		logging.Info().Str("version", version).Msg("rolled back migration")
		return
	}

	applied, err := database.Migrate(ctx, db, migrationsDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("migration failed")
	}
	if len(applied) == 0 {
		logging.Info().Msg("database is up to date")
		return
	}
	logging.Info().Strs("applied", applied).Msg("migrations applied")
}
