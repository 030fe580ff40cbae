package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pageza/saveurs/backend/config"
	"github.com/pageza/saveurs/backend/internal/logging"
	"github.com/pageza/saveurs/backend/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open creates a GORM connection for the configured driver and checks it
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case DriverPostgres:
		logging.Info().
			Str("host", cfg.DBHost).
			Str("port", cfg.DBPort).
			Str("user", cfg.DBUser).
			Msg("connecting to database")
		dialector = postgres.Open(cfg.PostgresDSN())
	case DriverSQLite:
		logging.Info().Str("path", cfg.SQLitePath).Msg("opening sqlite database")
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting sql handle: %w", err)
	}
	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	logging.Info().Str("driver", cfg.DBDriver).Msg("successfully connected to database")
	return db, nil
}

// AutoMigrate creates the schema with GORM. Postgres deployments use the SQL
// files under migrations/ instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Ingredient{},
		&model.Recipe{},
		&model.RecipeIngredient{},
	)
}

// HealthCheck checks if the database is accessible
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug", "trace":
		return logger.Info
	case "error":
		return logger.Error
	default:
		return logger.Warn
	}
}
