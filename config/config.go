package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort     string
	ServerHost     string
	AllowedOrigins []string

	// Database configuration
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	SQLitePath    string
	MigrationsDir string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// Logging
	LogLevel  string
	LogFormat string

	// Search behaviour
	SearchTimeout      time.Duration
	CatalogTTL         time.Duration
	Debounce           time.Duration
	RateLimitPerMinute int

	// Data source circuit breaker
	BreakerFailureThreshold uint32
	BreakerOpenTimeout      time.Duration
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}

	switch env {
	case CI, Development, Test, Production:
		loadFromEnvironment(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromEnvironment fills cfg from environment variables. Sensitive values
// fall back to Docker secrets when the variable is not set.
func loadFromEnvironment(cfg *Config) {
	cfg.ServerPort = getEnv("SERVER_PORT", "8080")
	cfg.ServerHost = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.AllowedOrigins = splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"))

	cfg.DBDriver = getEnv("DB_DRIVER", "postgres")
	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBPort = getEnv("DB_PORT", "5432")
	cfg.DBUser = secretOrEnv("db_user", "DB_USER")
	cfg.DBPassword = secretOrEnv("db_password", "DB_PASSWORD")
	cfg.DBName = getEnv("DB_NAME", "saveurs")
	cfg.DBSSLMode = getEnv("DB_SSL_MODE", "disable")
	cfg.SQLitePath = getEnv("SQLITE_PATH", "saveurs.db")
	cfg.MigrationsDir = getEnv("MIGRATIONS_DIR", "migrations")

	cfg.RedisHost = getEnv("REDIS_HOST", "")
	cfg.RedisPort = getEnv("REDIS_PORT", "6379")
	cfg.RedisPassword = secretOrEnv("redis_password", "REDIS_PASSWORD")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)
	cfg.RedisURL = secretOrEnv("redis_url", "REDIS_URL")

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "json")

	cfg.SearchTimeout = getEnvDuration("SEARCH_TIMEOUT", 10*time.Second)
	cfg.CatalogTTL = getEnvDuration("CATALOG_TTL", 10*time.Minute)
	cfg.Debounce = getEnvDuration("SEARCH_DEBOUNCE", 300*time.Millisecond)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", 120)

	cfg.BreakerFailureThreshold = uint32(getEnvInt("BREAKER_FAILURE_THRESHOLD", 5))
	cfg.BreakerOpenTimeout = getEnvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second)
}

// PostgresDSN builds the connection string used by the postgres driver
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// PostgresURL builds a postgres:// URL for database/sql consumers
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// RedisEnabled reports whether enough Redis settings are present to dial
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// secretOrEnv prefers the environment variable and falls back to the Docker secret
func secretOrEnv(secret, envVar string) string {
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		return v
	}
	return readSecret(secret)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
