package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("CI", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("DB_NAME", "saveurs")
	t.Setenv("DB_SSL_MODE", "disable")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("SEARCH_TIMEOUT", "5s")
	t.Setenv("ALLOWED_ORIGINS", "https://saveurs.fr, https://saveurs.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Test database configuration
	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, "6543", cfg.DBPort)
	assert.Equal(t, "postgres", cfg.DBUser)
	assert.Equal(t, "postgres", cfg.DBPassword)
	assert.Equal(t, "saveurs", cfg.DBName)
	assert.Equal(t, "disable", cfg.DBSSLMode)

	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, 5*time.Second, cfg.SearchTimeout)
	assert.Equal(t, []string{"https://saveurs.fr", "https://saveurs.com"}, cfg.AllowedOrigins)
}

func TestLoadConfigWithDefaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("CI", "")
	t.Setenv("SECRETS_DIR", t.TempDir())
	for _, k := range []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "REDIS_URL", "REDIS_HOST", "SEARCH_TIMEOUT", "SEARCH_DEBOUNCE", "LOG_FORMAT", "DB_DRIVER"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "saveurs", cfg.DBName)
	assert.Equal(t, 10*time.Second, cfg.SearchTimeout)
	assert.Equal(t, 300*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 10*time.Minute, cfg.CatalogTTL)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadConfigReadsDockerSecrets(t *testing.T) {
	secretsDir := t.TempDir()
	t.Setenv("ENV", "test")
	t.Setenv("CI", "")
	t.Setenv("SECRETS_DIR", secretsDir)
	t.Setenv("DB_USER", "")
	t.Setenv("DB_PASSWORD", "")

	require.NoError(t, os.WriteFile(filepath.Join(secretsDir, "db_user"), []byte("chef\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(secretsDir, "db_password"), []byte("  s3cret "), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "chef", cfg.DBUser)
	assert.Equal(t, "s3cret", cfg.DBPassword)
}

func TestValidateConfig(t *testing.T) {
	t.Run("production requires credentials and redis", func(t *testing.T) {
		t.Setenv("CI", "")
		t.Setenv("ENV", "production")

		cfg := &Config{DBDriver: "postgres", SearchTimeout: time.Second, BreakerFailureThreshold: 1, LogFormat: "json"}
		err := ValidateConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_USER")
		assert.Contains(t, err.Error(), "DB_PASSWORD")
		assert.Contains(t, err.Error(), "REDIS_URL")
	})

	t.Run("sqlite rejected in production", func(t *testing.T) {
		t.Setenv("CI", "")
		t.Setenv("ENV", "production")

		cfg := &Config{DBDriver: "sqlite", SQLitePath: "x.db", RedisURL: "redis://r", SearchTimeout: time.Second, BreakerFailureThreshold: 1, LogFormat: "json"}
		err := ValidateConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite is not allowed")
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Setenv("CI", "")
		t.Setenv("ENV", "development")

		cfg := &Config{DBDriver: "mysql", LogFormat: "xml"}
		err := ValidateConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported driver")
		assert.Contains(t, err.Error(), "SEARCH_TIMEOUT")
		assert.Contains(t, err.Error(), "BREAKER_FAILURE_THRESHOLD")
		assert.Contains(t, err.Error(), "LOG_FORMAT")
	})
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("CI", "true")
	assert.Equal(t, CI, GetEnvironment())

	t.Setenv("CI", "")
	t.Setenv("ENV", "production")
	assert.True(t, IsProduction())

	t.Setenv("ENV", "")
	assert.True(t, IsDevelopment())
}
