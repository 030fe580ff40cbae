package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigRequirements defines required configuration for each environment
type ConfigRequirements struct {
	RequirePostgresCredentials bool
	RequireRedis               bool
}

var (
	// Environment-specific requirements
	requirements = map[Environment]ConfigRequirements{
		Development: {},
		Test:        {},
		CI: {
			RequirePostgresCredentials: true,
		},
		Production: {
			RequirePostgresCredentials: true,
			RequireRedis:               true,
		},
	}
)

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	reqs := requirements[env]

	var errs []ValidationError

	switch cfg.DBDriver {
	case "postgres":
		if reqs.RequirePostgresCredentials {
			if cfg.DBUser == "" {
				errs = append(errs, ValidationError{"DB_USER", "required (env or db_user secret)"})
			}
			if cfg.DBPassword == "" {
				errs = append(errs, ValidationError{"DB_PASSWORD", "required (env or db_password secret)"})
			}
		}
	case "sqlite":
		if env == Production {
			errs = append(errs, ValidationError{"DB_DRIVER", "sqlite is not allowed in production"})
		}
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{"SQLITE_PATH", "required when DB_DRIVER=sqlite"})
		}
	default:
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if reqs.RequireRedis && !cfg.RedisEnabled() {
		errs = append(errs, ValidationError{"REDIS_URL", "required in production"})
	}

	if cfg.SearchTimeout <= 0 {
		errs = append(errs, ValidationError{"SEARCH_TIMEOUT", "must be positive"})
	}
	if cfg.Debounce < 0 {
		errs = append(errs, ValidationError{"SEARCH_DEBOUNCE", "must not be negative"})
	}
	if cfg.RateLimitPerMinute < 0 {
		errs = append(errs, ValidationError{"RATE_LIMIT_PER_MINUTE", "must not be negative"})
	}
	if cfg.BreakerFailureThreshold == 0 {
		errs = append(errs, ValidationError{"BREAKER_FAILURE_THRESHOLD", "must be at least 1"})
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "json", "console":
	default:
		errs = append(errs, ValidationError{"LOG_FORMAT", "must be json or console"})
	}

	if len(errs) > 0 {
		lines := make([]string, len(errs))
		for i, e := range errs {
			lines[i] = e.Error()
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(lines, "\n"))
	}

	return nil
}
