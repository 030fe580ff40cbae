package service

import (
	"context"
	"errors"
	"time"

	"github.com/pageza/saveurs/backend/internal/logging"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig configures the circuit breaker guarding the recipe store
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening
	FailureThreshold uint32
	// OpenTimeout is the duration in open state before a trial request
	OpenTimeout time.Duration
}

// DefaultBreakerConfig returns production defaults
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, OpenTimeout: 30 * time.Second}
}

func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker[any] {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	log := logging.WithComponent("breaker")
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// a caller giving up is not a data source failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}
