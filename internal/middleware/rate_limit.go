package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pageza/saveurs/backend/internal/logging"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// Limiter decides whether a request identified by key may proceed.
// Returns: allowed, remaining requests, reset time, error
type Limiter interface {
	IsAllowed(ctx context.Context, key string) (bool, int, time.Time, error)
	Config() RateLimitConfig
}

// SearchRateLimit is the per-client budget for the public search API
func SearchRateLimit(perMinute int) RateLimitConfig {
	return RateLimitConfig{
		Window:    time.Minute,
		Limit:     perMinute,
		KeyPrefix: "rate_limit:search",
	}
}

// RateLimiter is a fixed-window limiter shared across instances through Redis
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
		now:    time.Now,
	}
}

// Config returns the limiter settings
func (rl *RateLimiter) Config() RateLimitConfig {
	return rl.config
}

// IsAllowed counts a request from key in the current window
func (rl *RateLimiter) IsAllowed(ctx context.Context, key string) (bool, int, time.Time, error) {
	windowStart := rl.now().Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	// Use Redis pipeline for atomic operations
	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(incrCmd.Val())
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	resetTime := windowStart.Add(rl.config.Window)
	return count <= rl.config.Limit, remaining, resetTime, nil
}

// LocalRateLimiter is a per-process token bucket per key, used when Redis is
// not configured. A bucket idle for a whole window is full again, so it is
// dropped and recreated on the next request.
type LocalRateLimiter struct {
	config RateLimitConfig
	limit  rate.Limit
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*localBucket
	lastPrune time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalRateLimiter spreads config.Limit tokens over config.Window with a
// burst of the full limit.
func NewLocalRateLimiter(config RateLimitConfig) *LocalRateLimiter {
	return &LocalRateLimiter{
		config:  config,
		limit:   rate.Limit(float64(config.Limit) / config.Window.Seconds()),
		now:     time.Now,
		buckets: make(map[string]*localBucket),
	}
}

// Config returns the limiter settings
func (l *LocalRateLimiter) Config() RateLimitConfig {
	return l.config
}

// IsAllowed takes a token for key
func (l *LocalRateLimiter) IsAllowed(_ context.Context, key string) (bool, int, time.Time, error) {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastPrune) >= l.config.Window {
		l.pruneLocked(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &localBucket{limiter: rate.NewLimiter(l.limit, l.config.Limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	lim := b.limiter
	l.mu.Unlock()

	allowed := lim.AllowN(now, 1)
	tokens := lim.TokensAt(now)
	remaining := int(math.Max(0, math.Floor(tokens)))

	reset := now
	if missing := float64(l.config.Limit) - tokens; missing > 0 && l.limit > 0 {
		reset = now.Add(time.Duration(missing / float64(l.limit) * float64(time.Second)))
	}
	return allowed, remaining, reset, nil
}

func (l *LocalRateLimiter) pruneLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.config.Window {
			delete(l.buckets, key)
		}
	}
	l.lastPrune = now
}

// RateLimit enforces limiter per client IP. A failing limiter lets the
// request through with an X-RateLimit-Error header.
func RateLimit(limiter Limiter) gin.HandlerFunc {
	cfg := limiter.Config()
	return func(c *gin.Context) {
		allowed, remaining, resetTime, err := limiter.IsAllowed(c.Request.Context(), c.ClientIP())
		if err != nil {
			logging.Ctx(c.Request.Context()).Warn().Err(err).Msg("rate limit check failed")
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		// Set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			retryAfter := int(math.Ceil(time.Until(resetTime).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"code":        "rate_limited",
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests per %v", cfg.Limit, cfg.Window),
				"retryable":   true,
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
