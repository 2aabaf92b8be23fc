package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/modelaudit/modelmeter/internal/monitoring"
)

// Config holds rate limiter configuration.
type Config struct {
	IPLimitPerMin   int
	BurstMultiplier int
}

// DefaultConfig returns default rate limiting configuration.
func DefaultConfig() Config {
	return Config{
		IPLimitPerMin:   60,
		BurstMultiplier: 2,
	}
}

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter limits requests per client IP. When a Redis client is
// available the limit is enforced distributed via redis_rate; otherwise an
// in-memory token bucket per IP is used.
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	config       Config
	metrics      *monitoring.Metrics

	fallbackLimiters map[string]*rate.Limiter
	fallbackMutex    sync.RWMutex
}

// NewRateLimiter creates a limiter. redisClient may be nil.
func NewRateLimiter(redisClient *redis.Client, config Config, metrics *monitoring.Metrics) *RateLimiter {
	rl := &RateLimiter{
		config:           config,
		metrics:          metrics,
		fallbackLimiters: make(map[string]*rate.Limiter),
	}
	if redisClient != nil {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient)
	}
	return rl
}

// AllowIP checks whether a request from the given IP may proceed.
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) Result {
	if rl.redisLimiter != nil {
		res, err := rl.redisLimiter.Allow(ctx, "ip:"+ip, redis_rate.PerMinute(rl.config.IPLimitPerMin))
		if err == nil {
			return Result{
				Allowed:    res.Allowed > 0,
				Limit:      rl.config.IPLimitPerMin,
				Remaining:  res.Remaining,
				RetryAfter: res.RetryAfter,
			}
		}
		if rl.metrics != nil {
			rl.metrics.IncrementRateLimitRedisErr()
		}
		slog.Warn("Redis rate limit check failed, using in-memory fallback", "error", err)
	}

	if rl.metrics != nil {
		rl.metrics.IncrementRateLimitFallback()
	}
	return rl.allowFallback(ip)
}

func (rl *RateLimiter) allowFallback(ip string) Result {
	rl.fallbackMutex.Lock()
	limiter, ok := rl.fallbackLimiters[ip]
	if !ok {
		perSecond := rate.Limit(float64(rl.config.IPLimitPerMin) / 60.0)
		limiter = rate.NewLimiter(perSecond, rl.config.IPLimitPerMin*rl.config.BurstMultiplier/2)
		rl.fallbackLimiters[ip] = limiter
	}
	rl.fallbackMutex.Unlock()

	if limiter.Allow() {
		return Result{Allowed: true, Limit: rl.config.IPLimitPerMin}
	}
	return Result{
		Allowed:    false,
		Limit:      rl.config.IPLimitPerMin,
		RetryAfter: time.Second,
	}
}

// RetryAfterString formats a RetryAfter duration for the response header.
func (r Result) RetryAfterString() string {
	secs := int(r.RetryAfter.Seconds())
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("%d", secs)
}
