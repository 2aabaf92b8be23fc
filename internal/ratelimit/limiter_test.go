package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modelaudit/modelmeter/internal/monitoring"
)

func TestFallbackLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(nil, Config{IPLimitPerMin: 60, BurstMultiplier: 2}, monitoring.NewMetrics())

	result := rl.AllowIP(context.Background(), "10.0.0.1")
	assert.True(t, result.Allowed)
	assert.Equal(t, 60, result.Limit)
}

func TestFallbackLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(nil, Config{IPLimitPerMin: 2, BurstMultiplier: 2}, monitoring.NewMetrics())

	blocked := false
	for i := 0; i < 10; i++ {
		if !rl.AllowIP(context.Background(), "10.0.0.2").Allowed {
			blocked = true
			break
		}
	}
	assert.True(t, blocked, "sustained burst must eventually be throttled")
}

func TestLimiterIsolatesIPs(t *testing.T) {
	rl := NewRateLimiter(nil, Config{IPLimitPerMin: 2, BurstMultiplier: 2}, monitoring.NewMetrics())

	for i := 0; i < 10; i++ {
		rl.AllowIP(context.Background(), "10.0.0.3")
	}
	assert.True(t, rl.AllowIP(context.Background(), "10.0.0.4").Allowed,
		"one hot client must not throttle another")
}

func TestRetryAfterStringNeverZero(t *testing.T) {
	assert.Equal(t, "1", Result{}.RetryAfterString())
}
