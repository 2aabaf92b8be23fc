package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 0.5, cfg.DisqualifyThreshold)
	assert.Equal(t, 600*time.Second, cfg.ReaperTimeout)
	assert.Equal(t, time.Second, cfg.LLMMinInterval)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DISQUALIFY_THRESHOLD", "0.6")
	t.Setenv("REAPER_TIMEOUT_SECONDS", "120")
	t.Setenv("LLM_MIN_INTERVAL_SECONDS", "2.5")
	t.Setenv("LLM_ENDPOINT", "https://llm.example.com/v1/score")

	cfg := LoadFromEnv()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 0.6, cfg.DisqualifyThreshold)
	assert.Equal(t, 120*time.Second, cfg.ReaperTimeout)
	assert.Equal(t, 2500*time.Millisecond, cfg.LLMMinInterval)
	assert.Equal(t, "https://llm.example.com/v1/score", cfg.LLMEndpoint)
}

func TestLoadFromEnvKeepsExplicitZeroThreshold(t *testing.T) {
	t.Setenv("DISQUALIFY_THRESHOLD", "0")

	cfg := LoadFromEnv()

	assert.Equal(t, 0.0, cfg.DisqualifyThreshold)
}

func TestLoadFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("DISQUALIFY_THRESHOLD", "not-a-number")
	t.Setenv("REAPER_TIMEOUT_SECONDS", "-5")

	cfg := LoadFromEnv()

	assert.Equal(t, 0.5, cfg.DisqualifyThreshold)
	assert.Equal(t, 600*time.Second, cfg.ReaperTimeout)
}
