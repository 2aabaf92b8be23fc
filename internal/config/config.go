package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects the tunables of the rating service. Values come from the
// environment with the documented defaults.
type Config struct {
	Port    string
	DataDir string

	// Rating pipeline
	DisqualifyThreshold float64

	// Orchestrator
	ReaperTimeout time.Duration // age after which a non-terminal task is failed
	WaitTimeout   time.Duration // how long a joining caller waits before the synchronous fallback

	// LLM collaborator
	LLMEndpoint       string
	LLMAPIKey         string
	LLMMinInterval    time.Duration // minimum delay between LLM calls
	LLMRequestTimeout time.Duration

	// HTTP surface
	RedisURL      string
	IPLimitPerMin int
	CacheTTL      time.Duration
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		Port:                "8080",
		DataDir:             "./data",
		DisqualifyThreshold: 0.5,
		ReaperTimeout:       600 * time.Second,
		WaitTimeout:         30 * time.Second,
		LLMMinInterval:      time.Second,
		LLMRequestTimeout:   20 * time.Second,
		IPLimitPerMin:       60,
		CacheTTL:            10 * time.Minute,
	}
}

// LoadFromEnv builds a Config from environment variables, falling back to the
// defaults for anything unset or unparseable.
func LoadFromEnv() Config {
	cfg := Default()

	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.DataDir = getEnvOrDefault("DATA_DIR", cfg.DataDir)
	cfg.LLMEndpoint = os.Getenv("LLM_ENDPOINT")
	cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	cfg.RedisURL = os.Getenv("REDIS_URL")

	cfg.DisqualifyThreshold = getEnvFloat("DISQUALIFY_THRESHOLD", cfg.DisqualifyThreshold)
	cfg.ReaperTimeout = getEnvSeconds("REAPER_TIMEOUT_SECONDS", cfg.ReaperTimeout)
	cfg.WaitTimeout = getEnvSeconds("WAIT_TIMEOUT_SECONDS", cfg.WaitTimeout)
	cfg.LLMMinInterval = getEnvSeconds("LLM_MIN_INTERVAL_SECONDS", cfg.LLMMinInterval)
	cfg.LLMRequestTimeout = getEnvSeconds("LLM_REQUEST_TIMEOUT_SECONDS", cfg.LLMRequestTimeout)
	cfg.IPLimitPerMin = getEnvInt("IP_LIMIT_PER_MIN", cfg.IPLimitPerMin)
	cfg.CacheTTL = getEnvSeconds("CACHE_TTL_SECONDS", cfg.CacheTTL)

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.ParseFloat(value, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return defaultValue
}
