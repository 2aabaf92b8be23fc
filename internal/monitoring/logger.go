package monitoring

import (
	"context"
	"log/slog"
	"os"
	"time"
)

var startTime = time.Now()

// Logger provides structured logging helpers for the rating service.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger with RFC3339 timestamps.
func NewLogger() *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// RequestLogger logs HTTP request details.
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// RatingLogger logs a finished rating with its outcome.
func (l *Logger) RatingLogger(artifactID, status string, netScore float64, duration time.Duration) {
	l.Info("Rating Completed",
		"artifact_id", artifactID,
		"status", status,
		"net_score", netScore,
		"duration_ms", duration.Milliseconds(),
	)
}

// MetricLogger logs one metric calculator result.
func (l *Logger) MetricLogger(artifactID, metric string, value float64, latencyMS int64, recovered bool) {
	level := slog.LevelDebug
	if recovered {
		level = slog.LevelWarn
	}
	l.Log(context.Background(), level, "Metric Computed",
		"artifact_id", artifactID,
		"metric", metric,
		"value", value,
		"latency_ms", latencyMS,
		"neutral_fallback", recovered,
	)
}

// ExternalAPILogger logs external collaborator calls.
func (l *Logger) ExternalAPILogger(apiName, method, endpoint string, statusCode int, duration time.Duration, success bool) {
	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}

	l.Log(context.Background(), level, "External API Call",
		"api_name", apiName,
		"method", method,
		"endpoint", endpoint,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
		"success", success,
	)
}

// ReaperLogger logs a stuck task being failed.
func (l *Logger) ReaperLogger(artifactID string, age time.Duration, waiters int) {
	l.Warn("Stuck Task Reaped",
		"artifact_id", artifactID,
		"age_seconds", age.Seconds(),
		"released_waiters", waiters,
	)
}

// SystemLogger logs system-level events.
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}
