package ratelimit

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/modelaudit/modelmeter/internal/errors"
	"github.com/modelaudit/modelmeter/internal/monitoring"
)

// Middleware enforces the per-IP limit on every request.
func (rl *RateLimiter) Middleware(metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := rl.AllowIP(c.Request.Context(), c.ClientIP())
		if !result.Allowed {
			if metrics != nil {
				metrics.IncrementRateLimitIPBlock()
			}
			appErr := apperrors.NewRateLimitError(result.RetryAfterString())
			c.Header("Retry-After", result.RetryAfterString())
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}
		c.Next()
	}
}
