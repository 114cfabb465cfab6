package ratelimit

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware that throttles dispatch requests by
// client IP.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		result, err := s.Check(ctx, c.ClientIP())
		if err != nil {
			s.logger.Error(ctx, "rate limit check failed", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetAt.Unix()))

		if !result.Allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", result.RetryAfterMs/1000))
			s.logger.Warn(ctx, "dispatch rate limit exceeded")

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"code":        "RATE_LIMIT_EXCEEDED",
				"limit":       result.Limit,
				"retry_after": result.RetryAfterMs / 1000,
				"reset_at":    result.ResetAt.Unix(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
