package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gfragi/attendance-app/pkg/redis"
	"github.com/gfragi/attendance-app/pkg/response"
)

// RateLimit throttles the public check-in endpoints per client IP. A nil
// client (Redis unavailable at startup) disables limiting rather than
// blocking check-ins.
func RateLimit(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:checkin:%s", c.ClientIP())
		allowed, err := client.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			// Fail open: losing Redis must not take check-ins down.
			logger.Warn("rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			response.Error(c, 429, 10004, "too many requests, slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
