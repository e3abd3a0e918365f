package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gfragi/attendance-app/internal/service"
	"github.com/gfragi/attendance-app/pkg/response"
)

// Gin context keys populated by Identity.
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// Headers the oauth2 proxy in front of the service may set, checked in
// order.
var identityHeaders = []string{
	"X-Auth-Request-Email",
	"X-Forwarded-Email",
	"X-Email",
}

// Identity resolves the proxy-asserted email against the user registry
// and rejects requests from unknown or deactivated accounts. The service
// never sees credentials; authentication happens upstream.
func Identity(users service.UserService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var email string
		for _, header := range identityHeaders {
			if email = c.GetHeader(header); email != "" {
				break
			}
		}
		if email == "" {
			response.Unauthorized(c, 10002, "missing identity")
			c.Abort()
			return
		}

		user, err := users.ResolveIdentity(c.Request.Context(), email)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				response.Unauthorized(c, 10002, "unknown or inactive account")
				c.Abort()
				return
			}
			logger.Error("resolve identity failed", zap.Error(err))
			response.InternalError(c)
			c.Abort()
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextEmail, user.Email)
		c.Set(ContextRole, user.Role)
		c.Next()
	}
}
