package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/gfragi/attendance-app/pkg/response"
)

// RoleAuth allows only the listed roles past. It must run after
// Identity.
func RoleAuth(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		response.Forbidden(c, 10003, "insufficient permissions")
		c.Abort()
	}
}
