package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gfragi/attendance-app/internal/api/middleware"
	"github.com/gfragi/attendance-app/internal/model"
)

// currentUserID returns the authenticated user's id set by the identity
// middleware.
func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}

func currentRole(c *gin.Context) string {
	return c.GetString(middleware.ContextRole)
}

func isAdmin(c *gin.Context) bool {
	return currentRole(c) == model.RoleAdmin
}

// instructorScope is the course-visibility scope for the caller: empty
// for admins (unrestricted), the caller's id for instructors.
func instructorScope(c *gin.Context) string {
	if isAdmin(c) {
		return ""
	}
	return currentUserID(c)
}
