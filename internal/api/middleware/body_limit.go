package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gfragi/attendance-app/pkg/response"
)

// BodyLimit caps the request body at maxBytes. Oversized bodies fail at
// read time inside the handler's bind call.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "request body too large")
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
