package middleware

import (
	"net/http"

	"student-profile-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

var errRequestTooLarge = apperror.New(http.StatusRequestEntityTooLarge, "Request body too large", nil)

// BodyLimit caps request bodies at limit bytes. Reads past the cap fail and
// surface as a bind error in the handler.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.Error(errRequestTooLarge)
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
