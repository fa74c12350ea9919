package middleware

import (
	"context"

	"student-profile-backend/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

// RequestID assigns every request an id, echoes it in X-Request-ID and places
// it, along with the client IP, on the request context for usecases.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(string(domain.KeyRequestID), id)
		c.Header(HeaderRequestID, id)

		ctx := context.WithValue(c.Request.Context(), domain.KeyRequestID, id)
		ctx = context.WithValue(ctx, domain.KeyClientIP, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
