package middleware

import (
	"net/http"

	"student-profile-backend/internal/delivery/http/response"
	"student-profile-backend/pkg/apperror"
	"student-profile-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		caller := CallerFrom(c)
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"user_id", caller.ID,
			"profile_id", c.Param("id"),
			"request_id", response.RequestID(c),
		}

		if appErr, ok := apperror.As(err); ok {
			if appErr.Code >= http.StatusInternalServerError {
				logger.Log.Error("request failed", append(attrs, "status", appErr.Code, "error", appErr.Err)...)
			} else {
				logger.Log.Info("request rejected", append(attrs, "status", appErr.Code, "error", appErr.Message)...)
			}
			response.Error(c, appErr.Code, appErr.Message, appErr.Details)
			return
		}

		// Never expose internal error details to clients.
		logger.Log.Error("unhandled error", append(attrs, "error", err)...)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
	}
}
