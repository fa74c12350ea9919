package response

import (
	"student-profile-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the envelope of every failed request.
type ErrorBody struct {
	Success   bool     `json:"success"`
	Error     string   `json:"error"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// MessageBody is returned by mutations that carry no other payload.
type MessageBody struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RequestID returns the id assigned by the RequestID middleware.
func RequestID(c *gin.Context) string {
	return c.GetString(string(domain.KeyRequestID))
}

// Success adds "success": true (and message, when set) to body and writes it.
func Success(c *gin.Context, code int, message string, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	if message != "" {
		body["message"] = message
	}
	c.JSON(code, body)
}

// Error sends an error response
func Error(c *gin.Context, code int, message string, details []string) {
	c.JSON(code, ErrorBody{
		Success:   false,
		Error:     message,
		Details:   details,
		RequestID: RequestID(c),
	})
}
