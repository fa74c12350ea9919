package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"student-profile-backend/internal/delivery/http/response"
	"student-profile-backend/internal/domain"
	"student-profile-backend/pkg/auth"
	"student-profile-backend/pkg/logger"
	"student-profile-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

// IdentityResolver verifies a bearer token; *auth.Resolver satisfies it.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (auth.Identity, error)
}

// AuthMiddleware resolves the Caller once per request. Requests without a
// valid token never reach a handler. audit may be nil.
func AuthMiddleware(resolver IdentityResolver, audit *security.SecurityLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)

		identity, err := resolver.Resolve(c.Request.Context(), tokenString)
		if err != nil {
			reason := "invalid_token"
			if errors.Is(err, auth.ErrMissingToken) {
				reason = "missing_token"
			}
			logger.Log.Debug("token rejected", "reason", reason, "error", err, "request_id", response.RequestID(c))
			if audit != nil {
				audit.LogUnauthorized(c.Request.Context(), c.ClientIP(), c.GetHeader("User-Agent"), response.RequestID(c), reason)
			}
			response.Error(c, http.StatusUnauthorized, "Unauthorized", nil)
			c.Abort()
			return
		}

		caller := domain.Caller{
			ID:      identity.Subject,
			Email:   identity.Email,
			IsAdmin: identity.IsAdmin,
		}
		c.Set(string(domain.KeyCaller), caller)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), domain.KeyCaller, caller))

		c.Next()
	}
}

// CallerFrom returns the Caller stored by AuthMiddleware, or the zero Caller.
func CallerFrom(c *gin.Context) domain.Caller {
	v, ok := c.Get(string(domain.KeyCaller))
	if !ok {
		return domain.Caller{}
	}
	caller, _ := v.(domain.Caller)
	return caller
}

// bearerToken reads the Authorization header, then the auth_token cookie.
func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			return strings.TrimSpace(header[7:])
		}
		return ""
	}
	if cookie, err := c.Cookie("auth_token"); err == nil {
		return cookie
	}
	return ""
}
