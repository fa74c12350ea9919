package v1

import (
	"context"
	"net/http"
	"time"

	"student-profile-backend/config"
	"student-profile-backend/internal/delivery/http/middleware"
	"student-profile-backend/internal/domain"
	"student-profile-backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// HealthChecker reports component status; usecase.HealthUsecase satisfies it.
type HealthChecker interface {
	Check(ctx context.Context) (map[string]string, bool)
}

type RouterDeps struct {
	ProfileUC domain.ProfileUsecase
	AdminUC   domain.AdminUsecase
	Health    HealthChecker
	Resolver  middleware.IdentityResolver
	Audit     *security.SecurityLogger
	Config    *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins, cfg.GinMode == gin.ReleaseMode)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.ErrorHandler())

	r.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		status, healthy := deps.Health.Check(c.Request.Context())
		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes
	protected := r.Group("")
	protected.Use(middleware.GlobalRateLimitMiddleware(cfg.RateLimitGlobalThreshold, time.Duration(cfg.RateLimitWindowSeconds)*time.Second))
	protected.Use(middleware.AuthMiddleware(deps.Resolver, deps.Audit))
	{
		NewProfileHandler(protected, deps.ProfileUC, requestBodyLimit(cfg.MediaMaxBytes))
		NewAdminHandler(protected, deps.AdminUC)
	}

	return r
}

// requestBodyLimit leaves room for a full project: up to ten images, base64
// encoded, plus the JSON around them.
func requestBodyLimit(imageBytes int) int64 {
	if imageBytes <= 0 {
		imageBytes = 5 << 20
	}
	return int64(imageBytes)*10*4/3 + 1<<20
}
