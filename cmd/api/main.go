package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"student-profile-backend/config"
	_ "student-profile-backend/docs" // Important for Swagger
	v1 "student-profile-backend/internal/delivery/http/v1"
	"student-profile-backend/internal/domain"
	"student-profile-backend/internal/repository/postgres"
	"student-profile-backend/internal/usecase"
	"student-profile-backend/pkg/auth"
	"student-profile-backend/pkg/database"
	"student-profile-backend/pkg/database/migration"
	"student-profile-backend/pkg/logger"
	"student-profile-backend/pkg/media"
	"student-profile-backend/pkg/redis"
	"student-profile-backend/pkg/security"
	"student-profile-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

// @title           Student Profile API
// @version         1.0
// @description     Student profiles with education, experience, skills and projects, plus an admin console.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// 2. Setup Logger
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting student profile backend", "port", cfg.Port)

	environment := "development"
	if cfg.GinMode == gin.ReleaseMode {
		environment = "production"
	}
	audit := security.InitSecurityLogger("student-profile-backend", environment)
	defer audit.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Setup Database
	if cfg.DBMigrate {
		if err := migration.Up(ctx, cfg.DBUrl); err != nil {
			logger.Log.Error("Failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}
	dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 4. Setup Redis (optional)
	var uploads usecase.UploadGate
	var redisCheck func(context.Context) error
	if cfg.RedisURL != "" {
		if err := redis.Initialize(redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword}); err != nil {
			logger.Log.Warn("Redis unavailable, rate limiting falls back to memory", "error", err)
		} else {
			defer redis.Close()
			uploads = security.NewUploadLimiter(cfg.UploadLimitPerMinute, cfg.UploadLimitPerDay)
			redisCheck = redis.HealthCheck
		}
	}

	// 5. Setup Media Store
	var store domain.MediaStore = media.Disabled{}
	if cfg.StorageConfigured() {
		s3Store, err := media.NewS3Store(ctx, media.Config{
			Provider:        media.Provider(cfg.S3Provider),
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			PublicBaseURL:   cfg.S3PublicBaseURL,
			Folder:          cfg.MediaFolder,
			MaxBytes:        cfg.MediaMaxBytes,
			MaxDimension:    cfg.MediaMaxDimension,
			JPEGQuality:     cfg.MediaJPEGQuality,
		})
		if err != nil {
			logger.Log.Error("Failed to configure media storage", "error", err)
			os.Exit(1)
		}
		store = s3Store
	}

	// 6. Setup Repositories and UseCases
	profileRepo := postgres.NewProfileRepository(dbPool)
	validate := validation.New()
	profileUC := usecase.NewProfileUsecase(profileRepo, store, uploads, audit, validate)
	adminUC := usecase.NewAdminUsecase(profileRepo, store, audit, validate)
	healthUC := usecase.NewHealthUsecase(dbPool, redisCheck)

	// 7. Setup Identity Resolver
	var jwksProvider *auth.Provider
	if cfg.JWKSUrl != "" {
		jwksProvider = auth.NewProvider(cfg.JWKSUrl)
	}
	resolver := auth.NewResolver(cfg.JWTSecret, jwksProvider, cfg.AdminUserIDs)

	// 8. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ProfileUC: profileUC,
		AdminUC:   adminUC,
		Health:    healthUC,
		Resolver:  resolver,
		Audit:     audit,
		Config:    cfg,
	})

	// 9. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Listen failed", "error", err)
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
