package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DBUrl     string
	DBMigrate bool
	LogLevel  string
	GinMode   string
	// Identity
	JWTSecret    string
	JWKSUrl      string
	AdminUserIDs []string
	// CORS
	FrontendURL        string
	CORSAllowedOrigins []string
	// Object storage (S3 compatible)
	S3Provider        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Bucket          string
	S3Endpoint        string
	S3PublicBaseURL   string
	// Media processing
	MediaFolder       string
	MediaMaxBytes     int
	MediaMaxDimension int
	MediaJPEGQuality  int
	// Redis Configuration
	RedisURL      string
	RedisPassword string
	// Rate Limiting Configuration
	RateLimitWindowSeconds   int
	RateLimitGlobalThreshold int
	UploadLimitPerMinute     int
	UploadLimitPerDay        int
}

func LoadConfig() (*Config, error) {
	// Load .env file when present (local development)
	_ = godotenv.Load()

	frontendURL := strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/")

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		DBUrl:     getEnv("DATABASE_URL", ""),
		DBMigrate: getEnvBool("DB_MIGRATE", true),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		GinMode:   getEnv("GIN_MODE", "release"),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWKSUrl:      strings.TrimSpace(getEnv("JWKS_URL", "")),
		AdminUserIDs: getEnvList("ADMIN_USER_IDS"),

		FrontendURL:        frontendURL,
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),

		S3Provider:        strings.ToLower(getEnv("S3_PROVIDER", "aws")),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Endpoint:        strings.TrimRight(getEnv("S3_ENDPOINT", ""), "/"),
		S3PublicBaseURL:   strings.TrimRight(getEnv("S3_PUBLIC_BASE_URL", ""), "/"),

		MediaFolder:       strings.Trim(getEnv("MEDIA_FOLDER", "student-profiles"), "/"),
		MediaMaxBytes:     getEnvInt("MEDIA_MAX_BYTES", 5<<20), // 5 MiB decoded
		MediaMaxDimension: getEnvInt("MEDIA_MAX_DIMENSION", 1600),
		MediaJPEGQuality:  getEnvInt("MEDIA_JPEG_QUALITY", 82),

		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		RateLimitWindowSeconds:   getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),    // 1 minute window
		RateLimitGlobalThreshold: getEnvInt("RATE_LIMIT_GLOBAL_THRESHOLD", 100), // 100 requests per window
		UploadLimitPerMinute:     getEnvInt("UPLOAD_LIMIT_PER_MINUTE", 10),
		UploadLimitPerDay:        getEnvInt("UPLOAD_LIMIT_PER_DAY", 50),
	}

	if len(cfg.CORSAllowedOrigins) == 0 && frontendURL != "" {
		cfg.CORSAllowedOrigins = []string{frontendURL}
	}

	if cfg.DBUrl == "" {
		log.Println("WARNING: DATABASE_URL is missing. Application may fail to connect.")
	}
	if cfg.JWTSecret == "" && cfg.JWKSUrl == "" {
		log.Println("WARNING: neither JWT_SECRET nor JWKS_URL is set. Every request will be rejected as unauthorized.")
	}
	if cfg.RedisURL == "" {
		log.Println("WARNING: REDIS_URL not configured. Rate limiting will use in-memory fallback.")
	}
	if !cfg.StorageConfigured() {
		log.Println("WARNING: S3 storage not configured. Image uploads will fail.")
	}

	return cfg, nil
}

// StorageConfigured reports whether enough S3 settings are present to upload.
func (c *Config) StorageConfigured() bool {
	return c.S3Bucket != "" && c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blanks
func getEnvList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
