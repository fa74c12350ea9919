package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("FRONTEND_URL", "http://localhost:3000/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "student-profiles", cfg.MediaFolder)
	assert.Equal(t, 5<<20, cfg.MediaMaxBytes)
}

func TestLoadConfigParsesLists(t *testing.T) {
	t.Setenv("ADMIN_USER_IDS", " user_1, ,user_2 ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("RATE_LIMIT_GLOBAL_THRESHOLD", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"user_1", "user_2"}, cfg.AdminUserIDs)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 100, cfg.RateLimitGlobalThreshold)
}

func TestStorageConfigured(t *testing.T) {
	cfg := &Config{S3Bucket: "b", S3AccessKeyID: "k"}
	assert.False(t, cfg.StorageConfigured())

	cfg.S3SecretAccessKey = "s"
	assert.True(t, cfg.StorageConfigured())
}
