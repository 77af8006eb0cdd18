package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddress())
	assert.Equal(t, RateLimitBackendMemory, cfg.RateLimit.Backend)
	assert.Equal(t, 5, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 90, cfg.Analytics.RetentionDays)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "csrf_token", cfg.CSRF.CookieName)
	assert.Equal(t, "x-csrf-token", cfg.CSRF.HeaderName)
	assert.Equal(t, "/admin", cfg.CSRF.CookiePath)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "20")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("SESSION_TTL", "1h")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 20, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, time.Hour, cfg.Auth.SessionTTL)
}

func TestLoadConfigIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestLoadConfigRedisBackendRequiresURL(t *testing.T) {
	t.Setenv("RATE_LIMIT_BACKEND", "redis")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")

	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, RateLimitBackendRedis, cfg.RateLimit.Backend)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Setenv("RATE_LIMIT_BACKEND", "dynamo")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown rate limit backend")
}

func TestLoadConfigProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-sufficiently-long-signing-secret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}
