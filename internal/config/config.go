package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// RateLimitBackend selects which limiter implementation the server runs with.
// The choice is made once at startup; business logic never inspects the
// environment itself.
type RateLimitBackend string

const (
	RateLimitBackendMemory RateLimitBackend = "memory"
	RateLimitBackendRedis  RateLimitBackend = "redis"
)

type Config struct {
	Environment string

	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	CSRF      CSRFConfig
	Analytics AnalyticsConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// Origins allowed to call the API with credentials.
	AllowedOrigins []string
}

type DatabaseConfig struct {
	// Path to the SQLite database file.
	Path string
}

type RedisConfig struct {
	// URL is empty when the in-process rate limiter is used.
	URL      string
	PoolSize int
}

type AuthConfig struct {
	// JWTSecret signs admin session tokens (HS256).
	JWTSecret  string
	SessionTTL time.Duration
}

type RateLimitConfig struct {
	Backend     RateLimitBackend
	MaxRequests int
	Window      time.Duration
	// SweepInterval controls how often the in-process store evicts idle keys.
	SweepInterval time.Duration
}

type CSRFConfig struct {
	CookieName string
	HeaderName string
	CookiePath string
	TokenTTL   time.Duration
}

type AnalyticsConfig struct {
	RetentionDays int
	// QueueSize bounds the fire-and-forget recording queue.
	QueueSize int
}

type LoggingConfig struct {
	Level string
}

// LoadConfig reads configuration from the environment. A .env file is loaded
// first when present so local development matches the container setup.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:    getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "https://*")},
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/portfolio.db"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			SessionTTL: getEnvDuration("SESSION_TTL", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Backend:       RateLimitBackend(getEnv("RATE_LIMIT_BACKEND", string(RateLimitBackendMemory))),
			MaxRequests:   getEnvInt("RATE_LIMIT_MAX_REQUESTS", 5),
			Window:        getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			SweepInterval: getEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
		},
		CSRF: CSRFConfig{
			CookieName: "csrf_token",
			HeaderName: "x-csrf-token",
			CookiePath: "/admin",
			TokenTTL:   24 * time.Hour,
		},
		Analytics: AnalyticsConfig{
			RetentionDays: getEnvInt("ANALYTICS_RETENTION_DAYS", 90),
			QueueSize:     getEnvInt("ANALYTICS_QUEUE_SIZE", 256),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.RateLimit.Backend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("RATE_LIMIT_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown rate limit backend %q", c.RateLimit.Backend)
	}

	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive")
	}
	if c.Analytics.RetentionDays <= 0 {
		return fmt.Errorf("ANALYTICS_RETENTION_DAYS must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
