package factory

import (
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"

	"portfolio-backend/internal/client"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/csrf"
	"portfolio-backend/internal/handler"
	"portfolio-backend/internal/ratelimit"
	"portfolio-backend/internal/repository/sqlite"
	"portfolio-backend/internal/service"
	"portfolio-backend/internal/util"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config *config.Config

	db          *sqlx.DB
	redisClient *client.RedisClient

	limiter   ratelimit.Limiter
	csrfGuard *csrf.Guard

	analyticsService *service.AnalyticsService
	authService      *service.AuthService
	contactService   *service.ContactService
	settingsService  *service.SettingsService

	closeOnce sync.Once
}

// NewFactory loads config and initializes all clients, repositories and
// services in dependency order.
func NewFactory() (*Factory, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	util.Init(cfg.Environment, cfg.Logging.Level)
	logger := util.Get()

	f := &Factory{config: cfg}

	f.db, err = client.NewSQLiteDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	policy := ratelimit.Policy{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
	}
	switch cfg.RateLimit.Backend {
	case config.RateLimitBackendRedis:
		f.redisClient, err = client.NewRedisClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		f.limiter = ratelimit.NewRedisLimiter(f.redisClient, policy)
	default:
		f.limiter = ratelimit.NewMemoryLimiter(policy, cfg.RateLimit.SweepInterval)
	}

	f.csrfGuard = csrf.NewGuard(cfg.CSRF, cfg.IsProduction())

	events := sqlite.NewEventRepository(f.db)
	messages := sqlite.NewMessageRepository(f.db)
	settings := sqlite.NewSettingRepository(f.db)
	users := sqlite.NewUserRepository(f.db)

	f.analyticsService = service.NewAnalyticsService(events, logger, cfg.Analytics.QueueSize)
	f.authService = service.NewAuthService(users, f.analyticsService, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, logger)
	f.contactService = service.NewContactService(messages, logger)
	f.settingsService = service.NewSettingsService(settings)

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.String("rate_limit_backend", string(cfg.RateLimit.Backend)))

	return f, nil
}

// Config returns the loaded configuration.
func (f *Factory) Config() *config.Config {
	return f.config
}

// Router builds the HTTP router over the factory's services.
func (f *Factory) Router() *handler.RouterDeps {
	cfg := f.config
	logger := util.Get()

	return &handler.RouterDeps{
		Analytics: handler.NewAnalyticsHandler(f.analyticsService, cfg.Analytics.RetentionDays, logger),
		Contact:   handler.NewContactHandler(f.contactService, logger),
		Auth:      handler.NewAuthHandler(f.authService, cfg.IsProduction(), logger),
		Settings:  handler.NewSettingsHandler(f.settingsService, logger),
		Messages:  handler.NewMessageHandler(f.contactService, logger),
		Health:    handler.NewHealthHandler(f.db, f.redisClient),

		AuthService: f.authService,
		CSRFGuard:   f.csrfGuard,
		Limiter:     f.limiter,
		Recorder:    f.analyticsService,

		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	}
}

// Close releases all resources. The analytics queue drains before the
// database handle goes away.
func (f *Factory) Close() {
	f.closeOnce.Do(func() {
		if f.limiter != nil {
			_ = f.limiter.Close()
		}
		if f.analyticsService != nil {
			f.analyticsService.Close()
		}
		if f.redisClient != nil {
			_ = f.redisClient.Close()
		}
		if f.db != nil {
			if err := f.db.Close(); err != nil {
				util.Error("failed to close database", util.ErrorField(err))
			}
		}
		util.Sync()
	})
}
