package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"portfolio-backend/internal/csrf"
	"portfolio-backend/internal/ratelimit"
	"portfolio-backend/internal/service"
)

// RouterDeps collects everything the router wires together.
type RouterDeps struct {
	Analytics *AnalyticsHandler
	Contact   *ContactHandler
	Auth      *AuthHandler
	Settings  *SettingsHandler
	Messages  *MessageHandler
	Health    *HealthHandler

	AuthService *service.AuthService
	CSRFGuard   *csrf.Guard
	Limiter     ratelimit.Limiter
	Recorder    service.SecurityRecorder

	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter creates and configures the Chi router with all middleware and routes
func NewRouter(deps RouterDeps) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(Logger(deps.Logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", deps.CSRFGuard.HeaderName()},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", deps.Health.Check)
	router.Get("/settings", deps.Settings.Public)

	router.With(RateLimit(deps.Limiter, ratelimit.CategoryContact, deps.Recorder)).
		Post("/contact", deps.Contact.Submit)
	router.With(RateLimit(deps.Limiter, ratelimit.CategoryTrack, deps.Recorder)).
		Post("/track", deps.Analytics.Track)

	router.Route("/admin", func(r chi.Router) {
		// Every admin response carries the CSRF cookie once.
		r.Use(IssueCSRF(deps.CSRFGuard))

		r.With(RateLimit(deps.Limiter, ratelimit.CategoryAuth, deps.Recorder)).
			Post("/login", deps.Auth.Login)
		r.Post("/logout", deps.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(deps.AuthService))

			r.Get("/analytics/traffic", deps.Analytics.Traffic)
			r.Get("/analytics/security", deps.Analytics.Security)
			r.Get("/settings", deps.Settings.AdminList)
			r.Get("/messages", deps.Messages.List)
		})

		// Mutating admin actions need the CSRF header as well as a session.
		// CSRF runs first: a forged cross-origin request is rejected as such
		// no matter what cookies ride along.
		r.Group(func(r chi.Router) {
			r.Use(RequireCSRF(deps.CSRFGuard))
			r.Use(RequireSession(deps.AuthService))

			r.Post("/analytics/purge", deps.Analytics.Purge)
			r.Post("/settings", deps.Settings.AdminUpdate)
			r.Patch("/messages/{id}", deps.Messages.SetRead)
			r.Delete("/messages/{id}", deps.Messages.Delete)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "endpoint not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router
}
