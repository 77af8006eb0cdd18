package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"portfolio-backend/internal/csrf"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/ratelimit"
	"portfolio-backend/internal/service"
	"portfolio-backend/internal/util"
)

type contextKey string

const principalKey contextKey = "principal"

// ClientIP extracts the caller IP from the first x-forwarded-for value.
func ClientIP(r *http.Request) string {
	forwarded := r.Header.Get("x-forwarded-for")
	if forwarded == "" {
		return "127.0.0.1"
	}
	ip := strings.TrimSpace(strings.Split(forwarded, ",")[0])
	if ip == "" {
		return "127.0.0.1"
	}
	return ip
}

// RateLimit admits at most the configured request count per sliding window
// for "<category>:<ip>". Rejections are themselves recorded as security
// events; limiter errors fail closed.
func RateLimit(limiter ratelimit.Limiter, category string, recorder service.SecurityRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			result, err := limiter.Check(r.Context(), ratelimit.Key(category, ip))
			if err != nil {
				util.Error("rate limit check failed, denying request",
					util.String("category", category),
					util.ErrorField(err))
			}
			if !result.Allowed {
				recorder.RecordSecurityEvent(models.EventRateLimit, ip, category, r.UserAgent())
				respondError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IssueCSRF sets the double-submit cookie on admin traffic when absent.
func IssueCSRF(guard *csrf.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guard.IssueIfAbsent(w, r)
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCSRF rejects mutating admin requests whose header token does not
// match the cookie token.
func RequireCSRF(guard *csrf.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !guard.Verify(r) {
				respondError(w, http.StatusForbidden, "CSRF validation failed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession validates the admin session cookie and stores the principal
// in the request context.
func RequireSession(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			principal, err := auth.VerifySessionToken(cookie.Value)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the authenticated admin, if any.
func PrincipalFromContext(ctx context.Context) *models.Principal {
	principal, _ := ctx.Value(principalKey).(*models.Principal)
	return principal
}

// Logger logs one line per HTTP request
func Logger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				logger.Info("HTTP request",
					util.String("method", r.Method),
					util.String("path", r.URL.Path),
					util.String("remote_addr", r.RemoteAddr),
					util.Int("status", ww.Status()),
					util.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
