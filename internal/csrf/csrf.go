// Package csrf implements the double-submit-cookie defense for state-changing
// admin requests: a token lives in a cookie the browser's own JavaScript can
// read and must be echoed back in a request header. A cross-origin attacker
// cannot read the cookie, so it cannot forge the header.
package csrf

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"portfolio-backend/internal/config"
)

// Guard issues and verifies CSRF tokens for the admin area.
type Guard struct {
	cookieName string
	headerName string
	cookiePath string
	tokenTTL   time.Duration
	secure     bool
}

// NewGuard creates a guard from config. secure controls the cookie's Secure
// attribute and is set in production.
func NewGuard(cfg config.CSRFConfig, secure bool) *Guard {
	return &Guard{
		cookieName: cfg.CookieName,
		headerName: cfg.HeaderName,
		cookiePath: cfg.CookiePath,
		tokenTTL:   cfg.TokenTTL,
		secure:     secure,
	}
}

// IssueIfAbsent sets a fresh token cookie only when the request carries none.
// Issuance is idempotent: rotating an existing token mid-session would break
// concurrent admin tabs, so a present cookie is left alone.
func (g *Guard) IssueIfAbsent(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(g.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    token,
		Path:     g.cookiePath,
		MaxAge:   int(g.tokenTTL.Seconds()),
		SameSite: http.SameSiteStrictMode,
		Secure:   g.secure,
		HttpOnly: false, // must be readable by the admin frontend
	})
	return token
}

// Verify reports whether the cookie token and header token are both present
// and identical.
func (g *Guard) Verify(r *http.Request) bool {
	cookie, err := r.Cookie(g.cookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	header := r.Header.Get(g.headerName)
	if header == "" {
		return false
	}

	return cookie.Value == header
}

// HeaderName returns the request header the frontend must echo the token in.
func (g *Guard) HeaderName() string {
	return g.headerName
}
