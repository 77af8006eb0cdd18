package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"portfolio-backend/internal/service"
	"portfolio-backend/internal/util"
)

const sessionCookieName = "session_token"

// AuthHandler manages admin login and logout.
type AuthHandler struct {
	auth   *service.AuthService
	secure bool
	logger *zap.Logger
}

// NewAuthHandler creates the auth HTTP handler. secure controls the session
// cookie's Secure attribute.
func NewAuthHandler(auth *service.AuthService, secure bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, secure: secure, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and sets the session cookie. The 401 body is
// identical for unknown users and wrong passwords.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	principal, err := h.auth.Authenticate(r.Context(), req.Email, req.Password, ClientIP(r), r.UserAgent())
	if errors.Is(err, service.ErrInvalidCredentials) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.logger.Error("login failed", util.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, err := h.auth.IssueSessionToken(principal)
	if err != nil {
		h.logger.Error("session token issue failed", util.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.auth.SessionTTL().Seconds()),
		SameSite: http.SameSiteStrictMode,
		Secure:   h.secure,
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.secure,
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
