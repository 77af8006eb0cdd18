package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/repository/sqlite"
	"portfolio-backend/internal/util"
)

// ErrInvalidCredentials covers unknown user and wrong password alike, so the
// response never enables account enumeration. The distinction lives only in
// the recorded security event detail.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidSession is returned for missing, malformed or expired tokens.
var ErrInvalidSession = errors.New("invalid session")

// SecurityRecorder is the slice of the analytics service the authenticator
// needs to report failed logins.
type SecurityRecorder interface {
	RecordSecurityEvent(eventType, ip, detail, userAgent string)
}

// AuthService verifies admin credentials and manages session tokens. It keeps
// no lockout state of its own; brute force mitigation is the auth:<ip> rate
// limit applied before Authenticate is called.
type AuthService struct {
	users      sqlite.UserRepository
	recorder   SecurityRecorder
	jwtSecret  []byte
	sessionTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates the credential authenticator.
func NewAuthService(users sqlite.UserRepository, recorder SecurityRecorder, jwtSecret string, sessionTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		recorder:   recorder,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Authenticate checks an email/password pair against the stored bcrypt hash.
// Every failure path emits exactly one failed_login security event.
func (s *AuthService) Authenticate(ctx context.Context, email, password, ip, userAgent string) (*models.Principal, error) {
	if email == "" || password == "" {
		s.recorder.RecordSecurityEvent(models.EventFailedLogin, ip, "missing credentials", userAgent)
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, sqlite.ErrNotFound) {
		s.recorder.RecordSecurityEvent(models.EventFailedLogin, ip, email, userAgent)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		s.recorder.RecordSecurityEvent(models.EventFailedLogin, ip, email, userAgent)
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("admin login", util.String("user_id", user.ID))
	return &models.Principal{UserID: user.ID, Email: user.Email}, nil
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IssueSessionToken signs a session JWT for an authenticated principal.
func (s *AuthService) IssueSessionToken(principal *models.Principal) (string, error) {
	now := s.now()
	claims := sessionClaims{
		Email: principal.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// VerifySessionToken validates a session JWT and returns its principal.
func (s *AuthService) VerifySessionToken(tokenString string) (*models.Principal, error) {
	if tokenString == "" {
		return nil, ErrInvalidSession
	}

	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	return &models.Principal{UserID: claims.Subject, Email: claims.Email}, nil
}

// SessionTTL exposes the configured session lifetime for cookie max-age.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}
