package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/repository/sqlite"
	"portfolio-backend/internal/util"
)

const (
	maxNameLength    = 100
	minMessageLength = 10
	maxMessageLength = 5000
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validation failures for contact submissions, checked before any side effect.
var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrNameLength      = fmt.Errorf("name must be 1-%d characters", maxNameLength)
	ErrMessageTooShort = fmt.Errorf("message must be at least %d characters", minMessageLength)
	ErrMessageTooLong  = fmt.Errorf("message must be under %d characters", maxMessageLength)
)

// ContactRequest is the parsed-and-validated contact form body. Handlers
// construct it at the edge; nothing downstream re-checks field shapes.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Validate applies the boundary checks in a fixed order so the first failing
// rule determines the response.
func (r *ContactRequest) Validate() error {
	if r.Name == "" || r.Email == "" || r.Message == "" {
		return ErrMissingFields
	}
	if !emailRegex.MatchString(r.Email) {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(r.Name) == "" || len(r.Name) > maxNameLength {
		return ErrNameLength
	}
	if len(strings.TrimSpace(r.Message)) < minMessageLength {
		return ErrMessageTooShort
	}
	if len(r.Message) > maxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// ContactService stores validated contact submissions for the admin inbox.
type ContactService struct {
	messages sqlite.MessageRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewContactService creates the contact submission service.
func NewContactService(messages sqlite.MessageRepository, logger *zap.Logger) *ContactService {
	return &ContactService{
		messages: messages,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit validates and stores one submission.
func (s *ContactService) Submit(ctx context.Context, req *ContactRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Message:   strings.TrimSpace(req.Message),
		CreatedAt: s.now().UTC(),
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("submit contact message: %w", err)
	}

	s.logger.Info("contact message stored", util.String("message_id", msg.ID))
	return msg, nil
}

// List returns all messages, newest first.
func (s *ContactService) List(ctx context.Context) ([]models.Message, error) {
	return s.messages.List(ctx)
}

// SetRead flips a message's read flag.
func (s *ContactService) SetRead(ctx context.Context, id string, read bool) (*models.Message, error) {
	return s.messages.SetRead(ctx, id, read)
}

// Delete removes a message.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	return s.messages.Delete(ctx, id)
}
