package sqlite

import (
	"context"
	"errors"
	"time"

	"portfolio-backend/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// EventRepository persists the two append-only analytics logs. Rows are never
// mutated; they are inserted, scanned by time window, and purged.
type EventRepository interface {
	InsertPageView(ctx context.Context, view *models.PageView) error
	InsertSecurityEvent(ctx context.Context, event *models.SecurityEvent) error

	// PageViewsSince returns views with created_at >= since, oldest first.
	PageViewsSince(ctx context.Context, since time.Time) ([]models.PageView, error)
	// SecurityEventsSince returns events with created_at >= since, newest first.
	SecurityEventsSince(ctx context.Context, since time.Time) ([]models.SecurityEvent, error)

	DeletePageViewsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteSecurityEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// MessageRepository stores contact form submissions.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	List(ctx context.Context) ([]models.Message, error)
	SetRead(ctx context.Context, id string, read bool) (*models.Message, error)
	Delete(ctx context.Context, id string) error
}

// SettingRepository stores string-valued feature flags.
type SettingRepository interface {
	Upsert(ctx context.Context, key, value string) (*models.Setting, error)
	Get(ctx context.Context, key string) (*models.Setting, error)
	List(ctx context.Context) ([]models.Setting, error)
}

// UserRepository stores admin accounts.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}
