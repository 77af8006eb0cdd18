package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"portfolio-backend/internal/models"
)

type eventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates the SQLite-backed event log.
func NewEventRepository(db *sqlx.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) InsertPageView(ctx context.Context, view *models.PageView) error {
	query := `
		INSERT INTO page_views (id, path, referrer, browser, os, device, ip_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		view.ID,
		view.Path,
		view.Referrer,
		view.Browser,
		view.OS,
		view.Device,
		view.IPHash,
		view.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert page view: %w", err)
	}
	return nil
}

func (r *eventRepository) InsertSecurityEvent(ctx context.Context, event *models.SecurityEvent) error {
	query := `
		INSERT INTO security_events (id, type, ip, detail, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Type,
		event.IP,
		event.Detail,
		event.UserAgent,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}

func (r *eventRepository) PageViewsSince(ctx context.Context, since time.Time) ([]models.PageView, error) {
	var views []models.PageView
	query := `SELECT * FROM page_views WHERE created_at >= ? ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &views, query, since); err != nil {
		return nil, fmt.Errorf("select page views: %w", err)
	}
	return views, nil
}

func (r *eventRepository) SecurityEventsSince(ctx context.Context, since time.Time) ([]models.SecurityEvent, error) {
	var events []models.SecurityEvent
	query := `SELECT * FROM security_events WHERE created_at >= ? ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &events, query, since); err != nil {
		return nil, fmt.Errorf("select security events: %w", err)
	}
	return events, nil
}

func (r *eventRepository) DeletePageViewsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM page_views WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete page views: %w", err)
	}
	return res.RowsAffected()
}

func (r *eventRepository) DeleteSecurityEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM security_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete security events: %w", err)
	}
	return res.RowsAffected()
}
