package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"portfolio-backend/internal/models"
)

type settingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository creates the SQLite-backed feature flag store.
func NewSettingRepository(db *sqlx.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) Upsert(ctx context.Context, key, value string) (*models.Setting, error) {
	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return nil, fmt.Errorf("upsert setting: %w", err)
	}
	return &models.Setting{Key: key, Value: value}, nil
}

func (r *settingRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	err := r.db.GetContext(ctx, &setting, `SELECT * FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select setting: %w", err)
	}
	return &setting, nil
}

func (r *settingRepository) List(ctx context.Context) ([]models.Setting, error) {
	var settings []models.Setting
	if err := r.db.SelectContext(ctx, &settings, `SELECT * FROM settings ORDER BY key`); err != nil {
		return nil, fmt.Errorf("select settings: %w", err)
	}
	return settings, nil
}
