package client

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"portfolio-backend/internal/config"
	"portfolio-backend/internal/util"
)

const schema = `
CREATE TABLE IF NOT EXISTS page_views (
	id         TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	referrer   TEXT NOT NULL DEFAULT '',
	browser    TEXT NOT NULL DEFAULT '',
	os         TEXT NOT NULL DEFAULT '',
	device     TEXT NOT NULL DEFAULT 'desktop',
	ip_hash    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_page_views_created_at ON page_views(created_at);

CREATE TABLE IF NOT EXISTS security_events (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	ip         TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_security_events_created_at ON security_events(created_at);

CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	message    TEXT NOT NULL,
	read       BOOLEAN NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

// NewSQLiteDB opens (creating if needed) the SQLite database and applies the
// schema. The caller owns the returned handle.
func NewSQLiteDB(cfg *config.Config) (*sqlx.DB, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite", cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Single writer; WAL keeps readers unblocked during recording bursts.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	util.Info("SQLite database ready", util.String("path", cfg.Database.Path))
	return db, nil
}
