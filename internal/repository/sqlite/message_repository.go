package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"portfolio-backend/internal/models"
)

type messageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates the SQLite-backed contact message store.
func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, name, email, message, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		msg.ID,
		msg.Name,
		msg.Email,
		msg.Message,
		msg.Read,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *messageRepository) List(ctx context.Context) ([]models.Message, error) {
	var messages []models.Message
	query := `SELECT * FROM messages ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &messages, query); err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	return messages, nil
}

func (r *messageRepository) SetRead(ctx context.Context, id string, read bool) (*models.Message, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET read = ? WHERE id = ?`, read, id)
	if err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	var msg models.Message
	err = r.db.GetContext(ctx, &msg, `SELECT * FROM messages WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select message: %w", err)
	}
	return &msg, nil
}

func (r *messageRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
