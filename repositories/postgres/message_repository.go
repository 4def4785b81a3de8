package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/upb/portfolio-backend/models"
	"github.com/upb/portfolio-backend/repositories"
	"go.uber.org/zap"
)

const messageColumns = `id, full_name, email, phone, message, status, created_at, updated_at`

// MessageRepository implements the repositories.MessageRepository interface
type MessageRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *DB, logger *zap.Logger) repositories.MessageRepository {
	return &MessageRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new message
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, full_name, email, phone, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		msg.ID,
		msg.FullName,
		msg.Email,
		msg.Phone,
		msg.Message,
		msg.Status,
		msg.CreatedAt,
		msg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	r.logger.Debug("message created", zap.String("id", msg.ID.String()))
	return nil
}

// List retrieves all messages, oldest first
func (r *MessageRepository) List(ctx context.Context) ([]*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages ORDER BY created_at ASC`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	msg, err := scanMessage(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// UpdateStatus changes the status of a message
func (r *MessageRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.MessageStatus) (*models.Message, error) {
	query := `
		UPDATE messages
		SET status = $2,
		    updated_at = $3
		WHERE id = $1
		RETURNING ` + messageColumns

	executor := GetExecutor(ctx, r.db)
	msg, err := scanMessage(executor.QueryRowContext(ctx, query, id, status, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update message status: %w", err)
	}

	r.logger.Debug("message status updated",
		zap.String("id", id.String()),
		zap.String("status", string(status)))
	return msg, nil
}

// Delete deletes a message
func (r *MessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM messages WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	if err := expectOneRow(result); err != nil {
		return err
	}

	r.logger.Debug("message deleted", zap.String("id", id.String()))
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner) (*models.Message, error) {
	msg := &models.Message{}
	var phone sql.NullString
	err := row.Scan(
		&msg.ID,
		&msg.FullName,
		&msg.Email,
		&phone,
		&msg.Message,
		&msg.Status,
		&msg.CreatedAt,
		&msg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		msg.Phone = &phone.String
	}
	return msg, nil
}
