package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/portfolio-backend/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint is violated
	ErrDuplicate = errors.New("duplicate record")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns a context carrying the transaction. Repository calls
	// made with it run inside the transaction.
	Context() context.Context
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create creates a new user, returning ErrDuplicate when the email is taken
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// ExistsByEmail reports whether an account uses the email
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateName changes the display name and returns the updated user
	UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.User, error)

	// UpdatePassword replaces the stored password hash
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// Delete deletes a user
	Delete(ctx context.Context, id uuid.UUID) error
}

// MessageRepository handles contact message data operations
type MessageRepository interface {
	// Create stores a new message
	Create(ctx context.Context, msg *models.Message) error

	// List retrieves all messages, oldest first
	List(ctx context.Context) ([]*models.Message, error)

	// GetByID retrieves a message by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)

	// UpdateStatus changes the status of a message and returns it
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.MessageStatus) (*models.Message, error)

	// Delete deletes a message
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users    UserRepository
	Messages MessageRepository
}
