package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/portfolio-backend/auth"
	"github.com/upb/portfolio-backend/internal/observability"
	"github.com/upb/portfolio-backend/models"
	"github.com/upb/portfolio-backend/repositories"
	"go.uber.org/zap"
)

// AccountService lets an authenticated user manage their own account
type AccountService struct {
	users  repositories.UserRepository
	hasher PasswordHasher
	logger *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(users repositories.UserRepository, hasher PasswordHasher, logger *zap.Logger) *AccountService {
	return &AccountService{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

// Get returns the public view of the account
func (s *AccountService) Get(ctx context.Context, userID string) (*models.Account, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	account := user.Account()
	return &account, nil
}

// UpdateInfo changes the display name
func (s *AccountService) UpdateInfo(ctx context.Context, userID, name string) (*models.Account, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UpdateName(ctx, id, name)
	if err != nil {
		return nil, userError(err)
	}

	observability.Audit(s.logger, "account_info_updated", userID, "user")
	account := user.Account()
	return &account, nil
}

// UpdatePassword replaces the password after checking the current one
func (s *AccountService) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.checkPassword(user, oldPassword, ErrWrongOldPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return wrap(ErrInternal, err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return userError(err)
	}

	observability.Audit(s.logger, "password_changed", userID, "user")
	return nil
}

// Delete removes the account after checking the password
func (s *AccountService) Delete(ctx context.Context, userID, password string) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.checkPassword(user, password, ErrWrongPassword); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return userError(err)
	}

	observability.Audit(s.logger, "account_deleted", userID, "user")
	return nil
}

func (s *AccountService) load(ctx context.Context, userID string) (*models.User, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, userError(err)
	}
	return user, nil
}

func (s *AccountService) checkPassword(user *models.User, password string, mismatch *DomainError) error {
	err := s.hasher.Compare(user.PasswordHash, password)
	if err == nil {
		return nil
	}
	if errors.Is(err, auth.ErrPasswordMismatch) {
		observability.Security(s.logger, "password check failed", zap.String("user_id", user.ID.String()))
		return mismatch
	}
	return wrap(ErrInternal, err)
}

// parseUserID treats an unparseable subject as an unknown user.
func parseUserID(userID string) (uuid.UUID, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, wrap(ErrUserNotFound, err)
	}
	return id, nil
}

func userError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrUserNotFound
	}
	return wrap(ErrInternal, err)
}
