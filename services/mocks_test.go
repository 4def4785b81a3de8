package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/upb/portfolio-backend/models"
	"github.com/upb/portfolio-backend/repositories"
	"github.com/upb/portfolio-backend/tokens"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	args := m.Called(ctx, id, name)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMessageRepository is a mock implementation of MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) List(ctx context.Context) ([]*models.Message, error) {
	args := m.Called(ctx)
	if l := args.Get(0); l != nil {
		return l.([]*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	args := m.Called(ctx, id)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.MessageStatus) (*models.Message, error) {
	args := m.Called(ctx, id, status)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTokenIssuer is a mock implementation of TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(subject tokens.Subject) (*tokens.TokenPair, error) {
	args := m.Called(subject)
	if p := args.Get(0); p != nil {
		return p.(*tokens.TokenPair), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenIssuer) Rotate(refreshToken string) (*tokens.AccessToken, error) {
	args := m.Called(refreshToken)
	if a := args.Get(0); a != nil {
		return a.(*tokens.AccessToken), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockLimiter is a mock implementation of ratelimit.LoginLimiter
type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Check(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockLimiter) RecordFailure(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockLimiter) Reset(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

var _ repositories.UserRepository = (*MockUserRepository)(nil)
var _ repositories.MessageRepository = (*MockMessageRepository)(nil)
