package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/portfolio-backend/middleware"
	"github.com/upb/portfolio-backend/models"
	"github.com/upb/portfolio-backend/services"
	"github.com/upb/portfolio-backend/tokens"
)

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, in)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, in services.LoginInput) (*tokens.TokenPair, error) {
	args := m.Called(ctx, in)
	if p := args.Get(0); p != nil {
		return p.(*tokens.TokenPair), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*tokens.AccessToken, error) {
	args := m.Called(ctx, refreshToken)
	if a := args.Get(0); a != nil {
		return a.(*tokens.AccessToken), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAccountService is a mock implementation of AccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Get(ctx context.Context, userID string) (*models.Account, error) {
	args := m.Called(ctx, userID)
	if a := args.Get(0); a != nil {
		return a.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) UpdateInfo(ctx context.Context, userID, name string) (*models.Account, error) {
	args := m.Called(ctx, userID, name)
	if a := args.Get(0); a != nil {
		return a.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	return m.Called(ctx, userID, oldPassword, newPassword).Error(0)
}

func (m *MockAccountService) Delete(ctx context.Context, userID, password string) error {
	return m.Called(ctx, userID, password).Error(0)
}

// MockMessageService is a mock implementation of MessageService
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) Send(ctx context.Context, in services.SendMessageInput) (*models.Message, error) {
	args := m.Called(ctx, in)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageService) List(ctx context.Context) (*models.MessageInbox, error) {
	args := m.Called(ctx)
	if inbox := args.Get(0); inbox != nil {
		return inbox.(*models.MessageInbox), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageService) Get(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	args := m.Called(ctx, id)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageService) UpdateStatus(ctx context.Context, actorID string, id uuid.UUID, status models.MessageStatus) (*models.Message, error) {
	args := m.Called(ctx, actorID, id, status)
	if msg := args.Get(0); msg != nil {
		return msg.(*models.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageService) Delete(ctx context.Context, actorID string, id uuid.UUID) error {
	return m.Called(ctx, actorID, id).Error(0)
}

// jsonRequest builds a request with a JSON body
func jsonRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// asUser attaches an authenticated token context like the auth middleware does
func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithToken(req.Context(), &middleware.TokenContext{ID: userID, JTI: "jti-1"}))
}

type envelope struct {
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return env
}
