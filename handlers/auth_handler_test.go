package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/portfolio-backend/auth"
	"github.com/upb/portfolio-backend/models"
	"github.com/upb/portfolio-backend/services"
	"github.com/upb/portfolio-backend/tokens"
	"go.uber.org/zap"
)

func newAuthHandler() (*AuthHandler, *MockAuthService) {
	svc := new(MockAuthService)
	cookies := auth.NewCookieManager(auth.NewCookieOptions(false, ""))
	return NewAuthHandler(svc, cookies, zap.NewNop()), svc
}

func responseCookies(w *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range w.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestHandleRegister(t *testing.T) {
	t.Run("creates the user", func(t *testing.T) {
		handler, svc := newAuthHandler()
		user := models.NewUser("Jane Doe", "jane@example.com", "hash")
		user.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		svc.On("Register", mock.Anything, services.RegisterInput{
			Name: "Jane Doe", Email: "jane@example.com", Password: "secret123",
		}).Return(user, nil)

		w := httptest.NewRecorder()
		handler.HandleRegister(w, jsonRequest(http.MethodPost, "/auth/register",
			`{"name":"Jane Doe","email":"jane@example.com","password":"secret123","confirm_password":"secret123"}`))

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w)
		assert.Equal(t, "create user success", env.Message)

		var data map[string]interface{}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, user.ID.String(), data["id"])
		assert.Equal(t, "2026-03-01T12:00:00Z", data["created_at"])
		assert.NotContains(t, string(env.Data), "hash")
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		handler, svc := newAuthHandler()

		w := httptest.NewRecorder()
		handler.HandleRegister(w, jsonRequest(http.MethodPost, "/auth/register",
			`{"name":"Jane Doe","email":"jane@example.com","password":"secret123","confirm_password":"secret124"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w)
		assert.Equal(t, "confirm_password must match password", env.Details["confirm_password"])
		svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("duplicate email", func(t *testing.T) {
		handler, svc := newAuthHandler()
		svc.On("Register", mock.Anything, mock.Anything).Return(nil, services.ErrDuplicateEmail)

		w := httptest.NewRecorder()
		handler.HandleRegister(w, jsonRequest(http.MethodPost, "/auth/register",
			`{"name":"Jane Doe","email":"jane@example.com","password":"secret123","confirm_password":"secret123"}`))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "email already exists", decodeEnvelope(t, w).Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		handler, _ := newAuthHandler()

		w := httptest.NewRecorder()
		handler.HandleRegister(w, jsonRequest(http.MethodPost, "/auth/register", `{"name":`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleLogin(t *testing.T) {
	pair := &tokens.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: "15m"}

	t.Run("sets session cookies and returns the pair", func(t *testing.T) {
		handler, svc := newAuthHandler()
		svc.On("Login", mock.Anything, services.LoginInput{
			Email: "jane@example.com", Password: "secret123", ClientIP: "192.0.2.1",
		}).Return(pair, nil)

		w := httptest.NewRecorder()
		handler.HandleLogin(w, jsonRequest(http.MethodPost, "/auth/login",
			`{"email":"jane@example.com","password":"secret123"}`))

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w)
		assert.Equal(t, "login success", env.Message)
		assert.JSONEq(t, `{"access_token":"access","refresh_token":"refresh","expires_in":"15m"}`, string(env.Data))

		cookies := responseCookies(w)
		require.Contains(t, cookies, auth.RefreshCookieName)
		assert.Equal(t, "refresh", cookies[auth.RefreshCookieName].Value)
		assert.True(t, cookies[auth.RefreshCookieName].HttpOnly)
		require.Contains(t, cookies, auth.AuthenticatedCookieName)
		assert.Equal(t, "true", cookies[auth.AuthenticatedCookieName].Value)
	})

	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"unknown email", services.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{"wrong password", services.ErrInvalidPassword, http.StatusUnauthorized, "invalid password"},
		{"throttled", services.ErrTooManyAttempts, http.StatusTooManyRequests, "too many failed login attempts, try again later"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler, svc := newAuthHandler()
			svc.On("Login", mock.Anything, mock.Anything).Return(nil, tc.err)

			w := httptest.NewRecorder()
			handler.HandleLogin(w, jsonRequest(http.MethodPost, "/auth/login",
				`{"email":"jane@example.com","password":"secret123"}`))

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.msg, decodeEnvelope(t, w).Message)
			assert.Empty(t, w.Result().Cookies())
		})
	}

	t.Run("short password is rejected before login", func(t *testing.T) {
		handler, svc := newAuthHandler()

		w := httptest.NewRecorder()
		handler.HandleLogin(w, jsonRequest(http.MethodPost, "/auth/login",
			`{"email":"jane@example.com","password":"123"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})
}

func TestHandleRefresh(t *testing.T) {
	access := &tokens.AccessToken{AccessToken: "new-access", ExpiresIn: "15m"}

	t.Run("reads the cookie", func(t *testing.T) {
		handler, svc := newAuthHandler()
		svc.On("Refresh", mock.Anything, "from-cookie").Return(access, nil)

		req := jsonRequest(http.MethodPost, "/auth/token", "")
		req.AddCookie(&http.Cookie{Name: auth.RefreshCookieName, Value: "from-cookie"})
		w := httptest.NewRecorder()
		handler.HandleRefresh(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w)
		assert.Equal(t, "refresh token success", env.Message)
		assert.JSONEq(t, `{"access_token":"new-access","expires_in":"15m"}`, string(env.Data))
	})

	t.Run("falls back to the body", func(t *testing.T) {
		handler, svc := newAuthHandler()
		svc.On("Refresh", mock.Anything, "from-body").Return(access, nil)

		w := httptest.NewRecorder()
		handler.HandleRefresh(w, jsonRequest(http.MethodPost, "/auth/token", `{"refresh_token":"from-body"}`))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		handler, svc := newAuthHandler()
		svc.On("Refresh", mock.Anything, "").Return(nil, services.ErrMissingRefreshKey)

		w := httptest.NewRecorder()
		handler.HandleRefresh(w, jsonRequest(http.MethodPost, "/auth/token", ""))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "refresh token is required", decodeEnvelope(t, w).Message)
	})

	t.Run("rejected token", func(t *testing.T) {
		handler, svc := newAuthHandler()
		svc.On("Refresh", mock.Anything, "forged").Return(nil, services.ErrInvalidToken)

		w := httptest.NewRecorder()
		handler.HandleRefresh(w, jsonRequest(http.MethodPost, "/auth/token", `{"refresh_token":"forged"}`))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid refresh token", decodeEnvelope(t, w).Message)
	})
}

func TestHandleLogout(t *testing.T) {
	handler, _ := newAuthHandler()

	w := httptest.NewRecorder()
	handler.HandleLogout(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "logout success", decodeEnvelope(t, w).Message)

	cookies := responseCookies(w)
	require.Contains(t, cookies, auth.RefreshCookieName)
	assert.Equal(t, -1, cookies[auth.RefreshCookieName].MaxAge)
	require.Contains(t, cookies, auth.AuthenticatedCookieName)
	assert.Equal(t, -1, cookies[auth.AuthenticatedCookieName].MaxAge)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	assert.Equal(t, "203.0.113.7", clientIP(req))

	req.RemoteAddr = "203.0.113.7"
	assert.Equal(t, "203.0.113.7", clientIP(req))
}
