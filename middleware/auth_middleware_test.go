package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/portfolio-backend/tokens"
	"github.com/upb/portfolio-backend/utils"
	"go.uber.org/zap"
)

const (
	testIssuer   = "test-issuer"
	testAudience = "test-audience"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// MockTokenVerifier is a mock implementation of TokenVerifier
type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) Verify(token string, expected tokens.Type) (*tokens.Claims, error) {
	args := m.Called(token, expected)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tokens.Claims), args.Error(1)
}

type panickingVerifier struct{}

func (panickingVerifier) Verify(string, tokens.Type) (*tokens.Claims, error) {
	panic("boom")
}

func newTestMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return NewAuthMiddleware(verifier, AuthConfig{
		Issuer:   testIssuer,
		Audience: testAudience,
		Now:      func() time.Time { return testNow },
	}, zap.NewNop())
}

func validClaims() *tokens.Claims {
	return &tokens.Claims{
		UserID: "u1",
		Type:   tokens.TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			IssuedAt:  jwt.NewNumericDate(testNow.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(testNow.Add(14 * time.Minute)),
		},
	}
}

func serve(t *testing.T, m *AuthMiddleware, header string) (*httptest.ResponseRecorder, *TokenContext) {
	t.Helper()
	var seen *TokenContext
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetTokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, seen
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestRequireAuth(t *testing.T) {
	t.Run("valid token attaches the trusted subset", func(t *testing.T) {
		verifier := new(MockTokenVerifier)
		verifier.On("Verify", "good-token", tokens.TypeAccess).Return(validClaims(), nil)

		w, token := serve(t, newTestMiddleware(verifier), "Bearer good-token")

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, token)
		assert.Equal(t, "u1", token.ID)
		assert.Equal(t, "jti-1", token.JTI)
		assert.Equal(t, testNow.Add(-time.Minute).Unix(), token.IssuedAt)
		assert.Equal(t, testNow.Add(14*time.Minute).Unix(), token.ExpiresAt)
		verifier.AssertExpectations(t)
	})

	t.Run("missing header returns 401", func(t *testing.T) {
		verifier := new(MockTokenVerifier)

		w, token := serve(t, newTestMiddleware(verifier), "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, token)
		assert.Equal(t, "missing_credentials", decodeError(t, w).Error)
		verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})

	headerCases := []struct {
		name   string
		header string
	}{
		{"wrong scheme", "Token abc.def.ghi"},
		{"lowercase scheme", "bearer abc.def.ghi"},
		{"no separator", "Bearerabc.def.ghi"},
		{"too many parts", "Bearer abc def"},
		{"empty token", "Bearer "},
		{"double space", "Bearer  abc"},
	}
	for _, tc := range headerCases {
		t.Run("malformed header: "+tc.name, func(t *testing.T) {
			verifier := new(MockTokenVerifier)

			w, _ := serve(t, newTestMiddleware(verifier), tc.header)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, "malformed_header", body.Error)
			assert.Equal(t, "Format should be: Bearer <token>", body.Message)
			verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
		})
	}

	verifyCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"expired", tokens.ErrTokenExpired, http.StatusUnauthorized, "token_expired"},
		{"malformed", tokens.ErrMalformedToken, http.StatusForbidden, "invalid_token"},
		{"bad signature", tokens.ErrInvalidSignature, http.StatusForbidden, "invalid_signature"},
		{"issuer", tokens.ErrInvalidIssuer, http.StatusForbidden, "issuer_mismatch"},
		{"audience", tokens.ErrInvalidAudience, http.StatusForbidden, "audience_mismatch"},
		{"type", tokens.ErrTokenTypeMismatch, http.StatusForbidden, "wrong_token_type"},
		{"incomplete", tokens.ErrIncompleteClaims, http.StatusForbidden, "incomplete_claims"},
		{"not active", tokens.ErrTokenNotActive, http.StatusForbidden, "token_not_active"},
		{"issued in the future", tokens.ErrTokenFromFuture, http.StatusForbidden, "token_from_future"},
		{"configuration", tokens.ErrConfiguration, http.StatusInternalServerError, "internal_error"},
		{"untagged", errors.New("database on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range verifyCases {
		t.Run("verify failure: "+tc.name, func(t *testing.T) {
			verifier := new(MockTokenVerifier)
			verifier.On("Verify", "tok", tokens.TypeAccess).Return(nil, tc.err)

			w, token := serve(t, newTestMiddleware(verifier), "Bearer tok")

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Nil(t, token)
			body := decodeError(t, w)
			assert.Equal(t, tc.wantCode, body.Error)
			assert.NotContains(t, body.Message, "database on fire")
			verifier.AssertExpectations(t)
		})
	}

	t.Run("panic in the pipeline returns a generic 500", func(t *testing.T) {
		w, _ := serve(t, newTestMiddleware(panickingVerifier{}), "Bearer tok")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Authentication process failed", decodeError(t, w).Message)
	})
}

func TestAuthenticate_ClaimChecks(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*tokens.Claims)
		want       *AuthError
		wantStatus int
	}{
		{"missing id", func(c *tokens.Claims) { c.UserID = "" }, ErrIncompleteClaims, http.StatusForbidden},
		{"missing type", func(c *tokens.Claims) { c.Type = "" }, ErrIncompleteClaims, http.StatusForbidden},
		{"missing jti", func(c *tokens.Claims) { c.ID = "" }, ErrIncompleteClaims, http.StatusForbidden},
		{"missing exp", func(c *tokens.Claims) { c.ExpiresAt = nil }, ErrIncompleteClaims, http.StatusForbidden},
		{"missing iat", func(c *tokens.Claims) { c.IssuedAt = nil }, ErrIncompleteClaims, http.StatusForbidden},
		{"missing aud", func(c *tokens.Claims) { c.Audience = nil }, ErrIncompleteClaims, http.StatusForbidden},
		{"foreign issuer", func(c *tokens.Claims) { c.Issuer = "other" }, ErrIssuerMismatch, http.StatusForbidden},
		{"foreign audience", func(c *tokens.Claims) { c.Audience = jwt.ClaimStrings{"other"} }, ErrAudienceMismatch, http.StatusForbidden},
		{"extra audience", func(c *tokens.Claims) { c.Audience = append(c.Audience, "other") }, ErrAudienceMismatch, http.StatusForbidden},
		{"refresh type", func(c *tokens.Claims) { c.Type = tokens.TypeRefresh }, ErrWrongTokenType, http.StatusForbidden},
		{"expires now", func(c *tokens.Claims) { c.ExpiresAt = jwt.NewNumericDate(testNow) }, ErrTokenExpired, http.StatusUnauthorized},
		{"expired", func(c *tokens.Claims) { c.ExpiresAt = jwt.NewNumericDate(testNow.Add(-time.Hour)) }, ErrTokenExpired, http.StatusUnauthorized},
		{"issued in the future", func(c *tokens.Claims) { c.IssuedAt = jwt.NewNumericDate(testNow.Add(time.Second)) }, ErrTokenFromFuture, http.StatusForbidden},
		{"blank jti", func(c *tokens.Claims) { c.ID = "   " }, ErrInvalidTokenID, http.StatusForbidden},
		{"issuer checked before type", func(c *tokens.Claims) {
			c.Issuer = "other"
			c.Type = tokens.TypeRefresh
		}, ErrIssuerMismatch, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validClaims()
			tt.mutate(claims)
			verifier := new(MockTokenVerifier)
			verifier.On("Verify", "tok", tokens.TypeAccess).Return(claims, nil)
			m := newTestMiddleware(verifier)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer tok")
			token, err := m.Authenticate(req)

			assert.Nil(t, token)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var rejection *AuthError
			require.True(t, errors.As(err, &rejection))
			assert.Equal(t, tt.wantStatus, rejection.Status)
		})
	}

	t.Run("issued exactly now is accepted", func(t *testing.T) {
		claims := validClaims()
		claims.IssuedAt = jwt.NewNumericDate(testNow)
		verifier := new(MockTokenVerifier)
		verifier.On("Verify", "tok", tokens.TypeAccess).Return(claims, nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		token, err := newTestMiddleware(verifier).Authenticate(req)

		require.NoError(t, err)
		assert.Equal(t, testNow.Unix(), token.IssuedAt)
	})
}

func TestRequireAuth_WithTokenService(t *testing.T) {
	svc := tokens.NewService(tokens.Config{
		AccessSecret:  "access-secret-0123456789-abcdefghij",
		RefreshSecret: "refresh-secret-0123456789-abcdefghij",
		Issuer:        testIssuer,
		Audience:      testAudience,
	}, tokens.WithClock(func() time.Time { return testNow }))
	m := newTestMiddleware(svc)

	pair, err := svc.Issue(tokens.Subject{ID: "u1"})
	require.NoError(t, err)

	t.Run("issued access token passes", func(t *testing.T) {
		w, token := serve(t, m, "Bearer "+pair.AccessToken)
		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, token)
		assert.Equal(t, "u1", token.ID)
		assert.Equal(t, int64(900), token.ExpiresAt-token.IssuedAt)
	})

	t.Run("refresh token is refused", func(t *testing.T) {
		w, _ := serve(t, m, "Bearer "+pair.RefreshToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "wrong_token_type", decodeError(t, w).Error)
	})

	t.Run("token without type claim is incomplete", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"id":  "u1",
			"jti": "abc",
			"iss": testIssuer,
			"aud": testAudience,
			"iat": testNow.Unix(),
			"exp": testNow.Add(time.Minute).Unix(),
		}).SignedString([]byte("access-secret-0123456789-abcdefghij"))
		require.NoError(t, err)

		w, _ := serve(t, m, "Bearer "+raw)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "incomplete_claims", decodeError(t, w).Error)
	})

	t.Run("expired access token", func(t *testing.T) {
		later := tokens.NewService(tokens.Config{
			AccessSecret:  "access-secret-0123456789-abcdefghij",
			RefreshSecret: "refresh-secret-0123456789-abcdefghij",
			Issuer:        testIssuer,
			Audience:      testAudience,
		}, tokens.WithClock(func() time.Time { return testNow.Add(time.Hour) }))

		w, _ := serve(t, newTestMiddleware(later), "Bearer "+pair.AccessToken)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "token_expired", decodeError(t, w).Error)
	})
}

func TestGetUserIDFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetUserIDFromContext(req.Context()))

	ctx := WithToken(req.Context(), &TokenContext{ID: "u1"})
	assert.Equal(t, "u1", GetUserIDFromContext(ctx))
}
