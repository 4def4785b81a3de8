package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/upb/portfolio-backend/internal/observability"
	"github.com/upb/portfolio-backend/tokens"
	"github.com/upb/portfolio-backend/utils"
	"go.uber.org/zap"
)

// TokenVerifier defines the interface for verifying signed tokens
type TokenVerifier interface {
	Verify(token string, expected tokens.Type) (*tokens.Claims, error)
}

// AuthConfig pins the values every access token must carry.
type AuthConfig struct {
	Issuer   string
	Audience string
	Now      func() time.Time
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	verifier TokenVerifier
	cfg      AuthConfig
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier TokenVerifier, cfg AuthConfig, logger *zap.Logger) *AuthMiddleware {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AuthMiddleware{
		verifier: verifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// RequireAuth is a middleware that requires a valid access token in the
// Authorization header.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token, err := m.authenticate(r)
		if err != nil {
			var rejection *AuthError
			if !errors.As(err, &rejection) {
				rejection = ErrAuthInternal.withCause(err)
			}
			m.reject(w, r, requestID, rejection)
			return
		}

		m.logger.Debug("access granted",
			zap.String("request_id", requestID),
			zap.String("user_id", token.ID),
			zap.String("jti", token.JTI))

		next.ServeHTTP(w, r.WithContext(WithToken(ctx, token)))
	})
}

// authenticate runs Authenticate and turns a panic anywhere in the pipeline
// into an internal rejection.
func (m *AuthMiddleware) authenticate(r *http.Request) (token *TokenContext, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			token = nil
			err = ErrAuthInternal.withCause(fmt.Errorf("panic: %v", rec))
		}
	}()
	return m.Authenticate(r)
}

// Authenticate validates the bearer token of r. Checks run in a fixed order
// and stop at the first failure, which is returned as an *AuthError.
func (m *AuthMiddleware) Authenticate(r *http.Request) (*TokenContext, error) {
	// 1. header presence
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrMissingCredentials
	}

	// 2. header format
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, ErrMalformedHeader
	}
	raw := parts[1]
	if raw == "" {
		return nil, ErrMalformedHeader.withCause(errors.New("empty bearer token"))
	}

	// 3. signature and claims verification
	claims, err := m.verifier.Verify(raw, tokens.TypeAccess)
	if err != nil {
		return nil, mapVerifyError(err)
	}
	if claims == nil {
		return nil, ErrAuthInternal.withCause(errors.New("verifier returned no claims"))
	}

	// 4. required fields
	if missing := claims.MissingClaims(); len(missing) > 0 {
		return nil, ErrIncompleteClaims.withCause(fmt.Errorf("missing: %s", strings.Join(missing, ", ")))
	}

	// 5. issuer
	if claims.Issuer != m.cfg.Issuer {
		return nil, ErrIssuerMismatch
	}

	// 6. audience
	if len(claims.Audience) != 1 || claims.Audience[0] != m.cfg.Audience {
		return nil, ErrAudienceMismatch
	}

	// 7. type
	if claims.Type != tokens.TypeAccess {
		return nil, ErrWrongTokenType
	}

	now := m.cfg.Now().Unix()

	// 8. expiry
	if claims.ExpiresAt.Unix() <= now {
		return nil, ErrTokenExpired
	}

	// 9. issued in the future
	if claims.IssuedAt.Unix() > now {
		return nil, ErrTokenFromFuture
	}

	// 10. jti
	if strings.TrimSpace(claims.ID) == "" {
		return nil, ErrInvalidTokenID
	}

	// 11. success
	return &TokenContext{
		ID:        claims.UserID,
		JTI:       claims.ID,
		IssuedAt:  claims.IssuedAt.Unix(),
		ExpiresAt: claims.ExpiresAt.Unix(),
	}, nil
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, requestID string, rejection *AuthError) {
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("reason", rejection.Code),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_addr", r.RemoteAddr),
	}
	if rejection.Err != nil {
		fields = append(fields, zap.Error(rejection.Err))
	}

	if rejection.Reason == ReasonInternal {
		m.logger.Error("authentication failed", fields...)
	} else {
		observability.Security(m.logger, "authentication rejected", fields...)
	}

	_ = utils.WriteJSON(w, rejection.Status, utils.ErrorResponse{
		Error:   rejection.Code,
		Message: rejection.Message,
	})
}
