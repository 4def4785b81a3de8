package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Context key type to avoid collisions
type contextKey string

// TokenKey is the context key for the authenticated token subset
const TokenKey contextKey = "token"

// TokenContext is the trusted subset of access-token claims made available
// to handlers once authentication succeeds. Times are epoch seconds.
type TokenContext struct {
	ID        string `json:"id"`
	JTI       string `json:"jti"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// GetRequestIDFromContext returns the id assigned by chi's RequestID middleware.
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// GetTokenFromContext retrieves the authenticated token from context
func GetTokenFromContext(ctx context.Context) *TokenContext {
	if val := ctx.Value(TokenKey); val != nil {
		if token, ok := val.(*TokenContext); ok {
			return token
		}
	}
	return nil
}

// WithToken adds the authenticated token to the context
func WithToken(ctx context.Context, token *TokenContext) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}

// GetUserIDFromContext returns the authenticated subject id, or "" when the
// request is anonymous.
func GetUserIDFromContext(ctx context.Context) string {
	if token := GetTokenFromContext(ctx); token != nil {
		return token.ID
	}
	return ""
}
