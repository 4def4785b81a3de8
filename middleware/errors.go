package middleware

import (
	"fmt"
	"net/http"

	"github.com/upb/portfolio-backend/tokens"
)

// Reason tags why a request was refused authentication.
type Reason uint8

const (
	ReasonInternal Reason = iota
	ReasonMissingCredentials
	ReasonMalformedHeader
	ReasonInvalidToken
	ReasonInvalidSignature
	ReasonTokenNotActive
	ReasonIncompleteClaims
	ReasonIssuerMismatch
	ReasonAudienceMismatch
	ReasonWrongTokenType
	ReasonTokenExpired
	ReasonTokenFromFuture
	ReasonInvalidTokenID
)

// AuthError is a rejection produced by the authentication pipeline. It
// carries everything needed to answer the client.
type AuthError struct {
	Reason  Reason
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches any *AuthError with the same Reason.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return e.Reason == t.Reason
}

func (e *AuthError) withCause(err error) *AuthError {
	c := *e
	c.Err = err
	return &c
}

var (
	ErrMissingCredentials = &AuthError{ReasonMissingCredentials, http.StatusUnauthorized, "missing_credentials", "Access token required", nil}
	ErrMalformedHeader    = &AuthError{ReasonMalformedHeader, http.StatusUnauthorized, "malformed_header", "Format should be: Bearer <token>", nil}
	ErrInvalidToken       = &AuthError{ReasonInvalidToken, http.StatusForbidden, "invalid_token", "Token is malformed or invalid", nil}
	ErrInvalidSignature   = &AuthError{ReasonInvalidSignature, http.StatusForbidden, "invalid_signature", "Token signature verification failed", nil}
	ErrTokenNotActive     = &AuthError{ReasonTokenNotActive, http.StatusForbidden, "token_not_active", "Token is not active yet", nil}
	ErrIncompleteClaims   = &AuthError{ReasonIncompleteClaims, http.StatusForbidden, "incomplete_claims", "Token is missing required fields", nil}
	ErrIssuerMismatch     = &AuthError{ReasonIssuerMismatch, http.StatusForbidden, "issuer_mismatch", "Token issuer mismatch", nil}
	ErrAudienceMismatch   = &AuthError{ReasonAudienceMismatch, http.StatusForbidden, "audience_mismatch", "Token audience mismatch", nil}
	ErrWrongTokenType     = &AuthError{ReasonWrongTokenType, http.StatusForbidden, "wrong_token_type", "Expected access token", nil}
	ErrTokenExpired       = &AuthError{ReasonTokenExpired, http.StatusUnauthorized, "token_expired", "Access token has expired", nil}
	ErrTokenFromFuture    = &AuthError{ReasonTokenFromFuture, http.StatusForbidden, "token_from_future", "Token issued in the future", nil}
	ErrInvalidTokenID     = &AuthError{ReasonInvalidTokenID, http.StatusForbidden, "invalid_token_id", "Token ID is missing or invalid", nil}
	ErrAuthInternal       = &AuthError{ReasonInternal, http.StatusInternalServerError, "internal_error", "Authentication process failed", nil}
)

// mapVerifyError translates a token service failure into a rejection.
// Untagged and configuration failures become ErrAuthInternal.
func mapVerifyError(err error) *AuthError {
	var rejection *AuthError
	switch tokens.KindOf(err) {
	case tokens.KindExpired:
		rejection = ErrTokenExpired
	case tokens.KindMalformed:
		rejection = ErrInvalidToken
	case tokens.KindInvalidSignature:
		rejection = ErrInvalidSignature
	case tokens.KindInvalidIssuer:
		rejection = ErrIssuerMismatch
	case tokens.KindInvalidAudience:
		rejection = ErrAudienceMismatch
	case tokens.KindTypeMismatch:
		rejection = ErrWrongTokenType
	case tokens.KindIncompleteClaims:
		rejection = ErrIncompleteClaims
	case tokens.KindNotActive:
		rejection = ErrTokenNotActive
	case tokens.KindIssuedInFuture:
		rejection = ErrTokenFromFuture
	default:
		rejection = ErrAuthInternal
	}
	return rejection.withCause(err)
}
