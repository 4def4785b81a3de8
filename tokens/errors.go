package tokens

import (
	"errors"
	"fmt"
)

// Kind tags a token failure so callers can branch without inspecting messages.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindMalformed
	KindInvalidSignature
	KindInvalidIssuer
	KindInvalidAudience
	KindExpired
	KindNotActive
	KindTypeMismatch
	KindIncompleteClaims
	KindIssuedInFuture
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindConfiguration:    "configuration",
	KindMalformed:        "malformed_token",
	KindInvalidSignature: "invalid_signature",
	KindInvalidIssuer:    "invalid_issuer",
	KindInvalidAudience:  "invalid_audience",
	KindExpired:          "token_expired",
	KindNotActive:        "token_not_active",
	KindTypeMismatch:     "token_type_mismatch",
	KindIncompleteClaims: "incomplete_claims",
	KindIssuedInFuture:   "token_from_future",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error is returned by every Service operation that fails on token grounds.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrConfiguration     = &Error{Kind: KindConfiguration, Msg: "token service misconfigured"}
	ErrMalformedToken    = &Error{Kind: KindMalformed, Msg: "malformed token"}
	ErrInvalidSignature  = &Error{Kind: KindInvalidSignature, Msg: "invalid token signature"}
	ErrInvalidIssuer     = &Error{Kind: KindInvalidIssuer, Msg: "invalid token issuer"}
	ErrInvalidAudience   = &Error{Kind: KindInvalidAudience, Msg: "invalid token audience"}
	ErrTokenExpired      = &Error{Kind: KindExpired, Msg: "token has expired"}
	ErrTokenNotActive    = &Error{Kind: KindNotActive, Msg: "token not active yet"}
	ErrTokenTypeMismatch = &Error{Kind: KindTypeMismatch, Msg: "token type mismatch"}
	ErrIncompleteClaims  = &Error{Kind: KindIncompleteClaims, Msg: "token is missing required claims"}
	ErrTokenFromFuture   = &Error{Kind: KindIssuedInFuture, Msg: "token issued in the future"}
)

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the tag of a token error, or KindUnknown for anything else.
func KindOf(err error) Kind {
	var tokenErr *Error
	if errors.As(err, &tokenErr) {
		return tokenErr.Kind
	}
	return KindUnknown
}
