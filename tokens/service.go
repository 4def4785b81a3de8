// Package tokens issues, verifies and rotates the HS256 access and refresh
// tokens used for session authentication.
package tokens

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// MinSecretLength is the minimum length of each signing secret.
	MinSecretLength = 32

	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	jtiBytes = 16
)

var signingMethod = jwt.SigningMethodHS256

// Config is the immutable configuration of a Service.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Validate reports ErrConfiguration when the secrets are missing, too short or
// shared between token types, or when issuer or audience is unset.
func (c Config) Validate() error {
	switch {
	case c.AccessSecret == "" || c.RefreshSecret == "":
		return newError(KindConfiguration, "signing secrets are required", nil)
	case len(c.AccessSecret) < MinSecretLength:
		return newError(KindConfiguration, fmt.Sprintf("access secret must be at least %d characters long", MinSecretLength), nil)
	case len(c.RefreshSecret) < MinSecretLength:
		return newError(KindConfiguration, fmt.Sprintf("refresh secret must be at least %d characters long", MinSecretLength), nil)
	case c.AccessSecret == c.RefreshSecret:
		return newError(KindConfiguration, "access and refresh secrets must differ", nil)
	case c.Issuer == "" || c.Audience == "":
		return newError(KindConfiguration, "issuer and audience are required", nil)
	}
	return nil
}

func (c Config) secretFor(t Type) ([]byte, error) {
	switch t {
	case TypeAccess:
		return []byte(c.AccessSecret), nil
	case TypeRefresh:
		return []byte(c.RefreshSecret), nil
	default:
		return nil, newError(KindTypeMismatch, fmt.Sprintf("unsupported token type %q", t), nil)
	}
}

func (c Config) ttlFor(t Type) time.Duration {
	if t == TypeRefresh {
		return c.RefreshTTL
	}
	return c.AccessTTL
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithRandom replaces the source used for token ids.
func WithRandom(r io.Reader) Option {
	return func(s *Service) {
		s.random = r
	}
}

// Service signs and verifies tokens. It holds no mutable state and is safe
// for concurrent use.
type Service struct {
	cfg    Config
	now    func() time.Time
	random io.Reader
}

// NewService creates a Service. Configuration problems surface as
// ErrConfiguration on first use, not here.
func NewService(cfg Config, opts ...Option) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	s := &Service{
		cfg:    cfg,
		now:    time.Now,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue mints an access and a refresh token for the subject. Both share iat
// and carry distinct jti values.
func (s *Service) Issue(subject Subject) (*TokenPair, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	subject = subject.sanitized()
	if subject.ID == "" {
		return nil, newError(KindIncompleteClaims, "subject id is required", nil)
	}

	now := s.now()
	access, err := s.sign(subject, TypeAccess, now)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(subject, TypeRefresh, now)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    formatTTL(s.cfg.AccessTTL),
	}, nil
}

// Verify checks the signature with the secret of the expected type, pins the
// algorithm, issuer and audience, and returns the decoded claims.
func (s *Service) Verify(tokenString string, expected Type) (*Claims, error) {
	if tokenString == "" || !strings.Contains(tokenString, ".") {
		return nil, ErrMalformedToken
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	secret, err := s.cfg.secretFor(expected)
	if err != nil {
		return nil, err
	}

	claims, err := s.parse(tokenString, secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) && s.isOtherType(tokenString, expected) {
			return nil, newError(KindTypeMismatch, fmt.Sprintf("expected %s token", expected), nil)
		}
		return nil, classify(err)
	}

	if missing := claims.MissingClaims(); len(missing) > 0 {
		return nil, newError(KindIncompleteClaims, "missing claims: "+strings.Join(missing, ", "), nil)
	}
	if len(claims.Audience) != 1 {
		return nil, newError(KindInvalidAudience, "token must name exactly one audience", nil)
	}
	if claims.Type != expected {
		return nil, newError(KindTypeMismatch, fmt.Sprintf("expected %s token, got %s", expected, claims.Type), nil)
	}

	return claims, nil
}

// Rotate exchanges a valid refresh token for a fresh access token carrying
// only the subject id. The refresh token itself is not extended.
func (s *Service) Rotate(refreshToken string) (*AccessToken, error) {
	claims, err := s.Verify(refreshToken, TypeRefresh)
	if err != nil {
		return nil, err
	}

	access, err := s.sign(Subject{ID: claims.UserID}, TypeAccess, s.now())
	if err != nil {
		return nil, err
	}

	return &AccessToken{
		AccessToken: access,
		ExpiresIn:   formatTTL(s.cfg.AccessTTL),
	}, nil
}

func (s *Service) parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// isOtherType reports whether the token carries a valid signature under the
// other type's secret and claims that type. Claims are not validated here, so
// an expired token of the other type still reads as a type mismatch rather
// than a forgery.
func (s *Service) isOtherType(tokenString string, expected Type) bool {
	other := TypeAccess
	if expected == TypeAccess {
		other = TypeRefresh
	}
	secret, err := s.cfg.secretFor(other)
	if err != nil {
		return false
	}
	claims := &Claims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return false
	}
	return claims.Type == other
}

func (s *Service) sign(subject Subject, t Type, now time.Time) (string, error) {
	secret, err := s.cfg.secretFor(t)
	if err != nil {
		return "", err
	}
	jti, err := s.newJTI()
	if err != nil {
		return "", err
	}

	claims := &Claims{
		UserID: subject.ID,
		Role:   subject.Role,
		Type:   t,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.ttlFor(t))),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", t, err)
	}
	return signed, nil
}

func (s *Service) newJTI() (string, error) {
	buf := make([]byte, jtiBytes)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", fmt.Errorf("failed to generate token id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// classify maps jwt/v5 validation errors onto token error kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return newError(KindMalformed, "malformed token", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return newError(KindInvalidSignature, "invalid token signature", err)
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return newError(KindIncompleteClaims, "token is missing required claims", err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return newError(KindInvalidIssuer, "invalid token issuer", err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return newError(KindInvalidAudience, "invalid token audience", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return newError(KindExpired, "token has expired", err)
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return newError(KindIssuedInFuture, "token issued in the future", err)
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return newError(KindNotActive, "token not active yet", err)
	default:
		return newError(KindMalformed, "invalid token", err)
	}
}

// formatTTL renders a lifetime the way clients expect it, e.g. "15m" or "7d".
func formatTTL(d time.Duration) string {
	switch {
	case d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}
