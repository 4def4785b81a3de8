package tokens

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Type distinguishes access tokens from refresh tokens.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Subject is the allow-list of fields carried into a token payload.
type Subject struct {
	ID   string
	Role string
}

func (s Subject) sanitized() Subject {
	return Subject{
		ID:   strings.TrimSpace(s.ID),
		Role: strings.TrimSpace(s.Role),
	}
}

// Claims is the payload of both token types. The embedded registered claims
// carry iss, aud, exp, iat and jti.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role,omitempty"`
	Type   Type   `json:"type"`
	jwt.RegisteredClaims
}

// MissingClaims lists the required claims that are absent or empty.
func (c *Claims) MissingClaims() []string {
	var missing []string
	if strings.TrimSpace(c.UserID) == "" {
		missing = append(missing, "id")
	}
	if c.IssuedAt == nil {
		missing = append(missing, "iat")
	}
	if c.ID == "" {
		missing = append(missing, "jti")
	}
	if c.Type == "" {
		missing = append(missing, "type")
	}
	if c.Issuer == "" {
		missing = append(missing, "iss")
	}
	if len(c.Audience) == 0 {
		missing = append(missing, "aud")
	}
	if c.ExpiresAt == nil {
		missing = append(missing, "exp")
	}
	return missing
}

// TokenPair is the result of a login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

// AccessToken is the result of a refresh.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}
