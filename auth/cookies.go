package auth

import (
	"net/http"
	"time"
)

const (
	// RefreshCookieName holds the refresh token
	RefreshCookieName = "refresh_token"
	// AuthenticatedCookieName is a client-readable session marker
	AuthenticatedCookieName = "authenticated"

	sessionCookieMaxAge = 7 * 24 * time.Hour
)

// CookieOptions describe the attributes shared by the session cookies
type CookieOptions struct {
	Secure bool
	Domain string
	MaxAge time.Duration
}

// NewCookieOptions derives cookie attributes from the environment. Secure
// and Domain are only applied in production.
func NewCookieOptions(production bool, domain string) CookieOptions {
	opts := CookieOptions{
		Secure: production,
		MaxAge: sessionCookieMaxAge,
	}
	if production {
		opts.Domain = domain
	}
	return opts
}

// CookieManager writes and clears the session cookies
type CookieManager struct {
	opts CookieOptions
}

// NewCookieManager creates a CookieManager
func NewCookieManager(opts CookieOptions) *CookieManager {
	if opts.MaxAge <= 0 {
		opts.MaxAge = sessionCookieMaxAge
	}
	return &CookieManager{opts: opts}
}

// SetSession stores the refresh token and the authenticated marker
func (m *CookieManager) SetSession(w http.ResponseWriter, refreshToken string) {
	maxAge := int(m.opts.MaxAge / time.Second)
	http.SetCookie(w, m.cookie(RefreshCookieName, refreshToken, maxAge, true))
	http.SetCookie(w, m.cookie(AuthenticatedCookieName, "true", maxAge, false))
}

// Clear expires both session cookies
func (m *CookieManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie(RefreshCookieName, "", -1, true))
	http.SetCookie(w, m.cookie(AuthenticatedCookieName, "", -1, false))
}

// RefreshToken returns the refresh token cookie value, if any
func RefreshToken(r *http.Request) string {
	c, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// IsAuthenticated reports whether the request carries the session marker
func IsAuthenticated(r *http.Request) bool {
	c, err := r.Cookie(AuthenticatedCookieName)
	return err == nil && c.Value != ""
}

func (m *CookieManager) cookie(name, value string, maxAge int, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   m.opts.Domain,
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
