package handlers

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/upb/portfolio-backend/auth"
	"github.com/upb/portfolio-backend/internal/observability"
	"github.com/upb/portfolio-backend/models"
	"github.com/upb/portfolio-backend/services"
	"github.com/upb/portfolio-backend/tokens"
	"github.com/upb/portfolio-backend/utils"
	"go.uber.org/zap"
)

// RegisterRequest represents a sign-up request
type RegisterRequest struct {
	Name            string `json:"name" validate:"required,min=3,max=60"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=6,max=60"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=60"`
}

// RefreshRequest carries the refresh token when no cookie is sent
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RegisterResponse represents a newly created user
type RegisterResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthService defines the auth operations used by AuthHandler
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in services.LoginInput) (*tokens.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*tokens.AccessToken, error)
}

// AuthHandler handles session HTTP requests
type AuthHandler struct {
	service AuthService
	cookies *auth.CookieManager
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthService, cookies *auth.CookieManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookies: cookies,
		logger:  logger,
	}
}

// HandleRegister handles POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	user, err := h.service.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, "create user success", RegisterResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	pair, err := h.service.Login(r.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: clientIP(r),
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.cookies.SetSession(w, pair.RefreshToken)
	_ = utils.WriteOK(w, "login success", pair)
}

// HandleRefresh handles POST /auth/token
// The refresh token is read from the cookie first, then from the body.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := auth.RefreshToken(r)
	if refreshToken == "" && r.ContentLength != 0 {
		var req RefreshRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			_ = utils.WriteBadRequest(w, err.Error(), nil)
			return
		}
		refreshToken = req.RefreshToken
	}

	access, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "refresh token success", access)
}

// HandleLogout handles POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	observability.ForRequest(r.Context(), h.logger).Info("logout")
	_ = utils.WriteOK(w, "logout success", nil)
}

// clientIP returns the caller address without the port. chi's RealIP has
// already replaced RemoteAddr when a proxy header was present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
