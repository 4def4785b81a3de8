package handlers

import (
	"context"
	"net/http"

	"github.com/upb/portfolio-backend/auth"
	"github.com/upb/portfolio-backend/middleware"
	"github.com/upb/portfolio-backend/models"
	"github.com/upb/portfolio-backend/services"
	"github.com/upb/portfolio-backend/utils"
	"go.uber.org/zap"
)

// UpdateInfoRequest represents a profile update
type UpdateInfoRequest struct {
	Name string `json:"name" validate:"required,min=3,max=60"`
}

// UpdatePasswordRequest represents a password change
type UpdatePasswordRequest struct {
	OldPassword     string `json:"old_password" validate:"required,min=6,max=60"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=60"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// DeleteAccountRequest represents an account deletion. ConfirmDelete must be
// typed verbatim.
type DeleteAccountRequest struct {
	Password      string `json:"password" validate:"required,min=6,max=60"`
	ConfirmDelete string `json:"confirm_delete" validate:"required,eq=DELETE ACCOUNT"`
}

// AccountService defines the account operations used by AccountHandler
type AccountService interface {
	Get(ctx context.Context, userID string) (*models.Account, error)
	UpdateInfo(ctx context.Context, userID, name string) (*models.Account, error)
	UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	Delete(ctx context.Context, userID, password string) error
}

// AccountHandler handles self-service account requests. Every route runs
// behind the auth middleware.
type AccountHandler struct {
	service AccountService
	cookies *auth.CookieManager
	logger  *zap.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(service AccountService, cookies *auth.CookieManager, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		cookies: cookies,
		logger:  logger,
	}
}

// HandleGet handles GET /account
func (h *AccountHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.Get(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "get account success", account)
}

// HandleUpdateInfo handles PUT /account/info
func (h *AccountHandler) HandleUpdateInfo(w http.ResponseWriter, r *http.Request) {
	var req UpdateInfoRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	account, err := h.service.UpdateInfo(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.Name)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "update info success", account)
}

// HandleUpdatePassword handles PUT /account/password
func (h *AccountHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req UpdatePasswordRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	err := h.service.UpdatePassword(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.OldPassword, req.NewPassword)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "update password success", nil)
}

// HandleDelete handles DELETE /account
// Requires the browser session marker cookie in addition to the bearer token.
func (h *AccountHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAuthenticated(r) {
		HandleServiceError(w, services.ErrUnauthenticated, h.logger)
		return
	}

	var req DeleteAccountRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.Password); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.cookies.Clear(w)
	_ = utils.WriteOK(w, "delete account success", nil)
}
