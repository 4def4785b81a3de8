package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/portfolio-backend/middleware"
	"github.com/upb/portfolio-backend/models"
	"github.com/upb/portfolio-backend/services"
	"github.com/upb/portfolio-backend/utils"
	"go.uber.org/zap"
)

// SendMessageRequest represents a contact form submission
type SendMessageRequest struct {
	FullName string `json:"full_name" validate:"required,min=3,max=60"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Message  string `json:"message" validate:"required,min=3,max=1000"`
}

// UpdateStatusRequest represents a status change
type UpdateStatusRequest struct {
	Status models.MessageStatus `json:"status" validate:"required,oneof=PENDING READ RESOLVED"`
}

// MessageService defines the inbox operations used by MessageHandler
type MessageService interface {
	Send(ctx context.Context, in services.SendMessageInput) (*models.Message, error)
	List(ctx context.Context) (*models.MessageInbox, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Message, error)
	UpdateStatus(ctx context.Context, actorID string, id uuid.UUID, status models.MessageStatus) (*models.Message, error)
	Delete(ctx context.Context, actorID string, id uuid.UUID) error
}

// MessageHandler handles contact message HTTP requests
type MessageHandler struct {
	service MessageService
	logger  *zap.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(service MessageService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		service: service,
		logger:  logger,
	}
}

// HandleSend handles POST /messages
func (h *MessageHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	msg, err := h.service.Send(r.Context(), services.SendMessageInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Message:  req.Message,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, "send message success", msg)
}

// HandleList handles GET /messages
func (h *MessageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	inbox, err := h.service.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "get messages success", inbox)
}

// HandleGet handles GET /messages/{id}
func (h *MessageHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	msg, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "get message success", msg)
}

// HandleUpdateStatus handles PUT /messages/{id}/status
func (h *MessageHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	msg, err := h.service.UpdateStatus(r.Context(), middleware.GetUserIDFromContext(r.Context()), id, req.Status)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "update status message success", msg)
}

// HandleDelete handles DELETE /messages/{id}
func (h *MessageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetUserIDFromContext(r.Context()), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "delete message success", nil)
}

func (h *MessageHandler) messageID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid message id format", nil)
		return uuid.Nil, false
	}
	return id, true
}
