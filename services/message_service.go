package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/portfolio-backend/internal/observability"
	"github.com/upb/portfolio-backend/models"
	"github.com/upb/portfolio-backend/repositories"
	"go.uber.org/zap"
)

// SendMessageInput is a contact form submission
type SendMessageInput struct {
	FullName string
	Email    string
	Phone    string
	Message  string
}

// MessageService manages the contact message inbox
type MessageService struct {
	messages repositories.MessageRepository
	logger   *zap.Logger
}

// NewMessageService creates a new MessageService
func NewMessageService(messages repositories.MessageRepository, logger *zap.Logger) *MessageService {
	return &MessageService{
		messages: messages,
		logger:   logger,
	}
}

// Send stores a new pending message
func (s *MessageService) Send(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	msg := models.NewMessage(in.FullName, in.Email, in.Phone, in.Message)
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, wrap(ErrInternal, err)
	}

	s.logger.Info("contact message received", zap.String("message_id", msg.ID.String()))
	return msg, nil
}

// List returns every message grouped by status
func (s *MessageService) List(ctx context.Context) (*models.MessageInbox, error) {
	messages, err := s.messages.List(ctx)
	if err != nil {
		return nil, wrap(ErrInternal, err)
	}
	return models.GroupMessages(messages), nil
}

// Get returns a single message
func (s *MessageService) Get(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, messageError(err)
	}
	return msg, nil
}

// UpdateStatus moves a message to another status
func (s *MessageService) UpdateStatus(ctx context.Context, actorID string, id uuid.UUID, status models.MessageStatus) (*models.Message, error) {
	if !status.IsValid() {
		return nil, NewDomainError(ErrorTypeValidation, ErrInvalidStatus.Message, nil).
			WithDetail("status", "must be one of PENDING, READ, RESOLVED")
	}

	msg, err := s.messages.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, messageError(err)
	}

	observability.Audit(s.logger, "message_status_updated", actorID, "message",
		zap.String("message_id", id.String()),
		zap.String("status", string(status)))
	return msg, nil
}

// Delete removes a message
func (s *MessageService) Delete(ctx context.Context, actorID string, id uuid.UUID) error {
	if err := s.messages.Delete(ctx, id); err != nil {
		return messageError(err)
	}

	observability.Audit(s.logger, "message_deleted", actorID, "message",
		zap.String("message_id", id.String()))
	return nil
}

func messageError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrMessageNotFound
	}
	return wrap(ErrInternal, err)
}
