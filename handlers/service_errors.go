package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/portfolio-backend/services"
	"github.com/upb/portfolio-backend/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses. Internal errors are
// logged and answered with a generic message.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var domainErr *services.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error("unhandled error type", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error", nil, logger)
		return
	}

	var details map[string]interface{}
	if len(domainErr.Details) > 0 {
		details = domainErr.Details
	}

	switch domainErr.Type {
	case services.ErrorTypeNotFound:
		writeError(w, http.StatusNotFound, domainErr.Message, nil, logger)

	case services.ErrorTypeValidation:
		writeError(w, http.StatusBadRequest, domainErr.Message, details, logger)

	case services.ErrorTypeUnauthorized:
		writeError(w, http.StatusUnauthorized, domainErr.Message, nil, logger)

	case services.ErrorTypeForbidden:
		writeError(w, http.StatusForbidden, domainErr.Message, nil, logger)

	case services.ErrorTypeConflict:
		writeError(w, http.StatusConflict, domainErr.Message, details, logger)

	case services.ErrorTypeRateLimit:
		writeError(w, http.StatusTooManyRequests, domainErr.Message, details, logger)

	default:
		logger.Error("internal server error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error", nil, logger)
		return
	}

	logger.Debug("handled service error",
		zap.String("type", string(domainErr.Type)),
		zap.String("message", domainErr.Message))
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validationErr *utils.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, validationErr.Message, validationErr.Details(), logger)
		return
	}

	writeError(w, http.StatusBadRequest, err.Error(), nil, logger)
}

func writeError(w http.ResponseWriter, status int, message string, details map[string]interface{}, logger *zap.Logger) {
	if err := utils.WriteError(w, status, message, details); err != nil {
		logger.Error("failed to write error response", zap.Int("status", status), zap.Error(err))
	}
}
