package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/portfolio-backend/utils"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

// HealthChecker reports whether a dependency can serve traffic
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     HealthChecker
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only, always 200 while the process serves requests
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	response := HealthResponse{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK

	if h.db == nil {
		response.Checks["database"] = "not_initialized"
		response.Status = "unavailable"
		status = http.StatusServiceUnavailable
	} else if err := h.db.HealthCheck(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		response.Checks["database"] = "unhealthy"
		response.Status = "unavailable"
		status = http.StatusServiceUnavailable
	} else {
		response.Checks["database"] = "healthy"
	}

	if err := utils.WriteJSON(w, status, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
