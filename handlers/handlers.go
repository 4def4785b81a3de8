// Package handlers holds the HTTP handlers. Handlers decode and validate the
// request, call one service method and map its result onto the response
// envelope.
package handlers

import (
	"net/http"

	"github.com/upb/portfolio-backend/config"
	"github.com/upb/portfolio-backend/internal/observability"
	"github.com/upb/portfolio-backend/utils"
	"go.uber.org/zap"
)

// WelcomeResponse describes the running application
type WelcomeResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Developer string `json:"developer"`
}

// WelcomeHandler handles GET /
func WelcomeHandler(info config.AppInfo) http.HandlerFunc {
	body := WelcomeResponse{
		Name:      info.Name,
		Version:   info.Version,
		Developer: info.Developer,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteOK(w, "Success", body)
	}
}

// NotFoundHandler answers unknown routes with a JSON 404
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteNotFound(w, "route not found")
}

// MethodNotAllowedHandler answers known routes called with the wrong method
func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
}

// decodeAndValidate reads the JSON body into dst and validates it. On failure
// the 400 response has already been written and false is returned.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, observability.ForRequest(r.Context(), logger))
		return false
	}
	return true
}
