package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/upb/portfolio-backend/config"
)

func TestWelcomeHandler(t *testing.T) {
	handler := WelcomeHandler(config.AppInfo{Name: "backend personal", Version: "1.0.0", Developer: "UPB"})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"message":"Success",
		"data":{"name":"backend personal","version":"1.0.0","developer":"UPB"}
	}`, w.Body.String())
}

func TestFallbackHandlers(t *testing.T) {
	w := httptest.NewRecorder()
	NotFoundHandler(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"route not found"}`, w.Body.String())

	w = httptest.NewRecorder()
	MethodNotAllowedHandler(w, httptest.NewRequest(http.MethodPatch, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"error":"method_not_allowed","message":"method not allowed"}`, w.Body.String())
}
