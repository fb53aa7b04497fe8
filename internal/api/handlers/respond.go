package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/boqflow/boqflow/internal/email"
	"github.com/boqflow/boqflow/internal/service"
)

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the service error taxonomy onto HTTP status
// codes. Lifecycle rejections carry a machine-checkable reason string;
// clients re-fetch on 409 rather than retry blindly.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrForbidden):
		respondError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, service.ErrInvalidState):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, email.ErrNotConfigured):
		respondError(w, http.StatusServiceUnavailable, "Email service not configured")
	case errors.Is(err, service.ErrDependency):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
