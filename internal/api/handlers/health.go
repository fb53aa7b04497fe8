package handlers

import (
	"context"
	"net/http"
	"time"
)

// ReadinessCheck probes one backing dependency by name.
type ReadinessCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness endpoints
type HealthHandler struct {
	version string
	checks  []ReadinessCheck
}

// NewHealthHandler creates a health handler. checks are probed on every
// /ready request; /health never touches them.
func NewHealthHandler(version string, checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{version: version, checks: checks}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Health handles GET /health. Liveness only, no dependency probes.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
	})
}

// Ready handles GET /ready (for kubernetes readiness probe). Probes the
// database and, when configured, Redis; any failing dependency makes
// the instance unready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		if err := check.Probe(ctx); err != nil {
			results[check.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[check.Name] = "ok"
	}

	body := map[string]interface{}{"status": "ready", "checks": results}
	if status != http.StatusOK {
		body["status"] = "unavailable"
	}
	respondJSON(w, status, body)
}
