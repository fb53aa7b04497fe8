package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/boqflow/boqflow/internal/api/middleware"
	"github.com/boqflow/boqflow/internal/domain"
	"github.com/boqflow/boqflow/internal/service"
)

// CatalogHandler handles catalog (BOQ) HTTP requests
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// Upload handles POST /api/v1/catalogs
func (h *CatalogHandler) Upload(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	var req domain.CatalogUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	version, err := h.catalogService.Upload(r.Context(), caller, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":    "ok",
		"version":   version.VersionNumber,
		"catalogId": version.ID,
		"itemCount": len(version.Items),
	})
}

// List handles GET /api/v1/catalogs
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	versions, err := h.catalogService.ListVersions(r.Context(), caller)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if versions == nil {
		versions = []domain.CatalogVersion{}
	}

	respondJSON(w, http.StatusOK, versions)
}

// Activate handles PATCH /api/v1/catalogs/{version}/activate
func (h *CatalogHandler) Activate(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	versionNumber, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid version number")
		return
	}

	version, err := h.catalogService.Activate(r.Context(), caller, versionNumber)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, version)
}

// GetActive handles GET /api/v1/catalogs/active
func (h *CatalogHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	version, err := h.catalogService.GetActive(r.Context(), caller)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if version == nil {
		respondError(w, http.StatusNotFound, "No active catalog")
		return
	}

	respondJSON(w, http.StatusOK, version)
}

// SearchItems handles GET /api/v1/catalogs/items
func (h *CatalogHandler) SearchItems(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.catalogService.Search(r.Context(), caller, r.URL.Query().Get("q"), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
