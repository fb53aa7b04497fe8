package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/boqflow/boqflow/internal/api/middleware"
	"github.com/boqflow/boqflow/internal/domain"
	"github.com/boqflow/boqflow/internal/service"
)

const maxUploadBytes = 10 << 20 // 10MB

// InvoiceHandler handles invoice HTTP requests: the CRUD surface, the
// lifecycle transitions and the polling endpoint.
type InvoiceHandler struct {
	invoiceService   *service.InvoiceService
	lifecycleService *service.LifecycleService
	updateFeed       service.UpdateFeed
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *service.InvoiceService, lifecycleService *service.LifecycleService, updateFeed service.UpdateFeed) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:   invoiceService,
		lifecycleService: lifecycleService,
		updateFeed:       updateFeed,
	}
}

func invoiceID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// Create handles POST /api/v1/invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	var input domain.InvoiceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	inv, err := h.invoiceService.Create(r.Context(), caller, &input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, inv)
}

// List handles GET /api/v1/invoices
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	var status *domain.InvoiceStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.InvoiceStatus(s)
		status = &st
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	list, err := h.invoiceService.List(r.Context(), caller, status, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if list.Invoices == nil {
		list.Invoices = []domain.Invoice{}
	}

	respondJSON(w, http.StatusOK, list)
}

// Get handles GET /api/v1/invoices/{id}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	id, err := invoiceID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid invoice id")
		return
	}

	inv, err := h.invoiceService.Get(r.Context(), caller, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, inv)
}

// Update handles PATCH /api/v1/invoices/{id}
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	id, err := invoiceID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid invoice id")
		return
	}

	var input domain.InvoiceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	inv, err := h.invoiceService.Update(r.Context(), caller, id, &input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, inv)
}

// Submit handles POST /api/v1/invoices/{id}/submit
func (h *InvoiceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	id, err := invoiceID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid invoice id")
		return
	}

	inv, err := h.lifecycleService.Submit(r.Context(), caller, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, inv)
}

// Approve handles POST /api/v1/invoices/{id}/approve. Collaborator
// failures after the FINAL commit surface as warnings, not errors.
func (h *InvoiceHandler) Approve(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	id, err := invoiceID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid invoice id")
		return
	}

	inv, warnings, err := h.lifecycleService.Approve(r.Context(), caller, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := map[string]interface{}{"invoice": inv}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	respondJSON(w, http.StatusOK, resp)
}

// Reject handles POST /api/v1/invoices/{id}/reject
func (h *InvoiceHandler) Reject(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	id, err := invoiceID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid invoice id")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	inv, err := h.lifecycleService.Reject(r.Context(), caller, id, req.Reason)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, inv)
}

// Updates handles GET /api/v1/invoices/{id}/updates, the polling
// endpoint for disconnected clients.
func (h *InvoiceHandler) Updates(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	id, err := invoiceID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid invoice id")
		return
	}

	since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)

	updates, err := h.updateFeed.GetUpdates(r.Context(), caller, id, since)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updates)
}

// AddComment handles POST /api/v1/invoices/{id}/comments
func (h *InvoiceHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	id, err := invoiceID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid invoice id")
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.invoiceService.AddComment(r.Context(), caller, id, req.Body)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, comment)
}

// UploadMedia handles POST /api/v1/invoices/{id}/media
func (h *InvoiceHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	id, err := invoiceID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid invoice id")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded. Field name should be 'file'.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	contentType := header.Header.Get("Content-Type")

	media, err := h.invoiceService.AttachMedia(r.Context(), caller, id, header.Filename, contentType, data)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, media)
}

// DeleteMedia handles DELETE /api/v1/invoices/{id}/media/{mediaID}
func (h *InvoiceHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	id, err := invoiceID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid invoice id")
		return
	}
	mediaID, err := uuid.Parse(chi.URLParam(r, "mediaID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid media id")
		return
	}

	if err := h.invoiceService.RemoveMedia(r.Context(), caller, id, mediaID); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DownloadPdf handles GET /api/v1/invoices/{id}/pdf
func (h *InvoiceHandler) DownloadPdf(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	id, err := invoiceID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid invoice id")
		return
	}

	data, filename, err := h.lifecycleService.FetchPdf(r.Context(), caller, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// Email handles POST /api/v1/invoices/{id}/email
func (h *InvoiceHandler) Email(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.GetIdentity(r.Context())

	id, err := invoiceID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid invoice id")
		return
	}

	var req struct {
		To string `json:"to"`
	}
	// Body is optional; the stored customer email wins anyway.
	json.NewDecoder(r.Body).Decode(&req)

	messageID, err := h.lifecycleService.EmailInvoice(r.Context(), caller, id, req.To)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "sent", "messageId": messageID})
}
