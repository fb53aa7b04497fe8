package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/boqflow/boqflow/internal/blob"
	"github.com/boqflow/boqflow/internal/domain"
)

// InvoiceService owns the invoice aggregate: creation, DRAFT editing
// and the comment/media side channels. Lifecycle transitions live in
// LifecycleService.
type InvoiceService struct {
	invoices InvoiceStore
	comments CommentStore
	media    MediaStore
	catalogs CatalogStore
	numbers  NumberAllocator
	blobs    blob.Store
	now      func() time.Time
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(invoices InvoiceStore, comments CommentStore, media MediaStore, catalogs CatalogStore, numbers NumberAllocator, blobs blob.Store) *InvoiceService {
	return &InvoiceService{
		invoices: invoices,
		comments: comments,
		media:    media,
		catalogs: catalogs,
		numbers:  numbers,
		blobs:    blobs,
		now:      time.Now,
	}
}

// WithClock overrides the service clock; used by tests
func (s *InvoiceService) WithClock(now func() time.Time) *InvoiceService {
	s.now = now
	return s
}

func validateInput(input *domain.InvoiceInput) error {
	if strings.TrimSpace(input.CustomerName) == "" {
		return fmt.Errorf("%w: customer_name is required", ErrValidation)
	}
	if strings.TrimSpace(input.Date) == "" {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	for i, line := range input.Lines {
		if strings.TrimSpace(line.ItemName) == "" {
			return fmt.Errorf("%w: line %d is missing item_name", ErrValidation, i+1)
		}
		if strings.TrimSpace(line.Unit) == "" {
			return fmt.Errorf("%w: line %d is missing unit", ErrValidation, i+1)
		}
	}
	return nil
}

func buildLines(invoiceID uuid.UUID, inputs []domain.InvoiceLineInput) []domain.InvoiceLine {
	lines := make([]domain.InvoiceLine, 0, len(inputs))
	for _, in := range inputs {
		amount := lineAmount(in.Quantity, in.UnitPrice)
		if in.Amount != nil && strings.TrimSpace(*in.Amount) != "" {
			amount = *in.Amount
		}
		lines = append(lines, domain.InvoiceLine{
			ID:             uuid.New(),
			InvoiceID:      invoiceID,
			ItemName:       in.ItemName,
			Description:    in.Description,
			Unit:           in.Unit,
			UnitPrice:      in.UnitPrice,
			Quantity:       in.Quantity,
			Amount:         amount,
			CatalogItemRef: in.CatalogItemRef,
		})
	}
	return lines
}

func applyHeader(inv *domain.Invoice, input *domain.InvoiceInput) {
	inv.Date = input.Date
	inv.CustomerName = input.CustomerName
	inv.CustomerEmail = input.CustomerEmail
	inv.ProjectSite = input.ProjectSite
	inv.PreparedBy = input.PreparedBy
	inv.Area = input.Area
	inv.JobNo = input.JobNo
	inv.GRN = input.GRN
	inv.PO = input.PO
	inv.Address = input.Address
}

// Create builds a DRAFT invoice with a server-assigned display number.
// When the tenant has an active catalog, its version number is recorded
// so the draft's rates can be traced; the reference is severed at
// submission.
func (s *InvoiceService) Create(ctx context.Context, caller domain.Identity, input *domain.InvoiceInput) (*domain.Invoice, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := s.now()

	number, err := s.numbers.Next(ctx, caller.TenantID, now.Year())
	if err != nil {
		return nil, err
	}

	inv := &domain.Invoice{
		ID:            uuid.New(),
		TenantID:      caller.TenantID,
		InvoiceNumber: &number,
		Status:        domain.StatusDraft,
		CreatedBy:     caller.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	applyHeader(inv, input)
	inv.Lines = buildLines(inv.ID, input.Lines)

	active, err := s.catalogs.GetActive(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		ref := active.VersionNumber
		inv.CatalogVersionRef = &ref
	}

	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, err
	}

	return inv, nil
}

// load fetches an invoice enforcing tenant isolation: a cross-tenant id
// is indistinguishable from a missing one.
func (s *InvoiceService) load(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.TenantID != caller.TenantID {
		return nil, ErrNotFound
	}
	return inv, nil
}

// Get returns an invoice with lines, comments and media. Operators can
// only access their own invoices.
func (s *InvoiceService) Get(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !caller.Elevated() && inv.CreatedBy != caller.ID {
		return nil, ErrForbidden
	}

	comments, err := s.comments.ListSince(ctx, inv.ID, time.Time{})
	if err != nil {
		return nil, err
	}
	inv.Comments = comments

	media, err := s.media.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Media = media

	return inv, nil
}

// List returns a tenant-scoped page of invoices, newest-updated first.
// Operators only see their own.
func (s *InvoiceService) List(ctx context.Context, caller domain.Identity, status *domain.InvoiceStatus, limit, offset int) (*domain.InvoiceList, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	filter := domain.InvoiceListFilter{
		TenantID: caller.TenantID,
		Status:   status,
		Limit:    limit,
		Offset:   offset,
	}
	if !caller.Elevated() {
		id := caller.ID
		filter.CreatedBy = &id
	}

	invoices, total, err := s.invoices.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &domain.InvoiceList{Invoices: invoices, Total: total, Limit: limit, Offset: offset}, nil
}

// Update edits a DRAFT invoice. The line set is replaced wholesale
// (delete-then-recreate inside one transaction) and any rejection
// fields are cleared as a side effect of the edit.
func (s *InvoiceService) Update(ctx context.Context, caller domain.Identity, id uuid.UUID, input *domain.InvoiceInput) (*domain.Invoice, error) {
	inv, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !caller.Elevated() && inv.CreatedBy != caller.ID {
		return nil, ErrForbidden
	}
	if inv.Status != domain.StatusDraft {
		return nil, ErrInvalidState
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	applyHeader(inv, input)
	inv.Lines = buildLines(inv.ID, input.Lines)
	inv.RejectionReason = nil
	inv.RejectedBy = nil
	inv.RejectedAt = nil
	inv.UpdatedAt = s.now()

	active, err := s.catalogs.GetActive(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}
	inv.CatalogVersionRef = nil
	if active != nil {
		ref := active.VersionNumber
		inv.CatalogVersionRef = &ref
	}

	ok, err := s.invoices.UpdateDraft(ctx, inv)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with a submit; the invoice is no longer DRAFT.
		return nil, ErrInvalidState
	}

	return inv, nil
}

// AddComment appends a side-channel comment. Permitted in any
// non-terminal status; comments are not part of the frozen snapshot.
func (s *InvoiceService) AddComment(ctx context.Context, caller domain.Identity, id uuid.UUID, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: comment body is required", ErrValidation)
	}

	inv, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if inv.Status.Terminal() {
		return nil, ErrInvalidState
	}

	comment := &domain.Comment{
		ID:         uuid.New(),
		InvoiceID:  inv.ID,
		AuthorID:   caller.ID,
		AuthorName: caller.Name,
		Body:       body,
		CreatedAt:  s.now(),
	}
	if err := s.comments.Add(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// AttachMedia stores an uploaded photo in the blob store and records it
// against the invoice.
func (s *InvoiceService) AttachMedia(ctx context.Context, caller domain.Identity, id uuid.UUID, filename, contentType string, data []byte) (*domain.Media, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: only image files are allowed", ErrValidation)
	}

	inv, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if inv.Status.Terminal() {
		return nil, ErrInvalidState
	}

	now := s.now()
	path := fmt.Sprintf("media/%s/%s/%d-%s", inv.TenantID, inv.ID, now.UnixMilli(), filename)
	url, err := s.blobs.Put(ctx, "media", path, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: media upload: %v", ErrDependency, err)
	}

	m := &domain.Media{
		ID:            uuid.New(),
		InvoiceID:     inv.ID,
		URL:           url,
		MimeType:      contentType,
		Source:        "GALLERY",
		BlobContainer: "media",
		BlobPath:      path,
		CreatedAt:     now,
	}
	if err := s.media.Add(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

// RemoveMedia deletes a media attachment, blob first, then the record
func (s *InvoiceService) RemoveMedia(ctx context.Context, caller domain.Identity, id, mediaID uuid.UUID) error {
	inv, err := s.load(ctx, caller, id)
	if err != nil {
		return err
	}
	if inv.Status.Terminal() {
		return ErrInvalidState
	}

	m, err := s.media.FindByID(ctx, mediaID)
	if err != nil {
		return err
	}
	if m == nil || m.InvoiceID != inv.ID {
		return ErrNotFound
	}

	if m.BlobContainer != "" && m.BlobPath != "" {
		if err := s.blobs.Delete(ctx, m.BlobContainer, m.BlobPath); err != nil && err != blob.ErrNotFound {
			return fmt.Errorf("%w: media delete: %v", ErrDependency, err)
		}
	}

	return s.media.Delete(ctx, mediaID)
}
