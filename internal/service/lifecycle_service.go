package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/boqflow/boqflow/internal/blob"
	"github.com/boqflow/boqflow/internal/domain"
	"github.com/boqflow/boqflow/internal/email"
	"github.com/boqflow/boqflow/internal/logger"
	"github.com/boqflow/boqflow/internal/metrics"
	"github.com/boqflow/boqflow/internal/pdf"
)

const pdfContainer = "invoices"

// LifecycleConfig carries the approval side-effect policy
type LifecycleConfig struct {
	// SendEmailOnApprove triggers customer notification after a
	// successful approval
	SendEmailOnApprove bool
	// DefaultEmailTo receives the PDF when the invoice has no stored
	// customer email
	DefaultEmailTo string
	// Clock overrides time.Now; used by tests
	Clock func() time.Time
}

// LifecycleService is the state machine governing an invoice from
// DRAFT to FINAL:
//
//	DRAFT -> SUBMITTED -> FINAL
//	           |
//	           +-> back to DRAFT on rejection (with a reason)
//
// FINAL is terminal. Submission freezes the totals, severs every
// catalog reference and writes the metadata snapshot that becomes the
// authoritative record from that point forward. Each transition is
// persisted with a status guard so two racing callers cannot both win.
type LifecycleService struct {
	invoices InvoiceStore
	tenants  TenantStore
	numbers  NumberAllocator
	renderer pdf.Renderer
	blobs    blob.Store
	emailer  email.Sender
	cfg      LifecycleConfig
	now      func() time.Time
	log      zerolog.Logger
}

// NewLifecycleService creates the lifecycle state machine
func NewLifecycleService(invoices InvoiceStore, tenants TenantStore, numbers NumberAllocator, renderer pdf.Renderer, blobs blob.Store, emailer email.Sender, cfg LifecycleConfig) *LifecycleService {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &LifecycleService{
		invoices: invoices,
		tenants:  tenants,
		numbers:  numbers,
		renderer: renderer,
		blobs:    blobs,
		emailer:  emailer,
		cfg:      cfg,
		now:      now,
		log:      logger.WithComponent("lifecycle"),
	}
}

func (s *LifecycleService) load(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.TenantID != caller.TenantID {
		return nil, ErrNotFound
	}
	return inv, nil
}

// severCatalogRefs clears every line's catalog reference in memory.
// Once severed, a later catalog re-upload (even one deleting the
// referenced items entirely) cannot corrupt the invoice.
func severCatalogRefs(inv *domain.Invoice) {
	for i := range inv.Lines {
		inv.Lines[i].CatalogItemRef = nil
	}
	inv.CatalogVersionRef = nil
}

func clearRejection(inv *domain.Invoice) {
	inv.RejectionReason = nil
	inv.RejectedBy = nil
	inv.RejectedAt = nil
}

// Submit freezes a DRAFT invoice: totals are computed and stored as
// string-encoded decimals, every catalog reference is severed and the
// metadata snapshot is written. From here the invoice's truth is
// self-contained.
func (s *LifecycleService) Submit(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.Invoice, error) {
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

	subtotal, vatPercent, vatAmount, total := computeTotals(inv.Lines, inv.VatPercent)
	inv.Subtotal = &subtotal
	inv.VatPercent = &vatPercent
	inv.VatAmount = &vatAmount
	inv.Total = &total

	severCatalogRefs(inv)

	snapshot, err := SnapshotInvoice(inv)
	if err != nil {
		return nil, err
	}
	inv.MetadataSnapshot = &snapshot

	now := s.now()
	inv.Status = domain.StatusSubmitted
	inv.SubmittedAt = &now
	inv.UpdatedAt = now
	clearRejection(inv)

	ok, err := s.invoices.Transition(ctx, inv, domain.StatusDraft, true)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}

	metrics.LifecycleTransitions.WithLabelValues("submit").Inc()
	s.log.Info().Str("invoice_id", inv.ID.String()).Msg("invoice submitted")
	return inv, nil
}

// Approve finalizes a SUBMITTED invoice. The database transition to
// FINAL is the transaction boundary: PDF rendering, blob upload and
// email delivery are collaborator side effects whose failure surfaces
// as warnings, never as a failed approval.
func (s *LifecycleService) Approve(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.Invoice, []string, error) {
	inv, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, nil, err
	}
	if !caller.Elevated() {
		return nil, nil, ErrForbidden
	}
	if inv.Status != domain.StatusSubmitted {
		return nil, nil, ErrInvalidState
	}

	// Re-assert the decoupling invariant rather than trusting the
	// submit-time severing unconditionally. Rendering input must never
	// contain a catalog reference.
	severCatalogRefs(inv)

	now := s.now()

	if inv.InvoiceNumber == nil {
		number, err := s.numbers.Next(ctx, inv.TenantID, now.Year())
		if err != nil {
			return nil, nil, err
		}
		inv.InvoiceNumber = &number
	}

	// The approval-time recomputation from line rows, not the
	// submit-time figures, is what downstream collaborators receive.
	subtotal, vatPercent, vatAmount, total := computeTotals(inv.Lines, inv.VatPercent)
	inv.Subtotal = &subtotal
	inv.VatPercent = &vatPercent
	inv.VatAmount = &vatAmount
	inv.Total = &total

	var warnings []string
	var pdfBytes []byte

	tenant, err := s.tenants.FindByID(ctx, inv.TenantID)
	if err != nil {
		s.log.Warn().Err(err).Str("invoice_id", inv.ID.String()).Msg("tenant lookup failed for pdf header")
	}

	pdfBytes, err = s.renderer.Render(ctx, inv, tenant)
	if err != nil {
		warnings = append(warnings, "pdf rendering failed: "+err.Error())
		s.log.Warn().Err(err).Str("invoice_id", inv.ID.String()).Msg("pdf rendering failed")
		pdfBytes = nil
	} else {
		path := pdfPath(inv.TenantID, *inv.InvoiceNumber)
		url, err := s.blobs.Put(ctx, pdfContainer, path, pdfBytes, "application/pdf")
		if err != nil {
			warnings = append(warnings, "pdf upload failed: "+err.Error())
			s.log.Warn().Err(err).Str("invoice_id", inv.ID.String()).Msg("pdf upload failed")
		} else {
			inv.ServerPdfURL = &url
		}
	}

	snapshot, err := SnapshotInvoice(inv)
	if err != nil {
		return nil, nil, err
	}
	inv.MetadataSnapshot = &snapshot

	inv.Status = domain.StatusFinal
	inv.ApprovedBy = &caller.ID
	inv.ApprovedAt = &now
	inv.UpdatedAt = now
	clearRejection(inv)

	ok, err := s.invoices.Transition(ctx, inv, domain.StatusSubmitted, true)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrInvalidState
	}

	metrics.LifecycleTransitions.WithLabelValues("approve").Inc()
	s.log.Info().Str("invoice_id", inv.ID.String()).Str("invoice_number", *inv.InvoiceNumber).Msg("invoice approved")

	// Best-effort post-commit notification.
	if s.cfg.SendEmailOnApprove {
		if warning := s.notifyCustomer(ctx, inv, pdfBytes); warning != "" {
			warnings = append(warnings, warning)
		}
	}

	return inv, warnings, nil
}

func (s *LifecycleService) notifyCustomer(ctx context.Context, inv *domain.Invoice, pdfBytes []byte) string {
	to := s.cfg.DefaultEmailTo
	if inv.CustomerEmail != nil && *inv.CustomerEmail != "" {
		to = *inv.CustomerEmail
	}
	if to == "" {
		return ""
	}

	msg := email.Message{
		To:       []string{to},
		Subject:  "Invoice " + *inv.InvoiceNumber,
		HTMLBody: fmt.Sprintf("<p>Please find attached invoice <strong>%s</strong>.</p>", *inv.InvoiceNumber),
	}
	if pdfBytes != nil {
		msg.Attachment = &email.Attachment{
			Filename:    *inv.InvoiceNumber + ".pdf",
			ContentType: "application/pdf",
			Data:        pdfBytes,
		}
	}

	if _, err := s.emailer.Send(ctx, msg); err != nil {
		if errors.Is(err, email.ErrNotConfigured) {
			return ""
		}
		s.log.Warn().Err(err).Str("invoice_id", inv.ID.String()).Msg("approval email failed")
		return "email delivery failed: " + err.Error()
	}
	return ""
}

// Reject returns a SUBMITTED invoice to DRAFT with a mandatory reason.
// Totals are nulled so they are recomputed fresh after edits. There is
// no terminal REJECTED state; a second concurrent reject fails with
// ErrInvalidState because the status is already DRAFT.
func (s *LifecycleService) Reject(ctx context.Context, caller domain.Identity, id uuid.UUID, reason string) (*domain.Invoice, error) {
	inv, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !caller.Elevated() {
		return nil, ErrForbidden
	}
	if inv.Status != domain.StatusSubmitted {
		return nil, ErrInvalidState
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	now := s.now()
	inv.Status = domain.StatusDraft
	inv.RejectionReason = &reason
	inv.RejectedBy = &caller.ID
	inv.RejectedAt = &now
	inv.Subtotal = nil
	inv.VatAmount = nil
	inv.Total = nil
	inv.UpdatedAt = now

	ok, err := s.invoices.Transition(ctx, inv, domain.StatusSubmitted, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}

	metrics.LifecycleTransitions.WithLabelValues("reject").Inc()
	s.log.Info().Str("invoice_id", inv.ID.String()).Str("reason", reason).Msg("invoice rejected")
	return inv, nil
}

// EmailInvoice re-sends the stored PDF for a FINAL invoice. The stored
// customer email wins over an explicit recipient.
func (s *LifecycleService) EmailInvoice(ctx context.Context, caller domain.Identity, id uuid.UUID, to string) (string, error) {
	inv, err := s.load(ctx, caller, id)
	if err != nil {
		return "", err
	}
	if inv.Status != domain.StatusFinal {
		return "", ErrInvalidState
	}
	if inv.ServerPdfURL == nil || inv.InvoiceNumber == nil {
		return "", fmt.Errorf("%w: invoice PDF not available yet", ErrValidation)
	}

	recipient := to
	if inv.CustomerEmail != nil && *inv.CustomerEmail != "" {
		recipient = *inv.CustomerEmail
	}
	if recipient == "" {
		return "", fmt.Errorf("%w: no customer email address on invoice", ErrValidation)
	}

	pdfBytes, _, err := s.blobs.Get(ctx, pdfContainer, pdfPath(inv.TenantID, *inv.InvoiceNumber))
	if err != nil {
		return "", fmt.Errorf("%w: pdf retrieval: %v", ErrDependency, err)
	}

	messageID, err := s.emailer.Send(ctx, email.Message{
		To:       []string{recipient},
		Subject:  "Invoice " + *inv.InvoiceNumber,
		HTMLBody: fmt.Sprintf("<p>Please find attached invoice <strong>%s</strong>.</p>", *inv.InvoiceNumber),
		Attachment: &email.Attachment{
			Filename:    *inv.InvoiceNumber + ".pdf",
			ContentType: "application/pdf",
			Data:        pdfBytes,
		},
	})
	if err != nil {
		if errors.Is(err, email.ErrNotConfigured) {
			return "", err
		}
		return "", fmt.Errorf("%w: email send: %v", ErrDependency, err)
	}

	return messageID, nil
}

// FetchPdf returns the stored PDF bytes for a FINAL invoice
func (s *LifecycleService) FetchPdf(ctx context.Context, caller domain.Identity, id uuid.UUID) ([]byte, string, error) {
	inv, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, "", err
	}
	if inv.ServerPdfURL == nil || inv.InvoiceNumber == nil {
		return nil, "", ErrNotFound
	}

	data, _, err := s.blobs.Get(ctx, pdfContainer, pdfPath(inv.TenantID, *inv.InvoiceNumber))
	if err != nil {
		return nil, "", fmt.Errorf("%w: pdf retrieval: %v", ErrDependency, err)
	}

	return data, *inv.InvoiceNumber + ".pdf", nil
}

// pdfPath is the canonical blob path for an invoice PDF
func pdfPath(tenantID uuid.UUID, invoiceNumber string) string {
	return fmt.Sprintf("invoices/%s/%s.pdf", tenantID, invoiceNumber)
}
