package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/boqflow/boqflow/internal/blob"
	"github.com/boqflow/boqflow/internal/domain"
)

type invoiceFixture struct {
	service  *InvoiceService
	invoices *fakeInvoiceStore
	comments *fakeCommentStore
	media    *fakeMediaStore
	catalogs *fakeCatalogStore
	blobs    *blob.Memory
	operator domain.Identity
	admin    domain.Identity
	now      time.Time
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()

	tenantID := uuid.New()
	f := &invoiceFixture{
		invoices: newFakeInvoiceStore(),
		comments: &fakeCommentStore{},
		media:    newFakeMediaStore(),
		catalogs: newFakeCatalogStore(),
		blobs:    blob.NewMemory(),
		operator: domain.Identity{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleOperator, Name: "Op"},
		admin:    domain.Identity{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleAdmin, Name: "Admin"},
		now:      time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	numbering := NewInvoiceNumbering(nil, f.invoices)
	f.service = NewInvoiceService(f.invoices, f.comments, f.media, f.catalogs, numbering, f.blobs).
		WithClock(func() time.Time { return f.now })
	return f
}

func draftInput() *domain.InvoiceInput {
	return &domain.InvoiceInput{
		Date:         "2026-03-15",
		CustomerName: "Acme Builders",
		Lines: []domain.InvoiceLineInput{
			{ItemName: "Excavation", Unit: "m3", UnitPrice: "4.50", Quantity: "10"},
		},
	}
}

func (f *invoiceFixture) activateCatalog(t *testing.T) *domain.CatalogVersion {
	t.Helper()
	v := &domain.CatalogVersion{
		ID:       uuid.New(),
		TenantID: f.operator.TenantID,
		Status:   domain.CatalogActive,
		Items:    []domain.CatalogItem{{ID: uuid.New(), Key: "EXC-001", Unit: "m3", Rate: "4.50"}},
	}
	if err := f.catalogs.CreateVersion(context.Background(), v); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	return v
}

func TestCreateAssignsNumberAndCatalogRef(t *testing.T) {
	f := newInvoiceFixture(t)
	f.activateCatalog(t)

	inv, err := f.service.Create(context.Background(), f.operator, draftInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.Status != domain.StatusDraft {
		t.Fatalf("status = %s, want DRAFT", inv.Status)
	}
	if inv.InvoiceNumber == nil || *inv.InvoiceNumber != "INV-2026-0001" {
		t.Fatalf("number = %v", inv.InvoiceNumber)
	}
	if inv.CatalogVersionRef == nil || *inv.CatalogVersionRef != 1 {
		t.Fatalf("catalog ref = %v, want 1", inv.CatalogVersionRef)
	}
	if inv.Subtotal != nil || inv.Total != nil {
		t.Fatal("totals must stay nil until submission")
	}
	if len(inv.Lines) != 1 || inv.Lines[0].Amount != "45.00" {
		t.Fatalf("lines = %+v", inv.Lines)
	}
}

func TestCreatePreservesDateVerbatim(t *testing.T) {
	f := newInvoiceFixture(t)

	// The date is an opaque client string. It is stored and served back
	// exactly as captured, never parsed or reformatted.
	for _, date := range []string{"2026-03-15", "15/03/2026", "15 March 2026"} {
		input := draftInput()
		input.Date = date

		inv, err := f.service.Create(context.Background(), f.operator, input)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := f.service.Get(context.Background(), f.operator, inv.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Date != date {
			t.Fatalf("date = %q, want %q verbatim", got.Date, date)
		}
	}
}

func TestCreateWithoutActiveCatalog(t *testing.T) {
	f := newInvoiceFixture(t)

	inv, err := f.service.Create(context.Background(), f.operator, draftInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.CatalogVersionRef != nil {
		t.Fatalf("catalog ref = %v, want nil without an active catalog", inv.CatalogVersionRef)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newInvoiceFixture(t)

	tests := []struct {
		name  string
		input *domain.InvoiceInput
	}{
		{"missing customer", &domain.InvoiceInput{Date: "2026-03-15"}},
		{"missing date", &domain.InvoiceInput{CustomerName: "Acme"}},
		{"line missing item name", &domain.InvoiceInput{
			Date: "2026-03-15", CustomerName: "Acme",
			Lines: []domain.InvoiceLineInput{{Unit: "m3", UnitPrice: "1", Quantity: "1"}},
		}},
		{"line missing unit", &domain.InvoiceInput{
			Date: "2026-03-15", CustomerName: "Acme",
			Lines: []domain.InvoiceLineInput{{ItemName: "Dig", UnitPrice: "1", Quantity: "1"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.service.Create(context.Background(), f.operator, tt.input); !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestGetEnforcesOperatorOwnership(t *testing.T) {
	f := newInvoiceFixture(t)

	inv, err := f.service.Create(context.Background(), f.operator, draftInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	other := domain.Identity{ID: uuid.New(), TenantID: f.operator.TenantID, Role: domain.RoleOperator}
	if _, err := f.service.Get(context.Background(), other, inv.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	// Admins see everything in their tenant.
	if _, err := f.service.Get(context.Background(), f.admin, inv.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}
}

func TestListFiltersOperatorsToOwnInvoices(t *testing.T) {
	f := newInvoiceFixture(t)

	if _, err := f.service.Create(context.Background(), f.operator, draftInput()); err != nil {
		t.Fatalf("create: %v", err)
	}
	other := domain.Identity{ID: uuid.New(), TenantID: f.operator.TenantID, Role: domain.RoleOperator, Name: "Other"}
	if _, err := f.service.Create(context.Background(), other, draftInput()); err != nil {
		t.Fatalf("create other: %v", err)
	}

	mine, err := f.service.List(context.Background(), f.operator, nil, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if mine.Total != 1 {
		t.Fatalf("operator sees %d invoices, want 1", mine.Total)
	}

	all, err := f.service.List(context.Background(), f.admin, nil, 0, 0)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if all.Total != 2 {
		t.Fatalf("admin sees %d invoices, want 2", all.Total)
	}
}

func TestUpdateDraftClearsRejection(t *testing.T) {
	f := newInvoiceFixture(t)

	inv, err := f.service.Create(context.Background(), f.operator, draftInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reason := "wrong rates"
	rejectedAt := f.now.Add(-time.Hour)
	f.invoices.mu.Lock()
	stored := f.invoices.invoices[inv.ID]
	stored.RejectionReason = &reason
	stored.RejectedBy = &f.admin.ID
	stored.RejectedAt = &rejectedAt
	f.invoices.mu.Unlock()

	updated, err := f.service.Update(context.Background(), f.operator, inv.ID, draftInput())
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.RejectionReason != nil || updated.RejectedBy != nil || updated.RejectedAt != nil {
		t.Fatal("rejection fields survived a draft edit")
	}
}

func TestUpdateRequiresDraft(t *testing.T) {
	f := newInvoiceFixture(t)

	inv, err := f.service.Create(context.Background(), f.operator, draftInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f.invoices.mu.Lock()
	f.invoices.invoices[inv.ID].Status = domain.StatusSubmitted
	f.invoices.mu.Unlock()

	if _, err := f.service.Update(context.Background(), f.operator, inv.ID, draftInput()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestAddCommentRejectedOnFinalInvoice(t *testing.T) {
	f := newInvoiceFixture(t)

	inv, err := f.service.Create(context.Background(), f.operator, draftInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	comment, err := f.service.AddComment(context.Background(), f.admin, inv.ID, "please recheck line 1")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if comment.AuthorName != "Admin" {
		t.Fatalf("author name = %q", comment.AuthorName)
	}

	f.invoices.mu.Lock()
	f.invoices.invoices[inv.ID].Status = domain.StatusFinal
	f.invoices.mu.Unlock()

	if _, err := f.service.AddComment(context.Background(), f.admin, inv.ID, "too late"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestAttachMediaRejectsNonImages(t *testing.T) {
	f := newInvoiceFixture(t)

	inv, err := f.service.Create(context.Background(), f.operator, draftInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.service.AttachMedia(context.Background(), f.operator, inv.ID, "notes.txt", "text/plain", []byte("x")); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestAttachAndRemoveMedia(t *testing.T) {
	f := newInvoiceFixture(t)

	inv, err := f.service.Create(context.Background(), f.operator, draftInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	m, err := f.service.AttachMedia(context.Background(), f.operator, inv.ID, "site.jpg", "image/jpeg", []byte("jpegdata"))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if m.URL == "" {
		t.Fatal("media url not set")
	}

	data, _, err := f.blobs.Get(context.Background(), m.BlobContainer, m.BlobPath)
	if err != nil {
		t.Fatalf("blob get: %v", err)
	}
	if string(data) != "jpegdata" {
		t.Fatalf("blob data = %q", data)
	}

	if err := f.service.RemoveMedia(context.Background(), f.operator, inv.ID, m.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, _, err := f.blobs.Get(context.Background(), m.BlobContainer, m.BlobPath); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("blob err = %v, want ErrNotFound after removal", err)
	}
	if got, _ := f.media.FindByID(context.Background(), m.ID); got != nil {
		t.Fatal("media record survived removal")
	}
}
