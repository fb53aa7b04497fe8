package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/boqflow/boqflow/internal/domain"
)

func seedSyncInvoice(t *testing.T, invoices *fakeInvoiceStore, tenantID uuid.UUID, updatedAt time.Time) *domain.Invoice {
	t.Helper()
	inv := &domain.Invoice{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Status:    domain.StatusSubmitted,
		CreatedBy: uuid.New(),
		CreatedAt: updatedAt.Add(-time.Hour),
		UpdatedAt: updatedAt,
	}
	if err := invoices.Create(context.Background(), inv); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return inv
}

func TestGetUpdatesChangedWatermark(t *testing.T) {
	invoices := newFakeInvoiceStore()
	comments := &fakeCommentStore{}
	service := NewSyncService(invoices, comments)

	tenantID := uuid.New()
	caller := domain.Identity{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleOperator}
	updatedAt := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	inv := seedSyncInvoice(t, invoices, tenantID, updatedAt)

	tests := []struct {
		name    string
		since   int64
		changed bool
	}{
		{"zero watermark", 0, true},
		{"before update", updatedAt.Add(-time.Second).UnixMilli(), true},
		{"exactly at update", updatedAt.UnixMilli(), false},
		{"after update", updatedAt.Add(time.Second).UnixMilli(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updates, err := service.GetUpdates(context.Background(), caller, inv.ID, tt.since)
			if err != nil {
				t.Fatalf("get updates: %v", err)
			}
			if updates.Changed != tt.changed {
				t.Fatalf("changed = %v, want %v", updates.Changed, tt.changed)
			}
			if updates.LastUpdatedAt != updatedAt.UnixMilli() {
				t.Fatalf("lastUpdatedAt = %d, want %d", updates.LastUpdatedAt, updatedAt.UnixMilli())
			}
			if updates.Status != domain.StatusSubmitted {
				t.Fatalf("status = %s", updates.Status)
			}
		})
	}
}

func TestGetUpdatesPollLoopConverges(t *testing.T) {
	invoices := newFakeInvoiceStore()
	comments := &fakeCommentStore{}
	service := NewSyncService(invoices, comments)

	tenantID := uuid.New()
	caller := domain.Identity{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleOperator}
	updatedAt := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	inv := seedSyncInvoice(t, invoices, tenantID, updatedAt)

	first, err := service.GetUpdates(context.Background(), caller, inv.ID, 0)
	if err != nil {
		t.Fatalf("first poll: %v", err)
	}
	if !first.Changed {
		t.Fatal("first poll should report a change")
	}

	// A client advancing its watermark to LastUpdatedAt sees quiet on
	// the next tick.
	second, err := service.GetUpdates(context.Background(), caller, inv.ID, first.LastUpdatedAt)
	if err != nil {
		t.Fatalf("second poll: %v", err)
	}
	if second.Changed {
		t.Fatal("second poll reported a change with no update in between")
	}
	if len(second.NewComments) != 0 {
		t.Fatalf("second poll redelivered %d comments", len(second.NewComments))
	}
}

func TestGetUpdatesCommentsIndependentOfChanged(t *testing.T) {
	invoices := newFakeInvoiceStore()
	comments := &fakeCommentStore{}
	service := NewSyncService(invoices, comments)

	tenantID := uuid.New()
	caller := domain.Identity{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleOperator}
	updatedAt := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	inv := seedSyncInvoice(t, invoices, tenantID, updatedAt)

	// A comment lands after updatedAt without touching the invoice row.
	commentAt := updatedAt.Add(5 * time.Minute)
	if err := comments.Add(context.Background(), &domain.Comment{
		ID: uuid.New(), InvoiceID: inv.ID, AuthorID: uuid.New(), Body: "site photo attached", CreatedAt: commentAt,
	}); err != nil {
		t.Fatalf("add comment: %v", err)
	}

	updates, err := service.GetUpdates(context.Background(), caller, inv.ID, updatedAt.UnixMilli())
	if err != nil {
		t.Fatalf("get updates: %v", err)
	}
	if updates.Changed {
		t.Fatal("comment-only activity must not flip changed")
	}
	if len(updates.NewComments) != 1 {
		t.Fatalf("got %d new comments, want 1", len(updates.NewComments))
	}

	// Comments strictly before the watermark are not redelivered.
	later, err := service.GetUpdates(context.Background(), caller, inv.ID, commentAt.UnixMilli())
	if err != nil {
		t.Fatalf("later poll: %v", err)
	}
	if len(later.NewComments) != 0 {
		t.Fatalf("redelivered %d comments", len(later.NewComments))
	}
}

func TestGetUpdatesTenantIsolation(t *testing.T) {
	invoices := newFakeInvoiceStore()
	service := NewSyncService(invoices, &fakeCommentStore{})

	inv := seedSyncInvoice(t, invoices, uuid.New(), time.Now())

	outsider := domain.Identity{ID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleAdmin}
	if _, err := service.GetUpdates(context.Background(), outsider, inv.ID, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetUpdatesUnknownInvoice(t *testing.T) {
	service := NewSyncService(newFakeInvoiceStore(), &fakeCommentStore{})

	caller := domain.Identity{ID: uuid.New(), TenantID: uuid.New(), Role: domain.RoleAdmin}
	if _, err := service.GetUpdates(context.Background(), caller, uuid.New(), 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
