package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/boqflow/boqflow/internal/domain"
)

func TestNumberingFallbackFormat(t *testing.T) {
	invoices := newFakeInvoiceStore()
	numbering := NewInvoiceNumbering(nil, invoices)

	tenantID := uuid.New()
	number, err := numbering.Next(context.Background(), tenantID, 2026)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if number != "INV-2026-0001" {
		t.Fatalf("number = %q, want INV-2026-0001", number)
	}
}

func TestNumberingFallbackCountsExistingRows(t *testing.T) {
	invoices := newFakeInvoiceStore()
	numbering := NewInvoiceNumbering(nil, invoices)

	tenantID := uuid.New()
	for _, n := range []string{"INV-2026-0001", "INV-2026-0002", "INV-2025-0009"} {
		num := n
		err := invoices.Create(context.Background(), &domain.Invoice{
			ID: uuid.New(), TenantID: tenantID, InvoiceNumber: &num,
			Status: domain.StatusDraft, CreatedAt: time.Now(), UpdatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("seed invoice: %v", err)
		}
	}

	number, err := numbering.Next(context.Background(), tenantID, 2026)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	// Two existing 2026 numbers; the 2025 one is outside the prefix.
	if number != "INV-2026-0003" {
		t.Fatalf("number = %q, want INV-2026-0003", number)
	}
}

func TestNumberingIsTenantScoped(t *testing.T) {
	invoices := newFakeInvoiceStore()
	numbering := NewInvoiceNumbering(nil, invoices)

	other := uuid.New()
	num := "INV-2026-0001"
	err := invoices.Create(context.Background(), &domain.Invoice{
		ID: uuid.New(), TenantID: other, InvoiceNumber: &num,
		Status: domain.StatusDraft, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	number, err := numbering.Next(context.Background(), uuid.New(), 2026)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if number != "INV-2026-0001" {
		t.Fatalf("number = %q, another tenant's rows leaked into the count", number)
	}
}
