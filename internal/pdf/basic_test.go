package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/boqflow/boqflow/internal/domain"
)

func renderSubject() *domain.Invoice {
	number := "INV-2026-0001"
	subtotal, vatPercent, vatAmount, total := "25.00", "15.00", "3.75", "28.75"
	return &domain.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: &number,
		Date:          "2026-03-15",
		CustomerName:  "Acme Builders (Pvt) Ltd",
		Subtotal:      &subtotal,
		VatPercent:    &vatPercent,
		VatAmount:     &vatAmount,
		Total:         &total,
		Lines: []domain.InvoiceLine{
			{ItemName: "Excavation", Unit: "m3", UnitPrice: "10.00", Quantity: "2", Amount: "20.00"},
			{ItemName: "Backfill", Unit: "m3", UnitPrice: "5.00", Quantity: "1", Amount: "5.00"},
		},
	}
}

func TestRenderProducesValidPdfStructure(t *testing.T) {
	renderer := NewBasicRenderer()

	data, err := renderer.Render(context.Background(), renderSubject(), nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-1.4")) {
		t.Fatalf("missing pdf header: %q", data[:16])
	}
	for _, marker := range []string{"xref", "trailer", "startxref", "%%EOF"} {
		if !bytes.Contains(data, []byte(marker)) {
			t.Fatalf("pdf missing %q", marker)
		}
	}
}

func TestRenderIncludesInvoiceContent(t *testing.T) {
	renderer := NewBasicRenderer()
	tenantName := "Demo Contracting"
	tenant := &domain.Tenant{ID: uuid.New(), Name: tenantName}

	data, err := renderer.Render(context.Background(), renderSubject(), tenant)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{"TAX INVOICE INV-2026-0001", "Excavation", "28.75", tenantName} {
		if !bytes.Contains(data, []byte(want)) {
			t.Fatalf("pdf missing %q", want)
		}
	}

	// Parens in the customer name must be escaped inside the literal.
	if !bytes.Contains(data, []byte(`\(Pvt\)`)) {
		t.Fatal("reserved characters not escaped")
	}
}

func TestRenderNilInvoice(t *testing.T) {
	renderer := NewBasicRenderer()
	if _, err := renderer.Render(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for nil invoice")
	}
}

func TestEscapeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"(parens)", `\(parens\)`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeText(tt.in); got != tt.want {
			t.Fatalf("escapeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
