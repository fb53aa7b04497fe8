package service

import (
	"testing"

	"github.com/boqflow/boqflow/internal/domain"
)

func TestLineAmount(t *testing.T) {
	tests := []struct {
		name      string
		quantity  string
		unitPrice string
		want      string
	}{
		{"whole numbers", "2", "10", "20.00"},
		{"decimals", "1.5", "4.50", "6.75"},
		{"zero quantity", "0", "10", "0.00"},
		{"malformed quantity parses to zero", "abc", "10", "0.00"},
		{"empty strings", "", "", "0.00"},
		{"whitespace tolerated", " 3 ", " 2.00 ", "6.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lineAmount(tt.quantity, tt.unitPrice); got != tt.want {
				t.Fatalf("lineAmount(%q, %q) = %q, want %q", tt.quantity, tt.unitPrice, got, tt.want)
			}
		})
	}
}

func TestComputeTotals(t *testing.T) {
	lines := []domain.InvoiceLine{
		{Quantity: "2", UnitPrice: "10.00"},
		{Quantity: "1", UnitPrice: "5.00"},
	}

	subtotal, vatPercent, vatAmount, total := computeTotals(lines, nil)
	if subtotal != "25.00" {
		t.Fatalf("subtotal = %q", subtotal)
	}
	if vatPercent != "15.00" {
		t.Fatalf("vatPercent = %q, want tenant default", vatPercent)
	}
	if vatAmount != "3.75" {
		t.Fatalf("vatAmount = %q", vatAmount)
	}
	if total != "28.75" {
		t.Fatalf("total = %q", total)
	}
}

func TestComputeTotalsStoredVatRate(t *testing.T) {
	lines := []domain.InvoiceLine{{Quantity: "1", UnitPrice: "100.00"}}

	stored := "5"
	subtotal, vatPercent, vatAmount, total := computeTotals(lines, &stored)
	if subtotal != "100.00" || vatPercent != "5.00" || vatAmount != "5.00" || total != "105.00" {
		t.Fatalf("got %s/%s/%s/%s", subtotal, vatPercent, vatAmount, total)
	}
}

func TestComputeTotalsEmptyLines(t *testing.T) {
	subtotal, _, vatAmount, total := computeTotals(nil, nil)
	if subtotal != "0.00" || vatAmount != "0.00" || total != "0.00" {
		t.Fatalf("got %s/%s/%s", subtotal, vatAmount, total)
	}
}

func TestComputeTotalsSkipsStoredAmounts(t *testing.T) {
	// A stale line amount must not leak into the totals; only quantity
	// and unit price count.
	lines := []domain.InvoiceLine{{Quantity: "2", UnitPrice: "10.00", Amount: "999.99"}}

	subtotal, _, _, _ := computeTotals(lines, nil)
	if subtotal != "20.00" {
		t.Fatalf("subtotal = %q, want 20.00", subtotal)
	}
}
