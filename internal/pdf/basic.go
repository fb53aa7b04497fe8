package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/boqflow/boqflow/internal/domain"
)

// BasicRenderer writes a single-page text PDF: header fields, the line
// table and totals. It depends on nothing but the invoice rows handed
// to it.
type BasicRenderer struct{}

// NewBasicRenderer creates the built-in renderer
func NewBasicRenderer() *BasicRenderer {
	return &BasicRenderer{}
}

// Render produces the PDF bytes for the invoice
func (r *BasicRenderer) Render(ctx context.Context, inv *domain.Invoice, tenant *domain.Tenant) ([]byte, error) {
	if inv == nil {
		return nil, fmt.Errorf("nil invoice")
	}

	lines := make([]string, 0, len(inv.Lines)+16)
	if tenant != nil {
		lines = append(lines, tenant.Name)
		if tenant.Address != nil {
			lines = append(lines, *tenant.Address)
		}
		if tenant.VatNumber != nil {
			lines = append(lines, "VAT No: "+*tenant.VatNumber)
		}
		lines = append(lines, "")
	}

	number := "(unnumbered)"
	if inv.InvoiceNumber != nil {
		number = *inv.InvoiceNumber
	}
	lines = append(lines,
		"TAX INVOICE "+number,
		"Date: "+inv.Date,
		"Customer: "+inv.CustomerName,
	)
	if inv.ProjectSite != nil {
		lines = append(lines, "Project/Site: "+*inv.ProjectSite)
	}
	if inv.PreparedBy != nil {
		lines = append(lines, "Prepared by: "+*inv.PreparedBy)
	}
	lines = append(lines, "", fmt.Sprintf("%-28s %8s %10s %12s %12s", "Item", "Unit", "Qty", "Unit Price", "Amount"))

	for _, line := range inv.Lines {
		name := line.ItemName
		if len(name) > 28 {
			name = name[:28]
		}
		lines = append(lines, fmt.Sprintf("%-28s %8s %10s %12s %12s",
			name, line.Unit, line.Quantity, line.UnitPrice, line.Amount))
	}

	lines = append(lines, "")
	if inv.Subtotal != nil {
		lines = append(lines, fmt.Sprintf("%60s %12s", "Subtotal:", *inv.Subtotal))
	}
	if inv.VatPercent != nil && inv.VatAmount != nil {
		lines = append(lines, fmt.Sprintf("%60s %12s", "VAT ("+*inv.VatPercent+"%):", *inv.VatAmount))
	}
	if inv.Total != nil {
		lines = append(lines, fmt.Sprintf("%60s %12s", "TOTAL:", *inv.Total))
	}

	return writePdf(lines), nil
}

// escapeText escapes characters reserved inside PDF string literals
func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	s = strings.ReplaceAll(s, ")", `\)`)
	return s
}

// writePdf assembles a minimal valid single-page PDF with the given
// text lines in Courier.
func writePdf(textLines []string) []byte {
	var content bytes.Buffer
	content.WriteString("BT\n/F1 9 Tf\n40 800 Td\n11 TL\n")
	for _, line := range textLines {
		fmt.Fprintf(&content, "(%s) Tj\nT*\n", escapeText(line))
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Courier >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefStart := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", len(objects)+1)
	out.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&out, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart)

	return out.Bytes()
}
