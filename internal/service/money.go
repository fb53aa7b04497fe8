package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/boqflow/boqflow/internal/domain"
)

// defaultVatPercent is the tenant default applied when an invoice
// carries no rate of its own.
const defaultVatPercent = "15"

// parseAmount parses a decimal string defensively: malformed input
// (partially-entered client data) parses to zero rather than erroring.
func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// lineAmount computes quantity x unitPrice as a fixed two-decimal string
func lineAmount(quantity, unitPrice string) string {
	return parseAmount(quantity).Mul(parseAmount(unitPrice)).StringFixed(2)
}

// computeTotals derives subtotal, VAT and total from the current lines.
// vatPercent resolves from the invoice's stored rate or the tenant
// default when absent. All results are string-encoded decimals with two
// fixed places, ready to freeze onto the invoice.
func computeTotals(lines []domain.InvoiceLine, storedVatPercent *string) (subtotal, vatPercent, vatAmount, total string) {
	sub := decimal.Zero
	for _, line := range lines {
		sub = sub.Add(parseAmount(line.Quantity).Mul(parseAmount(line.UnitPrice)))
	}

	pct := defaultVatPercent
	if storedVatPercent != nil && strings.TrimSpace(*storedVatPercent) != "" {
		pct = *storedVatPercent
	}
	rate := parseAmount(pct)

	vat := sub.Mul(rate).Div(decimal.NewFromInt(100))
	tot := sub.Add(vat)

	return sub.StringFixed(2), rate.StringFixed(2), vat.StringFixed(2), tot.StringFixed(2)
}
