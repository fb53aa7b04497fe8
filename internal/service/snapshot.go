package service

import (
	"encoding/json"
	"time"

	"github.com/boqflow/boqflow/internal/domain"
)

// snapshotSchemaVersion tags each snapshot so the schema can evolve
// without migrating historical records.
const snapshotSchemaVersion = 1

type snapshotLine struct {
	ItemName    string  `json:"itemName"`
	Description *string `json:"description,omitempty"`
	Unit        string  `json:"unit"`
	Quantity    string  `json:"quantity"`
	UnitPrice   string  `json:"unitPrice"`
	Amount      string  `json:"amount"`
}

type invoiceSnapshot struct {
	SchemaVersion int            `json:"schemaVersion"`
	InvoiceNumber *string        `json:"invoiceNumber,omitempty"`
	CustomerName  string         `json:"customerName"`
	ProjectSite   *string        `json:"projectSite,omitempty"`
	PreparedBy    *string        `json:"preparedBy,omitempty"`
	Date          string         `json:"date"`
	LineItemCount int            `json:"lineItemCount"`
	Items         []snapshotLine `json:"items"`
	Subtotal      *string        `json:"subtotal"`
	VatPercent    *string        `json:"vatPercent"`
	VatAmount     *string        `json:"vatAmount"`
	Total         *string        `json:"total"`
	CreatedAt     string         `json:"createdAt"`
}

// SnapshotInvoice serializes the invoice's self-contained state at a
// lifecycle transition. The record deliberately excludes every catalog
// key so it stays valid no matter what happens to the catalog later.
// Pure and deterministic given identical input: field order is fixed by
// the struct, and no clock or randomness is consulted.
func SnapshotInvoice(inv *domain.Invoice) (string, error) {
	snap := invoiceSnapshot{
		SchemaVersion: snapshotSchemaVersion,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerName:  inv.CustomerName,
		ProjectSite:   inv.ProjectSite,
		PreparedBy:    inv.PreparedBy,
		Date:          inv.Date,
		LineItemCount: len(inv.Lines),
		Items:         make([]snapshotLine, 0, len(inv.Lines)),
		Subtotal:      inv.Subtotal,
		VatPercent:    inv.VatPercent,
		VatAmount:     inv.VatAmount,
		Total:         inv.Total,
		CreatedAt:     inv.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	for _, line := range inv.Lines {
		snap.Items = append(snap.Items, snapshotLine{
			ItemName:    line.ItemName,
			Description: line.Description,
			Unit:        line.Unit,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Amount:      line.Amount,
		})
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
