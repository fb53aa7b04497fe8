package domain

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	// StatusDraft is the initial, mutable state
	StatusDraft InvoiceStatus = "DRAFT"
	// StatusSubmitted means totals are frozen and catalog references severed
	StatusSubmitted InvoiceStatus = "SUBMITTED"
	// StatusApproved is a legacy alias; approval persists as FINAL
	StatusApproved InvoiceStatus = "APPROVED"
	// StatusRejected is advisory only: a rejection lands the invoice back
	// in DRAFT with the reason recorded, so it is never observed as the
	// current status
	StatusRejected InvoiceStatus = "REJECTED"
	// StatusFinal is the only terminal state
	StatusFinal InvoiceStatus = "FINAL"
)

// Terminal reports whether no further status change is permitted
func (s InvoiceStatus) Terminal() bool {
	return s == StatusFinal
}

// Invoice is the aggregate undergoing the lifecycle. Totals are nil
// while DRAFT and frozen from SUBMITTED onward. CatalogVersionRef is
// non-nil only while DRAFT; once the status leaves DRAFT the reference
// is cleared and MetadataSnapshot is the authoritative record.
type Invoice struct {
	ID                uuid.UUID     `json:"id" db:"id"`
	TenantID          uuid.UUID     `json:"tenant_id" db:"tenant_id"`
	InvoiceNumber     *string       `json:"invoice_number,omitempty" db:"invoice_number"`
	Date              string        `json:"date" db:"invoice_date"`
	CustomerName      string        `json:"customer_name" db:"customer_name"`
	CustomerEmail     *string       `json:"customer_email,omitempty" db:"customer_email"`
	ProjectSite       *string       `json:"project_site,omitempty" db:"project_site"`
	PreparedBy        *string       `json:"prepared_by,omitempty" db:"prepared_by"`
	Area              *string       `json:"area,omitempty" db:"area"`
	JobNo             *string       `json:"job_no,omitempty" db:"job_no"`
	GRN               *string       `json:"grn,omitempty" db:"grn"`
	PO                *string       `json:"po,omitempty" db:"po"`
	Address           *string       `json:"address,omitempty" db:"address"`
	Status            InvoiceStatus `json:"status" db:"status"`
	Subtotal          *string       `json:"subtotal,omitempty" db:"subtotal"`
	VatPercent        *string       `json:"vat_percent,omitempty" db:"vat_percent"`
	VatAmount         *string       `json:"vat_amount,omitempty" db:"vat_amount"`
	Total             *string       `json:"total,omitempty" db:"total"`
	CatalogVersionRef *int          `json:"catalog_version,omitempty" db:"catalog_version_ref"`
	MetadataSnapshot  *string       `json:"metadata_snapshot,omitempty" db:"metadata_snapshot"`
	ServerPdfURL      *string       `json:"server_pdf_url,omitempty" db:"server_pdf_url"`
	RejectionReason   *string       `json:"rejection_reason,omitempty" db:"rejection_reason"`
	RejectedBy        *uuid.UUID    `json:"rejected_by,omitempty" db:"rejected_by"`
	RejectedAt        *time.Time    `json:"rejected_at,omitempty" db:"rejected_at"`
	SubmittedAt       *time.Time    `json:"submitted_at,omitempty" db:"submitted_at"`
	ApprovedBy        *uuid.UUID    `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt        *time.Time    `json:"approved_at,omitempty" db:"approved_at"`
	CreatedBy         uuid.UUID     `json:"created_by" db:"created_by"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
	Lines             []InvoiceLine `json:"lines"`
	Comments          []Comment     `json:"comments,omitempty"`
	Media             []Media       `json:"media,omitempty"`
}

// InvoiceLine is one priced line of an invoice. CatalogItemRef, if ever
// set, is cleared no later than the SUBMITTED transition: a line must
// be able to exist and be priced with zero dependency on the catalog
// version it originated from.
type InvoiceLine struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	InvoiceID      uuid.UUID  `json:"invoice_id" db:"invoice_id"`
	ItemName       string     `json:"item_name" db:"item_name"`
	Description    *string    `json:"description,omitempty" db:"description"`
	Unit           string     `json:"unit" db:"unit"`
	UnitPrice      string     `json:"unit_price" db:"unit_price"`
	Quantity       string     `json:"quantity" db:"quantity"`
	Amount         string     `json:"amount" db:"amount"`
	CatalogItemRef *uuid.UUID `json:"catalog_item_ref,omitempty" db:"catalog_item_ref"`
}

// InvoiceLineInput is a line as supplied by a client
type InvoiceLineInput struct {
	ItemName       string     `json:"item_name"`
	Description    *string    `json:"description,omitempty"`
	Unit           string     `json:"unit"`
	UnitPrice      string     `json:"unit_price"`
	Quantity       string     `json:"quantity"`
	Amount         *string    `json:"amount,omitempty"`
	CatalogItemRef *uuid.UUID `json:"catalog_item_ref,omitempty"`
}

// InvoiceInput carries the editable header fields plus the full line
// set. Updates replace the line set wholesale rather than patching.
type InvoiceInput struct {
	Date          string             `json:"date"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail *string            `json:"customer_email,omitempty"`
	ProjectSite   *string            `json:"project_site,omitempty"`
	PreparedBy    *string            `json:"prepared_by,omitempty"`
	Area          *string            `json:"area,omitempty"`
	JobNo         *string            `json:"job_no,omitempty"`
	GRN           *string            `json:"grn,omitempty"`
	PO            *string            `json:"po,omitempty"`
	Address       *string            `json:"address,omitempty"`
	Lines         []InvoiceLineInput `json:"lines,omitempty"`
}

// InvoiceListFilter narrows an invoice listing
type InvoiceListFilter struct {
	TenantID  uuid.UUID
	CreatedBy *uuid.UUID // set for operators, who only see their own
	Status    *InvoiceStatus
	Limit     int
	Offset    int
}

// InvoiceList is a paginated listing response
type InvoiceList struct {
	Invoices []Invoice `json:"invoices"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// InvoiceUpdates is the polling protocol response. Changed is true iff
// the invoice's updatedAt strictly exceeds the client watermark.
// NewComments is filtered independently of Changed because a
// comment-only change does not always bump updatedAt; callers treat it
// as authoritative for comments regardless of Changed.
type InvoiceUpdates struct {
	Changed       bool          `json:"changed"`
	LastUpdatedAt int64         `json:"lastUpdatedAt"`
	Status        InvoiceStatus `json:"status"`
	NewComments   []Comment     `json:"comments"`
	ServerPdfURL  *string       `json:"serverPdfUrl,omitempty"`
}
