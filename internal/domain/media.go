package domain

import (
	"time"

	"github.com/google/uuid"
)

// Media is a photo or other attachment on an invoice, stored in the
// blob store. Like comments, media is a side channel outside the
// frozen financial snapshot.
type Media struct {
	ID            uuid.UUID `json:"id" db:"id"`
	InvoiceID     uuid.UUID `json:"invoice_id" db:"invoice_id"`
	URL           string    `json:"url" db:"url"`
	MimeType      string    `json:"mime_type" db:"mime_type"`
	Source        string    `json:"source" db:"source"`
	BlobContainer string    `json:"-" db:"blob_container"`
	BlobPath      string    `json:"-" db:"blob_path"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
