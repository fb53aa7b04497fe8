package domain

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a side-channel note on an invoice. Comments are permitted
// in any non-terminal status and are not part of the frozen financial
// snapshot.
type Comment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	InvoiceID  uuid.UUID `json:"invoice_id" db:"invoice_id"`
	AuthorID   uuid.UUID `json:"author_id" db:"author_id"`
	AuthorName string    `json:"author_name,omitempty" db:"author_name"`
	Body       string    `json:"body" db:"body"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
