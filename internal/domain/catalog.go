package domain

import (
	"time"

	"github.com/google/uuid"
)

// CatalogStatus represents the state of a catalog version
type CatalogStatus string

const (
	CatalogActive   CatalogStatus = "ACTIVE"
	CatalogArchived CatalogStatus = "ARCHIVED"
)

// CatalogVersion is an immutable snapshot of priced items (a Bill of
// Quantities upload). At most one version is ACTIVE per tenant at any
// time; version numbers strictly increase per tenant and are never
// reused.
type CatalogVersion struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	TenantID      uuid.UUID     `json:"tenant_id" db:"tenant_id"`
	Name          string        `json:"name" db:"name"`
	VersionNumber int           `json:"version" db:"version_number"`
	Status        CatalogStatus `json:"status" db:"status"`
	UploadedBy    uuid.UUID     `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	Items         []CatalogItem `json:"items,omitempty"`
}

// CatalogItem is a priced line in a catalog version. Immutable once its
// owning version is created; a rate change requires a new version.
type CatalogItem struct {
	ID             uuid.UUID `json:"id" db:"id"`
	VersionID      uuid.UUID `json:"-" db:"version_id"`
	Key            string    `json:"key" db:"item_key"`
	Description    string    `json:"description" db:"description"`
	Unit           string    `json:"unit" db:"unit"`
	Rate           string    `json:"rate" db:"rate"`
	Category       string    `json:"category,omitempty" db:"category"`
	SearchableText string    `json:"-" db:"searchable_text"`
}

// CatalogUploadRequest carries the parsed item set for a new version.
// Spreadsheet parsing happens upstream; the engine receives items.
type CatalogUploadRequest struct {
	Name  string              `json:"name,omitempty"`
	Items []CatalogUploadItem `json:"items"`
}

// CatalogUploadItem is one row of a catalog upload
type CatalogUploadItem struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
	Rate        string `json:"rate"`
	Category    string `json:"category,omitempty"`
}

// CatalogSearchResult is the response to an item search against the
// active version. Version is 0 with an empty item list when the tenant
// has no active catalog.
type CatalogSearchResult struct {
	Version int           `json:"version"`
	Items   []CatalogItem `json:"items"`
}
