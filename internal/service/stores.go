package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/boqflow/boqflow/internal/domain"
)

// Store interfaces consumed by the services. The repository package
// provides the Postgres implementations; tests substitute in-memory
// fakes.

// InvoiceStore persists invoices and their lines
type InvoiceStore interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	// FindByID returns the invoice with its lines, or (nil, nil) when
	// no row exists
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	List(ctx context.Context, filter domain.InvoiceListFilter) ([]domain.Invoice, int, error)
	// UpdateDraft replaces the header and line set atomically, guarded
	// by status = DRAFT. Returns false when the guard did not match.
	UpdateDraft(ctx context.Context, inv *domain.Invoice) (bool, error)
	// Transition persists a lifecycle transition guarded by the
	// expected current status. severLines additionally nulls every
	// line's catalog reference inside the same transaction. Returns
	// false when the status guard did not match.
	Transition(ctx context.Context, inv *domain.Invoice, from domain.InvoiceStatus, severLines bool) (bool, error)
	CountByNumberPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) (int, error)
}

// CommentStore persists invoice comments
type CommentStore interface {
	Add(ctx context.Context, c *domain.Comment) error
	// ListSince returns comments with createdAt strictly after since,
	// oldest first
	ListSince(ctx context.Context, invoiceID uuid.UUID, since time.Time) ([]domain.Comment, error)
}

// MediaStore persists invoice media records
type MediaStore interface {
	Add(ctx context.Context, m *domain.Media) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Media, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CatalogStore persists catalog versions and items
type CatalogStore interface {
	// CreateVersion assigns the next version number for the tenant,
	// archives any ACTIVE version and inserts the new one as ACTIVE,
	// all atomically
	CreateVersion(ctx context.Context, v *domain.CatalogVersion) error
	// Activate archives the current ACTIVE version and marks the
	// target ACTIVE atomically. Returns (nil, nil) when the version
	// does not exist for the tenant.
	Activate(ctx context.Context, tenantID uuid.UUID, versionNumber int) (*domain.CatalogVersion, error)
	// GetActive returns the ACTIVE version with items, or (nil, nil)
	// when the tenant has none
	GetActive(ctx context.Context, tenantID uuid.UUID) (*domain.CatalogVersion, error)
	ListVersions(ctx context.Context, tenantID uuid.UUID) ([]domain.CatalogVersion, error)
}

// UserStore looks up accounts for authentication
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// TenantStore looks up tenant header data (used for PDF rendering)
type TenantStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
}
