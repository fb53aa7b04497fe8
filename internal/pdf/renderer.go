// Package pdf renders approved invoices. The renderer receives only
// the invoice, its lines and tenant header data; it has no catalog
// access, which enforces the decoupling invariant architecturally.
package pdf

import (
	"context"

	"github.com/boqflow/boqflow/internal/domain"
)

// Renderer produces the final PDF artifact for an invoice
type Renderer interface {
	Render(ctx context.Context, inv *domain.Invoice, tenant *domain.Tenant) ([]byte, error)
}
