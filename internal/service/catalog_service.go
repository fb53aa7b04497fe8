package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/boqflow/boqflow/internal/domain"
)

// CatalogService manages versioned catalog (BOQ) snapshots. Uploaded
// versions are immutable; a price change always means a new version.
type CatalogService struct {
	catalogs CatalogStore
	now      func() time.Time
}

// NewCatalogService creates a new catalog service
func NewCatalogService(catalogs CatalogStore) *CatalogService {
	return &CatalogService{catalogs: catalogs, now: time.Now}
}

// Upload validates an item set and creates the next catalog version for
// the caller's tenant, activating it atomically.
func (s *CatalogService) Upload(ctx context.Context, caller domain.Identity, req *domain.CatalogUploadRequest) (*domain.CatalogVersion, error) {
	if !caller.Elevated() {
		return nil, ErrForbidden
	}

	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: catalog upload requires at least one item", ErrValidation)
	}

	seen := make(map[string]bool, len(req.Items))
	items := make([]domain.CatalogItem, 0, len(req.Items))
	for i, in := range req.Items {
		key := strings.TrimSpace(in.Key)
		if key == "" {
			return nil, fmt.Errorf("%w: item %d is missing a key", ErrValidation, i+1)
		}
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate item key %q", ErrValidation, key)
		}
		seen[key] = true
		if strings.TrimSpace(in.Unit) == "" {
			return nil, fmt.Errorf("%w: item %q is missing a unit", ErrValidation, key)
		}
		if _, err := decimal.NewFromString(strings.TrimSpace(in.Rate)); err != nil {
			return nil, fmt.Errorf("%w: item %q has an unparseable rate %q", ErrValidation, key, in.Rate)
		}

		items = append(items, domain.CatalogItem{
			ID:             uuid.New(),
			Key:            key,
			Description:    in.Description,
			Unit:           in.Unit,
			Rate:           strings.TrimSpace(in.Rate),
			Category:       in.Category,
			SearchableText: strings.ToLower(key + " " + in.Description),
		})
	}

	version := &domain.CatalogVersion{
		ID:         uuid.New(),
		TenantID:   caller.TenantID,
		Name:       strings.TrimSpace(req.Name),
		Status:     domain.CatalogActive,
		UploadedBy: caller.ID,
		CreatedAt:  s.now(),
		Items:      items,
	}

	if err := s.catalogs.CreateVersion(ctx, version); err != nil {
		return nil, err
	}

	return version, nil
}

// Activate archives the current ACTIVE version and marks the target
// ACTIVE. The store performs both inside one transaction so readers
// never observe zero or two active versions.
func (s *CatalogService) Activate(ctx context.Context, caller domain.Identity, versionNumber int) (*domain.CatalogVersion, error) {
	if !caller.Elevated() {
		return nil, ErrForbidden
	}

	version, err := s.catalogs.Activate(ctx, caller.TenantID, versionNumber)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, ErrNotFound
	}

	return version, nil
}

// ListVersions returns all catalog versions for the caller's tenant,
// newest first.
func (s *CatalogService) ListVersions(ctx context.Context, caller domain.Identity) ([]domain.CatalogVersion, error) {
	return s.catalogs.ListVersions(ctx, caller.TenantID)
}

// GetActive returns the tenant's ACTIVE version, or nil when the tenant
// has none. Having no active catalog is a normal condition for a fresh
// tenant, not an error.
func (s *CatalogService) GetActive(ctx context.Context, caller domain.Identity) (*domain.CatalogVersion, error) {
	return s.catalogs.GetActive(ctx, caller.TenantID)
}

// Search performs a case-insensitive substring match over the ACTIVE
// version only. The match runs against each item's searchable text,
// the lowercased key and description joined by a space, so a query may
// span the two, plus the category. Submitted invoices never re-resolve
// against this.
func (s *CatalogService) Search(ctx context.Context, caller domain.Identity, query string, limit int) (*domain.CatalogSearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	active, err := s.catalogs.GetActive(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return &domain.CatalogSearchResult{Version: 0, Items: []domain.CatalogItem{}}, nil
	}

	q := strings.ToLower(strings.TrimSpace(query))
	matched := make([]domain.CatalogItem, 0, limit)
	for _, item := range active.Items {
		if len(matched) >= limit {
			break
		}
		if q == "" ||
			strings.Contains(item.SearchableText, q) ||
			strings.Contains(strings.ToLower(item.Category), q) {
			matched = append(matched, item)
		}
	}

	return &domain.CatalogSearchResult{Version: active.VersionNumber, Items: matched}, nil
}
