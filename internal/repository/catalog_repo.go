package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/boqflow/boqflow/internal/domain"
)

// CatalogRepository handles catalog version and item persistence.
// Version creation and activation both run inside a single transaction
// holding the tenant row lock, so readers never observe zero or two
// ACTIVE versions for a tenant.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// lockTenant serializes catalog mutations per tenant
func lockTenant(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRowContext(ctx, `SELECT id FROM tenants WHERE id = $1 FOR UPDATE`, tenantID).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to lock tenant: %w", err)
	}
	return nil
}

// CreateVersion assigns the next version number, archives any ACTIVE
// version and inserts the new version as ACTIVE with its items, all
// atomically.
func (r *CatalogRepository) CreateVersion(ctx context.Context, v *domain.CatalogVersion) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockTenant(ctx, tx, v.TenantID); err != nil {
		return err
	}

	var maxVersion int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version_number), 0) FROM catalog_versions WHERE tenant_id = $1`,
		v.TenantID,
	).Scan(&maxVersion)
	if err != nil {
		return fmt.Errorf("failed to read latest version number: %w", err)
	}
	v.VersionNumber = maxVersion + 1
	if v.Name == "" {
		v.Name = fmt.Sprintf("BOQ v%d", v.VersionNumber)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE catalog_versions SET status = $1 WHERE tenant_id = $2 AND status = $3`,
		domain.CatalogArchived, v.TenantID, domain.CatalogActive,
	)
	if err != nil {
		return fmt.Errorf("failed to archive active version: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO catalog_versions (id, tenant_id, name, version_number, status, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, v.ID, v.TenantID, v.Name, v.VersionNumber, v.Status, v.UploadedBy, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create catalog version: %w", err)
	}

	itemQuery := `
		INSERT INTO catalog_items (id, version_id, item_key, description, unit, rate, category, searchable_text, seq)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for i := range v.Items {
		v.Items[i].VersionID = v.ID
		item := v.Items[i]
		_, err := tx.ExecContext(ctx, itemQuery,
			item.ID, item.VersionID, item.Key, item.Description, item.Unit,
			item.Rate, item.Category, item.SearchableText, i,
		)
		if err != nil {
			return fmt.Errorf("failed to create catalog item: %w", err)
		}
	}

	return tx.Commit()
}

// Activate archives the current ACTIVE version and marks the target
// ACTIVE inside one transaction. Returns (nil, nil) when the version
// does not exist for the tenant.
func (r *CatalogRepository) Activate(ctx context.Context, tenantID uuid.UUID, versionNumber int) (*domain.CatalogVersion, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockTenant(ctx, tx, tenantID); err != nil {
		return nil, err
	}

	var v domain.CatalogVersion
	err = tx.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, version_number, status, uploaded_by, created_at
		FROM catalog_versions
		WHERE tenant_id = $1 AND version_number = $2
	`, tenantID, versionNumber).Scan(
		&v.ID, &v.TenantID, &v.Name, &v.VersionNumber, &v.Status, &v.UploadedBy, &v.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find catalog version: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE catalog_versions SET status = $1 WHERE tenant_id = $2 AND status = $3`,
		domain.CatalogArchived, tenantID, domain.CatalogActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to archive active version: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE catalog_versions SET status = $1 WHERE id = $2`,
		domain.CatalogActive, v.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to activate version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	v.Status = domain.CatalogActive
	return &v, nil
}

// GetActive returns the ACTIVE version with its items, or (nil, nil)
// when the tenant has none.
func (r *CatalogRepository) GetActive(ctx context.Context, tenantID uuid.UUID) (*domain.CatalogVersion, error) {
	var v domain.CatalogVersion
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, version_number, status, uploaded_by, created_at
		FROM catalog_versions
		WHERE tenant_id = $1 AND status = $2
	`, tenantID, domain.CatalogActive).Scan(
		&v.ID, &v.TenantID, &v.Name, &v.VersionNumber, &v.Status, &v.UploadedBy, &v.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active catalog: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version_id, item_key, description, unit, rate, category, searchable_text
		FROM catalog_items
		WHERE version_id = $1
		ORDER BY seq
	`, v.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CatalogItem
		if err := rows.Scan(
			&item.ID, &item.VersionID, &item.Key, &item.Description,
			&item.Unit, &item.Rate, &item.Category, &item.SearchableText,
		); err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		v.Items = append(v.Items, item)
	}

	return &v, rows.Err()
}

// ListVersions returns all versions for a tenant, newest first,
// without items.
func (r *CatalogRepository) ListVersions(ctx context.Context, tenantID uuid.UUID) ([]domain.CatalogVersion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, version_number, status, uploaded_by, created_at
		FROM catalog_versions
		WHERE tenant_id = $1
		ORDER BY version_number DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.CatalogVersion
	for rows.Next() {
		var v domain.CatalogVersion
		if err := rows.Scan(
			&v.ID, &v.TenantID, &v.Name, &v.VersionNumber, &v.Status, &v.UploadedBy, &v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan catalog version: %w", err)
		}
		versions = append(versions, v)
	}

	return versions, rows.Err()
}
