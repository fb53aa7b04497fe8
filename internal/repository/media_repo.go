package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/boqflow/boqflow/internal/domain"
)

// MediaRepository handles invoice media persistence
type MediaRepository struct {
	db *sql.DB
}

// NewMediaRepository creates a new media repository
func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// Add inserts a media record
func (r *MediaRepository) Add(ctx context.Context, m *domain.Media) error {
	query := `
		INSERT INTO media (id, invoice_id, url, mime_type, source, blob_container, blob_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.InvoiceID, m.URL, m.MimeType, m.Source, m.BlobContainer, m.BlobPath, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create media: %w", err)
	}
	return nil
}

// FindByID returns a media record, or (nil, nil) when absent
func (r *MediaRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Media, error) {
	query := `
		SELECT id, invoice_id, url, mime_type, source, blob_container, blob_path, created_at
		FROM media
		WHERE id = $1
	`
	var m domain.Media
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.InvoiceID, &m.URL, &m.MimeType, &m.Source, &m.BlobContainer, &m.BlobPath, &m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find media: %w", err)
	}
	return &m, nil
}

// ListByInvoice returns all media for an invoice, oldest first
func (r *MediaRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.Media, error) {
	query := `
		SELECT id, invoice_id, url, mime_type, source, blob_container, blob_path, created_at
		FROM media
		WHERE invoice_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	defer rows.Close()

	var media []domain.Media
	for rows.Next() {
		var m domain.Media
		if err := rows.Scan(
			&m.ID, &m.InvoiceID, &m.URL, &m.MimeType, &m.Source,
			&m.BlobContainer, &m.BlobPath, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		media = append(media, m)
	}

	return media, rows.Err()
}

// Delete removes a media record
func (r *MediaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("media not found")
	}
	return nil
}
