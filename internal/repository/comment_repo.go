package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/boqflow/boqflow/internal/domain"
)

// CommentRepository handles invoice comment persistence
type CommentRepository struct {
	db *sql.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Add inserts a comment
func (r *CommentRepository) Add(ctx context.Context, c *domain.Comment) error {
	query := `
		INSERT INTO comments (id, invoice_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.InvoiceID, c.AuthorID, c.Body, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// ListSince returns comments created strictly after since, oldest
// first, with the author name resolved.
func (r *CommentRepository) ListSince(ctx context.Context, invoiceID uuid.UUID, since time.Time) ([]domain.Comment, error) {
	query := `
		SELECT c.id, c.invoice_id, c.author_id, COALESCE(u.name, ''), c.body, c.created_at
		FROM comments c
		LEFT JOIN users u ON u.id = c.author_id
		WHERE c.invoice_id = $1 AND c.created_at > $2
		ORDER BY c.created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, invoiceID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.InvoiceID, &c.AuthorID, &c.AuthorName, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}
