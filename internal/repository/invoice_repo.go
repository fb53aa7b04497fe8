package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/boqflow/boqflow/internal/domain"
)

// InvoiceRepository handles invoice and invoice line persistence
type InvoiceRepository struct {
	db *sql.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `
	id, tenant_id, invoice_number, invoice_date, customer_name, customer_email,
	project_site, prepared_by, area, job_no, grn, po, address, status,
	subtotal, vat_percent, vat_amount, total, catalog_version_ref,
	metadata_snapshot, server_pdf_url, rejection_reason, rejected_by,
	rejected_at, submitted_at, approved_by, approved_at, created_by,
	created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := row.Scan(
		&inv.ID,
		&inv.TenantID,
		&inv.InvoiceNumber,
		&inv.Date,
		&inv.CustomerName,
		&inv.CustomerEmail,
		&inv.ProjectSite,
		&inv.PreparedBy,
		&inv.Area,
		&inv.JobNo,
		&inv.GRN,
		&inv.PO,
		&inv.Address,
		&inv.Status,
		&inv.Subtotal,
		&inv.VatPercent,
		&inv.VatAmount,
		&inv.Total,
		&inv.CatalogVersionRef,
		&inv.MetadataSnapshot,
		&inv.ServerPdfURL,
		&inv.RejectionReason,
		&inv.RejectedBy,
		&inv.RejectedAt,
		&inv.SubmittedAt,
		&inv.ApprovedBy,
		&inv.ApprovedAt,
		&inv.CreatedBy,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}
	return &inv, nil
}

// Create inserts an invoice with its lines in one transaction
func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
		        $27, $28, $29, $30)
	`
	_, err = tx.ExecContext(ctx, query,
		inv.ID, inv.TenantID, inv.InvoiceNumber, inv.Date, inv.CustomerName,
		inv.CustomerEmail, inv.ProjectSite, inv.PreparedBy, inv.Area, inv.JobNo,
		inv.GRN, inv.PO, inv.Address, inv.Status, inv.Subtotal, inv.VatPercent,
		inv.VatAmount, inv.Total, inv.CatalogVersionRef, inv.MetadataSnapshot,
		inv.ServerPdfURL, inv.RejectionReason, inv.RejectedBy, inv.RejectedAt,
		inv.SubmittedAt, inv.ApprovedBy, inv.ApprovedAt, inv.CreatedBy,
		inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	if err := insertLines(ctx, tx, inv.ID, inv.Lines); err != nil {
		return err
	}

	return tx.Commit()
}

func insertLines(ctx context.Context, tx *sql.Tx, invoiceID uuid.UUID, lines []domain.InvoiceLine) error {
	query := `
		INSERT INTO invoice_lines (id, invoice_id, item_name, description, unit,
		                           unit_price, quantity, amount, catalog_item_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, line := range lines {
		_, err := tx.ExecContext(ctx, query,
			line.ID, invoiceID, line.ItemName, line.Description, line.Unit,
			line.UnitPrice, line.Quantity, line.Amount, line.CatalogItemRef,
		)
		if err != nil {
			return fmt.Errorf("failed to create invoice line: %w", err)
		}
	}
	return nil
}

// FindByID returns an invoice with its lines, or (nil, nil) when absent
func (r *InvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if err != nil || inv == nil {
		return inv, err
	}

	lines, err := r.findLines(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines

	return inv, nil
}

func (r *InvoiceRepository) findLines(ctx context.Context, invoiceID uuid.UUID) ([]domain.InvoiceLine, error) {
	query := `
		SELECT id, invoice_id, item_name, description, unit, unit_price,
		       quantity, amount, catalog_item_ref
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY seq
	`
	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.InvoiceLine
	for rows.Next() {
		var line domain.InvoiceLine
		if err := rows.Scan(
			&line.ID, &line.InvoiceID, &line.ItemName, &line.Description,
			&line.Unit, &line.UnitPrice, &line.Quantity, &line.Amount,
			&line.CatalogItemRef,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice line: %w", err)
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

// List returns a filtered page of invoices (headers and lines), newest
// updated first, plus the total match count.
func (r *InvoiceRepository) List(ctx context.Context, filter domain.InvoiceListFilter) ([]domain.Invoice, int, error) {
	where := "WHERE tenant_id = $1"
	args := []interface{}{filter.TenantID}

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		where += fmt.Sprintf(" AND created_by = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM invoices " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(
		"SELECT "+invoiceColumns+" FROM invoices %s ORDER BY updated_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range invoices {
		lines, err := r.findLines(ctx, invoices[i].ID)
		if err != nil {
			return nil, 0, err
		}
		invoices[i].Lines = lines
	}

	return invoices, total, nil
}

// UpdateDraft replaces the header and line set of a DRAFT invoice in
// one transaction, clearing rejection fields. Returns false when the
// invoice is no longer DRAFT (the status guard did not match).
func (r *InvoiceRepository) UpdateDraft(ctx context.Context, inv *domain.Invoice) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE invoices SET
			invoice_date = $1, customer_name = $2, customer_email = $3,
			project_site = $4, prepared_by = $5, area = $6, job_no = $7,
			grn = $8, po = $9, address = $10, catalog_version_ref = $11,
			rejection_reason = NULL, rejected_by = NULL, rejected_at = NULL,
			updated_at = $12
		WHERE id = $13 AND status = $14
	`
	result, err := tx.ExecContext(ctx, query,
		inv.Date, inv.CustomerName, inv.CustomerEmail, inv.ProjectSite,
		inv.PreparedBy, inv.Area, inv.JobNo, inv.GRN, inv.PO, inv.Address,
		inv.CatalogVersionRef, inv.UpdatedAt, inv.ID, domain.StatusDraft,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update invoice: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	// Delete-then-recreate the line set within the same transaction so
	// no reader observes a zero-line invoice.
	if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1`, inv.ID); err != nil {
		return false, fmt.Errorf("failed to delete invoice lines: %w", err)
	}
	if err := insertLines(ctx, tx, inv.ID, inv.Lines); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// Transition persists a lifecycle transition guarded by the expected
// current status. severLines additionally clears every line's catalog
// reference within the same transaction. Returns false when the guard
// did not match (a concurrent transition won).
func (r *InvoiceRepository) Transition(ctx context.Context, inv *domain.Invoice, from domain.InvoiceStatus, severLines bool) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE invoices SET
			status = $1, invoice_number = $2, subtotal = $3, vat_percent = $4,
			vat_amount = $5, total = $6, catalog_version_ref = $7,
			metadata_snapshot = $8, server_pdf_url = $9, rejection_reason = $10,
			rejected_by = $11, rejected_at = $12, submitted_at = $13,
			approved_by = $14, approved_at = $15, updated_at = $16
		WHERE id = $17 AND status = $18
	`
	result, err := tx.ExecContext(ctx, query,
		inv.Status, inv.InvoiceNumber, inv.Subtotal, inv.VatPercent,
		inv.VatAmount, inv.Total, inv.CatalogVersionRef, inv.MetadataSnapshot,
		inv.ServerPdfURL, inv.RejectionReason, inv.RejectedBy, inv.RejectedAt,
		inv.SubmittedAt, inv.ApprovedBy, inv.ApprovedAt, inv.UpdatedAt,
		inv.ID, from,
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition invoice: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	if severLines {
		if _, err := tx.ExecContext(ctx,
			`UPDATE invoice_lines SET catalog_item_ref = NULL WHERE invoice_id = $1`,
			inv.ID,
		); err != nil {
			return false, fmt.Errorf("failed to sever catalog references: %w", err)
		}
	}

	return true, tx.Commit()
}

// CountByNumberPrefix counts invoices whose display number starts with
// the given prefix; used as the numbering fallback.
func (r *InvoiceRepository) CountByNumberPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM invoices
		WHERE tenant_id = $1 AND invoice_number LIKE $2 || '%'
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, tenantID, prefix).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count invoice numbers: %w", err)
	}
	return count, nil
}
