package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/boqflow/boqflow/internal/domain"
)

// UpdateFeed is the change-feed contract consumed by polling clients.
// It is an interface so a push transport (long-poll, streaming) could
// later replace polling without touching the state machine.
type UpdateFeed interface {
	GetUpdates(ctx context.Context, caller domain.Identity, invoiceID uuid.UUID, sinceMillis int64) (*domain.InvoiceUpdates, error)
}

// SyncService answers "what changed since T" for disconnected clients.
// The server holds no subscription state; the polling interval is
// entirely client policy.
type SyncService struct {
	invoices InvoiceStore
	comments CommentStore
}

// NewSyncService creates a new sync service
func NewSyncService(invoices InvoiceStore, comments CommentStore) *SyncService {
	return &SyncService{invoices: invoices, comments: comments}
}

// GetUpdates reports whether the invoice changed after the client
// watermark. Changed compares updatedAt strictly against since;
// comments are filtered independently because a comment-only change
// does not bump updatedAt. Clients advance their watermark to
// LastUpdatedAt after every poll, even an unchanged one, so the same
// comments are not redelivered on the next tick.
func (s *SyncService) GetUpdates(ctx context.Context, caller domain.Identity, invoiceID uuid.UUID, sinceMillis int64) (*domain.InvoiceUpdates, error) {
	inv, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.TenantID != caller.TenantID {
		return nil, ErrNotFound
	}

	since := time.UnixMilli(sinceMillis)
	newComments, err := s.comments.ListSince(ctx, inv.ID, since)
	if err != nil {
		return nil, err
	}
	if newComments == nil {
		newComments = []domain.Comment{}
	}

	lastUpdated := inv.UpdatedAt.UnixMilli()

	return &domain.InvoiceUpdates{
		Changed:       lastUpdated > sinceMillis,
		LastUpdatedAt: lastUpdated,
		Status:        inv.Status,
		NewComments:   newComments,
		ServerPdfURL:  inv.ServerPdfURL,
	}, nil
}
