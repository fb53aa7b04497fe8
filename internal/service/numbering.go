package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/boqflow/boqflow/internal/logger"
)

// NumberAllocator hands out display numbers of the form
// INV-<year>-<zero-padded sequence>, scoped per tenant per year.
type NumberAllocator interface {
	Next(ctx context.Context, tenantID uuid.UUID, year int) (string, error)
}

// InvoiceNumbering allocates display numbers through an atomic Redis
// counter per tenant+year key (fetch-and-increment), which closes the
// race inherent in counting existing rows. When Redis is absent or
// unreachable it falls back to row counting: two concurrent creations
// in the same tenant-year can then compute the same sequence. That is
// a known tolerance, not a correctness guarantee.
type InvoiceNumbering struct {
	client   *redis.Client
	invoices InvoiceStore
	log      zerolog.Logger
}

// NewInvoiceNumbering creates a number allocator. client may be nil,
// in which case every allocation uses the row-counting fallback.
func NewInvoiceNumbering(client *redis.Client, invoices InvoiceStore) *InvoiceNumbering {
	return &InvoiceNumbering{
		client:   client,
		invoices: invoices,
		log:      logger.WithComponent("numbering"),
	}
}

// Next returns the next display number for the tenant and year
func (n *InvoiceNumbering) Next(ctx context.Context, tenantID uuid.UUID, year int) (string, error) {
	prefix := fmt.Sprintf("INV-%d-", year)

	if n.client == nil {
		return n.nextByCounting(ctx, tenantID, year, prefix)
	}

	key := fmt.Sprintf("invoice_seq:%s:%d", tenantID.String(), year)
	seq, err := n.client.Incr(ctx, key).Result()
	if err != nil {
		n.log.Warn().Err(err).Msg("redis counter unavailable, falling back to row counting")
		return n.nextByCounting(ctx, tenantID, year, prefix)
	}

	if seq == 1 {
		// Fresh counter: reconcile with rows that predate it so
		// sequences continue instead of restarting at 1.
		count, err := n.invoices.CountByNumberPrefix(ctx, tenantID, prefix)
		if err != nil {
			return "", err
		}
		if count > 0 {
			seq = int64(count) + 1
			if err := n.client.Set(ctx, key, seq, 0).Err(); err != nil {
				n.log.Warn().Err(err).Msg("failed to seed invoice counter")
			}
		}
	}

	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

func (n *InvoiceNumbering) nextByCounting(ctx context.Context, tenantID uuid.UUID, year int, prefix string) (string, error) {
	count, err := n.invoices.CountByNumberPrefix(ctx, tenantID, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}
