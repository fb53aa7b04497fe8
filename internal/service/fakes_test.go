package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/boqflow/boqflow/internal/domain"
	"github.com/boqflow/boqflow/internal/email"
)

// In-memory store fakes mirroring the repository guard semantics.

type fakeInvoiceStore struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*domain.Invoice
}

func newFakeInvoiceStore() *fakeInvoiceStore {
	return &fakeInvoiceStore{invoices: make(map[uuid.UUID]*domain.Invoice)}
}

func cloneInvoice(inv *domain.Invoice) *domain.Invoice {
	cp := *inv
	cp.Lines = append([]domain.InvoiceLine(nil), inv.Lines...)
	cp.Comments = nil
	cp.Media = nil
	return &cp
}

func (s *fakeInvoiceStore) Create(ctx context.Context, inv *domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = cloneInvoice(inv)
	return nil
}

func (s *fakeInvoiceStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, nil
	}
	return cloneInvoice(inv), nil
}

func (s *fakeInvoiceStore) List(ctx context.Context, filter domain.InvoiceListFilter) ([]domain.Invoice, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []domain.Invoice
	for _, inv := range s.invoices {
		if inv.TenantID != filter.TenantID {
			continue
		}
		if filter.CreatedBy != nil && inv.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		matched = append(matched, *cloneInvoice(inv))
	}
	total := len(matched)
	if filter.Offset < len(matched) {
		matched = matched[filter.Offset:]
	} else {
		matched = nil
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (s *fakeInvoiceStore) UpdateDraft(ctx context.Context, inv *domain.Invoice) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.invoices[inv.ID]
	if !ok || stored.Status != domain.StatusDraft {
		return false, nil
	}
	s.invoices[inv.ID] = cloneInvoice(inv)
	return true, nil
}

func (s *fakeInvoiceStore) Transition(ctx context.Context, inv *domain.Invoice, from domain.InvoiceStatus, severLines bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.invoices[inv.ID]
	if !ok || stored.Status != from {
		return false, nil
	}
	cp := cloneInvoice(inv)
	if severLines {
		for i := range cp.Lines {
			cp.Lines[i].CatalogItemRef = nil
		}
	}
	s.invoices[inv.ID] = cp
	return true, nil
}

func (s *fakeInvoiceStore) CountByNumberPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, inv := range s.invoices {
		if inv.TenantID != tenantID || inv.InvoiceNumber == nil {
			continue
		}
		if strings.HasPrefix(*inv.InvoiceNumber, prefix) {
			count++
		}
	}
	return count, nil
}

type fakeCommentStore struct {
	mu       sync.Mutex
	comments []domain.Comment
}

func (s *fakeCommentStore) Add(ctx context.Context, c *domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = append(s.comments, *c)
	return nil
}

func (s *fakeCommentStore) ListSince(ctx context.Context, invoiceID uuid.UUID, since time.Time) ([]domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Comment
	for _, c := range s.comments {
		if c.InvoiceID == invoiceID && c.CreatedAt.After(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeMediaStore struct {
	mu    sync.Mutex
	media map[uuid.UUID]*domain.Media
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{media: make(map[uuid.UUID]*domain.Media)}
}

func (s *fakeMediaStore) Add(ctx context.Context, m *domain.Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.media[m.ID] = &cp
	return nil
}

func (s *fakeMediaStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (s *fakeMediaStore) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Media
	for _, m := range s.media {
		if m.InvoiceID == invoiceID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *fakeMediaStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.media, id)
	return nil
}

type fakeCatalogStore struct {
	mu       sync.Mutex
	versions map[uuid.UUID][]*domain.CatalogVersion
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{versions: make(map[uuid.UUID][]*domain.CatalogVersion)}
}

func (s *fakeCatalogStore) CreateVersion(ctx context.Context, v *domain.CatalogVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.versions[v.TenantID]
	maxVersion := 0
	for _, old := range existing {
		if old.VersionNumber > maxVersion {
			maxVersion = old.VersionNumber
		}
		if old.Status == domain.CatalogActive {
			old.Status = domain.CatalogArchived
		}
	}
	v.VersionNumber = maxVersion + 1
	if v.Name == "" {
		v.Name = "BOQ v" + strconv.Itoa(v.VersionNumber)
	}
	cp := *v
	cp.Items = append([]domain.CatalogItem(nil), v.Items...)
	s.versions[v.TenantID] = append(existing, &cp)
	return nil
}

func (s *fakeCatalogStore) Activate(ctx context.Context, tenantID uuid.UUID, versionNumber int) (*domain.CatalogVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var target *domain.CatalogVersion
	for _, v := range s.versions[tenantID] {
		if v.VersionNumber == versionNumber {
			target = v
			break
		}
	}
	if target == nil {
		return nil, nil
	}
	for _, v := range s.versions[tenantID] {
		if v.Status == domain.CatalogActive {
			v.Status = domain.CatalogArchived
		}
	}
	target.Status = domain.CatalogActive
	cp := *target
	return &cp, nil
}

func (s *fakeCatalogStore) GetActive(ctx context.Context, tenantID uuid.UUID) (*domain.CatalogVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.versions[tenantID] {
		if v.Status == domain.CatalogActive {
			cp := *v
			cp.Items = append([]domain.CatalogItem(nil), v.Items...)
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeCatalogStore) ListVersions(ctx context.Context, tenantID uuid.UUID) ([]domain.CatalogVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CatalogVersion
	for i := len(s.versions[tenantID]) - 1; i >= 0; i-- {
		out = append(out, *s.versions[tenantID][i])
	}
	return out, nil
}

type fakeTenantStore struct {
	tenants map[uuid.UUID]*domain.Tenant
}

func (s *fakeTenantStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t, ok := s.tenants[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

type fakeUserStore struct {
	users map[uuid.UUID]*domain.User
}

func (s *fakeUserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type fakeRenderer struct {
	err error
}

func (r *fakeRenderer) Render(ctx context.Context, inv *domain.Invoice, tenant *domain.Tenant) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-fake " + inv.ID.String()), nil
}

type fakeEmailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	to         []string
	subject    string
	attachment string
}

func (e *fakeEmailer) Send(ctx context.Context, msg email.Message) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return "", e.err
	}
	m := sentMail{to: msg.To, subject: msg.Subject}
	if msg.Attachment != nil {
		m.attachment = msg.Attachment.Filename
	}
	e.sent = append(e.sent, m)
	return "msg-" + strconv.Itoa(len(e.sent)), nil
}

var errBoom = errors.New("boom")
