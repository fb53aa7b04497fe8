package boqflow

import "time"

// Invoice is the API representation of an invoice
type Invoice struct {
	ID               string        `json:"id"`
	TenantID         string        `json:"tenant_id"`
	InvoiceNumber    *string       `json:"invoice_number,omitempty"`
	Date             string        `json:"date"`
	CustomerName     string        `json:"customer_name"`
	CustomerEmail    *string       `json:"customer_email,omitempty"`
	ProjectSite      *string       `json:"project_site,omitempty"`
	Status           string        `json:"status"`
	Subtotal         *string       `json:"subtotal,omitempty"`
	VatPercent       *string       `json:"vat_percent,omitempty"`
	VatAmount        *string       `json:"vat_amount,omitempty"`
	Total            *string       `json:"total,omitempty"`
	CatalogVersion   *int          `json:"catalog_version,omitempty"`
	ServerPdfURL     *string       `json:"server_pdf_url,omitempty"`
	RejectionReason  *string       `json:"rejection_reason,omitempty"`
	SubmittedAt      *time.Time    `json:"submitted_at,omitempty"`
	ApprovedAt       *time.Time    `json:"approved_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	Lines            []InvoiceLine `json:"lines"`
	Comments         []Comment     `json:"comments,omitempty"`
}

// InvoiceLine is one priced line of an invoice
type InvoiceLine struct {
	ID          string  `json:"id"`
	ItemName    string  `json:"item_name"`
	Description *string `json:"description,omitempty"`
	Unit        string  `json:"unit"`
	UnitPrice   string  `json:"unit_price"`
	Quantity    string  `json:"quantity"`
	Amount      string  `json:"amount"`
}

// Comment is a discussion entry on an invoice
type Comment struct {
	ID         string    `json:"id"`
	InvoiceID  string    `json:"invoice_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// InvoiceUpdates is one poll response. Changed reports whether the
// invoice changed after the client's watermark; Comments holds the
// comments created after it either way.
type InvoiceUpdates struct {
	Changed       bool      `json:"changed"`
	LastUpdatedAt int64     `json:"lastUpdatedAt"`
	Status        string    `json:"status"`
	Comments      []Comment `json:"comments"`
	ServerPdfURL  *string   `json:"serverPdfUrl,omitempty"`
}

// Token is the bearer credential issued on login
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// User is the API representation of an authenticated user
type User struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// LoginResponse is the auth response
type LoginResponse struct {
	Token Token `json:"token"`
	User  User  `json:"user"`
}
