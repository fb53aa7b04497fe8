package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role controls what lifecycle actions a user may perform
type Role string

const (
	// RoleOperator captures invoices in the field; scoped to their own invoices
	RoleOperator Role = "OPERATOR"
	// RoleAdmin reviews, approves and rejects; manages the catalog
	RoleAdmin Role = "ADMIN"
)

// User represents an account belonging to a tenant
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	TenantID     uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Identity is the authenticated caller attached to every request.
// The engine checks role and tenant scoping against it; it does not
// issue or validate credentials itself.
type Identity struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Role     Role
	Name     string
}

// Elevated reports whether the caller may perform reviewer actions
// (approve, reject, catalog management).
func (i Identity) Elevated() bool {
	return i.Role == RoleAdmin
}

// Tenant represents a company whose operators capture invoices
type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Address   *string   `json:"address,omitempty" db:"address"`
	VatNumber *string   `json:"vat_number,omitempty" db:"vat_number"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LoginRequest represents an authentication request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse represents a successful authentication response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
