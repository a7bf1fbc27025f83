package auth

import (
	"strings"
	"time"
)

// Role determines which route families an account may reach and how its
// resource scope is derived.
type Role string

const (
	RoleManager    Role = "manager"
	RoleTenant     Role = "tenant"
	RoleContractor Role = "contractor"
)

// ParseRole normalizes a stored role string. Unknown values fall back to
// manager, mirroring how legacy "Portfolio Manager" rows behave.
func ParseRole(raw string) Role {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "tenant":
		return RoleTenant
	case "contractor":
		return RoleContractor
	default:
		return RoleManager
	}
}

// Account is a login identity. Tenants and contractors get one only when a
// portal link is created for their business record.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken is the persisted half of the rotating refresh credential. Only
// the SHA-256 hash of the client secret is stored.
type RefreshToken struct {
	ID        string
	AccountID string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Organization groups accounts and their resources under one tenant boundary
// in organization scope mode.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership ties an account to an organization.
type Membership struct {
	AccountID      string    `json:"account_id"`
	OrganizationID string    `json:"organization_id"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// ScopeKind selects the filtering strategy applied to every downstream query.
type ScopeKind string

const (
	ScopeOwner            ScopeKind = "owner"
	ScopeOrganization     ScopeKind = "organization"
	ScopeLinkedTenant     ScopeKind = "linked-tenant"
	ScopeLinkedContractor ScopeKind = "linked-contractor"
)

// Scope is the mandatory filter key for resource queries. Value is an account
// id, organization id, or linked tenant/contractor record id depending on Kind.
type Scope struct {
	Kind  ScopeKind `json:"kind"`
	Value string    `json:"value"`
}

// Identity is the immutable per-request result of token verification plus
// scope resolution. Handlers receive it through the request context and never
// re-derive role or scope themselves.
type Identity struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Scope     Scope  `json:"scope"`
}

// TokenPair carries freshly minted credentials back to the transport layer.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
