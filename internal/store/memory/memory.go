// Package memory holds an in-process implementation of the auth and
// portfolio store interfaces. It backs the API when no database DSN is
// configured and every service-level test.
package memory

import (
	"sync"

	"leasepilot.org/internal/auth"
	"leasepilot.org/internal/portfolio"
)

// Store keeps all records in maps guarded by a single RWMutex. Values are
// copied on the way in and out so callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	accounts      map[string]auth.Account
	refreshTokens map[string]auth.RefreshToken
	organizations map[string]auth.Organization
	memberships   []auth.Membership

	properties    map[string]portfolio.Property
	tenants       map[string]portfolio.Tenant
	transactions  map[string]portfolio.Transaction
	maintenance   map[string]portfolio.MaintenanceRequest
	contractors   map[string]portfolio.Contractor
	messages      map[string]portfolio.Message
	notifications map[string]portfolio.Notification
	announcements map[string]portfolio.Announcement
	documents     map[string]portfolio.TenantDocument
}

// New creates an empty store.
func New() *Store {
	return &Store{
		accounts:      make(map[string]auth.Account),
		refreshTokens: make(map[string]auth.RefreshToken),
		organizations: make(map[string]auth.Organization),
		properties:    make(map[string]portfolio.Property),
		tenants:       make(map[string]portfolio.Tenant),
		transactions:  make(map[string]portfolio.Transaction),
		maintenance:   make(map[string]portfolio.MaintenanceRequest),
		contractors:   make(map[string]portfolio.Contractor),
		messages:      make(map[string]portfolio.Message),
		notifications: make(map[string]portfolio.Notification),
		announcements: make(map[string]portfolio.Announcement),
		documents:     make(map[string]portfolio.TenantDocument),
	}
}

var (
	_ auth.Store      = (*Store)(nil)
	_ portfolio.Store = (*Store)(nil)
)

// scopeMatch reports whether a row stamped with ownerID/orgID is visible to
// the scope. Unknown kinds match nothing, so portal scopes can never reach
// manager query paths by accident.
func scopeMatch(scope auth.Scope, ownerID, orgID string) bool {
	switch scope.Kind {
	case auth.ScopeOwner:
		return ownerID != "" && ownerID == scope.Value
	case auth.ScopeOrganization:
		return orgID != "" && orgID == scope.Value
	default:
		return false
	}
}
