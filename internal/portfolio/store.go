package portfolio

import (
	"context"

	"leasepilot.org/internal/auth"
)

// Store describes persistence for the property-management domain. Every
// manager-facing method takes the resolved scope and must apply it as a row
// filter; portal-facing methods are keyed by the linked record id the scope
// resolver already proved.
type Store interface {
	Properties(ctx context.Context) PropertyStore
	Tenants(ctx context.Context) TenantStore
	Transactions(ctx context.Context) TransactionStore
	Maintenance(ctx context.Context) MaintenanceStore
	Contractors(ctx context.Context) ContractorStore
	Messages(ctx context.Context) MessageStore
	Notifications(ctx context.Context) NotificationStore
	Announcements(ctx context.Context) AnnouncementStore
	Documents(ctx context.Context) DocumentStore
}

type PropertyUpdate struct {
	Name      *string
	Type      *string
	Address   *string
	City      *string
	State     *string
	Zip       *string
	Bedrooms  *int
	Bathrooms *float64
	Sqft      *int
	RentCents *int64
	ImageURL  *string
	Status    *string
}

type PropertyStore interface {
	Create(ctx context.Context, scope auth.Scope, p *Property) error
	List(ctx context.Context, scope auth.Scope) ([]Property, error)
	Find(ctx context.Context, scope auth.Scope, id string) (Property, error)
	Update(ctx context.Context, scope auth.Scope, id string, upd PropertyUpdate) (Property, error)
	Delete(ctx context.Context, scope auth.Scope, id string) error
}

type TenantUpdate struct {
	PropertyID   *string
	FirstName    *string
	LastName     *string
	Email        *string
	Phone        *string
	Unit         *string
	Status       *string
	LeaseStart   *string
	LeaseEnd     *string
	BalanceCents *int64
}

type TenantStore interface {
	Create(ctx context.Context, scope auth.Scope, t *Tenant) error
	List(ctx context.Context, scope auth.Scope) ([]Tenant, error)
	Find(ctx context.Context, scope auth.Scope, id string) (Tenant, error)
	Update(ctx context.Context, scope auth.Scope, id string, upd TenantUpdate) (Tenant, error)
	Delete(ctx context.Context, scope auth.Scope, id string) error
	// LinkPortalAccount sets portal_user_id on a tenant row inside the scope.
	LinkPortalAccount(ctx context.Context, scope auth.Scope, tenantID, accountID string) error
	// Lease returns the tenant row joined with its property, keyed by tenant id.
	Lease(ctx context.Context, tenantID string) (LeaseSummary, error)
}

type TransactionUpdate struct {
	PropertyID  *string
	Type        *string
	Description *string
	AmountCents *int64
	Category    *string
	Date        *string
	Status      *string
}

type TransactionStore interface {
	Create(ctx context.Context, scope auth.Scope, t *Transaction) error
	List(ctx context.Context, scope auth.Scope) ([]Transaction, error)
	Find(ctx context.Context, scope auth.Scope, id string) (Transaction, error)
	Update(ctx context.Context, scope auth.Scope, id string, upd TransactionUpdate) (Transaction, error)
	Delete(ctx context.Context, scope auth.Scope, id string) error
}

type MaintenanceUpdate struct {
	Status               *string
	Priority             *string
	AssignedContractorID *string
}

type MaintenanceStore interface {
	Create(ctx context.Context, m *MaintenanceRequest) error
	// ListByScope returns requests whose tenant belongs to the manager scope.
	ListByScope(ctx context.Context, scope auth.Scope) ([]MaintenanceRequest, error)
	FindByScope(ctx context.Context, scope auth.Scope, id string) (MaintenanceRequest, error)
	UpdateByScope(ctx context.Context, scope auth.Scope, id string, upd MaintenanceUpdate) (MaintenanceRequest, error)
	ListByTenant(ctx context.Context, tenantID string) ([]MaintenanceRequest, error)
	ListByContractor(ctx context.Context, contractorID string) ([]MaintenanceRequest, error)
	// UpdateStatusByContractor only touches requests assigned to that contractor.
	UpdateStatusByContractor(ctx context.Context, contractorID, id, status string) (MaintenanceRequest, error)
}

type ContractorUpdate struct {
	Name      *string
	Company   *string
	Phone     *string
	Email     *string
	Specialty *string
}

type ContractorStore interface {
	Create(ctx context.Context, scope auth.Scope, c *Contractor) error
	List(ctx context.Context, scope auth.Scope) ([]Contractor, error)
	Find(ctx context.Context, scope auth.Scope, id string) (Contractor, error)
	Update(ctx context.Context, scope auth.Scope, id string, upd ContractorUpdate) (Contractor, error)
	Delete(ctx context.Context, scope auth.Scope, id string) error
	LinkPortalAccount(ctx context.Context, scope auth.Scope, contractorID, accountID string) error
}

type MessageStore interface {
	Create(ctx context.Context, m *Message) error
	// ListForManager returns threads the manager scope participates in.
	ListForManager(ctx context.Context, scope auth.Scope) ([]Message, error)
	ListForTenant(ctx context.Context, tenantID string) ([]Message, error)
	ListForContractor(ctx context.Context, contractorID string) ([]Message, error)
	// FindRootForTenant loads a root message addressed to the tenant, for reply
	// validation. Same shape for contractors.
	FindRootForTenant(ctx context.Context, tenantID, id string) (Message, error)
	FindRootForContractor(ctx context.Context, contractorID, id string) (Message, error)
	MarkReadByTenant(ctx context.Context, tenantID, id string) (Message, error)
	MarkReadByContractor(ctx context.Context, contractorID, id string) (Message, error)
	UnreadCountForTenant(ctx context.Context, tenantID string) (int, error)
	UnreadCountForContractor(ctx context.Context, contractorID string) (int, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *Notification) error
	ListByAccount(ctx context.Context, accountID string) ([]Notification, error)
	MarkRead(ctx context.Context, accountID, id string) (Notification, error)
	MarkAllRead(ctx context.Context, accountID string) error
}

type AnnouncementStore interface {
	// Create verifies the property belongs to the scope before inserting.
	Create(ctx context.Context, scope auth.Scope, a *Announcement) error
	ListByScope(ctx context.Context, scope auth.Scope) ([]Announcement, error)
	ListByProperty(ctx context.Context, propertyID string) ([]Announcement, error)
	Delete(ctx context.Context, scope auth.Scope, id string) error
}

type DocumentStore interface {
	// Create verifies the tenant belongs to the scope before inserting.
	Create(ctx context.Context, scope auth.Scope, d *TenantDocument) error
	ListByTenant(ctx context.Context, tenantID string) ([]TenantDocument, error)
	ListByScopeTenant(ctx context.Context, scope auth.Scope, tenantID string) ([]TenantDocument, error)
	Delete(ctx context.Context, scope auth.Scope, id string) error
}
