package portfolio

import "time"

// Property is a rental unit or building owned by a manager scope. Monetary
// values are integer cents.
type Property struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Name           string    `json:"name"`
	Type           string    `json:"type,omitempty"`
	Address        string    `json:"address,omitempty"`
	City           string    `json:"city,omitempty"`
	State          string    `json:"state,omitempty"`
	Zip            string    `json:"zip,omitempty"`
	Bedrooms       int       `json:"bedrooms"`
	Bathrooms      float64   `json:"bathrooms"`
	Sqft           int       `json:"sqft"`
	RentCents      int64     `json:"rent_cents"`
	ImageURL       string    `json:"image_url,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Tenant is the business record of a renter. PortalAccountID, when set, links
// a login account that may see this record and nothing else.
type Tenant struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	OrganizationID  string    `json:"organization_id,omitempty"`
	PropertyID      string    `json:"property_id,omitempty"`
	PortalAccountID string    `json:"portal_account_id,omitempty"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Unit            string    `json:"unit,omitempty"`
	Status          string    `json:"status"`
	LeaseStart      time.Time `json:"lease_start,omitzero"`
	LeaseEnd        time.Time `json:"lease_end,omitzero"`
	BalanceCents    int64     `json:"balance_cents"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// LeaseSummary joins a tenant row with its property for the portal lease view.
type LeaseSummary struct {
	Tenant
	PropertyName    string `json:"property_name,omitempty"`
	PropertyAddress string `json:"property_address,omitempty"`
	PropertyCity    string `json:"property_city,omitempty"`
	PropertyState   string `json:"property_state,omitempty"`
	PropertyZip     string `json:"property_zip,omitempty"`
	PropertyRent    int64  `json:"property_rent_cents"`
}

// Transaction is an income or expense line against the portfolio ledger.
type Transaction struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	OrganizationID string    `json:"organization_id,omitempty"`
	PropertyID     string    `json:"property_id,omitempty"`
	Type           string    `json:"type"`
	Description    string    `json:"description"`
	AmountCents    int64     `json:"amount_cents"`
	Category       string    `json:"category,omitempty"`
	Date           time.Time `json:"transaction_date"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Contractor is a vendor a manager can assign to maintenance requests. Like
// tenants, a contractor may carry a portal login link.
type Contractor struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	OrganizationID  string    `json:"organization_id,omitempty"`
	PortalAccountID string    `json:"portal_account_id,omitempty"`
	Name            string    `json:"name"`
	Company         string    `json:"company,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Email           string    `json:"email,omitempty"`
	Specialty       string    `json:"specialty,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// MaintenanceRequest is submitted by a tenant and worked by the manager or an
// assigned contractor.
type MaintenanceRequest struct {
	ID                   string    `json:"id"`
	TenantID             string    `json:"tenant_id"`
	PropertyID           string    `json:"property_id,omitempty"`
	Subject              string    `json:"subject"`
	Description          string    `json:"description,omitempty"`
	Status               string    `json:"status"`
	Priority             string    `json:"priority"`
	IssueType            string    `json:"issue_type"`
	PhotoURLs            []string  `json:"photo_urls,omitempty"`
	AssignedContractorID string    `json:"assigned_contractor_id,omitempty"`
	ContractorName       string    `json:"contractor_name,omitempty"`
	ContractorCompany    string    `json:"contractor_company,omitempty"`
	ContractorPhone      string    `json:"contractor_phone,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Message is one entry in a manager ↔ tenant/contractor thread. Exactly one
// sender field and one recipient side is set per row.
type Message struct {
	ID                    string    `json:"id"`
	ParentID              string    `json:"parent_message_id,omitempty"`
	SenderAccountID       string    `json:"sender_account_id,omitempty"`
	SenderTenantID        string    `json:"sender_tenant_id,omitempty"`
	SenderContractorID    string    `json:"sender_contractor_id,omitempty"`
	RecipientType         string    `json:"recipient_type"`
	RecipientAccountID    string    `json:"recipient_account_id,omitempty"`
	RecipientTenantID     string    `json:"recipient_tenant_id,omitempty"`
	RecipientContractorID string    `json:"recipient_contractor_id,omitempty"`
	Subject               string    `json:"subject"`
	Body                  string    `json:"body,omitempty"`
	ReadAt                time.Time `json:"read_at,omitzero"`
	CreatedAt             time.Time `json:"created_at"`
}

// Thread is a root message with its replies, newest thread first.
type Thread struct {
	Message
	FromMe  bool      `json:"from_me"`
	Replies []Message `json:"replies"`
}

// Notification is an in-app notice for one account.
type Notification struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Announcement is posted by a manager against a property and is visible to
// that property's tenants.
type Announcement struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	AuthorID   string    `json:"author_id,omitempty"`
	Title      string    `json:"title"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TenantDocument is a manager-provided file reference a tenant may download.
// Upload handling lives outside this service; only the URL is stored.
type TenantDocument struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	FileURL   string    `json:"file_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
