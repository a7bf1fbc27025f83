package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"leasepilot.org/internal/auth"
	"leasepilot.org/internal/ids"
)

const (
	PropertyStatusVacant   = "vacant"
	PropertyStatusOccupied = "occupied"

	RequestStatusOpen       = "open"
	RequestStatusAssigned   = "assigned"
	RequestStatusInProgress = "in_progress"
	RequestStatusResolved   = "resolved"
	RequestStatusClosed     = "closed"

	PriorityNormal    = "normal"
	PriorityEmergency = "emergency"
)

var issueTypes = map[string]struct{}{
	"plumbing": {}, "electrical": {}, "hvac": {}, "appliance": {}, "pest": {}, "other": {},
}

var requestStatuses = map[string]struct{}{
	RequestStatusOpen: {}, RequestStatusAssigned: {}, RequestStatusInProgress: {},
	RequestStatusResolved: {}, RequestStatusClosed: {},
}

// Service validates domain input and applies the caller's scope to every
// store call. Handlers never build queries or compare roles themselves.
type Service struct {
	store Store
}

// NewService constructs the portfolio service.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("portfolio: store is required")
	}
	return &Service{store: store}, nil
}

// --- Properties ---

func (s *Service) CreateProperty(ctx context.Context, scope auth.Scope, p Property) (Property, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Property{}, fmt.Errorf("%w: property name is required", ErrInvalidInput)
	}
	if p.RentCents < 0 {
		return Property{}, fmt.Errorf("%w: rent must not be negative", ErrInvalidInput)
	}
	switch p.Status {
	case "":
		p.Status = PropertyStatusVacant
	case PropertyStatusVacant, PropertyStatusOccupied:
	default:
		return Property{}, fmt.Errorf("%w: unsupported property status %s", ErrInvalidInput, p.Status)
	}
	p.ID = ids.New()
	if err := s.store.Properties(ctx).Create(ctx, scope, &p); err != nil {
		return Property{}, err
	}
	return p, nil
}

func (s *Service) ListProperties(ctx context.Context, scope auth.Scope) ([]Property, error) {
	return s.store.Properties(ctx).List(ctx, scope)
}

func (s *Service) GetProperty(ctx context.Context, scope auth.Scope, id string) (Property, error) {
	if strings.TrimSpace(id) == "" {
		return Property{}, fmt.Errorf("%w: property id is required", ErrInvalidInput)
	}
	return s.store.Properties(ctx).Find(ctx, scope, id)
}

func (s *Service) UpdateProperty(ctx context.Context, scope auth.Scope, id string, upd PropertyUpdate) (Property, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return Property{}, fmt.Errorf("%w: property name is required", ErrInvalidInput)
		}
		upd.Name = &name
	}
	if upd.Status != nil && *upd.Status != PropertyStatusVacant && *upd.Status != PropertyStatusOccupied {
		return Property{}, fmt.Errorf("%w: unsupported property status %s", ErrInvalidInput, *upd.Status)
	}
	if upd.RentCents != nil && *upd.RentCents < 0 {
		return Property{}, fmt.Errorf("%w: rent must not be negative", ErrInvalidInput)
	}
	return s.store.Properties(ctx).Update(ctx, scope, id, upd)
}

func (s *Service) DeleteProperty(ctx context.Context, scope auth.Scope, id string) error {
	return s.store.Properties(ctx).Delete(ctx, scope, id)
}

// --- Tenants ---

func (s *Service) CreateTenant(ctx context.Context, scope auth.Scope, t Tenant) (Tenant, error) {
	t.FirstName = strings.TrimSpace(t.FirstName)
	t.LastName = strings.TrimSpace(t.LastName)
	if t.FirstName == "" || t.LastName == "" {
		return Tenant{}, fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	if t.Status == "" {
		t.Status = "active"
	}
	if t.PropertyID != "" {
		// A tenant may only be attached to a property inside the same scope.
		if _, err := s.store.Properties(ctx).Find(ctx, scope, t.PropertyID); err != nil {
			return Tenant{}, err
		}
	}
	t.ID = ids.New()
	if err := s.store.Tenants(ctx).Create(ctx, scope, &t); err != nil {
		return Tenant{}, err
	}
	return t, nil
}

func (s *Service) ListTenants(ctx context.Context, scope auth.Scope) ([]Tenant, error) {
	return s.store.Tenants(ctx).List(ctx, scope)
}

func (s *Service) GetTenant(ctx context.Context, scope auth.Scope, id string) (Tenant, error) {
	return s.store.Tenants(ctx).Find(ctx, scope, id)
}

func (s *Service) UpdateTenant(ctx context.Context, scope auth.Scope, id string, upd TenantUpdate) (Tenant, error) {
	if upd.PropertyID != nil && *upd.PropertyID != "" {
		if _, err := s.store.Properties(ctx).Find(ctx, scope, *upd.PropertyID); err != nil {
			return Tenant{}, err
		}
	}
	return s.store.Tenants(ctx).Update(ctx, scope, id, upd)
}

func (s *Service) DeleteTenant(ctx context.Context, scope auth.Scope, id string) error {
	return s.store.Tenants(ctx).Delete(ctx, scope, id)
}

func (s *Service) LinkTenantPortal(ctx context.Context, scope auth.Scope, tenantID, accountID string) error {
	return s.store.Tenants(ctx).LinkPortalAccount(ctx, scope, tenantID, accountID)
}

// Lease returns the portal lease view for a linked tenant.
func (s *Service) Lease(ctx context.Context, tenantID string) (LeaseSummary, error) {
	return s.store.Tenants(ctx).Lease(ctx, tenantID)
}

// --- Transactions ---

func (s *Service) CreateTransaction(ctx context.Context, scope auth.Scope, t Transaction) (Transaction, error) {
	t.Type = strings.TrimSpace(strings.ToLower(t.Type))
	if t.Type != "income" && t.Type != "expense" {
		return Transaction{}, fmt.Errorf("%w: type must be income or expense", ErrInvalidInput)
	}
	t.Description = strings.TrimSpace(t.Description)
	if t.Description == "" {
		return Transaction{}, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if t.AmountCents <= 0 {
		return Transaction{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if t.Date.IsZero() {
		return Transaction{}, fmt.Errorf("%w: transaction_date is required", ErrInvalidInput)
	}
	if t.Status == "" {
		t.Status = "cleared"
	}
	if t.PropertyID != "" {
		if _, err := s.store.Properties(ctx).Find(ctx, scope, t.PropertyID); err != nil {
			return Transaction{}, err
		}
	}
	t.ID = ids.New()
	if err := s.store.Transactions(ctx).Create(ctx, scope, &t); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (s *Service) ListTransactions(ctx context.Context, scope auth.Scope) ([]Transaction, error) {
	return s.store.Transactions(ctx).List(ctx, scope)
}

func (s *Service) GetTransaction(ctx context.Context, scope auth.Scope, id string) (Transaction, error) {
	return s.store.Transactions(ctx).Find(ctx, scope, id)
}

func (s *Service) UpdateTransaction(ctx context.Context, scope auth.Scope, id string, upd TransactionUpdate) (Transaction, error) {
	if upd.Type != nil {
		typ := strings.TrimSpace(strings.ToLower(*upd.Type))
		if typ != "income" && typ != "expense" {
			return Transaction{}, fmt.Errorf("%w: type must be income or expense", ErrInvalidInput)
		}
		upd.Type = &typ
	}
	if upd.AmountCents != nil && *upd.AmountCents <= 0 {
		return Transaction{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	return s.store.Transactions(ctx).Update(ctx, scope, id, upd)
}

func (s *Service) DeleteTransaction(ctx context.Context, scope auth.Scope, id string) error {
	return s.store.Transactions(ctx).Delete(ctx, scope, id)
}

// --- Contractors ---

func (s *Service) CreateContractor(ctx context.Context, scope auth.Scope, c Contractor) (Contractor, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return Contractor{}, fmt.Errorf("%w: contractor name is required", ErrInvalidInput)
	}
	c.ID = ids.New()
	if err := s.store.Contractors(ctx).Create(ctx, scope, &c); err != nil {
		return Contractor{}, err
	}
	return c, nil
}

func (s *Service) ListContractors(ctx context.Context, scope auth.Scope) ([]Contractor, error) {
	return s.store.Contractors(ctx).List(ctx, scope)
}

func (s *Service) GetContractor(ctx context.Context, scope auth.Scope, id string) (Contractor, error) {
	return s.store.Contractors(ctx).Find(ctx, scope, id)
}

func (s *Service) UpdateContractor(ctx context.Context, scope auth.Scope, id string, upd ContractorUpdate) (Contractor, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return Contractor{}, fmt.Errorf("%w: contractor name is required", ErrInvalidInput)
		}
		upd.Name = &name
	}
	return s.store.Contractors(ctx).Update(ctx, scope, id, upd)
}

func (s *Service) DeleteContractor(ctx context.Context, scope auth.Scope, id string) error {
	return s.store.Contractors(ctx).Delete(ctx, scope, id)
}

func (s *Service) LinkContractorPortal(ctx context.Context, scope auth.Scope, contractorID, accountID string) error {
	return s.store.Contractors(ctx).LinkPortalAccount(ctx, scope, contractorID, accountID)
}

// --- Maintenance ---

// SubmitMaintenanceRequest files a request on behalf of a linked tenant.
func (s *Service) SubmitMaintenanceRequest(ctx context.Context, tenantID string, m MaintenanceRequest) (MaintenanceRequest, error) {
	m.Subject = strings.TrimSpace(m.Subject)
	if m.Subject == "" {
		return MaintenanceRequest{}, fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	m.Description = strings.TrimSpace(m.Description)
	if m.Priority != PriorityEmergency {
		m.Priority = PriorityNormal
	}
	m.IssueType = strings.TrimSpace(strings.ToLower(m.IssueType))
	if _, ok := issueTypes[m.IssueType]; !ok {
		m.IssueType = "other"
	}
	m.TenantID = tenantID
	m.Status = RequestStatusOpen
	m.ID = ids.New()
	if err := s.store.Maintenance(ctx).Create(ctx, &m); err != nil {
		return MaintenanceRequest{}, err
	}
	return m, nil
}

func (s *Service) ListMaintenanceForTenant(ctx context.Context, tenantID string) ([]MaintenanceRequest, error) {
	return s.store.Maintenance(ctx).ListByTenant(ctx, tenantID)
}

func (s *Service) ListMaintenance(ctx context.Context, scope auth.Scope) ([]MaintenanceRequest, error) {
	return s.store.Maintenance(ctx).ListByScope(ctx, scope)
}

func (s *Service) GetMaintenance(ctx context.Context, scope auth.Scope, id string) (MaintenanceRequest, error) {
	return s.store.Maintenance(ctx).FindByScope(ctx, scope, id)
}

func (s *Service) UpdateMaintenance(ctx context.Context, scope auth.Scope, id string, upd MaintenanceUpdate) (MaintenanceRequest, error) {
	if upd.Status != nil {
		status := strings.TrimSpace(strings.ToLower(*upd.Status))
		if _, ok := requestStatuses[status]; !ok {
			return MaintenanceRequest{}, fmt.Errorf("%w: unsupported status %s", ErrInvalidInput, status)
		}
		upd.Status = &status
	}
	if upd.Priority != nil && *upd.Priority != PriorityNormal && *upd.Priority != PriorityEmergency {
		return MaintenanceRequest{}, fmt.Errorf("%w: unsupported priority %s", ErrInvalidInput, *upd.Priority)
	}
	if upd.AssignedContractorID != nil && *upd.AssignedContractorID != "" {
		if _, err := s.store.Contractors(ctx).Find(ctx, scope, *upd.AssignedContractorID); err != nil {
			return MaintenanceRequest{}, err
		}
		// Assigning a contractor moves an open request to assigned.
		if upd.Status == nil {
			assigned := RequestStatusAssigned
			upd.Status = &assigned
		}
	}
	return s.store.Maintenance(ctx).UpdateByScope(ctx, scope, id, upd)
}

func (s *Service) ListMaintenanceForContractor(ctx context.Context, contractorID string) ([]MaintenanceRequest, error) {
	return s.store.Maintenance(ctx).ListByContractor(ctx, contractorID)
}

// UpdateMaintenanceStatusAsContractor lets an assigned contractor move a
// request between in-progress and resolved only.
func (s *Service) UpdateMaintenanceStatusAsContractor(ctx context.Context, contractorID, id, status string) (MaintenanceRequest, error) {
	status = strings.TrimSpace(strings.ToLower(status))
	if status != RequestStatusInProgress && status != RequestStatusResolved {
		return MaintenanceRequest{}, fmt.Errorf("%w: contractors may set in_progress or resolved", ErrInvalidInput)
	}
	return s.store.Maintenance(ctx).UpdateStatusByContractor(ctx, contractorID, id, status)
}

// --- Messages ---

func (s *Service) SendMessageToTenant(ctx context.Context, scope auth.Scope, senderAccountID, tenantID, subject, body string) (Message, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Message{}, fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	if _, err := s.store.Tenants(ctx).Find(ctx, scope, tenantID); err != nil {
		return Message{}, err
	}
	m := Message{
		ID:                ids.New(),
		SenderAccountID:   senderAccountID,
		RecipientType:     "tenant",
		RecipientTenantID: tenantID,
		Subject:           subject,
		Body:              strings.TrimSpace(body),
	}
	if err := s.store.Messages(ctx).Create(ctx, &m); err != nil {
		return Message{}, err
	}
	return m, nil
}

func (s *Service) SendMessageToContractor(ctx context.Context, scope auth.Scope, senderAccountID, contractorID, subject, body string) (Message, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Message{}, fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	if _, err := s.store.Contractors(ctx).Find(ctx, scope, contractorID); err != nil {
		return Message{}, err
	}
	m := Message{
		ID:                    ids.New(),
		SenderAccountID:       senderAccountID,
		RecipientType:         "contractor",
		RecipientContractorID: contractorID,
		Subject:               subject,
		Body:                  strings.TrimSpace(body),
	}
	if err := s.store.Messages(ctx).Create(ctx, &m); err != nil {
		return Message{}, err
	}
	return m, nil
}

// ReplyAsTenant answers a root message addressed to the tenant. The reply is
// routed back to the manager account that sent the root.
func (s *Service) ReplyAsTenant(ctx context.Context, tenantID, parentID, body string) (Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, fmt.Errorf("%w: message body is required", ErrInvalidInput)
	}
	root, err := s.store.Messages(ctx).FindRootForTenant(ctx, tenantID, parentID)
	if err != nil {
		return Message{}, err
	}
	m := Message{
		ID:                 ids.New(),
		ParentID:           root.ID,
		SenderTenantID:     tenantID,
		RecipientType:      "manager",
		RecipientAccountID: root.SenderAccountID,
		Subject:            replySubject(root.Subject),
		Body:               body,
	}
	if err := s.store.Messages(ctx).Create(ctx, &m); err != nil {
		return Message{}, err
	}
	return m, nil
}

func (s *Service) ReplyAsContractor(ctx context.Context, contractorID, parentID, body string) (Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, fmt.Errorf("%w: message body is required", ErrInvalidInput)
	}
	root, err := s.store.Messages(ctx).FindRootForContractor(ctx, contractorID, parentID)
	if err != nil {
		return Message{}, err
	}
	m := Message{
		ID:                 ids.New(),
		ParentID:           root.ID,
		SenderContractorID: contractorID,
		RecipientType:      "manager",
		RecipientAccountID: root.SenderAccountID,
		Subject:            replySubject(root.Subject),
		Body:               body,
	}
	if err := s.store.Messages(ctx).Create(ctx, &m); err != nil {
		return Message{}, err
	}
	return m, nil
}

func (s *Service) ThreadsForTenant(ctx context.Context, tenantID string) ([]Thread, error) {
	rows, err := s.store.Messages(ctx).ListForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return buildThreads(rows, func(m Message) bool { return m.SenderTenantID == tenantID }), nil
}

func (s *Service) ThreadsForContractor(ctx context.Context, contractorID string) ([]Thread, error) {
	rows, err := s.store.Messages(ctx).ListForContractor(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	return buildThreads(rows, func(m Message) bool { return m.SenderContractorID == contractorID }), nil
}

func (s *Service) ThreadsForManager(ctx context.Context, scope auth.Scope) ([]Thread, error) {
	rows, err := s.store.Messages(ctx).ListForManager(ctx, scope)
	if err != nil {
		return nil, err
	}
	return buildThreads(rows, func(m Message) bool { return m.SenderAccountID != "" }), nil
}

func (s *Service) MarkMessageReadByTenant(ctx context.Context, tenantID, id string) (Message, error) {
	return s.store.Messages(ctx).MarkReadByTenant(ctx, tenantID, id)
}

func (s *Service) MarkMessageReadByContractor(ctx context.Context, contractorID, id string) (Message, error) {
	return s.store.Messages(ctx).MarkReadByContractor(ctx, contractorID, id)
}

func (s *Service) UnreadCountForTenant(ctx context.Context, tenantID string) (int, error) {
	return s.store.Messages(ctx).UnreadCountForTenant(ctx, tenantID)
}

func (s *Service) UnreadCountForContractor(ctx context.Context, contractorID string) (int, error) {
	return s.store.Messages(ctx).UnreadCountForContractor(ctx, contractorID)
}

// --- Notifications ---

func (s *Service) Notify(ctx context.Context, accountID, title, message, typ string) (Notification, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Notification{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if typ == "" {
		typ = "info"
	}
	n := Notification{
		ID:        ids.New(),
		AccountID: accountID,
		Title:     title,
		Message:   strings.TrimSpace(message),
		Type:      typ,
	}
	if err := s.store.Notifications(ctx).Create(ctx, &n); err != nil {
		return Notification{}, err
	}
	return n, nil
}

func (s *Service) ListNotifications(ctx context.Context, accountID string) ([]Notification, error) {
	return s.store.Notifications(ctx).ListByAccount(ctx, accountID)
}

func (s *Service) MarkNotificationRead(ctx context.Context, accountID, id string) (Notification, error) {
	return s.store.Notifications(ctx).MarkRead(ctx, accountID, id)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, accountID string) error {
	return s.store.Notifications(ctx).MarkAllRead(ctx, accountID)
}

// --- Announcements ---

func (s *Service) CreateAnnouncement(ctx context.Context, scope auth.Scope, a Announcement) (Announcement, error) {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return Announcement{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if a.PropertyID == "" {
		return Announcement{}, fmt.Errorf("%w: property_id is required", ErrInvalidInput)
	}
	a.ID = ids.New()
	if err := s.store.Announcements(ctx).Create(ctx, scope, &a); err != nil {
		return Announcement{}, err
	}
	return a, nil
}

func (s *Service) ListAnnouncements(ctx context.Context, scope auth.Scope) ([]Announcement, error) {
	return s.store.Announcements(ctx).ListByScope(ctx, scope)
}

// AnnouncementsForTenant lists announcements for the tenant's property.
func (s *Service) AnnouncementsForTenant(ctx context.Context, tenantID string) ([]Announcement, error) {
	lease, err := s.store.Tenants(ctx).Lease(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if lease.PropertyID == "" {
		return []Announcement{}, nil
	}
	return s.store.Announcements(ctx).ListByProperty(ctx, lease.PropertyID)
}

func (s *Service) DeleteAnnouncement(ctx context.Context, scope auth.Scope, id string) error {
	return s.store.Announcements(ctx).Delete(ctx, scope, id)
}

// --- Documents ---

func (s *Service) AddTenantDocument(ctx context.Context, scope auth.Scope, d TenantDocument) (TenantDocument, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return TenantDocument{}, fmt.Errorf("%w: document name is required", ErrInvalidInput)
	}
	if d.TenantID == "" {
		return TenantDocument{}, fmt.Errorf("%w: tenant_id is required", ErrInvalidInput)
	}
	d.ID = ids.New()
	if err := s.store.Documents(ctx).Create(ctx, scope, &d); err != nil {
		return TenantDocument{}, err
	}
	return d, nil
}

func (s *Service) DocumentsForTenant(ctx context.Context, tenantID string) ([]TenantDocument, error) {
	return s.store.Documents(ctx).ListByTenant(ctx, tenantID)
}

func (s *Service) DocumentsForScopeTenant(ctx context.Context, scope auth.Scope, tenantID string) ([]TenantDocument, error) {
	return s.store.Documents(ctx).ListByScopeTenant(ctx, scope, tenantID)
}

func (s *Service) DeleteTenantDocument(ctx context.Context, scope auth.Scope, id string) error {
	return s.store.Documents(ctx).Delete(ctx, scope, id)
}

// --- helpers ---

func replySubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if strings.HasPrefix(subject, "Re:") {
		return subject
	}
	return "Re: " + subject
}

// buildThreads groups flat message rows into root threads with replies,
// newest thread first.
func buildThreads(rows []Message, fromMe func(Message) bool) []Thread {
	byRoot := make(map[string]*Thread)
	order := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.ParentID == "" {
			t := &Thread{Message: row, FromMe: fromMe(row), Replies: []Message{}}
			byRoot[row.ID] = t
			order = append(order, row.ID)
		}
	}
	for _, row := range rows {
		if row.ParentID == "" {
			continue
		}
		if root, ok := byRoot[row.ParentID]; ok {
			root.Replies = append(root.Replies, row)
		}
	}
	threads := make([]Thread, 0, len(order))
	for _, id := range order {
		threads = append(threads, *byRoot[id])
	}
	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].CreatedAt.After(threads[j].CreatedAt)
	})
	return threads
}
