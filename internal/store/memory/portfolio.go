package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"leasepilot.org/internal/auth"
	"leasepilot.org/internal/portfolio"
)

func (s *Store) Properties(ctx context.Context) portfolio.PropertyStore       { return properties{s} }
func (s *Store) Tenants(ctx context.Context) portfolio.TenantStore            { return tenants{s} }
func (s *Store) Transactions(ctx context.Context) portfolio.TransactionStore  { return transactions{s} }
func (s *Store) Maintenance(ctx context.Context) portfolio.MaintenanceStore   { return maintenance{s} }
func (s *Store) Contractors(ctx context.Context) portfolio.ContractorStore    { return contractors{s} }
func (s *Store) Messages(ctx context.Context) portfolio.MessageStore          { return messages{s} }
func (s *Store) Notifications(ctx context.Context) portfolio.NotificationStore { return notifications{s} }
func (s *Store) Announcements(ctx context.Context) portfolio.AnnouncementStore { return announcements{s} }
func (s *Store) Documents(ctx context.Context) portfolio.DocumentStore        { return documents{s} }

// stamp writes the scope key onto a new row so later queries can filter it.
func stamp(scope auth.Scope, ownerID, orgID *string) {
	switch scope.Kind {
	case auth.ScopeOwner:
		*ownerID = scope.Value
	case auth.ScopeOrganization:
		*orgID = scope.Value
	}
}

type properties struct{ s *Store }

func (p properties) Create(ctx context.Context, scope auth.Scope, row *portfolio.Property) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	stamp(scope, &row.OwnerID, &row.OrganizationID)
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	p.s.properties[row.ID] = *row
	return nil
}

func (p properties) List(ctx context.Context, scope auth.Scope) ([]portfolio.Property, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	out := []portfolio.Property{}
	for _, row := range p.s.properties {
		if scopeMatch(scope, row.OwnerID, row.OrganizationID) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (p properties) Find(ctx context.Context, scope auth.Scope, id string) (portfolio.Property, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	row, ok := p.s.properties[id]
	if !ok || !scopeMatch(scope, row.OwnerID, row.OrganizationID) {
		return portfolio.Property{}, portfolio.ErrNotFound
	}
	return row, nil
}

func (p properties) Update(ctx context.Context, scope auth.Scope, id string, upd portfolio.PropertyUpdate) (portfolio.Property, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	row, ok := p.s.properties[id]
	if !ok || !scopeMatch(scope, row.OwnerID, row.OrganizationID) {
		return portfolio.Property{}, portfolio.ErrNotFound
	}
	if upd.Name != nil {
		row.Name = *upd.Name
	}
	if upd.Type != nil {
		row.Type = *upd.Type
	}
	if upd.Address != nil {
		row.Address = *upd.Address
	}
	if upd.City != nil {
		row.City = *upd.City
	}
	if upd.State != nil {
		row.State = *upd.State
	}
	if upd.Zip != nil {
		row.Zip = *upd.Zip
	}
	if upd.Bedrooms != nil {
		row.Bedrooms = *upd.Bedrooms
	}
	if upd.Bathrooms != nil {
		row.Bathrooms = *upd.Bathrooms
	}
	if upd.Sqft != nil {
		row.Sqft = *upd.Sqft
	}
	if upd.RentCents != nil {
		row.RentCents = *upd.RentCents
	}
	if upd.ImageURL != nil {
		row.ImageURL = *upd.ImageURL
	}
	if upd.Status != nil {
		row.Status = *upd.Status
	}
	row.UpdatedAt = time.Now().UTC()
	p.s.properties[id] = row
	return row, nil
}

func (p properties) Delete(ctx context.Context, scope auth.Scope, id string) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	row, ok := p.s.properties[id]
	if !ok || !scopeMatch(scope, row.OwnerID, row.OrganizationID) {
		return portfolio.ErrNotFound
	}
	delete(p.s.properties, id)
	return nil
}

type tenants struct{ s *Store }

func (t tenants) Create(ctx context.Context, scope auth.Scope, row *portfolio.Tenant) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	stamp(scope, &row.OwnerID, &row.OrganizationID)
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	t.s.tenants[row.ID] = *row
	return nil
}

func (t tenants) List(ctx context.Context, scope auth.Scope) ([]portfolio.Tenant, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	out := []portfolio.Tenant{}
	for _, row := range t.s.tenants {
		if scopeMatch(scope, row.OwnerID, row.OrganizationID) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (t tenants) Find(ctx context.Context, scope auth.Scope, id string) (portfolio.Tenant, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	row, ok := t.s.tenants[id]
	if !ok || !scopeMatch(scope, row.OwnerID, row.OrganizationID) {
		return portfolio.Tenant{}, portfolio.ErrNotFound
	}
	return row, nil
}

func (t tenants) Update(ctx context.Context, scope auth.Scope, id string, upd portfolio.TenantUpdate) (portfolio.Tenant, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	row, ok := t.s.tenants[id]
	if !ok || !scopeMatch(scope, row.OwnerID, row.OrganizationID) {
		return portfolio.Tenant{}, portfolio.ErrNotFound
	}
	if upd.PropertyID != nil {
		row.PropertyID = *upd.PropertyID
	}
	if upd.FirstName != nil {
		row.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		row.LastName = *upd.LastName
	}
	if upd.Email != nil {
		row.Email = *upd.Email
	}
	if upd.Phone != nil {
		row.Phone = *upd.Phone
	}
	if upd.Unit != nil {
		row.Unit = *upd.Unit
	}
	if upd.Status != nil {
		row.Status = *upd.Status
	}
	if upd.LeaseStart != nil {
		row.LeaseStart = parseDate(*upd.LeaseStart)
	}
	if upd.LeaseEnd != nil {
		row.LeaseEnd = parseDate(*upd.LeaseEnd)
	}
	if upd.BalanceCents != nil {
		row.BalanceCents = *upd.BalanceCents
	}
	row.UpdatedAt = time.Now().UTC()
	t.s.tenants[id] = row
	return row, nil
}

func (t tenants) Delete(ctx context.Context, scope auth.Scope, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	row, ok := t.s.tenants[id]
	if !ok || !scopeMatch(scope, row.OwnerID, row.OrganizationID) {
		return portfolio.ErrNotFound
	}
	delete(t.s.tenants, id)
	return nil
}

func (t tenants) LinkPortalAccount(ctx context.Context, scope auth.Scope, tenantID, accountID string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	row, ok := t.s.tenants[tenantID]
	if !ok || !scopeMatch(scope, row.OwnerID, row.OrganizationID) {
		return portfolio.ErrNotFound
	}
	for _, other := range t.s.tenants {
		if other.ID != tenantID && other.PortalAccountID == accountID {
			return portfolio.ErrConflict
		}
	}
	row.PortalAccountID = accountID
	row.UpdatedAt = time.Now().UTC()
	t.s.tenants[tenantID] = row
	return nil
}

func (t tenants) Lease(ctx context.Context, tenantID string) (portfolio.LeaseSummary, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	row, ok := t.s.tenants[tenantID]
	if !ok {
		return portfolio.LeaseSummary{}, portfolio.ErrNotFound
	}
	lease := portfolio.LeaseSummary{Tenant: row}
	if prop, ok := t.s.properties[row.PropertyID]; ok {
		lease.PropertyName = prop.Name
		lease.PropertyAddress = prop.Address
		lease.PropertyCity = prop.City
		lease.PropertyState = prop.State
		lease.PropertyZip = prop.Zip
		lease.PropertyRent = prop.RentCents
	}
	return lease, nil
}

type transactions struct{ s *Store }

func (t transactions) Create(ctx context.Context, scope auth.Scope, row *portfolio.Transaction) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	stamp(scope, &row.OwnerID, &row.OrganizationID)
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	t.s.transactions[row.ID] = *row
	return nil
}

func (t transactions) List(ctx context.Context, scope auth.Scope) ([]portfolio.Transaction, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	out := []portfolio.Transaction{}
	for _, row := range t.s.transactions {
		if scopeMatch(scope, row.OwnerID, row.OrganizationID) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (t transactions) Find(ctx context.Context, scope auth.Scope, id string) (portfolio.Transaction, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	row, ok := t.s.transactions[id]
	if !ok || !scopeMatch(scope, row.OwnerID, row.OrganizationID) {
		return portfolio.Transaction{}, portfolio.ErrNotFound
	}
	return row, nil
}

func (t transactions) Update(ctx context.Context, scope auth.Scope, id string, upd portfolio.TransactionUpdate) (portfolio.Transaction, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	row, ok := t.s.transactions[id]
	if !ok || !scopeMatch(scope, row.OwnerID, row.OrganizationID) {
		return portfolio.Transaction{}, portfolio.ErrNotFound
	}
	if upd.PropertyID != nil {
		row.PropertyID = *upd.PropertyID
	}
	if upd.Type != nil {
		row.Type = *upd.Type
	}
	if upd.Description != nil {
		row.Description = *upd.Description
	}
	if upd.AmountCents != nil {
		row.AmountCents = *upd.AmountCents
	}
	if upd.Category != nil {
		row.Category = *upd.Category
	}
	if upd.Date != nil {
		row.Date = parseDate(*upd.Date)
	}
	if upd.Status != nil {
		row.Status = *upd.Status
	}
	row.UpdatedAt = time.Now().UTC()
	t.s.transactions[id] = row
	return row, nil
}

func (t transactions) Delete(ctx context.Context, scope auth.Scope, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	row, ok := t.s.transactions[id]
	if !ok || !scopeMatch(scope, row.OwnerID, row.OrganizationID) {
		return portfolio.ErrNotFound
	}
	delete(t.s.transactions, id)
	return nil
}

type maintenance struct{ s *Store }

// requestInScope resolves a request's visibility through its tenant row.
func (s *Store) requestInScope(row portfolio.MaintenanceRequest, scope auth.Scope) bool {
	tenant, ok := s.tenants[row.TenantID]
	if !ok {
		return false
	}
	return scopeMatch(scope, tenant.OwnerID, tenant.OrganizationID)
}

// withContractor joins the assigned contractor's display fields onto a copy.
func (s *Store) withContractor(row portfolio.MaintenanceRequest) portfolio.MaintenanceRequest {
	row.PhotoURLs = slices.Clone(row.PhotoURLs)
	if row.AssignedContractorID == "" {
		return row
	}
	if c, ok := s.contractors[row.AssignedContractorID]; ok {
		row.ContractorName = c.Name
		row.ContractorCompany = c.Company
		row.ContractorPhone = c.Phone
	}
	return row
}

func (m maintenance) Create(ctx context.Context, row *portfolio.MaintenanceRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	tenant, ok := m.s.tenants[row.TenantID]
	if !ok {
		return portfolio.ErrNotFound
	}
	if row.PropertyID == "" {
		row.PropertyID = tenant.PropertyID
	}
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	stored := *row
	stored.PhotoURLs = slices.Clone(row.PhotoURLs)
	m.s.maintenance[row.ID] = stored
	return nil
}

func (m maintenance) ListByScope(ctx context.Context, scope auth.Scope) ([]portfolio.MaintenanceRequest, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []portfolio.MaintenanceRequest{}
	for _, row := range m.s.maintenance {
		if m.s.requestInScope(row, scope) {
			out = append(out, m.s.withContractor(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m maintenance) FindByScope(ctx context.Context, scope auth.Scope, id string) (portfolio.MaintenanceRequest, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	row, ok := m.s.maintenance[id]
	if !ok || !m.s.requestInScope(row, scope) {
		return portfolio.MaintenanceRequest{}, portfolio.ErrNotFound
	}
	return m.s.withContractor(row), nil
}

func (m maintenance) UpdateByScope(ctx context.Context, scope auth.Scope, id string, upd portfolio.MaintenanceUpdate) (portfolio.MaintenanceRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	row, ok := m.s.maintenance[id]
	if !ok || !m.s.requestInScope(row, scope) {
		return portfolio.MaintenanceRequest{}, portfolio.ErrNotFound
	}
	if upd.Status != nil {
		row.Status = *upd.Status
	}
	if upd.Priority != nil {
		row.Priority = *upd.Priority
	}
	if upd.AssignedContractorID != nil {
		row.AssignedContractorID = *upd.AssignedContractorID
	}
	row.UpdatedAt = time.Now().UTC()
	m.s.maintenance[id] = row
	return m.s.withContractor(row), nil
}

func (m maintenance) ListByTenant(ctx context.Context, tenantID string) ([]portfolio.MaintenanceRequest, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []portfolio.MaintenanceRequest{}
	for _, row := range m.s.maintenance {
		if row.TenantID == tenantID {
			out = append(out, m.s.withContractor(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m maintenance) ListByContractor(ctx context.Context, contractorID string) ([]portfolio.MaintenanceRequest, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []portfolio.MaintenanceRequest{}
	for _, row := range m.s.maintenance {
		if row.AssignedContractorID == contractorID {
			out = append(out, m.s.withContractor(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m maintenance) UpdateStatusByContractor(ctx context.Context, contractorID, id, status string) (portfolio.MaintenanceRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	row, ok := m.s.maintenance[id]
	if !ok || row.AssignedContractorID != contractorID {
		return portfolio.MaintenanceRequest{}, portfolio.ErrNotFound
	}
	row.Status = status
	row.UpdatedAt = time.Now().UTC()
	m.s.maintenance[id] = row
	return m.s.withContractor(row), nil
}

type contractors struct{ s *Store }

func (c contractors) Create(ctx context.Context, scope auth.Scope, row *portfolio.Contractor) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	stamp(scope, &row.OwnerID, &row.OrganizationID)
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	c.s.contractors[row.ID] = *row
	return nil
}

func (c contractors) List(ctx context.Context, scope auth.Scope) ([]portfolio.Contractor, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	out := []portfolio.Contractor{}
	for _, row := range c.s.contractors {
		if scopeMatch(scope, row.OwnerID, row.OrganizationID) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (c contractors) Find(ctx context.Context, scope auth.Scope, id string) (portfolio.Contractor, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	row, ok := c.s.contractors[id]
	if !ok || !scopeMatch(scope, row.OwnerID, row.OrganizationID) {
		return portfolio.Contractor{}, portfolio.ErrNotFound
	}
	return row, nil
}

func (c contractors) Update(ctx context.Context, scope auth.Scope, id string, upd portfolio.ContractorUpdate) (portfolio.Contractor, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	row, ok := c.s.contractors[id]
	if !ok || !scopeMatch(scope, row.OwnerID, row.OrganizationID) {
		return portfolio.Contractor{}, portfolio.ErrNotFound
	}
	if upd.Name != nil {
		row.Name = *upd.Name
	}
	if upd.Company != nil {
		row.Company = *upd.Company
	}
	if upd.Phone != nil {
		row.Phone = *upd.Phone
	}
	if upd.Email != nil {
		row.Email = *upd.Email
	}
	if upd.Specialty != nil {
		row.Specialty = *upd.Specialty
	}
	row.UpdatedAt = time.Now().UTC()
	c.s.contractors[id] = row
	return row, nil
}

func (c contractors) Delete(ctx context.Context, scope auth.Scope, id string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	row, ok := c.s.contractors[id]
	if !ok || !scopeMatch(scope, row.OwnerID, row.OrganizationID) {
		return portfolio.ErrNotFound
	}
	delete(c.s.contractors, id)
	return nil
}

func (c contractors) LinkPortalAccount(ctx context.Context, scope auth.Scope, contractorID, accountID string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	row, ok := c.s.contractors[contractorID]
	if !ok || !scopeMatch(scope, row.OwnerID, row.OrganizationID) {
		return portfolio.ErrNotFound
	}
	for _, other := range c.s.contractors {
		if other.ID != contractorID && other.PortalAccountID == accountID {
			return portfolio.ErrConflict
		}
	}
	row.PortalAccountID = accountID
	row.UpdatedAt = time.Now().UTC()
	c.s.contractors[contractorID] = row
	return nil
}

type messages struct{ s *Store }

// messageInScope checks every participant side: the tenant or contractor row
// (through its own scope stamp) and, in owner mode, the manager account itself.
func (s *Store) messageInScope(m portfolio.Message, scope auth.Scope) bool {
	for _, tenantID := range []string{m.SenderTenantID, m.RecipientTenantID} {
		if tenantID == "" {
			continue
		}
		if t, ok := s.tenants[tenantID]; ok && scopeMatch(scope, t.OwnerID, t.OrganizationID) {
			return true
		}
	}
	for _, contractorID := range []string{m.SenderContractorID, m.RecipientContractorID} {
		if contractorID == "" {
			continue
		}
		if c, ok := s.contractors[contractorID]; ok && scopeMatch(scope, c.OwnerID, c.OrganizationID) {
			return true
		}
	}
	if scope.Kind == auth.ScopeOwner {
		return m.SenderAccountID == scope.Value || m.RecipientAccountID == scope.Value
	}
	return false
}

func (m messages) Create(ctx context.Context, row *portfolio.Message) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	row.CreatedAt = time.Now().UTC()
	m.s.messages[row.ID] = *row
	return nil
}

func (m messages) ListForManager(ctx context.Context, scope auth.Scope) ([]portfolio.Message, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []portfolio.Message{}
	for _, row := range m.s.messages {
		if m.s.messageInScope(row, scope) {
			out = append(out, row)
		}
	}
	sortMessages(out)
	return out, nil
}

func (m messages) ListForTenant(ctx context.Context, tenantID string) ([]portfolio.Message, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []portfolio.Message{}
	for _, row := range m.s.messages {
		if m.tenantParticipates(row, tenantID) {
			out = append(out, row)
		}
	}
	sortMessages(out)
	return out, nil
}

// tenantParticipates includes replies within the tenant's threads: a reply is
// addressed to the manager, so the thread root decides visibility.
func (m messages) tenantParticipates(row portfolio.Message, tenantID string) bool {
	if row.SenderTenantID == tenantID || row.RecipientTenantID == tenantID {
		return true
	}
	if row.ParentID == "" {
		return false
	}
	root, ok := m.s.messages[row.ParentID]
	return ok && (root.SenderTenantID == tenantID || root.RecipientTenantID == tenantID)
}

func (m messages) ListForContractor(ctx context.Context, contractorID string) ([]portfolio.Message, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []portfolio.Message{}
	for _, row := range m.s.messages {
		if m.contractorParticipates(row, contractorID) {
			out = append(out, row)
		}
	}
	sortMessages(out)
	return out, nil
}

func (m messages) contractorParticipates(row portfolio.Message, contractorID string) bool {
	if row.SenderContractorID == contractorID || row.RecipientContractorID == contractorID {
		return true
	}
	if row.ParentID == "" {
		return false
	}
	root, ok := m.s.messages[row.ParentID]
	return ok && (root.SenderContractorID == contractorID || root.RecipientContractorID == contractorID)
}

func (m messages) FindRootForTenant(ctx context.Context, tenantID, id string) (portfolio.Message, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	row, ok := m.s.messages[id]
	if !ok || row.ParentID != "" || row.RecipientTenantID != tenantID {
		return portfolio.Message{}, portfolio.ErrNotFound
	}
	return row, nil
}

func (m messages) FindRootForContractor(ctx context.Context, contractorID, id string) (portfolio.Message, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	row, ok := m.s.messages[id]
	if !ok || row.ParentID != "" || row.RecipientContractorID != contractorID {
		return portfolio.Message{}, portfolio.ErrNotFound
	}
	return row, nil
}

func (m messages) MarkReadByTenant(ctx context.Context, tenantID, id string) (portfolio.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	row, ok := m.s.messages[id]
	if !ok || row.RecipientTenantID != tenantID {
		return portfolio.Message{}, portfolio.ErrNotFound
	}
	if row.ReadAt.IsZero() {
		row.ReadAt = time.Now().UTC()
		m.s.messages[id] = row
	}
	return row, nil
}

func (m messages) MarkReadByContractor(ctx context.Context, contractorID, id string) (portfolio.Message, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	row, ok := m.s.messages[id]
	if !ok || row.RecipientContractorID != contractorID {
		return portfolio.Message{}, portfolio.ErrNotFound
	}
	if row.ReadAt.IsZero() {
		row.ReadAt = time.Now().UTC()
		m.s.messages[id] = row
	}
	return row, nil
}

func (m messages) UnreadCountForTenant(ctx context.Context, tenantID string) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	n := 0
	for _, row := range m.s.messages {
		if row.RecipientTenantID == tenantID && row.ReadAt.IsZero() {
			n++
		}
	}
	return n, nil
}

func (m messages) UnreadCountForContractor(ctx context.Context, contractorID string) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	n := 0
	for _, row := range m.s.messages {
		if row.RecipientContractorID == contractorID && row.ReadAt.IsZero() {
			n++
		}
	}
	return n, nil
}

type notifications struct{ s *Store }

func (n notifications) Create(ctx context.Context, row *portfolio.Notification) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	row.CreatedAt = time.Now().UTC()
	n.s.notifications[row.ID] = *row
	return nil
}

func (n notifications) ListByAccount(ctx context.Context, accountID string) ([]portfolio.Notification, error) {
	n.s.mu.RLock()
	defer n.s.mu.RUnlock()
	out := []portfolio.Notification{}
	for _, row := range n.s.notifications {
		if row.AccountID == accountID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (n notifications) MarkRead(ctx context.Context, accountID, id string) (portfolio.Notification, error) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	row, ok := n.s.notifications[id]
	if !ok || row.AccountID != accountID {
		return portfolio.Notification{}, portfolio.ErrNotFound
	}
	row.Read = true
	n.s.notifications[id] = row
	return row, nil
}

func (n notifications) MarkAllRead(ctx context.Context, accountID string) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	for id, row := range n.s.notifications {
		if row.AccountID == accountID && !row.Read {
			row.Read = true
			n.s.notifications[id] = row
		}
	}
	return nil
}

type announcements struct{ s *Store }

func (a announcements) Create(ctx context.Context, scope auth.Scope, row *portfolio.Announcement) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	prop, ok := a.s.properties[row.PropertyID]
	if !ok || !scopeMatch(scope, prop.OwnerID, prop.OrganizationID) {
		return portfolio.ErrNotFound
	}
	row.CreatedAt = time.Now().UTC()
	a.s.announcements[row.ID] = *row
	return nil
}

func (a announcements) ListByScope(ctx context.Context, scope auth.Scope) ([]portfolio.Announcement, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	out := []portfolio.Announcement{}
	for _, row := range a.s.announcements {
		if prop, ok := a.s.properties[row.PropertyID]; ok && scopeMatch(scope, prop.OwnerID, prop.OrganizationID) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (a announcements) ListByProperty(ctx context.Context, propertyID string) ([]portfolio.Announcement, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	out := []portfolio.Announcement{}
	for _, row := range a.s.announcements {
		if row.PropertyID == propertyID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (a announcements) Delete(ctx context.Context, scope auth.Scope, id string) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	row, ok := a.s.announcements[id]
	if !ok {
		return portfolio.ErrNotFound
	}
	prop, ok := a.s.properties[row.PropertyID]
	if !ok || !scopeMatch(scope, prop.OwnerID, prop.OrganizationID) {
		return portfolio.ErrNotFound
	}
	delete(a.s.announcements, id)
	return nil
}

type documents struct{ s *Store }

func (d documents) Create(ctx context.Context, scope auth.Scope, row *portfolio.TenantDocument) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	tenant, ok := d.s.tenants[row.TenantID]
	if !ok || !scopeMatch(scope, tenant.OwnerID, tenant.OrganizationID) {
		return portfolio.ErrNotFound
	}
	row.CreatedAt = time.Now().UTC()
	d.s.documents[row.ID] = *row
	return nil
}

func (d documents) ListByTenant(ctx context.Context, tenantID string) ([]portfolio.TenantDocument, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	out := []portfolio.TenantDocument{}
	for _, row := range d.s.documents {
		if row.TenantID == tenantID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (d documents) ListByScopeTenant(ctx context.Context, scope auth.Scope, tenantID string) ([]portfolio.TenantDocument, error) {
	d.s.mu.RLock()
	tenant, ok := d.s.tenants[tenantID]
	d.s.mu.RUnlock()
	if !ok || !scopeMatch(scope, tenant.OwnerID, tenant.OrganizationID) {
		return nil, portfolio.ErrNotFound
	}
	return d.ListByTenant(ctx, tenantID)
}

func (d documents) Delete(ctx context.Context, scope auth.Scope, id string) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	row, ok := d.s.documents[id]
	if !ok {
		return portfolio.ErrNotFound
	}
	tenant, ok := d.s.tenants[row.TenantID]
	if !ok || !scopeMatch(scope, tenant.OwnerID, tenant.OrganizationID) {
		return portfolio.ErrNotFound
	}
	delete(d.s.documents, id)
	return nil
}

// sortMessages orders rows oldest first, the order threads are rebuilt in.
func sortMessages(rows []portfolio.Message) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
}

// parseDate accepts the YYYY-MM-DD wire format; a bad value becomes the zero
// time rather than an error, matching the tolerant SQL date cast.
func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
