package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"leasepilot.org/internal/auth"
	"leasepilot.org/internal/portfolio"
)

func (s *Store) Maintenance(ctx context.Context) portfolio.MaintenanceStore {
	return &maintenanceStore{db: s.db}
}
func (s *Store) Messages(ctx context.Context) portfolio.MessageStore { return &messageStore{db: s.db} }
func (s *Store) Notifications(ctx context.Context) portfolio.NotificationStore {
	return &notificationStore{db: s.db}
}
func (s *Store) Announcements(ctx context.Context) portfolio.AnnouncementStore {
	return &announcementStore{db: s.db}
}
func (s *Store) Documents(ctx context.Context) portfolio.DocumentStore {
	return &documentStore{db: s.db}
}

// Maintenance store ---------------------------------------------------------
type maintenanceStore struct{ db *sql.DB }

// maintenanceColumns joins the assigned contractor's display fields so list
// views avoid one query per row.
const maintenanceColumns = `m.id, m.tenant_id, coalesce(m.property_id, ''), m.subject,
	coalesce(m.description, ''), m.status, m.priority, m.issue_type, m.photo_urls,
	coalesce(m.assigned_contractor_id, ''), coalesce(c.name, ''), coalesce(c.company, ''),
	coalesce(c.phone, ''), m.created_at, m.updated_at`

const maintenanceFrom = ` from maintenance_requests m
	left join contractors c on c.id = m.assigned_contractor_id`

func scanMaintenance(row interface{ Scan(...any) error }) (portfolio.MaintenanceRequest, error) {
	var (
		m      portfolio.MaintenanceRequest
		photos []byte
	)
	err := row.Scan(&m.ID, &m.TenantID, &m.PropertyID, &m.Subject, &m.Description,
		&m.Status, &m.Priority, &m.IssueType, &photos, &m.AssignedContractorID,
		&m.ContractorName, &m.ContractorCompany, &m.ContractorPhone, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return portfolio.MaintenanceRequest{}, portfolio.ErrNotFound
	}
	if err != nil {
		return portfolio.MaintenanceRequest{}, err
	}
	if len(photos) > 0 {
		_ = json.Unmarshal(photos, &m.PhotoURLs)
	}
	return m, nil
}

func (s *maintenanceStore) Create(ctx context.Context, m *portfolio.MaintenanceRequest) error {
	photos, err := json.Marshal(m.PhotoURLs)
	if err != nil {
		return err
	}
	row := s.db.QueryRowContext(ctx, `
		insert into maintenance_requests (id, tenant_id, property_id, subject, description,
			status, priority, issue_type, photo_urls)
		values ($1, $2, coalesce(nullif($3, ''), (select property_id from tenants where id = $2)), $4, $5, $6, $7, $8, $9)
		returning coalesce(property_id, ''), created_at, updated_at
	`, m.ID, m.TenantID, m.PropertyID, m.Subject, nullIfEmpty(m.Description),
		m.Status, m.Priority, m.IssueType, photos)
	if err := row.Scan(&m.PropertyID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return portfolio.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *maintenanceStore) ListByScope(ctx context.Context, scope auth.Scope) ([]portfolio.MaintenanceRequest, error) {
	clause, arg, err := scopeClause(scope, "t.", 1)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `select `+maintenanceColumns+maintenanceFrom+`
		join tenants t on t.id = m.tenant_id
		where `+clause+` order by m.created_at desc`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMaintenance(rows)
}

func (s *maintenanceStore) FindByScope(ctx context.Context, scope auth.Scope, id string) (portfolio.MaintenanceRequest, error) {
	clause, arg, err := scopeClause(scope, "t.", 2)
	if err != nil {
		return portfolio.MaintenanceRequest{}, err
	}
	return scanMaintenance(s.db.QueryRowContext(ctx, `select `+maintenanceColumns+maintenanceFrom+`
		join tenants t on t.id = m.tenant_id
		where m.id = $1 and `+clause, id, arg))
}

func (s *maintenanceStore) UpdateByScope(ctx context.Context, scope auth.Scope, id string, upd portfolio.MaintenanceUpdate) (portfolio.MaintenanceRequest, error) {
	b := newUpdateBuilder()
	if upd.Status != nil {
		b.set("status", *upd.Status)
	}
	if upd.Priority != nil {
		b.set("priority", *upd.Priority)
	}
	if upd.AssignedContractorID != nil {
		b.set("assigned_contractor_id", nullIfEmpty(*upd.AssignedContractorID))
	}
	if b.empty() {
		return s.FindByScope(ctx, scope, id)
	}
	b.sets = append(b.sets, "updated_at = now()")
	b.args = append(b.args, id)
	idIdx := b.idx
	b.idx++
	clause, arg, err := scopeClause(scope, "t.", b.idx)
	if err != nil {
		return portfolio.MaintenanceRequest{}, err
	}
	b.args = append(b.args, arg)
	query := fmt.Sprintf(`update maintenance_requests m set %s
		from tenants t
		where m.id = $%d and t.id = m.tenant_id and %s`,
		strings.Join(b.sets, ", "), idIdx, clause)
	res, err := s.db.ExecContext(ctx, query, b.args...)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return portfolio.MaintenanceRequest{}, portfolio.ErrNotFound
		}
		return portfolio.MaintenanceRequest{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return portfolio.MaintenanceRequest{}, portfolio.ErrNotFound
	}
	return s.FindByScope(ctx, scope, id)
}

func (s *maintenanceStore) ListByTenant(ctx context.Context, tenantID string) ([]portfolio.MaintenanceRequest, error) {
	rows, err := s.db.QueryContext(ctx, `select `+maintenanceColumns+maintenanceFrom+`
		where m.tenant_id = $1 order by m.created_at desc`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMaintenance(rows)
}

func (s *maintenanceStore) ListByContractor(ctx context.Context, contractorID string) ([]portfolio.MaintenanceRequest, error) {
	rows, err := s.db.QueryContext(ctx, `select `+maintenanceColumns+maintenanceFrom+`
		where m.assigned_contractor_id = $1 order by m.created_at desc`, contractorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMaintenance(rows)
}

func (s *maintenanceStore) UpdateStatusByContractor(ctx context.Context, contractorID, id, status string) (portfolio.MaintenanceRequest, error) {
	res, err := s.db.ExecContext(ctx, `
		update maintenance_requests set status = $1, updated_at = now()
		where id = $2 and assigned_contractor_id = $3
	`, status, id, contractorID)
	if err != nil {
		return portfolio.MaintenanceRequest{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return portfolio.MaintenanceRequest{}, portfolio.ErrNotFound
	}
	return scanMaintenance(s.db.QueryRowContext(ctx,
		`select `+maintenanceColumns+maintenanceFrom+` where m.id = $1`, id))
}

func collectMaintenance(rows *sql.Rows) ([]portfolio.MaintenanceRequest, error) {
	res := []portfolio.MaintenanceRequest{}
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// Message store -------------------------------------------------------------
type messageStore struct{ db *sql.DB }

const messageColumns = `id, coalesce(parent_message_id, ''), coalesce(sender_account_id, ''),
	coalesce(sender_tenant_id, ''), coalesce(sender_contractor_id, ''), recipient_type,
	coalesce(recipient_account_id, ''), coalesce(recipient_tenant_id, ''),
	coalesce(recipient_contractor_id, ''), subject, coalesce(body, ''), read_at, created_at`

func scanMessage(row interface{ Scan(...any) error }) (portfolio.Message, error) {
	var (
		m      portfolio.Message
		readAt sql.NullTime
	)
	err := row.Scan(&m.ID, &m.ParentID, &m.SenderAccountID, &m.SenderTenantID,
		&m.SenderContractorID, &m.RecipientType, &m.RecipientAccountID, &m.RecipientTenantID,
		&m.RecipientContractorID, &m.Subject, &m.Body, &readAt, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return portfolio.Message{}, portfolio.ErrNotFound
	}
	m.ReadAt = timeOrZero(readAt)
	return m, err
}

func (s *messageStore) Create(ctx context.Context, m *portfolio.Message) error {
	row := s.db.QueryRowContext(ctx, `
		insert into messages (id, parent_message_id, sender_account_id, sender_tenant_id,
			sender_contractor_id, recipient_type, recipient_account_id, recipient_tenant_id,
			recipient_contractor_id, subject, body)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		returning created_at
	`, m.ID, nullIfEmpty(m.ParentID), nullIfEmpty(m.SenderAccountID), nullIfEmpty(m.SenderTenantID),
		nullIfEmpty(m.SenderContractorID), m.RecipientType, nullIfEmpty(m.RecipientAccountID),
		nullIfEmpty(m.RecipientTenantID), nullIfEmpty(m.RecipientContractorID), m.Subject,
		nullIfEmpty(m.Body))
	if err := row.Scan(&m.CreatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return portfolio.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *messageStore) ListForManager(ctx context.Context, scope auth.Scope) ([]portfolio.Message, error) {
	var (
		query string
		arg   any
	)
	switch scope.Kind {
	case auth.ScopeOwner:
		query = `select ` + messageColumns + ` from messages
			where sender_account_id = $1 or recipient_account_id = $1
				or sender_tenant_id in (select id from tenants where owner_id = $1)
				or recipient_tenant_id in (select id from tenants where owner_id = $1)
				or sender_contractor_id in (select id from contractors where owner_id = $1)
				or recipient_contractor_id in (select id from contractors where owner_id = $1)
			order by created_at asc`
		arg = scope.Value
	case auth.ScopeOrganization:
		query = `select ` + messageColumns + ` from messages
			where sender_tenant_id in (select id from tenants where organization_id = $1)
				or recipient_tenant_id in (select id from tenants where organization_id = $1)
				or sender_contractor_id in (select id from contractors where organization_id = $1)
				or recipient_contractor_id in (select id from contractors where organization_id = $1)
				or sender_account_id in (select account_id from organization_members where organization_id = $1)
				or recipient_account_id in (select account_id from organization_members where organization_id = $1)
			order by created_at asc`
		arg = scope.Value
	default:
		return nil, portfolio.ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

// ListForTenant includes thread replies addressed back to the manager: a reply
// references the root through parent_message_id, so visibility follows the root.
func (s *messageStore) ListForTenant(ctx context.Context, tenantID string) ([]portfolio.Message, error) {
	rows, err := s.db.QueryContext(ctx, `select `+messageColumns+` from messages
		where sender_tenant_id = $1 or recipient_tenant_id = $1
			or parent_message_id in (
				select id from messages where sender_tenant_id = $1 or recipient_tenant_id = $1)
		order by created_at asc`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

func (s *messageStore) ListForContractor(ctx context.Context, contractorID string) ([]portfolio.Message, error) {
	rows, err := s.db.QueryContext(ctx, `select `+messageColumns+` from messages
		where sender_contractor_id = $1 or recipient_contractor_id = $1
			or parent_message_id in (
				select id from messages where sender_contractor_id = $1 or recipient_contractor_id = $1)
		order by created_at asc`, contractorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

func (s *messageStore) FindRootForTenant(ctx context.Context, tenantID, id string) (portfolio.Message, error) {
	return scanMessage(s.db.QueryRowContext(ctx, `select `+messageColumns+` from messages
		where id = $1 and recipient_tenant_id = $2 and parent_message_id is null`, id, tenantID))
}

func (s *messageStore) FindRootForContractor(ctx context.Context, contractorID, id string) (portfolio.Message, error) {
	return scanMessage(s.db.QueryRowContext(ctx, `select `+messageColumns+` from messages
		where id = $1 and recipient_contractor_id = $2 and parent_message_id is null`, id, contractorID))
}

func (s *messageStore) MarkReadByTenant(ctx context.Context, tenantID, id string) (portfolio.Message, error) {
	return scanMessage(s.db.QueryRowContext(ctx, `
		update messages set read_at = coalesce(read_at, now())
		where id = $1 and recipient_tenant_id = $2
		returning `+messageColumns, id, tenantID))
}

func (s *messageStore) MarkReadByContractor(ctx context.Context, contractorID, id string) (portfolio.Message, error) {
	return scanMessage(s.db.QueryRowContext(ctx, `
		update messages set read_at = coalesce(read_at, now())
		where id = $1 and recipient_contractor_id = $2
		returning `+messageColumns, id, contractorID))
}

func (s *messageStore) UnreadCountForTenant(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`select count(*) from messages where recipient_tenant_id = $1 and read_at is null`,
		tenantID).Scan(&n)
	return n, err
}

func (s *messageStore) UnreadCountForContractor(ctx context.Context, contractorID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`select count(*) from messages where recipient_contractor_id = $1 and read_at is null`,
		contractorID).Scan(&n)
	return n, err
}

func collectMessages(rows *sql.Rows) ([]portfolio.Message, error) {
	res := []portfolio.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// Notification store --------------------------------------------------------
type notificationStore struct{ db *sql.DB }

func (s *notificationStore) Create(ctx context.Context, n *portfolio.Notification) error {
	row := s.db.QueryRowContext(ctx, `
		insert into notifications (id, account_id, title, message, type)
		values ($1, $2, $3, $4, $5)
		returning created_at
	`, n.ID, n.AccountID, n.Title, nullIfEmpty(n.Message), n.Type)
	return row.Scan(&n.CreatedAt)
}

func (s *notificationStore) ListByAccount(ctx context.Context, accountID string) ([]portfolio.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, account_id, title, coalesce(message, ''), type, read, created_at
		from notifications where account_id = $1 order by created_at desc
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []portfolio.Notification{}
	for rows.Next() {
		var n portfolio.Notification
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Title, &n.Message, &n.Type, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

func (s *notificationStore) MarkRead(ctx context.Context, accountID, id string) (portfolio.Notification, error) {
	var n portfolio.Notification
	err := s.db.QueryRowContext(ctx, `
		update notifications set read = true
		where id = $1 and account_id = $2
		returning id, account_id, title, coalesce(message, ''), type, read, created_at
	`, id, accountID).Scan(&n.ID, &n.AccountID, &n.Title, &n.Message, &n.Type, &n.Read, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return portfolio.Notification{}, portfolio.ErrNotFound
	}
	return n, err
}

func (s *notificationStore) MarkAllRead(ctx context.Context, accountID string) error {
	_, err := s.db.ExecContext(ctx,
		`update notifications set read = true where account_id = $1 and read = false`, accountID)
	return err
}

// Announcement store --------------------------------------------------------
type announcementStore struct{ db *sql.DB }

const announcementColumns = `a.id, a.property_id, coalesce(a.author_id, ''), a.title,
	coalesce(a.message, ''), a.created_at`

func scanAnnouncement(row interface{ Scan(...any) error }) (portfolio.Announcement, error) {
	var a portfolio.Announcement
	err := row.Scan(&a.ID, &a.PropertyID, &a.AuthorID, &a.Title, &a.Message, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return portfolio.Announcement{}, portfolio.ErrNotFound
	}
	return a, err
}

func (s *announcementStore) Create(ctx context.Context, scope auth.Scope, a *portfolio.Announcement) error {
	clause, arg, err := scopeClause(scope, "", 5)
	if err != nil {
		return err
	}
	row := s.db.QueryRowContext(ctx, `
		insert into announcements (id, property_id, author_id, title, message)
		select $1, $2, $3, $4, $6
		where exists (select 1 from properties where id = $2 and `+clause+`)
		returning created_at
	`, a.ID, a.PropertyID, nullIfEmpty(a.AuthorID), a.Title, arg, nullIfEmpty(a.Message))
	err = row.Scan(&a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return portfolio.ErrNotFound
	}
	return err
}

func (s *announcementStore) ListByScope(ctx context.Context, scope auth.Scope) ([]portfolio.Announcement, error) {
	clause, arg, err := scopeClause(scope, "p.", 1)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `select `+announcementColumns+`
		from announcements a
		join properties p on p.id = a.property_id
		where `+clause+` order by a.created_at desc`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnnouncements(rows)
}

func (s *announcementStore) ListByProperty(ctx context.Context, propertyID string) ([]portfolio.Announcement, error) {
	rows, err := s.db.QueryContext(ctx, `select `+announcementColumns+`
		from announcements a where a.property_id = $1 order by a.created_at desc`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnnouncements(rows)
}

func (s *announcementStore) Delete(ctx context.Context, scope auth.Scope, id string) error {
	clause, arg, err := scopeClause(scope, "p.", 2)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		delete from announcements a
		using properties p
		where a.id = $1 and p.id = a.property_id and `+clause, id, arg)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return portfolio.ErrNotFound
	}
	return nil
}

func collectAnnouncements(rows *sql.Rows) ([]portfolio.Announcement, error) {
	res := []portfolio.Announcement{}
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// Document store ------------------------------------------------------------
type documentStore struct{ db *sql.DB }

func (s *documentStore) Create(ctx context.Context, scope auth.Scope, d *portfolio.TenantDocument) error {
	clause, arg, err := scopeClause(scope, "", 5)
	if err != nil {
		return err
	}
	row := s.db.QueryRowContext(ctx, `
		insert into tenant_documents (id, tenant_id, name, file_url)
		select $1, $2, $3, $4
		where exists (select 1 from tenants where id = $2 and `+clause+`)
		returning created_at
	`, d.ID, d.TenantID, d.Name, nullIfEmpty(d.FileURL), arg)
	err = row.Scan(&d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return portfolio.ErrNotFound
	}
	return err
}

func (s *documentStore) ListByTenant(ctx context.Context, tenantID string) ([]portfolio.TenantDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, tenant_id, name, coalesce(file_url, ''), created_at
		from tenant_documents where tenant_id = $1 order by created_at desc
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []portfolio.TenantDocument{}
	for rows.Next() {
		var d portfolio.TenantDocument
		if err := rows.Scan(&d.ID, &d.TenantID, &d.Name, &d.FileURL, &d.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (s *documentStore) ListByScopeTenant(ctx context.Context, scope auth.Scope, tenantID string) ([]portfolio.TenantDocument, error) {
	clause, arg, err := scopeClause(scope, "", 2)
	if err != nil {
		return nil, err
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`select exists (select 1 from tenants where id = $1 and `+clause+`)`,
		tenantID, arg).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, portfolio.ErrNotFound
	}
	return s.ListByTenant(ctx, tenantID)
}

func (s *documentStore) Delete(ctx context.Context, scope auth.Scope, id string) error {
	clause, arg, err := scopeClause(scope, "t.", 2)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		delete from tenant_documents d
		using tenants t
		where d.id = $1 and t.id = d.tenant_id and `+clause, id, arg)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return portfolio.ErrNotFound
	}
	return nil
}
