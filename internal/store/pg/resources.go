package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"leasepilot.org/internal/auth"
	"leasepilot.org/internal/portfolio"
)

func (s *Store) Properties(ctx context.Context) portfolio.PropertyStore {
	return &propertyStore{db: s.db}
}
func (s *Store) Tenants(ctx context.Context) portfolio.TenantStore { return &tenantStore{db: s.db} }
func (s *Store) Transactions(ctx context.Context) portfolio.TransactionStore {
	return &transactionStore{db: s.db}
}
func (s *Store) Contractors(ctx context.Context) portfolio.ContractorStore {
	return &contractorStore{db: s.db}
}

// buildUpdate assembles "set a = $1, b = $2" fragments plus the scope filter
// for the shared update-returning pattern.
type updateBuilder struct {
	sets []string
	args []any
	idx  int
}

func newUpdateBuilder() *updateBuilder { return &updateBuilder{idx: 1} }

func (b *updateBuilder) set(column string, value any) {
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", column, b.idx))
	b.args = append(b.args, value)
	b.idx++
}

func (b *updateBuilder) empty() bool { return len(b.sets) == 0 }

// Property store ------------------------------------------------------------
type propertyStore struct{ db *sql.DB }

const propertyColumns = `id, coalesce(owner_id, ''), coalesce(organization_id, ''), name,
	coalesce(type, ''), coalesce(address, ''), coalesce(city, ''), coalesce(state, ''),
	coalesce(zip, ''), bedrooms, bathrooms, sqft, rent_cents, coalesce(image_url, ''),
	status, created_at, updated_at`

func scanProperty(row interface{ Scan(...any) error }) (portfolio.Property, error) {
	var p portfolio.Property
	err := row.Scan(&p.ID, &p.OwnerID, &p.OrganizationID, &p.Name, &p.Type, &p.Address,
		&p.City, &p.State, &p.Zip, &p.Bedrooms, &p.Bathrooms, &p.Sqft, &p.RentCents,
		&p.ImageURL, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return portfolio.Property{}, portfolio.ErrNotFound
	}
	return p, err
}

func (s *propertyStore) Create(ctx context.Context, scope auth.Scope, p *portfolio.Property) error {
	ownerID, orgID := scopeColumns(scope)
	row := s.db.QueryRowContext(ctx, `
		insert into properties (id, owner_id, organization_id, name, type, address, city, state, zip,
			bedrooms, bathrooms, sqft, rent_cents, image_url, status)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		returning created_at, updated_at
	`, p.ID, ownerID, orgID, p.Name, nullIfEmpty(p.Type), nullIfEmpty(p.Address),
		nullIfEmpty(p.City), nullIfEmpty(p.State), nullIfEmpty(p.Zip),
		p.Bedrooms, p.Bathrooms, p.Sqft, p.RentCents, nullIfEmpty(p.ImageURL), p.Status)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	p.OwnerID = ownerID.String
	p.OrganizationID = orgID.String
	return nil
}

func (s *propertyStore) List(ctx context.Context, scope auth.Scope) ([]portfolio.Property, error) {
	clause, arg, err := scopeClause(scope, "", 1)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+propertyColumns+` from properties where `+clause+` order by created_at desc`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []portfolio.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (s *propertyStore) Find(ctx context.Context, scope auth.Scope, id string) (portfolio.Property, error) {
	clause, arg, err := scopeClause(scope, "", 2)
	if err != nil {
		return portfolio.Property{}, err
	}
	return scanProperty(s.db.QueryRowContext(ctx,
		`select `+propertyColumns+` from properties where id = $1 and `+clause, id, arg))
}

func (s *propertyStore) Update(ctx context.Context, scope auth.Scope, id string, upd portfolio.PropertyUpdate) (portfolio.Property, error) {
	b := newUpdateBuilder()
	if upd.Name != nil {
		b.set("name", *upd.Name)
	}
	if upd.Type != nil {
		b.set("type", nullIfEmpty(*upd.Type))
	}
	if upd.Address != nil {
		b.set("address", nullIfEmpty(*upd.Address))
	}
	if upd.City != nil {
		b.set("city", nullIfEmpty(*upd.City))
	}
	if upd.State != nil {
		b.set("state", nullIfEmpty(*upd.State))
	}
	if upd.Zip != nil {
		b.set("zip", nullIfEmpty(*upd.Zip))
	}
	if upd.Bedrooms != nil {
		b.set("bedrooms", *upd.Bedrooms)
	}
	if upd.Bathrooms != nil {
		b.set("bathrooms", *upd.Bathrooms)
	}
	if upd.Sqft != nil {
		b.set("sqft", *upd.Sqft)
	}
	if upd.RentCents != nil {
		b.set("rent_cents", *upd.RentCents)
	}
	if upd.ImageURL != nil {
		b.set("image_url", nullIfEmpty(*upd.ImageURL))
	}
	if upd.Status != nil {
		b.set("status", *upd.Status)
	}
	if b.empty() {
		return s.Find(ctx, scope, id)
	}
	b.sets = append(b.sets, "updated_at = now()")
	b.args = append(b.args, id)
	idIdx := b.idx
	b.idx++
	clause, arg, err := scopeClause(scope, "", b.idx)
	if err != nil {
		return portfolio.Property{}, err
	}
	b.args = append(b.args, arg)
	query := fmt.Sprintf(`update properties set %s where id = $%d and %s returning `+propertyColumns,
		strings.Join(b.sets, ", "), idIdx, clause)
	return scanProperty(s.db.QueryRowContext(ctx, query, b.args...))
}

func (s *propertyStore) Delete(ctx context.Context, scope auth.Scope, id string) error {
	clause, arg, err := scopeClause(scope, "", 2)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `delete from properties where id = $1 and `+clause, id, arg)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return portfolio.ErrNotFound
	}
	return nil
}

// Tenant store --------------------------------------------------------------
type tenantStore struct{ db *sql.DB }

const tenantColumns = `id, coalesce(owner_id, ''), coalesce(organization_id, ''),
	coalesce(property_id, ''), coalesce(portal_account_id, ''), first_name, last_name,
	coalesce(email, ''), coalesce(phone, ''), coalesce(unit, ''), status,
	lease_start, lease_end, balance_cents, created_at, updated_at`

func scanTenant(row interface{ Scan(...any) error }) (portfolio.Tenant, error) {
	var (
		t          portfolio.Tenant
		start, end sql.NullTime
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.OrganizationID, &t.PropertyID, &t.PortalAccountID,
		&t.FirstName, &t.LastName, &t.Email, &t.Phone, &t.Unit, &t.Status,
		&start, &end, &t.BalanceCents, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return portfolio.Tenant{}, portfolio.ErrNotFound
	}
	t.LeaseStart = timeOrZero(start)
	t.LeaseEnd = timeOrZero(end)
	return t, err
}

func (s *tenantStore) Create(ctx context.Context, scope auth.Scope, t *portfolio.Tenant) error {
	ownerID, orgID := scopeColumns(scope)
	row := s.db.QueryRowContext(ctx, `
		insert into tenants (id, owner_id, organization_id, property_id, first_name, last_name,
			email, phone, unit, status, lease_start, lease_end, balance_cents)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		returning created_at, updated_at
	`, t.ID, ownerID, orgID, nullIfEmpty(t.PropertyID), t.FirstName, t.LastName,
		nullIfEmpty(t.Email), nullIfEmpty(t.Phone), nullIfEmpty(t.Unit), t.Status,
		nullIfZero(t.LeaseStart), nullIfZero(t.LeaseEnd), t.BalanceCents)
	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		return err
	}
	t.OwnerID = ownerID.String
	t.OrganizationID = orgID.String
	return nil
}

func (s *tenantStore) List(ctx context.Context, scope auth.Scope) ([]portfolio.Tenant, error) {
	clause, arg, err := scopeClause(scope, "", 1)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+tenantColumns+` from tenants where `+clause+` order by created_at desc`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []portfolio.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (s *tenantStore) Find(ctx context.Context, scope auth.Scope, id string) (portfolio.Tenant, error) {
	clause, arg, err := scopeClause(scope, "", 2)
	if err != nil {
		return portfolio.Tenant{}, err
	}
	return scanTenant(s.db.QueryRowContext(ctx,
		`select `+tenantColumns+` from tenants where id = $1 and `+clause, id, arg))
}

func (s *tenantStore) Update(ctx context.Context, scope auth.Scope, id string, upd portfolio.TenantUpdate) (portfolio.Tenant, error) {
	b := newUpdateBuilder()
	if upd.PropertyID != nil {
		b.set("property_id", nullIfEmpty(*upd.PropertyID))
	}
	if upd.FirstName != nil {
		b.set("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		b.set("last_name", *upd.LastName)
	}
	if upd.Email != nil {
		b.set("email", nullIfEmpty(*upd.Email))
	}
	if upd.Phone != nil {
		b.set("phone", nullIfEmpty(*upd.Phone))
	}
	if upd.Unit != nil {
		b.set("unit", nullIfEmpty(*upd.Unit))
	}
	if upd.Status != nil {
		b.set("status", *upd.Status)
	}
	if upd.LeaseStart != nil {
		b.set("lease_start", nullIfEmpty(*upd.LeaseStart))
	}
	if upd.LeaseEnd != nil {
		b.set("lease_end", nullIfEmpty(*upd.LeaseEnd))
	}
	if upd.BalanceCents != nil {
		b.set("balance_cents", *upd.BalanceCents)
	}
	if b.empty() {
		return s.Find(ctx, scope, id)
	}
	b.sets = append(b.sets, "updated_at = now()")
	b.args = append(b.args, id)
	idIdx := b.idx
	b.idx++
	clause, arg, err := scopeClause(scope, "", b.idx)
	if err != nil {
		return portfolio.Tenant{}, err
	}
	b.args = append(b.args, arg)
	query := fmt.Sprintf(`update tenants set %s where id = $%d and %s returning `+tenantColumns,
		strings.Join(b.sets, ", "), idIdx, clause)
	return scanTenant(s.db.QueryRowContext(ctx, query, b.args...))
}

func (s *tenantStore) Delete(ctx context.Context, scope auth.Scope, id string) error {
	clause, arg, err := scopeClause(scope, "", 2)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `delete from tenants where id = $1 and `+clause, id, arg)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return portfolio.ErrNotFound
	}
	return nil
}

func (s *tenantStore) LinkPortalAccount(ctx context.Context, scope auth.Scope, tenantID, accountID string) error {
	clause, arg, err := scopeClause(scope, "", 3)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`update tenants set portal_account_id = $1, updated_at = now() where id = $2 and `+clause,
		accountID, tenantID, arg)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return portfolio.ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return portfolio.ErrNotFound
	}
	return nil
}

func (s *tenantStore) Lease(ctx context.Context, tenantID string) (portfolio.LeaseSummary, error) {
	var (
		lease      portfolio.LeaseSummary
		start, end sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		select t.id, coalesce(t.owner_id, ''), coalesce(t.organization_id, ''),
			coalesce(t.property_id, ''), coalesce(t.portal_account_id, ''),
			t.first_name, t.last_name, coalesce(t.email, ''), coalesce(t.phone, ''),
			coalesce(t.unit, ''), t.status, t.lease_start, t.lease_end, t.balance_cents,
			t.created_at, t.updated_at,
			coalesce(p.name, ''), coalesce(p.address, ''), coalesce(p.city, ''),
			coalesce(p.state, ''), coalesce(p.zip, ''), coalesce(p.rent_cents, 0)
		from tenants t
		left join properties p on p.id = t.property_id
		where t.id = $1
	`, tenantID).Scan(&lease.ID, &lease.OwnerID, &lease.OrganizationID, &lease.PropertyID,
		&lease.PortalAccountID, &lease.FirstName, &lease.LastName, &lease.Email, &lease.Phone,
		&lease.Unit, &lease.Status, &start, &end, &lease.BalanceCents,
		&lease.CreatedAt, &lease.UpdatedAt,
		&lease.PropertyName, &lease.PropertyAddress, &lease.PropertyCity,
		&lease.PropertyState, &lease.PropertyZip, &lease.PropertyRent)
	if errors.Is(err, sql.ErrNoRows) {
		return portfolio.LeaseSummary{}, portfolio.ErrNotFound
	}
	if err != nil {
		return portfolio.LeaseSummary{}, err
	}
	lease.LeaseStart = timeOrZero(start)
	lease.LeaseEnd = timeOrZero(end)
	return lease, nil
}

// Transaction store ---------------------------------------------------------
type transactionStore struct{ db *sql.DB }

const transactionColumns = `id, coalesce(owner_id, ''), coalesce(organization_id, ''),
	coalesce(property_id, ''), type, description, amount_cents, coalesce(category, ''),
	transaction_date, status, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (portfolio.Transaction, error) {
	var t portfolio.Transaction
	err := row.Scan(&t.ID, &t.OwnerID, &t.OrganizationID, &t.PropertyID, &t.Type,
		&t.Description, &t.AmountCents, &t.Category, &t.Date, &t.Status,
		&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return portfolio.Transaction{}, portfolio.ErrNotFound
	}
	return t, err
}

func (s *transactionStore) Create(ctx context.Context, scope auth.Scope, t *portfolio.Transaction) error {
	ownerID, orgID := scopeColumns(scope)
	row := s.db.QueryRowContext(ctx, `
		insert into transactions (id, owner_id, organization_id, property_id, type, description,
			amount_cents, category, transaction_date, status)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		returning created_at, updated_at
	`, t.ID, ownerID, orgID, nullIfEmpty(t.PropertyID), t.Type, t.Description,
		t.AmountCents, nullIfEmpty(t.Category), t.Date, t.Status)
	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		return err
	}
	t.OwnerID = ownerID.String
	t.OrganizationID = orgID.String
	return nil
}

func (s *transactionStore) List(ctx context.Context, scope auth.Scope) ([]portfolio.Transaction, error) {
	clause, arg, err := scopeClause(scope, "", 1)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+transactionColumns+` from transactions where `+clause+` order by transaction_date desc, created_at desc`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []portfolio.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (s *transactionStore) Find(ctx context.Context, scope auth.Scope, id string) (portfolio.Transaction, error) {
	clause, arg, err := scopeClause(scope, "", 2)
	if err != nil {
		return portfolio.Transaction{}, err
	}
	return scanTransaction(s.db.QueryRowContext(ctx,
		`select `+transactionColumns+` from transactions where id = $1 and `+clause, id, arg))
}

func (s *transactionStore) Update(ctx context.Context, scope auth.Scope, id string, upd portfolio.TransactionUpdate) (portfolio.Transaction, error) {
	b := newUpdateBuilder()
	if upd.PropertyID != nil {
		b.set("property_id", nullIfEmpty(*upd.PropertyID))
	}
	if upd.Type != nil {
		b.set("type", *upd.Type)
	}
	if upd.Description != nil {
		b.set("description", *upd.Description)
	}
	if upd.AmountCents != nil {
		b.set("amount_cents", *upd.AmountCents)
	}
	if upd.Category != nil {
		b.set("category", nullIfEmpty(*upd.Category))
	}
	if upd.Date != nil {
		b.set("transaction_date", *upd.Date)
	}
	if upd.Status != nil {
		b.set("status", *upd.Status)
	}
	if b.empty() {
		return s.Find(ctx, scope, id)
	}
	b.sets = append(b.sets, "updated_at = now()")
	b.args = append(b.args, id)
	idIdx := b.idx
	b.idx++
	clause, arg, err := scopeClause(scope, "", b.idx)
	if err != nil {
		return portfolio.Transaction{}, err
	}
	b.args = append(b.args, arg)
	query := fmt.Sprintf(`update transactions set %s where id = $%d and %s returning `+transactionColumns,
		strings.Join(b.sets, ", "), idIdx, clause)
	return scanTransaction(s.db.QueryRowContext(ctx, query, b.args...))
}

func (s *transactionStore) Delete(ctx context.Context, scope auth.Scope, id string) error {
	clause, arg, err := scopeClause(scope, "", 2)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `delete from transactions where id = $1 and `+clause, id, arg)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return portfolio.ErrNotFound
	}
	return nil
}

// Contractor store ----------------------------------------------------------
type contractorStore struct{ db *sql.DB }

const contractorColumns = `id, coalesce(owner_id, ''), coalesce(organization_id, ''),
	coalesce(portal_account_id, ''), name, coalesce(company, ''), coalesce(phone, ''),
	coalesce(email, ''), coalesce(specialty, ''), created_at, updated_at`

func scanContractor(row interface{ Scan(...any) error }) (portfolio.Contractor, error) {
	var c portfolio.Contractor
	err := row.Scan(&c.ID, &c.OwnerID, &c.OrganizationID, &c.PortalAccountID, &c.Name,
		&c.Company, &c.Phone, &c.Email, &c.Specialty, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return portfolio.Contractor{}, portfolio.ErrNotFound
	}
	return c, err
}

func (s *contractorStore) Create(ctx context.Context, scope auth.Scope, c *portfolio.Contractor) error {
	ownerID, orgID := scopeColumns(scope)
	row := s.db.QueryRowContext(ctx, `
		insert into contractors (id, owner_id, organization_id, name, company, phone, email, specialty)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		returning created_at, updated_at
	`, c.ID, ownerID, orgID, c.Name, nullIfEmpty(c.Company), nullIfEmpty(c.Phone),
		nullIfEmpty(c.Email), nullIfEmpty(c.Specialty))
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return err
	}
	c.OwnerID = ownerID.String
	c.OrganizationID = orgID.String
	return nil
}

func (s *contractorStore) List(ctx context.Context, scope auth.Scope) ([]portfolio.Contractor, error) {
	clause, arg, err := scopeClause(scope, "", 1)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+contractorColumns+` from contractors where `+clause+` order by created_at desc`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []portfolio.Contractor{}
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *contractorStore) Find(ctx context.Context, scope auth.Scope, id string) (portfolio.Contractor, error) {
	clause, arg, err := scopeClause(scope, "", 2)
	if err != nil {
		return portfolio.Contractor{}, err
	}
	return scanContractor(s.db.QueryRowContext(ctx,
		`select `+contractorColumns+` from contractors where id = $1 and `+clause, id, arg))
}

func (s *contractorStore) Update(ctx context.Context, scope auth.Scope, id string, upd portfolio.ContractorUpdate) (portfolio.Contractor, error) {
	b := newUpdateBuilder()
	if upd.Name != nil {
		b.set("name", *upd.Name)
	}
	if upd.Company != nil {
		b.set("company", nullIfEmpty(*upd.Company))
	}
	if upd.Phone != nil {
		b.set("phone", nullIfEmpty(*upd.Phone))
	}
	if upd.Email != nil {
		b.set("email", nullIfEmpty(*upd.Email))
	}
	if upd.Specialty != nil {
		b.set("specialty", nullIfEmpty(*upd.Specialty))
	}
	if b.empty() {
		return s.Find(ctx, scope, id)
	}
	b.sets = append(b.sets, "updated_at = now()")
	b.args = append(b.args, id)
	idIdx := b.idx
	b.idx++
	clause, arg, err := scopeClause(scope, "", b.idx)
	if err != nil {
		return portfolio.Contractor{}, err
	}
	b.args = append(b.args, arg)
	query := fmt.Sprintf(`update contractors set %s where id = $%d and %s returning `+contractorColumns,
		strings.Join(b.sets, ", "), idIdx, clause)
	return scanContractor(s.db.QueryRowContext(ctx, query, b.args...))
}

func (s *contractorStore) Delete(ctx context.Context, scope auth.Scope, id string) error {
	clause, arg, err := scopeClause(scope, "", 2)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `delete from contractors where id = $1 and `+clause, id, arg)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return portfolio.ErrNotFound
	}
	return nil
}

func (s *contractorStore) LinkPortalAccount(ctx context.Context, scope auth.Scope, contractorID, accountID string) error {
	clause, arg, err := scopeClause(scope, "", 3)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`update contractors set portal_account_id = $1, updated_at = now() where id = $2 and `+clause,
		accountID, contractorID, arg)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return portfolio.ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return portfolio.ErrNotFound
	}
	return nil
}
