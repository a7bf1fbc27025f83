package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"leasepilot.org/internal/auth"
)

func (s *Store) Accounts(ctx context.Context) auth.AccountStore { return &accountStore{db: s.db} }
func (s *Store) RefreshTokens(ctx context.Context) auth.RefreshTokenStore {
	return &refreshTokenStore{db: s.db}
}
func (s *Store) Organizations(ctx context.Context) auth.OrganizationStore {
	return &orgStore{db: s.db}
}
func (s *Store) PortalLinks(ctx context.Context) auth.PortalLinkStore {
	return &portalLinkStore{db: s.db}
}

// Account store -------------------------------------------------------------
type accountStore struct{ db *sql.DB }

func (s *accountStore) Create(ctx context.Context, a *auth.Account) error {
	row := s.db.QueryRowContext(ctx, `
		insert into accounts (id, email, password_hash, name, role, avatar_url)
		values ($1, $2, $3, $4, $5, $6)
		returning created_at, updated_at
	`, a.ID, a.Email, a.PasswordHash, a.Name, a.Role, nullIfEmpty(a.AvatarURL))
	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrDuplicateAccount
		}
		return err
	}
	return nil
}

const accountColumns = `id, email, password_hash, name, role, coalesce(avatar_url, ''), created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*auth.Account, error) {
	var a auth.Account
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.Role, &a.AvatarURL, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *accountStore) Find(ctx context.Context, id string) (*auth.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where id = $1`, id))
}

func (s *accountStore) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where lower(email) = lower($1)`, email))
}

func (s *accountStore) UpdateProfile(ctx context.Context, id string, upd auth.ProfileUpdate) (*auth.Account, error) {
	sets := []string{}
	args := []any{}
	idx := 1
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", idx))
		args = append(args, *upd.Email)
		idx++
	}
	if upd.AvatarURL != nil {
		sets = append(sets, fmt.Sprintf("avatar_url = $%d", idx))
		args = append(args, nullIfEmpty(*upd.AvatarURL))
		idx++
	}
	if len(sets) == 0 {
		return s.Find(ctx, id)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)
	query := fmt.Sprintf(`update accounts set %s where id = $%d returning `+accountColumns,
		strings.Join(sets, ", "), idx)
	acc, err := scanAccount(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return nil, auth.ErrDuplicateAccount
		}
		return nil, err
	}
	return acc, nil
}

func (s *accountStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set password_hash = $1, updated_at = now() where id = $2`, passwordHash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *accountStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from accounts where id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// Refresh token store -------------------------------------------------------
type refreshTokenStore struct{ db *sql.DB }

func (s *refreshTokenStore) Create(ctx context.Context, tok *auth.RefreshToken) error {
	_, err := s.db.ExecContext(ctx, `
		insert into refresh_tokens (id, account_id, token_hash, expires_at)
		values ($1, $2, $3, $4)
	`, tok.ID, tok.AccountID, tok.TokenHash, tok.ExpiresAt)
	return err
}

func (s *refreshTokenStore) Find(ctx context.Context, id string) (*auth.RefreshToken, error) {
	var tok auth.RefreshToken
	err := s.db.QueryRowContext(ctx, `
		select id, account_id, token_hash, expires_at, created_at
		from refresh_tokens where id = $1
	`, id).Scan(&tok.ID, &tok.AccountID, &tok.TokenHash, &tok.ExpiresAt, &tok.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// Rotate spends the old token and persists its replacement atomically. Two
// racing refreshes both delete the same row; the loser sees zero rows affected
// and the caller rejects its exchange.
func (s *refreshTokenStore) Rotate(ctx context.Context, oldID string, replacement *auth.RefreshToken) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `delete from refresh_tokens where id = $1`, oldID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `
		insert into refresh_tokens (id, account_id, token_hash, expires_at)
		values ($1, $2, $3, $4)
	`, replacement.ID, replacement.AccountID, replacement.TokenHash, replacement.ExpiresAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *refreshTokenStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from refresh_tokens where id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *refreshTokenStore) DeleteByAccount(ctx context.Context, accountID string) error {
	_, err := s.db.ExecContext(ctx, `delete from refresh_tokens where account_id = $1`, accountID)
	return err
}

// Organization store --------------------------------------------------------
type orgStore struct{ db *sql.DB }

func (s *orgStore) Create(ctx context.Context, org *auth.Organization) error {
	row := s.db.QueryRowContext(ctx, `
		insert into organizations (id, name)
		values ($1, $2)
		returning created_at, updated_at
	`, org.ID, org.Name)
	return row.Scan(&org.CreatedAt, &org.UpdatedAt)
}

func (s *orgStore) Find(ctx context.Context, id string) (*auth.Organization, error) {
	var org auth.Organization
	err := s.db.QueryRowContext(ctx, `
		select id, name, created_at, updated_at from organizations where id = $1
	`, id).Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (s *orgStore) Memberships(ctx context.Context, accountID string) ([]auth.Membership, error) {
	rows, err := s.db.QueryContext(ctx, `
		select account_id, organization_id, role, created_at
		from organization_members
		where account_id = $1
		order by created_at asc
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []auth.Membership
	for rows.Next() {
		var m auth.Membership
		if err := rows.Scan(&m.AccountID, &m.OrganizationID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (s *orgStore) AddMember(ctx context.Context, orgID, accountID, role string) error {
	_, err := s.db.ExecContext(ctx, `
		insert into organization_members (organization_id, account_id, role)
		values ($1, $2, $3)
		on conflict (organization_id, account_id) do nothing
	`, orgID, accountID, role)
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
		return auth.ErrNotFound
	}
	return err
}

func (s *orgStore) ListMembers(ctx context.Context, orgID string) ([]*auth.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		select a.id, a.email, a.password_hash, a.name, a.role, coalesce(a.avatar_url, ''), a.created_at, a.updated_at
		from accounts a
		join organization_members m on m.account_id = a.id
		where m.organization_id = $1
		order by m.created_at asc
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*auth.Account
	for rows.Next() {
		var a auth.Account
		if err := rows.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.Role, &a.AvatarURL, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &a)
	}
	return res, rows.Err()
}

// Portal link store ---------------------------------------------------------
type portalLinkStore struct{ db *sql.DB }

func (s *portalLinkStore) TenantIDForAccount(ctx context.Context, accountID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`select id from tenants where portal_account_id = $1`, accountID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", auth.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *portalLinkStore) ContractorIDForAccount(ctx context.Context, accountID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`select id from contractors where portal_account_id = $1`, accountID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", auth.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return id, nil
}
