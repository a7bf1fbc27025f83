// Package pg implements the auth and portfolio stores on PostgreSQL through
// the database/sql interface of pgx.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"leasepilot.org/internal/auth"
	"leasepilot.org/internal/portfolio"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

type Store struct {
	db *sql.DB
}

var (
	_ auth.Store      = (*Store)(nil)
	_ portfolio.Store = (*Store)(nil)
)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection, used by tests with sqlmock.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Ping backs the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return auth.ErrStoreUnavailable
	}
	return nil
}

// scopeClause returns the WHERE fragment and bind value that restrict a query
// to rows visible to a manager scope. Portal scope kinds must never reach a
// manager query path, so they resolve to not-found outright.
func scopeClause(scope auth.Scope, alias string, idx int) (string, any, error) {
	switch scope.Kind {
	case auth.ScopeOwner:
		return fmt.Sprintf("%sowner_id = $%d", alias, idx), scope.Value, nil
	case auth.ScopeOrganization:
		return fmt.Sprintf("%sorganization_id = $%d", alias, idx), scope.Value, nil
	default:
		return "", nil, portfolio.ErrNotFound
	}
}

// scopeColumns splits a scope into the owner_id / organization_id pair stamped
// onto new rows.
func scopeColumns(scope auth.Scope) (ownerID, orgID sql.NullString) {
	switch scope.Kind {
	case auth.ScopeOwner:
		ownerID = sql.NullString{String: scope.Value, Valid: true}
	case auth.ScopeOrganization:
		orgID = sql.NullString{String: scope.Value, Valid: true}
	}
	return ownerID, orgID
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func nullIfEmpty(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullIfZero(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func timeOrZero(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}
