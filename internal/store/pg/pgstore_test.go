package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"leasepilot.org/internal/auth"
	"leasepilot.org/internal/portfolio"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

func TestRefreshTokenRotateIsTransactional(t *testing.T) {
	store, mock := newMockStore(t)

	replacement := &auth.RefreshToken{
		ID:        "01NEXT",
		AccountID: "acct-1",
		TokenHash: "deadbeef",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}

	mock.ExpectBegin()
	mock.ExpectExec("delete from refresh_tokens").
		WithArgs("01OLD").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into refresh_tokens").
		WithArgs(replacement.ID, replacement.AccountID, replacement.TokenHash, replacement.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := store.RefreshTokens(context.Background()).Rotate(context.Background(), "01OLD", replacement); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRefreshTokenRotateReplayLosesRace(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("delete from refresh_tokens").
		WithArgs("01SPENT").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.RefreshTokens(context.Background()).Rotate(context.Background(), "01SPENT", &auth.RefreshToken{ID: "01NEW"})
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for spent token, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAccountCreateDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into accounts").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	err := store.Accounts(context.Background()).Create(context.Background(), &auth.Account{
		ID:    "01ACC",
		Email: "sarah@leasepilot.org",
	})
	if !errors.Is(err, auth.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestPropertyFindAppliesOwnerScope(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select (.+) from properties where id = \\$1 and owner_id = \\$2").
		WithArgs("01PROP", "acct-owner").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "organization_id", "name", "type", "address", "city", "state",
			"zip", "bedrooms", "bathrooms", "sqft", "rent_cents", "image_url", "status",
			"created_at", "updated_at",
		}).AddRow("01PROP", "acct-owner", "", "Maple Court", "", "", "", "", "", 2, 1.0, 900,
			150000, "", "vacant", time.Now(), time.Now()))

	scope := auth.Scope{Kind: auth.ScopeOwner, Value: "acct-owner"}
	p, err := store.Properties(context.Background()).Find(context.Background(), scope, "01PROP")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if p.Name != "Maple Court" {
		t.Fatalf("unexpected property: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPropertyFindRejectsPortalScope(t *testing.T) {
	store, _ := newMockStore(t)

	scope := auth.Scope{Kind: auth.ScopeLinkedTenant, Value: "tenant-1"}
	_, err := store.Properties(context.Background()).Find(context.Background(), scope, "01PROP")
	if !errors.Is(err, portfolio.ErrNotFound) {
		t.Fatalf("portal scope must not reach manager queries, got %v", err)
	}
}

func TestTenantDeleteOutOfScope(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("delete from tenants where id = \\$1 and organization_id = \\$2").
		WithArgs("01TEN", "org-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	scope := auth.Scope{Kind: auth.ScopeOrganization, Value: "org-2"}
	err := store.Tenants(context.Background()).Delete(context.Background(), scope, "01TEN")
	if !errors.Is(err, portfolio.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign row, got %v", err)
	}
}
