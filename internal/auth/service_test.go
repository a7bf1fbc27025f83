package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"leasepilot.org/internal/auth"
	"leasepilot.org/internal/ids"
	"leasepilot.org/internal/portfolio"
	"leasepilot.org/internal/store/memory"
)

func newTestService(t *testing.T, opts ...auth.ServiceOption) (*auth.Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	opts = append([]auth.ServiceOption{auth.WithSecret("test-secret")}, opts...)
	svc, err := auth.NewService(st, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, st
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pair, account, err := svc.Register(ctx, "Manager@Example.com", "str0ngpass", "Dana Reyes")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if account.Email != "manager@example.com" {
		t.Fatalf("email not normalized: %q", account.Email)
	}
	if account.Role != string(auth.RoleManager) {
		t.Fatalf("new accounts must be managers, got %q", account.Role)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("register must issue a full token pair")
	}

	if _, _, err := svc.Login(ctx, "manager@example.com", "str0ngpass"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, _, err := svc.Login(ctx, "manager@example.com", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("bad password must be ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "str0ngpass"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("unknown email must look identical to bad password, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "not-an-email", "str0ngpass", ""); !errors.Is(err, auth.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, _, err := svc.Register(ctx, "a@b.com", "short", ""); !errors.Is(err, auth.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if _, _, err := svc.Register(ctx, "dup@example.com", "str0ngpass", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := svc.Register(ctx, "DUP@example.com", "str0ngpass", ""); !errors.Is(err, auth.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount for case-insensitive dup, got %v", err)
	}
}

func TestAccessTokenVerification(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	svc, _ := newTestService(t, auth.WithClock(clock), auth.WithAccessTTL(15*time.Minute))
	ctx := context.Background()

	pair, account, err := svc.Register(ctx, "m@example.com", "str0ngpass", "M")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	claims, err := svc.VerifyAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.Subject != account.ID {
		t.Fatalf("subject mismatch: %q != %q", claims.Subject, account.ID)
	}
	if claims.Role != string(auth.RoleManager) {
		t.Fatalf("role claim missing: %+v", claims)
	}

	if _, err := svc.VerifyAccessToken("not.a.jwt"); !errors.Is(err, auth.ErrTokenMalformed) {
		t.Fatalf("garbage must be ErrTokenMalformed, got %v", err)
	}

	// Flip the tail of the signature.
	tail := "xx"
	if strings.HasSuffix(pair.AccessToken, tail) {
		tail = "yy"
	}
	tampered := pair.AccessToken[:len(pair.AccessToken)-2] + tail
	if _, err := svc.VerifyAccessToken(tampered); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("tampered token must be ErrTokenInvalid, got %v", err)
	}

	now = now.Add(16 * time.Minute)
	if _, err := svc.VerifyAccessToken(pair.AccessToken); !errors.Is(err, auth.ErrTokenExpired) {
		t.Fatalf("expired token must be ErrTokenExpired, got %v", err)
	}
}

func TestAccessTokenRejectsForeignSecret(t *testing.T) {
	svcA, _ := newTestService(t)
	ctx := context.Background()
	pair, _, err := svcA.Register(ctx, "m@example.com", "str0ngpass", "M")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	st := memory.New()
	svcB, err := auth.NewService(st, auth.WithSecret("different-secret"))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, err := svcB.VerifyAccessToken(pair.AccessToken); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("foreign signature must be ErrTokenInvalid, got %v", err)
	}
}

func TestRefreshRotationIsSingleUse(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pair, _, err := svc.Register(ctx, "m@example.com", "str0ngpass", "M")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	next, _, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must rotate the token")
	}

	if _, _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Fatalf("replayed token must fail, got %v", err)
	}
	if _, _, err := svc.Refresh(ctx, next.RefreshToken); err != nil {
		t.Fatalf("rotated token must keep working: %v", err)
	}
}

func TestRefreshWithStolenSecretBurnsRecord(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pair, _, err := svc.Register(ctx, "m@example.com", "str0ngpass", "M")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	id, _, ok := strings.Cut(pair.RefreshToken, ".")
	if !ok {
		t.Fatalf("unexpected refresh token shape: %q", pair.RefreshToken)
	}
	forged := id + ".bm90LXRoZS1zZWNyZXQ"
	if _, _, err := svc.Refresh(ctx, forged); !errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Fatalf("forged secret must fail, got %v", err)
	}
	// The record is burned, so even the real token is now dead.
	if _, _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Fatalf("burned record must reject the real token too, got %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pair, _, err := svc.Register(ctx, "m@example.com", "str0ngpass", "M")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := svc.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("second Logout must be a no-op: %v", err)
	}
	if err := svc.Logout(ctx, "garbage"); err != nil {
		t.Fatalf("garbage token Logout must be a no-op: %v", err)
	}
	if _, _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Fatalf("revoked token must not refresh, got %v", err)
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pair, account, err := svc.Register(ctx, "m@example.com", "oldpassword", "M")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.ChangePassword(ctx, account.ID, "wrong", "newpassword"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("wrong current password must fail, got %v", err)
	}
	if err := svc.ChangePassword(ctx, account.ID, "oldpassword", "newpassword"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Fatalf("password change must revoke refresh tokens, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "m@example.com", "newpassword"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestDemoAccountIsShared(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, first, err := svc.Demo(ctx)
	if err != nil {
		t.Fatalf("Demo: %v", err)
	}
	if first.Name != "Sarah Jenkins" {
		t.Fatalf("unexpected demo identity: %q", first.Name)
	}
	_, second, err := svc.Demo(ctx)
	if err != nil {
		t.Fatalf("Demo: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("demo logins must share one account")
	}
}

func TestCreatePortalAccountRoleGate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreatePortalAccount(ctx, "t@example.com", "str0ngpass", "T", auth.RoleManager); err == nil {
		t.Fatal("manager portal accounts must be rejected")
	}
	acc, err := svc.CreatePortalAccount(ctx, "t@example.com", "str0ngpass", "T", auth.RoleTenant)
	if err != nil {
		t.Fatalf("CreatePortalAccount: %v", err)
	}
	if acc.Role != string(auth.RoleTenant) {
		t.Fatalf("unexpected role %q", acc.Role)
	}
}

func TestResolveOwnerScope(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, account, err := svc.Register(ctx, "m@example.com", "str0ngpass", "M")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	identity, err := svc.Resolve(ctx, account.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if identity.Scope.Kind != auth.ScopeOwner || identity.Scope.Value != account.ID {
		t.Fatalf("owner scope must key on the account id: %+v", identity.Scope)
	}
}

func TestResolveOrganizationScope(t *testing.T) {
	svc, st := newTestService(t, auth.WithScopeMode(auth.ScopeModeOrganization))
	ctx := context.Background()

	_, account, err := svc.Register(ctx, "m@example.com", "str0ngpass", "M")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Resolve(ctx, account.ID); !errors.Is(err, auth.ErrNoOrganization) {
		t.Fatalf("manager without membership must fail, got %v", err)
	}

	org := &auth.Organization{ID: ids.New(), Name: "Northwind Property Group"}
	if err := st.Organizations(ctx).Create(ctx, org); err != nil {
		t.Fatalf("create org: %v", err)
	}
	if err := st.Organizations(ctx).AddMember(ctx, org.ID, account.ID, "admin"); err != nil {
		t.Fatalf("add member: %v", err)
	}

	identity, err := svc.Resolve(ctx, account.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if identity.Scope.Kind != auth.ScopeOrganization || identity.Scope.Value != org.ID {
		t.Fatalf("expected organization scope, got %+v", identity.Scope)
	}
}

func TestResolvePortalScopes(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, manager, err := svc.Register(ctx, "m@example.com", "str0ngpass", "M")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	managerScope := auth.Scope{Kind: auth.ScopeOwner, Value: manager.ID}

	tenantAcc, err := svc.CreatePortalAccount(ctx, "t@example.com", "str0ngpass", "T", auth.RoleTenant)
	if err != nil {
		t.Fatalf("CreatePortalAccount: %v", err)
	}
	if _, err := svc.Resolve(ctx, tenantAcc.ID); !errors.Is(err, auth.ErrNoLinkedRecord) {
		t.Fatalf("unlinked tenant must fail, got %v", err)
	}

	tenant := &portfolio.Tenant{ID: ids.New(), FirstName: "Ana", LastName: "Ruiz", Status: "active"}
	if err := st.Tenants(ctx).Create(ctx, managerScope, tenant); err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	if err := st.Tenants(ctx).LinkPortalAccount(ctx, managerScope, tenant.ID, tenantAcc.ID); err != nil {
		t.Fatalf("link portal account: %v", err)
	}

	identity, err := svc.Resolve(ctx, tenantAcc.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if identity.Scope.Kind != auth.ScopeLinkedTenant || identity.Scope.Value != tenant.ID {
		t.Fatalf("expected linked-tenant scope, got %+v", identity.Scope)
	}

	contractorAcc, err := svc.CreatePortalAccount(ctx, "c@example.com", "str0ngpass", "C", auth.RoleContractor)
	if err != nil {
		t.Fatalf("CreatePortalAccount: %v", err)
	}
	contractor := &portfolio.Contractor{ID: ids.New(), Name: "Apex Plumbing"}
	if err := st.Contractors(ctx).Create(ctx, managerScope, contractor); err != nil {
		t.Fatalf("create contractor: %v", err)
	}
	if err := st.Contractors(ctx).LinkPortalAccount(ctx, managerScope, contractor.ID, contractorAcc.ID); err != nil {
		t.Fatalf("link contractor: %v", err)
	}
	identity, err = svc.Resolve(ctx, contractorAcc.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if identity.Scope.Kind != auth.ScopeLinkedContractor || identity.Scope.Value != contractor.ID {
		t.Fatalf("expected linked-contractor scope, got %+v", identity.Scope)
	}
}

func TestResolveDeletedAccount(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, account, err := svc.Register(ctx, "m@example.com", "str0ngpass", "M")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := st.Accounts(ctx).Delete(ctx, account.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if _, err := svc.Resolve(ctx, account.ID); !errors.Is(err, auth.ErrAccountNotFound) {
		t.Fatalf("deleted account must be ErrAccountNotFound, got %v", err)
	}
}
