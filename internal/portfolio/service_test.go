package portfolio_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"leasepilot.org/internal/auth"
	"leasepilot.org/internal/portfolio"
	"leasepilot.org/internal/store/memory"
)

func newTestService(t *testing.T) (*portfolio.Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	svc, err := portfolio.NewService(st)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, st
}

func ownerScope(id string) auth.Scope { return auth.Scope{Kind: auth.ScopeOwner, Value: id} }

func TestCreatePropertyValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	scope := ownerScope("acct-1")

	if _, err := svc.CreateProperty(ctx, scope, portfolio.Property{Name: "   "}); !errors.Is(err, portfolio.ErrInvalidInput) {
		t.Fatalf("blank name must fail, got %v", err)
	}
	if _, err := svc.CreateProperty(ctx, scope, portfolio.Property{Name: "Elm", Status: "demolished"}); !errors.Is(err, portfolio.ErrInvalidInput) {
		t.Fatalf("unknown status must fail, got %v", err)
	}

	p, err := svc.CreateProperty(ctx, scope, portfolio.Property{Name: "Elm Street 12", RentCents: 120000})
	if err != nil {
		t.Fatalf("CreateProperty: %v", err)
	}
	if p.ID == "" {
		t.Fatal("property must get an id")
	}
	if p.Status != portfolio.PropertyStatusVacant {
		t.Fatalf("default status must be vacant, got %q", p.Status)
	}
}

func TestScopeIsolation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := ownerScope("acct-alice")
	bob := ownerScope("acct-bob")

	p, err := svc.CreateProperty(ctx, alice, portfolio.Property{Name: "Alice Tower"})
	if err != nil {
		t.Fatalf("CreateProperty: %v", err)
	}

	if _, err := svc.GetProperty(ctx, bob, p.ID); !errors.Is(err, portfolio.ErrNotFound) {
		t.Fatalf("foreign scope must see not-found, got %v", err)
	}
	list, err := svc.ListProperties(ctx, bob)
	if err != nil {
		t.Fatalf("ListProperties: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("foreign scope must list nothing, got %d rows", len(list))
	}
	if err := svc.DeleteProperty(ctx, bob, p.ID); !errors.Is(err, portfolio.ErrNotFound) {
		t.Fatalf("foreign delete must be not-found, got %v", err)
	}
	if _, err := svc.GetProperty(ctx, alice, p.ID); err != nil {
		t.Fatalf("owner must still see the property: %v", err)
	}
}

func TestCreateTenantChecksPropertyScope(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := ownerScope("acct-alice")
	bob := ownerScope("acct-bob")

	p, err := svc.CreateProperty(ctx, alice, portfolio.Property{Name: "Alice Tower"})
	if err != nil {
		t.Fatalf("CreateProperty: %v", err)
	}
	_, err = svc.CreateTenant(ctx, bob, portfolio.Tenant{FirstName: "Eve", LastName: "Smith", PropertyID: p.ID})
	if !errors.Is(err, portfolio.ErrNotFound) {
		t.Fatalf("attaching a foreign property must fail, got %v", err)
	}
	if _, err := svc.CreateTenant(ctx, alice, portfolio.Tenant{FirstName: "Ana", LastName: "Ruiz", PropertyID: p.ID}); err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	scope := ownerScope("acct-1")
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	cases := []portfolio.Transaction{
		{Type: "transfer", Description: "x", AmountCents: 100, Date: date},
		{Type: "income", Description: "", AmountCents: 100, Date: date},
		{Type: "income", Description: "rent", AmountCents: 0, Date: date},
		{Type: "income", Description: "rent", AmountCents: 100},
	}
	for i, tc := range cases {
		if _, err := svc.CreateTransaction(ctx, scope, tc); !errors.Is(err, portfolio.ErrInvalidInput) {
			t.Errorf("case %d must fail with ErrInvalidInput, got %v", i, err)
		}
	}

	tx, err := svc.CreateTransaction(ctx, scope, portfolio.Transaction{
		Type: "INCOME", Description: " March rent ", AmountCents: 120000, Date: date,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if tx.Type != "income" || tx.Description != "March rent" {
		t.Fatalf("input not normalized: %+v", tx)
	}
	if tx.Status != "cleared" {
		t.Fatalf("default status must be cleared, got %q", tx.Status)
	}
}

func TestMaintenanceLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	scope := ownerScope("acct-1")

	prop, err := svc.CreateProperty(ctx, scope, portfolio.Property{Name: "Elm Street 12"})
	if err != nil {
		t.Fatalf("CreateProperty: %v", err)
	}
	tenant, err := svc.CreateTenant(ctx, scope, portfolio.Tenant{FirstName: "Ana", LastName: "Ruiz", PropertyID: prop.ID})
	if err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}
	contractor, err := svc.CreateContractor(ctx, scope, portfolio.Contractor{Name: "Apex Plumbing", Company: "Apex"})
	if err != nil {
		t.Fatalf("CreateContractor: %v", err)
	}

	req, err := svc.SubmitMaintenanceRequest(ctx, tenant.ID, portfolio.MaintenanceRequest{
		Subject:   "Leaking sink",
		IssueType: "PLUMBING",
		Priority:  "whenever",
	})
	if err != nil {
		t.Fatalf("SubmitMaintenanceRequest: %v", err)
	}
	if req.Status != portfolio.RequestStatusOpen {
		t.Fatalf("new requests must be open, got %q", req.Status)
	}
	if req.IssueType != "plumbing" {
		t.Fatalf("issue type not normalized: %q", req.IssueType)
	}
	if req.Priority != portfolio.PriorityNormal {
		t.Fatalf("unknown priority must fall back to normal, got %q", req.Priority)
	}
	if req.PropertyID != prop.ID {
		t.Fatalf("request must inherit the tenant's property, got %q", req.PropertyID)
	}

	assigned, err := svc.UpdateMaintenance(ctx, scope, req.ID, portfolio.MaintenanceUpdate{
		AssignedContractorID: &contractor.ID,
	})
	if err != nil {
		t.Fatalf("UpdateMaintenance: %v", err)
	}
	if assigned.Status != portfolio.RequestStatusAssigned {
		t.Fatalf("assignment must move the request to assigned, got %q", assigned.Status)
	}
	if assigned.ContractorName != "Apex Plumbing" {
		t.Fatalf("contractor fields must be joined: %+v", assigned)
	}

	if _, err := svc.UpdateMaintenanceStatusAsContractor(ctx, contractor.ID, req.ID, "closed"); !errors.Is(err, portfolio.ErrInvalidInput) {
		t.Fatalf("contractors may not close requests, got %v", err)
	}
	done, err := svc.UpdateMaintenanceStatusAsContractor(ctx, contractor.ID, req.ID, "resolved")
	if err != nil {
		t.Fatalf("UpdateMaintenanceStatusAsContractor: %v", err)
	}
	if done.Status != portfolio.RequestStatusResolved {
		t.Fatalf("unexpected status %q", done.Status)
	}
	if _, err := svc.UpdateMaintenanceStatusAsContractor(ctx, "someone-else", req.ID, "resolved"); !errors.Is(err, portfolio.ErrNotFound) {
		t.Fatalf("unassigned contractor must see not-found, got %v", err)
	}
}

func TestMessageThreading(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	scope := ownerScope("acct-manager")

	tenant, err := svc.CreateTenant(ctx, scope, portfolio.Tenant{FirstName: "Ana", LastName: "Ruiz"})
	if err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}

	root, err := svc.SendMessageToTenant(ctx, scope, "acct-manager", tenant.ID, "Inspection", "Friday at noon")
	if err != nil {
		t.Fatalf("SendMessageToTenant: %v", err)
	}

	if n, _ := svc.UnreadCountForTenant(ctx, tenant.ID); n != 1 {
		t.Fatalf("unread count = %d, want 1", n)
	}

	reply, err := svc.ReplyAsTenant(ctx, tenant.ID, root.ID, "Works for me")
	if err != nil {
		t.Fatalf("ReplyAsTenant: %v", err)
	}
	if reply.Subject != "Re: Inspection" {
		t.Fatalf("reply subject = %q", reply.Subject)
	}
	if reply.RecipientAccountID != "acct-manager" {
		t.Fatalf("reply must route to the root sender, got %q", reply.RecipientAccountID)
	}

	// Replying to a reply is rejected; only roots accept replies.
	if _, err := svc.ReplyAsTenant(ctx, tenant.ID, reply.ID, "again"); !errors.Is(err, portfolio.ErrNotFound) {
		t.Fatalf("reply-to-reply must fail, got %v", err)
	}

	threads, err := svc.ThreadsForTenant(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("ThreadsForTenant: %v", err)
	}
	if len(threads) != 1 {
		t.Fatalf("expected one thread, got %d", len(threads))
	}
	if threads[0].ID != root.ID || len(threads[0].Replies) != 1 {
		t.Fatalf("thread not grouped: %+v", threads[0])
	}

	if _, err := svc.MarkMessageReadByTenant(ctx, tenant.ID, root.ID); err != nil {
		t.Fatalf("MarkMessageReadByTenant: %v", err)
	}
	if n, _ := svc.UnreadCountForTenant(ctx, tenant.ID); n != 0 {
		t.Fatalf("unread count after read = %d, want 0", n)
	}
}

func TestMessageToForeignTenantRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := ownerScope("acct-alice")
	bob := ownerScope("acct-bob")

	tenant, err := svc.CreateTenant(ctx, alice, portfolio.Tenant{FirstName: "Ana", LastName: "Ruiz"})
	if err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}
	if _, err := svc.SendMessageToTenant(ctx, bob, "acct-bob", tenant.ID, "Hello", "hi"); !errors.Is(err, portfolio.ErrNotFound) {
		t.Fatalf("messaging a foreign tenant must fail, got %v", err)
	}
}

func TestAnnouncementsForTenant(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	scope := ownerScope("acct-1")

	prop, err := svc.CreateProperty(ctx, scope, portfolio.Property{Name: "Elm Street 12"})
	if err != nil {
		t.Fatalf("CreateProperty: %v", err)
	}
	other, err := svc.CreateProperty(ctx, scope, portfolio.Property{Name: "Oak Avenue 3"})
	if err != nil {
		t.Fatalf("CreateProperty: %v", err)
	}
	tenant, err := svc.CreateTenant(ctx, scope, portfolio.Tenant{FirstName: "Ana", LastName: "Ruiz", PropertyID: prop.ID})
	if err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}

	if _, err := svc.CreateAnnouncement(ctx, scope, portfolio.Announcement{PropertyID: prop.ID, Title: "Water shutoff"}); err != nil {
		t.Fatalf("CreateAnnouncement: %v", err)
	}
	if _, err := svc.CreateAnnouncement(ctx, scope, portfolio.Announcement{PropertyID: other.ID, Title: "Roof work"}); err != nil {
		t.Fatalf("CreateAnnouncement: %v", err)
	}

	list, err := svc.AnnouncementsForTenant(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("AnnouncementsForTenant: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Water shutoff" {
		t.Fatalf("tenant must only see their property's announcements: %+v", list)
	}
}

func TestNotifications(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Notify(ctx, "acct-1", "", "body", ""); !errors.Is(err, portfolio.ErrInvalidInput) {
		t.Fatalf("empty title must fail, got %v", err)
	}
	n, err := svc.Notify(ctx, "acct-1", "New request", "Leaking sink", "")
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if n.Type != "info" {
		t.Fatalf("default type must be info, got %q", n.Type)
	}

	if _, err := svc.MarkNotificationRead(ctx, "acct-2", n.ID); !errors.Is(err, portfolio.ErrNotFound) {
		t.Fatalf("foreign account must not mark reads, got %v", err)
	}
	read, err := svc.MarkNotificationRead(ctx, "acct-1", n.ID)
	if err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if !read.Read {
		t.Fatal("notification must be marked read")
	}
}
