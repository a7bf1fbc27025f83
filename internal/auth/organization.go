package auth

import (
	"context"
	"errors"
	"strings"

	"leasepilot.org/internal/ids"
)

// CreateOrganization makes a new organization and enrolls the creating account
// as its admin member. Accounts that already belong to an organization keep
// their first membership; Resolve always uses the earliest one.
func (s *Service) CreateOrganization(ctx context.Context, accountID, name string) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	org := &Organization{
		ID:   ids.New(),
		Name: name,
	}
	orgs := s.store.Organizations(ctx)
	if err := orgs.Create(ctx, org); err != nil {
		return nil, err
	}
	if err := orgs.AddMember(ctx, org.ID, accountID, "admin"); err != nil {
		return nil, err
	}
	return org, nil
}

// Organization returns one organization by id.
func (s *Service) Organization(ctx context.Context, id string) (*Organization, error) {
	return s.store.Organizations(ctx).Find(ctx, id)
}

// OrganizationMembers lists the accounts enrolled in an organization.
func (s *Service) OrganizationMembers(ctx context.Context, orgID string) ([]*Account, error) {
	return s.store.Organizations(ctx).ListMembers(ctx, orgID)
}

// AddOrganizationMember enrolls an existing account, looked up by email, into
// an organization. Adding a member twice is a no-op.
func (s *Service) AddOrganizationMember(ctx context.Context, orgID, email, role string) (*Account, error) {
	account, err := s.store.Accounts(ctx).FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if strings.TrimSpace(role) == "" {
		role = "member"
	}
	if err := s.store.Organizations(ctx).AddMember(ctx, orgID, account.ID, role); err != nil {
		return nil, err
	}
	return account, nil
}
