package auth

import (
	"context"
	"errors"
)

// ScopeMode selects how manager accounts are scoped. Owner mode filters
// resources by the owning account id; organization mode filters by the
// account's organization membership.
type ScopeMode string

const (
	ScopeModeOwner        ScopeMode = "owner"
	ScopeModeOrganization ScopeMode = "organization"
)

// Resolve derives the caller's role and resource scope from the store. It runs
// on every request and is never cached across requests, so role changes and
// revoked portal links take effect immediately.
func (s *Service) Resolve(ctx context.Context, accountID string) (Identity, error) {
	account, err := s.store.Accounts(ctx).Find(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Identity{}, ErrAccountNotFound
		}
		return Identity{}, err
	}

	identity := Identity{
		AccountID: account.ID,
		Email:     account.Email,
		Name:      account.Name,
		Role:      ParseRole(account.Role),
		AvatarURL: account.AvatarURL,
	}

	switch identity.Role {
	case RoleTenant:
		tenantID, err := s.store.PortalLinks(ctx).TenantIDForAccount(ctx, account.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Identity{}, ErrNoLinkedRecord
			}
			return Identity{}, err
		}
		identity.Scope = Scope{Kind: ScopeLinkedTenant, Value: tenantID}

	case RoleContractor:
		contractorID, err := s.store.PortalLinks(ctx).ContractorIDForAccount(ctx, account.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Identity{}, ErrNoLinkedRecord
			}
			return Identity{}, err
		}
		identity.Scope = Scope{Kind: ScopeLinkedContractor, Value: contractorID}

	default:
		if s.scopeMode == ScopeModeOrganization {
			memberships, err := s.store.Organizations(ctx).Memberships(ctx, account.ID)
			if err != nil {
				return Identity{}, err
			}
			if len(memberships) == 0 {
				return Identity{}, ErrNoOrganization
			}
			// First membership wins when an account somehow belongs to several.
			identity.Scope = Scope{Kind: ScopeOrganization, Value: memberships[0].OrganizationID}
		} else {
			identity.Scope = Scope{Kind: ScopeOwner, Value: account.ID}
		}
	}

	return identity, nil
}
