package memory

import (
	"context"
	"strings"
	"time"

	"leasepilot.org/internal/auth"
)

func (s *Store) Accounts(ctx context.Context) auth.AccountStore           { return accounts{s} }
func (s *Store) RefreshTokens(ctx context.Context) auth.RefreshTokenStore { return refreshTokens{s} }
func (s *Store) Organizations(ctx context.Context) auth.OrganizationStore { return organizations{s} }
func (s *Store) PortalLinks(ctx context.Context) auth.PortalLinkStore     { return portalLinks{s} }

type accounts struct{ s *Store }

func (a accounts) Create(ctx context.Context, acc *auth.Account) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	for _, existing := range a.s.accounts {
		if strings.EqualFold(existing.Email, acc.Email) {
			return auth.ErrDuplicateAccount
		}
	}
	now := time.Now().UTC()
	acc.CreatedAt = now
	acc.UpdatedAt = now
	a.s.accounts[acc.ID] = *acc
	return nil
}

func (a accounts) Find(ctx context.Context, id string) (*auth.Account, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	acc, ok := a.s.accounts[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	out := acc
	return &out, nil
}

func (a accounts) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	for _, acc := range a.s.accounts {
		if strings.EqualFold(acc.Email, email) {
			out := acc
			return &out, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (a accounts) UpdateProfile(ctx context.Context, id string, upd auth.ProfileUpdate) (*auth.Account, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	acc, ok := a.s.accounts[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if upd.Email != nil {
		for otherID, other := range a.s.accounts {
			if otherID != id && strings.EqualFold(other.Email, *upd.Email) {
				return nil, auth.ErrDuplicateAccount
			}
		}
		acc.Email = *upd.Email
	}
	if upd.Name != nil {
		acc.Name = *upd.Name
	}
	if upd.AvatarURL != nil {
		acc.AvatarURL = *upd.AvatarURL
	}
	acc.UpdatedAt = time.Now().UTC()
	a.s.accounts[id] = acc
	out := acc
	return &out, nil
}

func (a accounts) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	acc, ok := a.s.accounts[id]
	if !ok {
		return auth.ErrNotFound
	}
	acc.PasswordHash = passwordHash
	acc.UpdatedAt = time.Now().UTC()
	a.s.accounts[id] = acc
	return nil
}

func (a accounts) Delete(ctx context.Context, id string) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if _, ok := a.s.accounts[id]; !ok {
		return auth.ErrNotFound
	}
	delete(a.s.accounts, id)
	for tokID, tok := range a.s.refreshTokens {
		if tok.AccountID == id {
			delete(a.s.refreshTokens, tokID)
		}
	}
	return nil
}

type refreshTokens struct{ s *Store }

func (r refreshTokens) Create(ctx context.Context, tok *auth.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if tok.CreatedAt.IsZero() {
		tok.CreatedAt = time.Now().UTC()
	}
	r.s.refreshTokens[tok.ID] = *tok
	return nil
}

func (r refreshTokens) Find(ctx context.Context, id string) (*auth.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tok, ok := r.s.refreshTokens[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	out := tok
	return &out, nil
}

// Rotate removes the old record and stores the replacement under one lock,
// mirroring the single-transaction guarantee of the SQL store. A missing old
// record means another request already spent the token.
func (r refreshTokens) Rotate(ctx context.Context, oldID string, replacement *auth.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.refreshTokens[oldID]; !ok {
		return auth.ErrNotFound
	}
	delete(r.s.refreshTokens, oldID)
	if replacement.CreatedAt.IsZero() {
		replacement.CreatedAt = time.Now().UTC()
	}
	r.s.refreshTokens[replacement.ID] = *replacement
	return nil
}

func (r refreshTokens) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.refreshTokens[id]; !ok {
		return auth.ErrNotFound
	}
	delete(r.s.refreshTokens, id)
	return nil
}

func (r refreshTokens) DeleteByAccount(ctx context.Context, accountID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, tok := range r.s.refreshTokens {
		if tok.AccountID == accountID {
			delete(r.s.refreshTokens, id)
		}
	}
	return nil
}

type organizations struct{ s *Store }

func (o organizations) Create(ctx context.Context, org *auth.Organization) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	now := time.Now().UTC()
	org.CreatedAt = now
	org.UpdatedAt = now
	o.s.organizations[org.ID] = *org
	return nil
}

func (o organizations) Find(ctx context.Context, id string) (*auth.Organization, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	org, ok := o.s.organizations[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	out := org
	return &out, nil
}

func (o organizations) Memberships(ctx context.Context, accountID string) ([]auth.Membership, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	var out []auth.Membership
	for _, m := range o.s.memberships {
		if m.AccountID == accountID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (o organizations) AddMember(ctx context.Context, orgID, accountID, role string) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	if _, ok := o.s.organizations[orgID]; !ok {
		return auth.ErrNotFound
	}
	for _, m := range o.s.memberships {
		if m.OrganizationID == orgID && m.AccountID == accountID {
			return nil
		}
	}
	o.s.memberships = append(o.s.memberships, auth.Membership{
		AccountID:      accountID,
		OrganizationID: orgID,
		Role:           role,
		CreatedAt:      time.Now().UTC(),
	})
	return nil
}

func (o organizations) ListMembers(ctx context.Context, orgID string) ([]*auth.Account, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	var out []*auth.Account
	for _, m := range o.s.memberships {
		if m.OrganizationID != orgID {
			continue
		}
		if acc, ok := o.s.accounts[m.AccountID]; ok {
			cp := acc
			out = append(out, &cp)
		}
	}
	return out, nil
}

type portalLinks struct{ s *Store }

func (p portalLinks) TenantIDForAccount(ctx context.Context, accountID string) (string, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	for _, t := range p.s.tenants {
		if t.PortalAccountID == accountID {
			return t.ID, nil
		}
	}
	return "", auth.ErrNotFound
}

func (p portalLinks) ContractorIDForAccount(ctx context.Context, accountID string) (string, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	for _, c := range p.s.contractors {
		if c.PortalAccountID == accountID {
			return c.ID, nil
		}
	}
	return "", auth.ErrNotFound
}
