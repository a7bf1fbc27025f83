package auth

import "context"

// Store describes persistence operations required by the auth subsystem.
// Implementations map driver-level failures onto the package sentinel errors.
type Store interface {
	Accounts(ctx context.Context) AccountStore
	RefreshTokens(ctx context.Context) RefreshTokenStore
	Organizations(ctx context.Context) OrganizationStore
	PortalLinks(ctx context.Context) PortalLinkStore
}

// ProfileUpdate carries optional account profile edits. Nil fields are left
// untouched.
type ProfileUpdate struct {
	Name      *string
	Email     *string
	AvatarURL *string
}

// AccountStore owns the Account lifecycle. Resource handlers never touch it.
type AccountStore interface {
	Create(ctx context.Context, a *Account) error
	Find(ctx context.Context, id string) (*Account, error)
	// FindByEmail matches case-insensitively.
	FindByEmail(ctx context.Context, email string) (*Account, error)
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

// RefreshTokenStore manages persisted refresh token records.
type RefreshTokenStore interface {
	Create(ctx context.Context, tok *RefreshToken) error
	Find(ctx context.Context, id string) (*RefreshToken, error)
	// Rotate deletes the old record and inserts its replacement in a single
	// transaction so a crash in between cannot strand the account.
	Rotate(ctx context.Context, oldID string, replacement *RefreshToken) error
	Delete(ctx context.Context, id string) error
	DeleteByAccount(ctx context.Context, accountID string) error
}

// OrganizationStore manages organizations and memberships (organization scope
// mode only).
type OrganizationStore interface {
	Create(ctx context.Context, org *Organization) error
	Find(ctx context.Context, id string) (*Organization, error)
	// Memberships returns an account's organizations in join order.
	Memberships(ctx context.Context, accountID string) ([]Membership, error)
	AddMember(ctx context.Context, orgID, accountID, role string) error
	ListMembers(ctx context.Context, orgID string) ([]*Account, error)
}

// PortalLinkStore resolves portal accounts to their linked business records.
type PortalLinkStore interface {
	// TenantIDForAccount returns the tenant row whose portal_account_id is
	// the given account, or ErrNotFound.
	TenantIDForAccount(ctx context.Context, accountID string) (string, error)
	ContractorIDForAccount(ctx context.Context, accountID string) (string, error)
}
