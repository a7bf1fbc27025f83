package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"leasepilot.org/internal/ids"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
	defaultIssuer     = "leasepilot"

	minPasswordLength = 8
)

// Service owns token issuance, credential lifecycle and scope resolution.
// It carries no per-request state; everything durable lives in the store.
type Service struct {
	store     Store
	secret    []byte
	issuer    string
	accessTTL time.Duration

	refreshTTL time.Duration
	scopeMode  ScopeMode
	now        func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithSecret sets the HS256 signing secret. A service without one cannot be
// constructed: a missing secret is a fatal configuration error, not a mode.
func WithSecret(secret string) ServiceOption {
	return func(s *Service) error {
		s.secret = []byte(strings.TrimSpace(secret))
		return nil
	}
}

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) error {
		if v := strings.TrimSpace(issuer); v != "" {
			s.issuer = v
		}
		return nil
	}
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.accessTTL = ttl
		}
		return nil
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
		return nil
	}
}

// WithScopeMode selects owner or organization scoping. The two are mutually
// exclusive deployment modes.
func WithScopeMode(mode ScopeMode) ServiceOption {
	return func(s *Service) error {
		switch mode {
		case "", ScopeModeOwner:
			s.scopeMode = ScopeModeOwner
		case ScopeModeOrganization:
			s.scopeMode = ScopeModeOrganization
		default:
			return fmt.Errorf("unsupported scope mode %q", mode)
		}
		return nil
	}
}

// WithClock overrides the time source (tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs the auth service. The store handle and signing secret
// are required.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	svc := &Service{
		store:      store,
		issuer:     defaultIssuer,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		scopeMode:  ScopeModeOwner,
		now:        time.Now,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	if len(svc.secret) == 0 {
		return nil, errors.New("auth: signing secret is not configured")
	}
	return svc, nil
}

// Mode reports the configured scoping strategy.
func (s *Service) Mode() ScopeMode { return s.scopeMode }

// Register creates a manager account and logs it straight in.
func (s *Service) Register(ctx context.Context, email, password, name string) (TokenPair, *Account, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return TokenPair{}, nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return TokenPair{}, nil, ErrWeakPassword
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = email
	}
	if _, err := s.store.Accounts(ctx).FindByEmail(ctx, email); err == nil {
		return TokenPair{}, nil, ErrDuplicateAccount
	} else if !errors.Is(err, ErrNotFound) {
		return TokenPair{}, nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return TokenPair{}, nil, err
	}
	account := &Account{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         string(RoleManager),
	}
	if err := s.store.Accounts(ctx).Create(ctx, account); err != nil {
		return TokenPair{}, nil, err
	}
	pair, err := s.mintPair(ctx, account)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, account, nil
}

// CreatePortalAccount creates a tenant or contractor login without signing it
// in. The caller links the returned account id to the business record.
func (s *Service) CreatePortalAccount(ctx context.Context, email, password, name string, role Role) (*Account, error) {
	if role != RoleTenant && role != RoleContractor {
		return nil, fmt.Errorf("auth: portal accounts must be tenant or contractor, got %s", role)
	}
	email = normalizeEmail(email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if _, err := s.store.Accounts(ctx).FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateAccount
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	account := &Account{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Role:         string(role),
	}
	if err := s.store.Accounts(ctx).Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Login authenticates credentials and issues a fresh pair. Missing account and
// bad password collapse into the same error so callers cannot probe emails.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, *Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	account, err := s.store.Accounts(ctx).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, nil, ErrInvalidCredentials
		}
		return TokenPair{}, nil, err
	}
	if err := VerifyPassword(account.PasswordHash, password); err != nil {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	pair, err := s.mintPair(ctx, account)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, account, nil
}

// Demo logs into a shared demo manager account, creating it on first use.
func (s *Service) Demo(ctx context.Context) (TokenPair, *Account, error) {
	const (
		demoEmail    = "demo@leasepilot.org"
		demoName     = "Sarah Jenkins"
		demoPassword = "demo-pass-123"
	)
	account, err := s.store.Accounts(ctx).FindByEmail(ctx, demoEmail)
	if errors.Is(err, ErrNotFound) {
		hash, herr := HashPassword(demoPassword)
		if herr != nil {
			return TokenPair{}, nil, herr
		}
		account = &Account{
			ID:           ids.New(),
			Email:        demoEmail,
			PasswordHash: hash,
			Name:         demoName,
			Role:         string(RoleManager),
		}
		if cerr := s.store.Accounts(ctx).Create(ctx, account); cerr != nil {
			return TokenPair{}, nil, cerr
		}
	} else if err != nil {
		return TokenPair{}, nil, err
	}
	pair, err := s.mintPair(ctx, account)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, account, nil
}

// Refresh rotates the presented refresh token and issues a new pair. A token
// is single-use: once exchanged, replaying it fails.
func (s *Service) Refresh(ctx context.Context, raw string) (TokenPair, *Account, error) {
	tokenID, secret, err := splitRefreshToken(raw)
	if err != nil {
		return TokenPair{}, nil, ErrInvalidRefreshToken
	}
	tokens := s.store.RefreshTokens(ctx)
	record, err := tokens.Find(ctx, tokenID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, nil, ErrInvalidRefreshToken
		}
		return TokenPair{}, nil, err
	}
	if s.now().After(record.ExpiresAt) {
		_ = tokens.Delete(ctx, record.ID)
		return TokenPair{}, nil, ErrInvalidRefreshToken
	}
	if !secureCompareHash(record.TokenHash, secret) {
		// Wrong secret against a live id smells like theft; burn the record.
		_ = tokens.Delete(ctx, record.ID)
		return TokenPair{}, nil, ErrInvalidRefreshToken
	}

	account, err := s.store.Accounts(ctx).Find(ctx, record.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, nil, ErrInvalidRefreshToken
		}
		return TokenPair{}, nil, err
	}

	rawNew, replacement, err := s.generateRefreshToken(account.ID)
	if err != nil {
		return TokenPair{}, nil, err
	}
	if err := tokens.Rotate(ctx, record.ID, replacement); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Lost the race against a concurrent rotation of the same token.
			return TokenPair{}, nil, ErrInvalidRefreshToken
		}
		return TokenPair{}, nil, err
	}

	access, accessExp, err := s.IssueAccessToken(account)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     rawNew,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: replacement.ExpiresAt,
	}, account, nil
}

// Logout revokes the presented refresh token. Logging out twice, or with a
// garbage token, is not an error.
func (s *Service) Logout(ctx context.Context, raw string) error {
	tokenID, _, err := splitRefreshToken(raw)
	if err != nil {
		return nil
	}
	if err := s.store.RefreshTokens(ctx).Delete(ctx, tokenID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// VerifySession validates the access token and loads the account's current
// profile. Used by the session probe endpoint.
func (s *Service) VerifySession(ctx context.Context, token string) (*Account, error) {
	claims, err := s.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}
	account, err := s.store.Accounts(ctx).Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// UpdateProfile applies profile edits and returns the fresh record.
func (s *Service) UpdateProfile(ctx context.Context, accountID string, upd ProfileUpdate) (*Account, error) {
	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		if !validEmail(email) {
			return nil, ErrInvalidEmail
		}
		if existing, err := s.store.Accounts(ctx).FindByEmail(ctx, email); err == nil && existing.ID != accountID {
			return nil, ErrDuplicateAccount
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		upd.Email = &email
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidEmail)
		}
		upd.Name = &name
	}
	account, err := s.store.Accounts(ctx).UpdateProfile(ctx, accountID, upd)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every outstanding refresh token for the account.
func (s *Service) ChangePassword(ctx context.Context, accountID, current, next string) error {
	if len(next) < minPasswordLength {
		return ErrWeakPassword
	}
	account, err := s.store.Accounts(ctx).Find(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	if err := VerifyPassword(account.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.store.Accounts(ctx).UpdatePassword(ctx, accountID, hash); err != nil {
		return err
	}
	return s.store.RefreshTokens(ctx).DeleteByAccount(ctx, accountID)
}

// DeleteAccount removes the account; owned resources cascade in the store.
func (s *Service) DeleteAccount(ctx context.Context, accountID string) error {
	if err := s.store.RefreshTokens(ctx).DeleteByAccount(ctx, accountID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := s.store.Accounts(ctx).Delete(ctx, accountID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	return nil
}

func (s *Service) mintPair(ctx context.Context, account *Account) (TokenPair, error) {
	access, accessExp, err := s.IssueAccessToken(account)
	if err != nil {
		return TokenPair{}, err
	}
	raw, record, err := s.generateRefreshToken(account.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.RefreshTokens(ctx).Create(ctx, record); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     raw,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: record.ExpiresAt,
	}, nil
}

// generateRefreshToken produces an opaque "<id>.<secret>" credential. The
// secret never touches storage; only its hash does.
func (s *Service) generateRefreshToken(accountID string) (string, *RefreshToken, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", nil, err
	}
	secret := base64.RawURLEncoding.EncodeToString(secretBytes)
	sum := sha256.Sum256([]byte(secret))
	record := &RefreshToken{
		ID:        ids.New(),
		AccountID: accountID,
		TokenHash: hex.EncodeToString(sum[:]),
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	return record.ID + "." + secret, record, nil
}

func splitRefreshToken(raw string) (id, secret string, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("invalid refresh token format")
	}
	return parts[0], parts[1], nil
}

func secureCompareHash(expectedHash, secret string) bool {
	sum := sha256.Sum256([]byte(secret))
	actual := hex.EncodeToString(sum[:])
	if len(expectedHash) != len(actual) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expectedHash), []byte(actual)) == 1
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func validEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t")
}
