package auth

import "errors"

// Authentication failures. Guard middleware maps these to 401.
var (
	ErrTokenInvalid        = errors.New("auth: token invalid")
	ErrTokenExpired        = errors.New("auth: token expired")
	ErrTokenMalformed      = errors.New("auth: token malformed")
	ErrAccountNotFound     = errors.New("auth: account not found")
	ErrInvalidCredentials  = errors.New("auth: invalid credentials")
	ErrInvalidRefreshToken = errors.New("auth: invalid refresh token")
)

// Authorization failures. Guard middleware maps these to 403.
var (
	ErrNoOrganization = errors.New("auth: account belongs to no organization")
	ErrNoLinkedRecord = errors.New("auth: no linked portal record")
	ErrRoleMismatch   = errors.New("auth: role not permitted")
)

// Input failures on register and profile edits (400).
var (
	ErrDuplicateAccount = errors.New("auth: account already exists")
	ErrWeakPassword     = errors.New("auth: password too weak")
	ErrInvalidEmail     = errors.New("auth: invalid email")
	ErrInvalidInput     = errors.New("auth: invalid input")
)

var (
	ErrNotFound         = errors.New("auth: not found")
	ErrStoreUnavailable = errors.New("auth: store unavailable")
)
