package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"leasepilot.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "

	accessCookieName  = "access_token"
	refreshCookieName = "refresh_token"
)

var publicPaths = []string{
	"/api/auth/register",
	"/api/auth/login",
	"/api/auth/demo",
	"/api/auth/refresh",
	"/api/auth/logout",
	"/healthz",
	"/readyz",
	"/metrics",
	"/",
}

// scopeOptionalPaths still require a valid token but tolerate an unresolved
// scope. A manager without an organization must be able to create one, read
// its own session and log out.
var scopeOptionalPaths = []string{
	"/api/auth/verify",
	"/api/auth/profile",
	"/api/auth/password",
	"/api/auth/account",
	"/api/organizations",
}

// withAuth verifies the access token, resolves the caller's identity and
// scope for this request, and stores both in the context. Everything past
// this middleware can assume an authenticated caller.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractAccessToken(r)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := a.auth.VerifyAccessToken(token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				writeError(w, r, http.StatusUnauthorized, "token expired")
			case errors.Is(err, auth.ErrTokenMalformed), errors.Is(err, auth.ErrTokenInvalid):
				writeError(w, r, http.StatusUnauthorized, "invalid token")
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		// Scope is resolved fresh on every request so revoked portal links
		// and role changes bite immediately.
		identity, err := a.auth.Resolve(r.Context(), claims.Subject)
		if err != nil {
			switch {
			case isScopeOptionalPath(r.URL.Path) && (errors.Is(err, auth.ErrNoOrganization) || errors.Is(err, auth.ErrNoLinkedRecord)):
				identity = auth.Identity{
					AccountID: claims.Subject,
					Email:     claims.Email,
					Role:      auth.ParseRole(claims.Role),
				}
			case errors.Is(err, auth.ErrAccountNotFound):
				writeError(w, r, http.StatusUnauthorized, "account no longer exists")
				return
			case errors.Is(err, auth.ErrNoOrganization):
				// The session stays valid; the client is expected to finish
				// organization onboarding, not to log in again.
				writeError(w, r, http.StatusForbidden, "account belongs to no organization")
				return
			case errors.Is(err, auth.ErrNoLinkedRecord):
				writeError(w, r, http.StatusForbidden, "no linked portal record")
				return
			case errors.Is(err, auth.ErrStoreUnavailable):
				writeError(w, r, http.StatusServiceUnavailable, "store unavailable")
				return
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
				return
			}
		}

		ctx := auth.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identity returns the resolved caller. The guard always sets it; a miss
// means a route was registered as public by mistake.
func (a *API) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return auth.Identity{}, false
	}
	return identity, true
}

// requireRole loads the identity and rejects callers outside the allowed
// roles with 403.
func (a *API) requireRole(w http.ResponseWriter, r *http.Request, roles ...auth.Role) (auth.Identity, bool) {
	identity, ok := a.identity(w, r)
	if !ok {
		return auth.Identity{}, false
	}
	for _, role := range roles {
		if identity.Role == role {
			return identity, true
		}
	}
	writeError(w, r, http.StatusForbidden, "insufficient role")
	return auth.Identity{}, false
}

func extractAccessToken(r *http.Request) (string, error) {
	if c, err := r.Cookie(accessCookieName); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value), nil
	}
	header := strings.TrimSpace(r.Header.Get(authHeader))
	if header == "" {
		return "", errors.New("missing access token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing access token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

func isScopeOptionalPath(path string) bool {
	for _, p := range scopeOptionalPaths {
		if path == p {
			return true
		}
	}
	return false
}
