package auth

import "context"

type identityContextKey struct{}

// ContextWithIdentity attaches the resolved identity to the request context.
// The value is copied; handlers cannot mutate the guard's resolution.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext extracts the resolved identity, if the access guard ran.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	v, ok := ctx.Value(identityContextKey{}).(Identity)
	if !ok || v.AccountID == "" {
		return Identity{}, false
	}
	return v, true
}
