package auth

import (
	"context"

	"github.com/zonemap/zonemap/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// principalContextKey is the context key for storing the Principal.
const principalContextKey contextKey = "principal"

// ContextWithPrincipal adds the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext retrieves the principal from the context.
// Returns nil if not present.
func PrincipalFromContext(ctx context.Context) *model.Principal {
	p, ok := ctx.Value(principalContextKey).(*model.Principal)
	if !ok {
		return nil
	}
	return p
}

// CustomerIDFromContext returns the customer id of the authenticated
// principal, or 0 if the request is unauthenticated or admin-realm.
func CustomerIDFromContext(ctx context.Context) int64 {
	p := PrincipalFromContext(ctx)
	if p == nil || p.Realm != model.RealmCustomer {
		return 0
	}
	return p.ID
}

// IsAdminContext reports whether the context carries an admin principal.
func IsAdminContext(ctx context.Context) bool {
	p := PrincipalFromContext(ctx)
	return p != nil && p.IsAdmin()
}
