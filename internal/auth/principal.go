package auth

import (
	"context"

	"spendwise/internal/core"
)

type principalKey struct{}

// WithUser stores the authenticated user on the request context. Handlers
// read it back with UserFrom and pass it explicitly to the services.
func WithUser(ctx context.Context, u core.User) context.Context {
	return context.WithValue(ctx, principalKey{}, u)
}

// UserFrom returns the authenticated user, if any.
func UserFrom(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(principalKey{}).(core.User)
	return u, ok
}
