package datashare

import "context"

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p as the authenticated identity.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the identity stored by WithPrincipal.
// The boolean is false for unauthenticated requests.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
