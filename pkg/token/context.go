package token

import "context"

// PrincipalKey is the gin context key the middleware stores the principal
// under. Handlers can read it directly with c.Get, though FromGin is the
// preferred accessor.
const PrincipalKey = "guard/principal"

type principalContextKey struct{}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	if p == nil {
		return ctx
	}
	return context.WithValue(ctx, principalContextKey{}, p)
}

// FromContext returns the principal stored in the context, if any.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	return p, ok && p != nil
}

// SubjectFromContext returns the authenticated subject, or "" when the
// context carries no principal.
func SubjectFromContext(ctx context.Context) string {
	if p, ok := FromContext(ctx); ok {
		return p.Subject
	}
	return ""
}
