package httpserver

import (
	"context"

	domain "authgate/backend/internal/domain/auth"
)

type ctxKeyPrincipal struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal{}, p)
}

// PrincipalFromContext returns the principal attached by the auth gate.
func PrincipalFromContext(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal{}).(*domain.Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}
