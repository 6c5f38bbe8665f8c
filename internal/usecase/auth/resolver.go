package auth

import (
	"context"
	"errors"

	domain "authgate/backend/internal/domain/auth"

	"github.com/samber/oops"
)

// Resolution describes what a request's authentication evidence resolved to.
// A present token with a nil Principal means the token was valid but its
// account no longer exists.
type Resolution struct {
	TokenPresent bool
	Principal    *domain.Principal
}

// Resolver turns an Authorization header into a Principal.
type Resolver struct {
	tokens TokenManager
	users  domain.UserRepository
}

// NewResolver constructs a Resolver.
func NewResolver(tokens TokenManager, users domain.UserRepository) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve extracts, verifies and resolves the bearer token in authorization.
// The returned error is always a *domain.Error of kind TokenExpired,
// TokenInvalid or InternalFailure.
func (r *Resolver) Resolve(ctx context.Context, authorization string) (Resolution, error) {
	raw, ok := ExtractBearerToken(authorization)
	if !ok {
		return Resolution{}, nil
	}

	res := Resolution{TokenPresent: true}
	payload, err := r.tokens.Verify(raw)
	if err != nil {
		return res, domain.AsError(err)
	}

	user, err := r.users.FindByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return res, nil
		}
		return res, domain.Internal(oops.Code("RESOLVE_USER_FAILED").
			With("operation", "find user by id").
			With("user_id", payload.UserID).
			Wrap(err))
	}

	res.Principal = domain.NewPrincipal(user)
	return res, nil
}
