package user

import (
	"context"
	"errors"
	"strings"

	domain "authgate/backend/internal/domain/auth"

	"github.com/samber/oops"
)

// Store is the account store plus the delete operation only operators get.
type Store interface {
	domain.UserRepository
	Delete(ctx context.Context, id string) error
}

// ErrEmailRequired is returned when an admin operation is given a blank email.
var ErrEmailRequired = errors.New("email is required")

// Service provides account administration for operator workflows.
type Service struct {
	repo Store
}

// NewService constructs an admin service around the provided store.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// Get retrieves a single account by its identifier.
func (s *Service) Get(ctx context.Context, id string) (*domain.Principal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("user id is required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.NewPrincipal(user), nil
}

// DeleteByEmail removes the account registered under email. Tokens already
// issued to it stop resolving on their next use.
func (s *Service) DeleteByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, ErrEmailRequired
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrapf(err, "no account with email %s", email)
		}
		return nil, err
	}
	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return nil, oops.Code("USER_DELETE_FAILED").With("user_id", user.ID).Wrap(err)
	}
	return domain.NewPrincipal(user), nil
}
