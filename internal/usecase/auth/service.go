package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "authgate/backend/internal/domain/auth"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Service coordinates registration and login between the store, the hasher
// and the token manager.
type Service struct {
	users   domain.UserRepository
	hasher  PasswordHasher
	tokens  TokenManager
	nowFunc func() time.Time
	newID   func() string
}

// NewService constructs an auth service.
func NewService(users domain.UserRepository, hasher PasswordHasher, tokens TokenManager) *Service {
	return &Service{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		nowFunc: time.Now,
		newID:   uuid.NewString,
	}
}

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Principal *domain.Principal
	Token     string
}

// Register creates a new account and returns its public view.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.Principal, error) {
	email := normalizeEmail(in.Email)

	if strength := s.hasher.ValidateStrength(in.Password); !strength.Valid {
		return nil, domain.InvalidPassword(strength.Errors)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Internal(oops.Code("REGISTER_LOOKUP_FAILED").
			With("operation", "find user by email").
			Wrap(err))
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, domain.AsError(err)
	}

	now := s.nowFunc().UTC()
	user := &domain.User{
		ID:           s.newID(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The lookup above is not atomic with the insert; the store's unique
	// constraint decides concurrent duplicates.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.ErrEmailAlreadyExists
		}
		return nil, domain.Internal(oops.Code("REGISTER_CREATE_FAILED").
			With("operation", "create user").
			With("user_id", user.ID).
			Wrap(err))
	}

	return domain.NewPrincipal(user), nil
}

// Login validates credentials and issues a token. Unknown accounts and wrong
// passwords fail identically.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (*LoginResult, error) {
	email := normalizeEmail(creds.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.hasher.CompareDummy(creds.Password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.Internal(oops.Code("LOGIN_LOOKUP_FAILED").
			With("operation", "find user by email").
			Wrap(err))
	}

	ok, err := s.hasher.Compare(creds.Password, user.PasswordHash)
	if err != nil {
		return nil, domain.AsError(err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, domain.AsError(err)
	}

	return &LoginResult{Principal: domain.NewPrincipal(user), Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
