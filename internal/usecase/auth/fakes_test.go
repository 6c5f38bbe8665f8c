package auth_test

import (
	"context"
	"sync"

	domain "authgate/backend/internal/domain/auth"
	"authgate/backend/internal/usecase/auth"
)

// stubRepo lets a test replace any single store call.
type stubRepo struct {
	domain.UserRepository
	create      func(ctx context.Context, u *domain.User) error
	findByEmail func(ctx context.Context, email string) (*domain.User, error)
	findByID    func(ctx context.Context, id string) (*domain.User, error)
}

func (s *stubRepo) Create(ctx context.Context, u *domain.User) error {
	if s.create != nil {
		return s.create(ctx, u)
	}
	return s.UserRepository.Create(ctx, u)
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if s.findByEmail != nil {
		return s.findByEmail(ctx, email)
	}
	return s.UserRepository.FindByEmail(ctx, email)
}

func (s *stubRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if s.findByID != nil {
		return s.findByID(ctx, id)
	}
	return s.UserRepository.FindByID(ctx, id)
}

// spyHasher records which comparison paths ran.
type spyHasher struct {
	auth.PasswordHasher

	mu           sync.Mutex
	compares     int
	dummyCalls   int
	hashes       int
	compareError error
}

func (s *spyHasher) Hash(password string) (string, error) {
	s.mu.Lock()
	s.hashes++
	s.mu.Unlock()
	return s.PasswordHasher.Hash(password)
}

func (s *spyHasher) Compare(password, hash string) (bool, error) {
	s.mu.Lock()
	s.compares++
	s.mu.Unlock()
	if s.compareError != nil {
		return false, s.compareError
	}
	return s.PasswordHasher.Compare(password, hash)
}

func (s *spyHasher) CompareDummy(password string) {
	s.mu.Lock()
	s.dummyCalls++
	s.mu.Unlock()
	s.PasswordHasher.CompareDummy(password)
}

// stubTokens returns canned verification results.
type stubTokens struct {
	payload  domain.TokenPayload
	err      error
	issueErr error
	issued   []string
}

func (s *stubTokens) Issue(userID, _ string) (string, error) {
	if s.issueErr != nil {
		return "", s.issueErr
	}
	s.issued = append(s.issued, userID)
	return "token-for-" + userID, nil
}

func (s *stubTokens) Verify(string) (domain.TokenPayload, error) {
	return s.payload, s.err
}
