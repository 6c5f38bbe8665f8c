package auth

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	domain "authgate/backend/internal/domain/auth"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when configuration does not override it.
const DefaultBcryptCost = 12

const (
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes and GenerateFromPassword rejects it.
	maxPasswordBytes = 72
)

// PasswordHasher hashes and compares passwords and enforces the password policy.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns (false, nil) on mismatch. Any other failure is an
	// InternalFailure and never reported as a mismatch.
	Compare(password, hash string) (bool, error)
	// CompareDummy burns the same work as Compare against a hash that matches
	// nothing. Used when the account does not exist.
	CompareDummy(password string)
	ValidateStrength(password string) StrengthResult
}

// StrengthResult is the outcome of the password policy check.
type StrengthResult struct {
	Valid  bool
	Errors []string
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost    int
	dummy   []byte
	observe func(time.Duration)
}

// HasherOption customises a BcryptHasher.
type HasherOption func(*BcryptHasher)

// WithHashObserver reports the duration of every Hash call.
func WithHashObserver(fn func(time.Duration)) HasherOption {
	return func(h *BcryptHasher) {
		h.observe = fn
	}
}

// NewBcryptHasher constructs a hasher with the given cost.
func NewBcryptHasher(cost int, opts ...HasherOption) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, oops.Code("BCRYPT_COST_INVALID").
			With("cost", cost).
			Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	// The dummy hash has the same cost as real ones so both login paths take the same time.
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cost)
	if err != nil {
		return nil, oops.Code("BCRYPT_DUMMY_FAILED").With("cost", cost).Wrap(err)
	}

	h := &BcryptHasher{cost: cost, dummy: dummy}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

var _ PasswordHasher = (*BcryptHasher)(nil)

// Hash returns a salted bcrypt hash of password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	start := time.Now()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if h.observe != nil {
		h.observe(time.Since(start))
	}
	if err != nil {
		return "", domain.Internal(oops.Code("PASSWORD_HASH_FAILED").
			With("cost", h.cost).
			Wrap(err))
	}
	return string(hashed), nil
}

// Compare reports whether password matches hash.
func (h *BcryptHasher) Compare(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		// An over-long password can never have been accepted at registration.
		return false, nil
	default:
		return false, domain.Internal(oops.Code("PASSWORD_COMPARE_FAILED").Wrap(err))
	}
}

// CompareDummy runs a comparison whose result is discarded.
func (h *BcryptHasher) CompareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}

// ValidateStrength applies the password policy. New rules append to Errors.
func (h *BcryptHasher) ValidateStrength(password string) StrengthResult {
	var problems []string
	if utf8.RuneCountInString(password) < minPasswordLength {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters long", minPasswordLength))
	}
	if len(password) > maxPasswordBytes {
		problems = append(problems, fmt.Sprintf("password must be at most %d bytes long", maxPasswordBytes))
	}
	return StrengthResult{Valid: len(problems) == 0, Errors: problems}
}
