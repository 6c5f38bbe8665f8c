package auth

import "context"

// UserRepository is the account store the auth core depends on. Email
// uniqueness must be enforced by the implementation itself: Create returns
// ErrEmailTaken when the constraint rejects the insert. Lookups return
// ErrNotFound when no account matches.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
}
