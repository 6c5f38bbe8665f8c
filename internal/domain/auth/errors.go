package auth

import (
	"errors"
	"strings"
)

// Kind tags an authentication failure. The HTTP boundary maps kinds to status codes.
type Kind string

const (
	KindInvalidPassword    Kind = "INVALID_PASSWORD"
	KindEmailAlreadyExists Kind = "EMAIL_ALREADY_EXISTS"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindTokenExpired       Kind = "TOKEN_EXPIRED"
	KindTokenInvalid       Kind = "TOKEN_INVALID"
	KindTokenMissing       Kind = "TOKEN_MISSING"
	KindUserNotFound       Kind = "USER_NOT_FOUND"
	KindInternalFailure    Kind = "INTERNAL_FAILURE"
)

// Error is the typed failure returned by the auth services. Message is safe to
// show to clients; Err holds the underlying cause and is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so callers can match against the Err* values below
// regardless of the attached cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// WithCause returns a copy of e carrying err as its cause.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

var (
	// ErrInvalidCredentials is returned for both unknown accounts and wrong passwords.
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "Invalid email or password"}
	// ErrEmailAlreadyExists signals a duplicate email registration.
	ErrEmailAlreadyExists = &Error{Kind: KindEmailAlreadyExists, Message: "Email already registered"}
	// ErrTokenMissing means the request carried no bearer token.
	ErrTokenMissing = &Error{Kind: KindTokenMissing, Message: "No authentication token provided"}
	// ErrTokenExpired means the token was authentic but is past its lifetime.
	ErrTokenExpired = &Error{Kind: KindTokenExpired, Message: "Token has expired"}
	// ErrTokenInvalid means the token signature or structure is wrong.
	ErrTokenInvalid = &Error{Kind: KindTokenInvalid, Message: "Invalid token"}
	// ErrUserNotFound means a valid token refers to an account that no longer exists.
	ErrUserNotFound = &Error{Kind: KindUserNotFound, Message: "User not found"}
	// ErrInternal is the generic internal failure.
	ErrInternal = &Error{Kind: KindInternalFailure, Message: "Internal failure"}
)

// Store contract errors. Repositories return these; services translate them.
var (
	// ErrNotFound indicates the store has no matching account.
	ErrNotFound = errors.New("account not found")
	// ErrEmailTaken indicates the store rejected an insert on the unique email constraint.
	ErrEmailTaken = errors.New("email already taken")
)

// Internal wraps err as an InternalFailure.
func Internal(err error) *Error {
	return ErrInternal.WithCause(err)
}

// InvalidPassword builds the password-policy failure from the policy messages.
func InvalidPassword(problems []string) *Error {
	return &Error{
		Kind:    KindInvalidPassword,
		Message: strings.Join(problems, "; "),
		Details: append([]string(nil), problems...),
	}
}

// AsError returns err as an *Error. Untyped errors become InternalFailure.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// KindOf reports the kind of err, or "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return AsError(err).Kind
}
