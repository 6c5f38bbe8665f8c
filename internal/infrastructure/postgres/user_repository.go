package postgres

import (
	"context"
	"errors"

	domain "authgate/backend/internal/domain/auth"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// UserRepository persists accounts in PostgreSQL.
type UserRepository struct {
	pool Pool
}

// NewUserRepository constructs a repository.
func NewUserRepository(pool Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

var _ domain.UserRepository = (*UserRepository)(nil)

// Create inserts a new account. The unique index on LOWER(email) rejects
// duplicates with ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("USER_EMAIL_TAKEN").With("user_id", user.ID).Wrap(domain.ErrEmailTaken)
		}
		return oops.Code("USER_STORE_CREATE_FAILED").With("user_id", user.ID).Wrap(err)
	}
	return nil
}

// FindByEmail fetches an account by email, ignoring case.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
SELECT id, name, email, password_hash, created_at, updated_at
FROM users WHERE LOWER(email) = LOWER($1)
`
	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, oops.Code("USER_NOT_FOUND").Wrap(domain.ErrNotFound)
		}
		return nil, oops.Code("USER_STORE_FIND_FAILED").With("lookup", "email").Wrap(err)
	}
	return user, nil
}

// FindByID fetches an account by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
SELECT id, name, email, password_hash, created_at, updated_at
FROM users WHERE id = $1
`
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, oops.Code("USER_NOT_FOUND").With("user_id", id).Wrap(domain.ErrNotFound)
		}
		return nil, oops.Code("USER_STORE_FIND_FAILED").With("user_id", id).Wrap(err)
	}
	return user, nil
}

// Delete removes an account by id.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return oops.Code("USER_STORE_DELETE_FAILED").With("user_id", id).Wrap(err)
	}
	if ct.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("user_id", id).Wrap(domain.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
