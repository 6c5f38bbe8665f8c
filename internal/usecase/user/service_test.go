package user_test

import (
	"context"
	"testing"

	domain "authgate/backend/internal/domain/auth"
	"authgate/backend/internal/infrastructure/memory"
	"authgate/backend/internal/usecase/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *memory.UserRepository {
	t.Helper()
	repo := memory.NewUserRepository()
	require.NoError(t, repo.Create(context.Background(), &domain.User{
		ID:           "u-1",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	}))
	return repo
}

func TestService_DeleteByEmail(t *testing.T) {
	ctx := context.Background()
	repo := seeded(t)
	svc := user.NewService(repo)

	deleted, err := svc.DeleteByEmail(ctx, "  ALICE@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "u-1", deleted.ID)

	_, err = repo.FindByID(ctx, "u-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.DeleteByEmail(ctx, "alice@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "no account")
}

func TestService_DeleteByEmail_Blank(t *testing.T) {
	_, err := user.NewService(seeded(t)).DeleteByEmail(context.Background(), "   ")
	assert.ErrorIs(t, err, user.ErrEmailRequired)
}

func TestService_Get(t *testing.T) {
	svc := user.NewService(seeded(t))

	p, err := svc.Get(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(context.Background(), "")
	assert.Error(t, err)
}
