package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/roleguard/internal/domain/user"
)

// Runs only against a disposable database named by TEST_DATABASE_URL.
func openRepo(t *testing.T) *UserRepo {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))
	return NewUserRepo(pool)
}

func TestUserRepo_Postgres(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	name := fmt.Sprintf("alice-%d", time.Now().UnixNano())

	u, err := repo.Create(ctx, name, []byte("hash"), user.RoleAdmin)
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	got, err := repo.FindByUsername(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, user.RoleAdmin, got.Role)

	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, name, got.Username)

	_, err = repo.Create(ctx, name, []byte("h"), user.RoleUser)
	assert.ErrorIs(t, err, user.ErrDuplicate)

	_, err = repo.FindByID(ctx, -1)
	assert.ErrorIs(t, err, user.ErrNotFound)
}
