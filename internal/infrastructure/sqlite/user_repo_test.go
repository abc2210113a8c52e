package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/roleguard/internal/domain/user"
	"github.com/example/roleguard/internal/internaltypes"
)

func openRepo(t *testing.T) *UserRepo {
	t.Helper()
	ctx := context.Background()
	d, err := Open(ctx, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, Migrate(ctx, d))
	return NewUserRepo(d)
}

func TestUserRepo_CreateAndFind(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	u, err := repo.Create(ctx, "alice", []byte("hash"), user.RoleAdmin)
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	byName, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)
	assert.Equal(t, user.RoleAdmin, byName.Role)
	assert.Equal(t, []byte("hash"), byName.PasswordHash)

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.WithinDuration(t, u.CreatedAt, byID.CreatedAt, 0)
}

func TestUserRepo_IDsAreDistinct(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, "a", []byte("h"), user.RoleUser)
	require.NoError(t, err)
	b, err := repo.Create(ctx, "b", []byte("h"), user.RoleUser)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestUserRepo_ArbitraryRoleStoredVerbatim(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "carol", []byte("h"), user.Role("auditor"))
	require.NoError(t, err)
	got, err := repo.FindByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, user.Role("auditor"), got.Role)
}

func TestUserRepo_Duplicate(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "alice", []byte("h"), user.RoleUser)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "alice", []byte("h2"), user.RoleAdmin)
	require.Error(t, err)
	assert.ErrorIs(t, err, user.ErrDuplicate)
	assert.ErrorIs(t, err, internaltypes.ErrPersistence)
	assert.Equal(t, internaltypes.KindPersistence, internaltypes.KindOf(err))
}

func TestUserRepo_NotFound(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	_, err := repo.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, user.ErrNotFound)
	_, err = repo.FindByID(ctx, 42)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	require.NoError(t, Migrate(ctx, d))
	require.NoError(t, Migrate(ctx, d))

	var n int
	require.NoError(t, d.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}
