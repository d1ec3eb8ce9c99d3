package reposql_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jrsteele09/timely-server/users"
	"github.com/jrsteele09/timely-server/users/reposql"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newRepo(t *testing.T) *reposql.Repo {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	repo := reposql.New(db, "sqlite")
	t.Cleanup(func() { _ = repo.Close() })
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestRepo_GetByUsername(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.Upsert(ctx, &users.User{
		Username:       "test",
		PasswordHash:   "hash-1",
		Authorizations: []string{"A", "B"},
	}))

	u, err := repo.GetByUsername(ctx, "test")
	require.NoError(t, err)
	require.Equal(t, "hash-1", u.PasswordHash)
	require.Equal(t, []string{"A", "B"}, u.Authorizations)
	require.False(t, u.Disabled)

	_, err = repo.GetByUsername(ctx, "nobody")
	require.ErrorIs(t, err, users.ErrUserNotFound)
}

func TestRepo_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.Upsert(ctx, &users.User{Username: "test", PasswordHash: "old"}))
	require.NoError(t, repo.Upsert(ctx, &users.User{Username: "test", PasswordHash: "new", Disabled: true}))

	u, err := repo.GetByUsername(ctx, "test")
	require.NoError(t, err)
	require.Equal(t, "new", u.PasswordHash)
	require.True(t, u.Disabled)
	require.Empty(t, u.Authorizations)
}

func TestRepo_ClosedDatabaseIsABackendError(t *testing.T) {
	repo := newRepo(t)
	require.NoError(t, repo.Close())

	_, err := repo.GetByUsername(context.Background(), "test")
	require.Error(t, err)
	require.NotErrorIs(t, err, users.ErrUserNotFound)
}
