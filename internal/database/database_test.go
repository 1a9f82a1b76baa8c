package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestConnectCreatesDataDirectory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "ipabot.db")

	db, err := Connect(DriverSQLite, dsn)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dsn)
}

func TestConnectIsIdempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "ipabot.db")

	for i := 0; i < 2; i++ {
		db, err := Connect(DriverSQLite, dsn)
		require.NoError(t, err, "connect #%d", i+1)
		require.NoError(t, db.Close())
	}
}

func TestUserRepository_Register(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Register(ctx, 42, "alice"))

	user, err := repo.GetByID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "alice", user.Name)
	assert.Equal(t, "{}", user.ProgressJSON)
	assert.Nil(t, user.LanguageLevel)

	// A second registration with a different name is a no-op.
	require.NoError(t, repo.Register(ctx, 42, "bob"))
	user, err = repo.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Name)
}

func TestUserRepository_GetUnknown(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	user, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_Updates(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Register(ctx, 1, "alice"))

	require.NoError(t, repo.UpdateProgress(ctx, 1, `{"activity1":{"learned":2,"total":2,"complete":true}}`))

	user, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"activity1":{"learned":2,"total":2,"complete":true}}`, user.ProgressJSON)
	assert.Nil(t, user.LanguageLevel)
}

func TestUserProgressRepository_UnknownUserIsEmpty(t *testing.T) {
	repo := NewUserProgressRepository(openTestDB(t))

	completed, err := repo.GetCompleted(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, completed)

	list, err := repo.ListCompleted(context.Background(), 99)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestUserProgressRepository_MarkCompletedIsIdempotent(t *testing.T) {
	repo := NewUserProgressRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.MarkCompleted(ctx, 1, []string{"dog", "cat"}))
	first, err := repo.GetCompleted(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, repo.MarkCompleted(ctx, 1, []string{"cat", "dog"}))
	second, err := repo.GetCompleted(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, map[string]struct{}{"cat": {}, "dog": {}}, second)

	list, err := repo.ListCompleted(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "dog"}, list)
}

func TestUserProgressRepository_UsersAreIsolated(t *testing.T) {
	repo := NewUserProgressRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.MarkCompleted(ctx, 1, []string{"cat"}))
	require.NoError(t, repo.MarkCompleted(ctx, 2, []string{"dog"}))

	list, err := repo.ListCompleted(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat"}, list)
}

func TestUserProgressRepository_MarkCompletedEmpty(t *testing.T) {
	repo := NewUserProgressRepository(openTestDB(t))
	assert.NoError(t, repo.MarkCompleted(context.Background(), 1, nil))
}

func TestPersistenceErrorClassification(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserProgressRepository(db)
	require.NoError(t, db.Close())

	_, err := repo.GetCompleted(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "get completed words", perr.Op)
}
