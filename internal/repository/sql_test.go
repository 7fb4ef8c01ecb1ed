package repository

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"

	relaybot "github.com/set-night/relaybot"
	"github.com/set-night/relaybot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func migrationsFS(t *testing.T) fs.FS {
	t.Helper()
	sub, err := fs.Sub(relaybot.MigrationsFS, "migrations")
	require.NoError(t, err)
	return sub
}

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()

	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.NoError(t, RunMigrations(db, migrationsFS(t)))

	store := NewSQLStore(db)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLStoreWindowAndAppend(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	for i := 0; i < 12; i++ {
		require.NoError(t, store.Append(ctx, "u", domain.Turn{
			Timestamp: fmt.Sprintf("t%d", i),
			User:      fmt.Sprintf("q%d", i),
			Bot:       fmt.Sprintf("a%d", i),
		}))
	}
	require.NoError(t, store.Append(ctx, "other", domain.Turn{User: "x"}))

	window, err := store.Window(ctx, "u", 10)
	require.NoError(t, err)
	require.Len(t, window, 10)
	assert.Equal(t, domain.Turn{Timestamp: "t2", User: "q2", Bot: "a2"}, window[0])
	assert.Equal(t, "q11", window[9].User)

	none, err := store.Window(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLStoreClear(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	cleared, err := store.Clear(ctx, "u")
	require.NoError(t, err)
	assert.False(t, cleared)

	require.NoError(t, store.Append(ctx, "u", domain.Turn{User: "q"}))
	cleared, err = store.Clear(ctx, "u")
	require.NoError(t, err)
	assert.True(t, cleared)

	window, err := store.Window(ctx, "u", 10)
	require.NoError(t, err)
	assert.Empty(t, window)
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(db, migrationsFS(t)))
	require.NoError(t, RunMigrations(db, migrationsFS(t)))
}

func TestRebind(t *testing.T) {
	t.Parallel()

	pg := &SQLStore{db: &DB{Dialect: DialectPostgres}}
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))

	lite := &SQLStore{db: &DB{Dialect: DialectSQLite}}
	assert.Equal(t, "a = ? AND b = ?", lite.rebind("a = ? AND b = ?"))
}
