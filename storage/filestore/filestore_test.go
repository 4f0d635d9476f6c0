package filestore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relnotes/go-auth-client/storage"
	"github.com/relnotes/go-auth-client/storage/filestore"
)

func TestFileStore(t *testing.T) {
	t.Run("requires a path", func(t *testing.T) {
		_, err := filestore.New("  ")
		require.Error(t, err)
	})

	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "auth_state.json")
		store, err := filestore.New(path)
		require.NoError(t, err)

		require.NoError(t, store.Set("auth_token", "abc"))
		require.NoError(t, store.Set("auth_user", `{"id":"1"}`))

		value, err := store.Get("auth_token")
		require.NoError(t, err)
		require.Equal(t, "abc", value)

		require.NoError(t, store.Remove("auth_token"))
		_, err = store.Get("auth_token")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("survives reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "auth_state.json")

		store, err := filestore.New(path)
		require.NoError(t, err)
		require.NoError(t, store.Set("refresh_token", "r-1"))

		reopened, err := filestore.New(path)
		require.NoError(t, err)
		value, err := reopened.Get("refresh_token")
		require.NoError(t, err)
		require.Equal(t, "r-1", value)
	})

	t.Run("creates missing directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "auth_state.json")
		store, err := filestore.New(path)
		require.NoError(t, err)
		require.NoError(t, store.Set("auth_token", "abc"))

		_, err = os.Stat(path)
		require.NoError(t, err)
	})

	t.Run("rejects a corrupt snapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "auth_state.json")
		require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

		_, err := filestore.New(path)
		require.Error(t, err)
	})
}
