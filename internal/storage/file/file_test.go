package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/storage"
	"spendly/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, New(filepath.Join(t.TempDir(), "nested", "state.json")))
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	require.NoError(t, New(path).Set(ctx, "darkMode", "false"))

	v, err := New(path).Get(ctx, "darkMode")
	require.NoError(t, err)
	assert.Equal(t, "false", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := New(path).Get(context.Background(), "currentUser")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_EmptyFileIsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := New(path).Get(context.Background(), "currentUser")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
