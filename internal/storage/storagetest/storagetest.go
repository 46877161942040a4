// Package storagetest holds a behaviour suite every storage.KV must pass.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/storage"
)

// Run exercises kv against the storage.KV contract. kv must start empty.
func Run(t *testing.T, kv storage.KV) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := kv.Get(ctx, "absent")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "currentUser", `{"username":"demo"}`))
		v, err := kv.Get(ctx, "currentUser")
		require.NoError(t, err)
		assert.Equal(t, `{"username":"demo"}`, v)
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "darkMode", "true"))
		require.NoError(t, kv.Set(ctx, "darkMode", "false"))
		v, err := kv.Get(ctx, "darkMode")
		require.NoError(t, err)
		assert.Equal(t, "false", v)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "gone", "x"))
		require.NoError(t, kv.Delete(ctx, "gone"))
		_, err := kv.Get(ctx, "gone")
		require.ErrorIs(t, err, storage.ErrNotFound)
		require.NoError(t, kv.Delete(ctx, "gone"), "deleting a missing key")
	})

	t.Run("concurrent writers", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := fmt.Sprintf("k%d", i)
				assert.NoError(t, kv.Set(ctx, key, key))
			}(i)
		}
		wg.Wait()
		for i := range 8 {
			key := fmt.Sprintf("k%d", i)
			v, err := kv.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, key, v)
		}
	})
}
