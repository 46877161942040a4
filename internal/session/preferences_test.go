package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/storage/memory"
)

func TestPreferences_DarkModeDefault(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	p := NewPreferences(kv, nil)

	assert.True(t, p.DarkMode(ctx), "dark mode is the default")

	require.NoError(t, kv.Set(ctx, KeyDarkMode, "maybe"))
	assert.True(t, p.DarkMode(ctx), "unparsable values fall back to dark")

	assert.True(t, NewPreferences(brokenKV{err: errors.New("io")}, nil).DarkMode(ctx))
}

func TestPreferences_SetAndToggle(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	p := NewPreferences(kv, nil)

	require.NoError(t, p.SetDarkMode(ctx, false))
	raw, err := kv.Get(ctx, KeyDarkMode)
	require.NoError(t, err)
	assert.Equal(t, "false", raw)
	assert.False(t, p.DarkMode(ctx))

	dark, err := p.ToggleDarkMode(ctx)
	require.NoError(t, err)
	assert.True(t, dark)
	assert.True(t, p.DarkMode(ctx))
}
