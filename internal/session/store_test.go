package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/core"
	"spendly/internal/storage"
	"spendly/internal/storage/memory"
)

var testNow = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestStore(kv storage.KV) *Store {
	s := NewStore(kv, nil)
	s.now = func() time.Time { return testNow }
	return s
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newTestStore(kv)

	want := core.Session{ID: "7", Username: "demo", Email: "demo@example.com"}
	require.NoError(t, s.Save(ctx, want))

	got, ok := s.Load(ctx)
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("loaded session mismatch (-want +got):\n%s", diff)
	}

	raw, err := kv.Get(ctx, KeyCurrentUser)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"username":"demo","email":"demo@example.com"}`, raw)

	require.NoError(t, s.Clear(ctx))
	_, ok = s.Load(ctx)
	assert.False(t, ok)
	assert.Zero(t, kv.Len())
}

func TestStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(memory.New())

	require.NoError(t, s.Save(ctx, core.Session{Username: "first"}))
	require.NoError(t, s.Save(ctx, core.Session{Username: "second"}))

	got, ok := s.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, "second", got.Username)
}

func TestStore_LoadAbsent(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		raw  string
	}{
		{name: "malformed json", raw: `{"username":`},
		{name: "not an object", raw: `"demo"`},
		{name: "missing username", raw: `{"email":"demo@example.com"}`},
		{name: "blank username", raw: `{"username":"   "}`},
		{name: "expired token", raw: `{"username":"demo","token":"` + signedToken(t, testNow.Add(-time.Minute)) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := memory.New()
			require.NoError(t, kv.Set(ctx, KeyCurrentUser, tt.raw))

			_, ok := newTestStore(kv).Load(ctx)
			assert.False(t, ok)
		})
	}

	t.Run("nothing stored", func(t *testing.T) {
		_, ok := newTestStore(memory.New()).Load(ctx)
		assert.False(t, ok)
	})
}

func TestStore_LoadKeepsLiveToken(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newTestStore(kv)

	token := signedToken(t, testNow.Add(time.Hour))
	require.NoError(t, s.Save(ctx, core.Session{Username: "demo", Token: token}))

	got, ok := s.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, token, got.Token)
}

type brokenKV struct{ err error }

func (b brokenKV) Get(context.Context, string) (string, error) { return "", b.err }
func (b brokenKV) Set(context.Context, string, string) error   { return b.err }
func (b brokenKV) Delete(context.Context, string) error        { return b.err }

func TestStore_ReadErrorIsAbsent(t *testing.T) {
	s := newTestStore(brokenKV{err: errors.New("disk gone")})

	_, ok := s.Load(context.Background())
	assert.False(t, ok)
	assert.Error(t, s.Save(context.Background(), core.Session{Username: "demo"}))
	assert.Error(t, s.Clear(context.Background()))
}

func TestTokenExpired(t *testing.T) {
	assert.False(t, TokenExpired("", testNow))
	assert.False(t, TokenExpired("opaque-session-token", testNow))
	assert.False(t, TokenExpired("a.b.c", testNow), "undecodable tokens are left to the backend")
	assert.True(t, TokenExpired(signedToken(t, testNow), testNow))
	assert.False(t, TokenExpired(signedToken(t, testNow.Add(time.Second)), testNow))

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"}).SignedString([]byte("k"))
	require.NoError(t, err)
	assert.False(t, TokenExpired(noExp, testNow))
}
