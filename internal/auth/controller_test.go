package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/api"
	apimem "spendly/internal/api/memory"
	"spendly/internal/core"
	"spendly/internal/session"
	"spendly/internal/storage/memory"
)

type stubUsers struct {
	login    *api.LoginResponse
	loginErr error
	create   *api.StatusResponse
	err      error
	calls    int
}

func (s *stubUsers) Login(context.Context, string, string) (*api.LoginResponse, error) {
	s.calls++
	return s.login, s.loginErr
}

func (s *stubUsers) CreateUser(context.Context, core.RegisterForm) (*api.StatusResponse, error) {
	s.calls++
	return s.create, s.err
}

func newController(t *testing.T, users api.UserService) (*Controller, *session.Store, *memory.Store) {
	t.Helper()
	kv := memory.New()
	store := session.NewStore(kv, nil)
	return New(users, store, nil), store, kv
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newController(t, &stubUsers{})

	assert.True(t, c.Status().Resolving)
	assert.Equal(t, DecisionLoading, Guard(c.IsLoggedIn(), c.Status().Resolving))

	st := c.Resolve(ctx)
	assert.False(t, st.Resolving)
	assert.False(t, st.LoggedIn)

	require.NoError(t, store.Save(ctx, core.Session{ID: "7", Username: "ana", Email: "ana@x.io"}))
	st = c.Resolve(ctx)
	assert.True(t, st.LoggedIn)
	assert.Equal(t, "ana", st.User.Username)
}

func TestResolveMalformedSession(t *testing.T) {
	ctx := context.Background()
	c, _, kv := newController(t, &stubUsers{})
	require.NoError(t, kv.Set(ctx, session.KeyCurrentUser, "{not json"))

	st := c.Resolve(ctx)
	assert.False(t, st.LoggedIn)
	assert.False(t, st.Resolving)
}

func TestLoginSuccessPersistsIdentity(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newController(t, apimem.NewSeeded())
	c.Resolve(ctx)

	resp, err := c.Login(ctx, "demo", "demo")
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.True(t, c.IsLoggedIn())

	stored, ok := store.Load(ctx)
	require.True(t, ok)
	if diff := cmp.Diff(resp.User, stored); diff != "" {
		t.Errorf("stored session mismatch (-want +got):\n%s", diff)
	}
	cur, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, resp.User, cur)

	c.Logout(ctx)
	assert.False(t, c.IsLoggedIn())
	_, ok = store.Load(ctx)
	assert.False(t, ok)
	assert.Equal(t, DecisionRedirect, Guard(c.IsLoggedIn(), c.Status().Resolving))
}

func TestLoginRejected(t *testing.T) {
	tests := []struct {
		name    string
		users   *stubUsers
		wantMsg string
	}{
		{
			name:    "backend error field",
			users:   &stubUsers{login: &api.LoginResponse{Status: "error", Error: "bad credentials"}},
			wantMsg: "bad credentials",
		},
		{
			name:    "no explanation",
			users:   &stubUsers{login: &api.LoginResponse{Status: "error"}},
			wantMsg: "Login failed",
		},
		{
			name:    "http error with backend message",
			users:   &stubUsers{loginErr: &api.RequestError{Op: "POST /login", Status: 401, Message: "Invalid username or password", Err: api.ErrUnexpectedStatus}},
			wantMsg: "Invalid username or password",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c, store, _ := newController(t, tt.users)
			c.Resolve(ctx)

			_, err := c.Login(ctx, "ana", "secret")
			var aerr *AuthError
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, tt.wantMsg, aerr.Message)
			assert.False(t, c.IsLoggedIn())
			_, ok := store.Load(ctx)
			assert.False(t, ok)
		})
	}
}

func TestLoginTransportFailureIsReturnedAsIs(t *testing.T) {
	ctx := context.Background()
	rerr := &api.RequestError{Op: "POST /login", Err: context.DeadlineExceeded}
	c, _, _ := newController(t, &stubUsers{loginErr: rerr})
	c.Resolve(ctx)

	_, err := c.Login(ctx, "ana", "secret")
	assert.Same(t, rerr, err)
	assert.False(t, IsAuthError(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestLoginValidatesBeforeCalling(t *testing.T) {
	users := &stubUsers{}
	c, _, _ := newController(t, users)

	_, err := c.Login(context.Background(), "", "")
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("username"))
	assert.Zero(t, users.calls)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newController(t, apimem.NewSeeded())
	c.Resolve(ctx)

	resp, err := c.Register(ctx, core.RegisterForm{Username: "ana", Email: "ana@x.io", Password: "abcd"})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.False(t, c.IsLoggedIn(), "registering does not sign in")

	_, err = c.Register(ctx, core.RegisterForm{Username: "demo", Email: "d@x.io", Password: "abcd"})
	var aerr *AuthError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "Username already exists", aerr.Message)

	_, err = c.Register(ctx, core.RegisterForm{Username: "bob", Email: "nope", Password: "ab"})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("email"))
	assert.True(t, verr.Has("password"))
}

func TestTokenSource(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newController(t, &stubUsers{})
	assert.Empty(t, c.Token(ctx))

	require.NoError(t, store.Save(ctx, core.Session{Username: "ana", Token: "abc"}))
	c.Resolve(ctx)
	assert.Equal(t, "abc", c.Token(ctx))
}
