package pages

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"spendly/internal/api"
	"spendly/internal/api/memory"
	"spendly/internal/cache"
	"spendly/internal/core"
	"spendly/internal/resource"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type identity struct {
	sess core.Session
	ok   bool
}

func (i identity) Current() (core.Session, bool) { return i.sess, i.ok }

var fixedNow = time.Date(2023, 4, 25, 9, 0, 0, 0, time.UTC)

func newDeps(b *memory.Backend) Deps {
	return Deps{
		Gateway:    b,
		Identity:   identity{sess: core.Session{ID: "1", Username: "demo"}, ok: true},
		Categories: cache.NewLRUCache[[]string](8, time.Minute),
		Now:        func() time.Time { return fixedNow },
	}
}

type publisher struct {
	mu  sync.Mutex
	txs []core.Transaction
	err error
}

func (p *publisher) PublishTransactionRecorded(_ context.Context, _ core.UserID, tx core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txs = append(p.txs, tx)
	return p.err
}

func TestUserIDFallsBackToDefault(t *testing.T) {
	d := Deps{Identity: identity{sess: core.Session{Username: "ana"}, ok: true}, DefaultUserID: "42"}.withDefaults()
	uid, err := d.userID()
	require.NoError(t, err)
	assert.Equal(t, core.UserID("42"), uid)

	d.Identity = identity{}
	_, err = d.userID()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestErrorMessage(t *testing.T) {
	verr := &core.ValidationError{}
	verr.Add("amount", "is required")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", verr, "validation failed: amount is required"},
		{"backend message", api.Rejected("POST /budget", "Budget exists"), "Budget exists"},
		{"busy", resource.ErrBusy, "Please wait for the previous submission to finish."},
		{"transport", &api.RequestError{Op: "GET /goal/1", Err: context.DeadlineExceeded}, "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.err, "fallback"))
		})
	}
}

func TestSetReset(t *testing.T) {
	b := memory.NewSeeded()
	set := NewSet(newDeps(b))
	ctx := context.Background()

	require.NoError(t, set.Budget.Load(ctx))
	require.NoError(t, set.Goals.Load(ctx))
	require.NotEmpty(t, set.Budget.View().Budgets)

	set.Reset()
	assert.Empty(t, set.Budget.View().Budgets)
	assert.Empty(t, set.Goals.View().Goals)
}

func TestFailedLoadKeepsData(t *testing.T) {
	b := memory.NewSeeded()
	g := NewGoals(newDeps(b))
	ctx := context.Background()

	require.NoError(t, g.Load(ctx))
	before := g.View().Goals

	b.FailNext(memory.OpListGoals, &api.RequestError{Op: "GET /goal/1", Err: errors.New("connection refused")})
	require.Error(t, g.Load(ctx))

	v := g.View()
	assert.Equal(t, before, v.Goals)
	assert.Equal(t, LevelError, v.Notice.Level)
	assert.Equal(t, "Failed to load goals. Please try again.", v.Notice.Message)

	g.Dismiss()
	assert.True(t, g.View().Notice.Empty())
}
