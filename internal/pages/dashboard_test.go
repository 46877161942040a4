package pages

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/api/memory"
	"spendly/internal/core"
)

func TestDashboardLoad(t *testing.T) {
	b := memory.NewSeeded()
	d := NewDashboard(newDeps(b))

	require.NoError(t, d.Load(context.Background(), ""))
	v := d.View()
	assert.Equal(t, "demo", v.Username)
	assert.Equal(t, "month", v.Period)
	assert.Len(t, v.Budgets, 4)
	assert.Len(t, v.Goals, 4)
	assert.Equal(t, core.FromUnits(13800), v.Stats.TotalSpent)
	assert.True(t, v.Notice.Empty())
	assert.False(t, v.Loading)
}

func TestDashboardPartialFailure(t *testing.T) {
	b := memory.NewSeeded()
	d := NewDashboard(newDeps(b))
	ctx := context.Background()

	b.FailNext(memory.OpTransactionStats, errors.New("boom"))
	err := d.Load(ctx, "week")
	require.Error(t, err)

	v := d.View()
	assert.Len(t, v.Budgets, 4, "other sections still load")
	assert.Len(t, v.Goals, 4)
	assert.True(t, v.Stats.Empty())
	assert.Equal(t, "week", v.Period)
	assert.Equal(t, "Failed to load dashboard data. Please try again later.", v.Notice.Message)

	d.Dismiss()
	assert.True(t, d.View().Notice.Empty())
}

func TestDashboardRequiresLogin(t *testing.T) {
	deps := newDeps(memory.NewSeeded())
	deps.Identity = identity{}
	err := NewDashboard(deps).Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}
