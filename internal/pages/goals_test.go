package pages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/api/memory"
	"spendly/internal/core"
)

func TestGoalCreateDefaults(t *testing.T) {
	b := memory.NewSeeded()
	g := NewGoals(newDeps(b))
	ctx := context.Background()
	require.NoError(t, g.Load(ctx))

	goal, err := g.Create(ctx, core.GoalForm{GoalName: "Laptop", TargetAmount: "90000"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), goal.ID)
	assert.Equal(t, "other", goal.Category)
	assert.Equal(t, "event", goal.Icon)
	assert.Equal(t, "2023-10-25", goal.Deadline.String())
	assert.Zero(t, goal.CurrentAmount.Cents)
	assert.Len(t, g.View().Goals, 5)
}

func TestGoalProgress(t *testing.T) {
	p := core.Goal{TargetAmount: core.FromUnits(5000), CurrentAmount: core.FromUnits(1500)}.Progress()
	assert.InDelta(t, 30.0, p.Percent, 1e-9)

	p = core.Goal{TargetAmount: core.FromUnits(5000), CurrentAmount: core.FromUnits(6000)}.Progress()
	assert.InDelta(t, 100.0, p.Bar, 1e-9)
	assert.InDelta(t, 120.0, p.Percent, 1e-9)
}

func TestGoalUpdateProgress(t *testing.T) {
	b := memory.NewSeeded()
	g := NewGoals(newDeps(b))
	ctx := context.Background()
	require.NoError(t, g.Load(ctx))

	updated, err := g.UpdateProgress(ctx, 1, "60000")
	require.NoError(t, err)
	assert.Equal(t, core.FromUnits(60000), updated.CurrentAmount)
	assert.Equal(t, core.FromUnits(60000), g.View().Goals[0].CurrentAmount)

	_, err = g.UpdateProgress(ctx, 99, "1")
	assert.ErrorIs(t, err, ErrGoalNotFound)
	assert.Equal(t, LevelWarning, g.UpdateNotice(err).Level)

	_, err = g.UpdateProgress(ctx, 1, "abc")
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, b.Calls(memory.OpUpdateGoal))
}
