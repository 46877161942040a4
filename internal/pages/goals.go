package pages

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"spendly/internal/api"
	"spendly/internal/core"
	"spendly/internal/log"
	"spendly/internal/resource"
)

const (
	msgGoalsLoadFailed   = "Failed to load goals. Please try again."
	msgGoalCreateFailed  = "Failed to create goal. Please try again."
	msgGoalCreateSuccess = "Goal created successfully!"
	msgGoalUpdateFailed  = "Failed to update goal progress. Please try again."
	msgGoalUpdateSuccess = "Goal progress updated."
)

var ErrGoalNotFound = errors.New("goal not found")

type GoalsView struct {
	Goals      []core.Goal
	Categories []core.GoalCategory
	Loading    bool
	Busy       bool
	Notice     Notice
}

type Goals struct {
	deps   Deps
	logger *log.Logger
	goals  resource.Resource[[]core.Goal]
}

func NewGoals(deps Deps) *Goals {
	deps = deps.withDefaults()
	return &Goals{deps: deps, logger: deps.Logger.WithComponent(log.ComponentPages).With("page", "goals")}
}

func (g *Goals) Load(ctx context.Context) error {
	uid, err := g.deps.userID()
	if err != nil {
		return err
	}
	err = settled(g.goals.Load(ctx, "goals/"+uid.String(), func(ctx context.Context) ([]core.Goal, error) {
		return g.deps.Gateway.ListGoals(ctx, uid)
	}))
	if err != nil {
		g.logger.WarnContext(ctx, "Failed to load goals", log.FieldUserID, uid.String(), log.FieldError, err.Error())
		return fmt.Errorf("load goals: %w", err)
	}
	return nil
}

// Create validates the form, sends it and appends the goal locally with a
// synthesized id.
func (g *Goals) Create(ctx context.Context, form core.GoalForm) (core.Goal, error) {
	uid, err := g.deps.userID()
	if err != nil {
		return core.Goal{}, err
	}
	goal, err := form.Parse(g.deps.Now())
	if err != nil {
		return core.Goal{}, err
	}

	err = g.goals.Mutate(ctx, func(ctx context.Context) error {
		_, err := g.deps.Gateway.CreateGoal(ctx, api.NewGoalFor(uid, goal))
		return err
	}, func(list []core.Goal) []core.Goal {
		goal.ID = core.NextID(list, func(x core.Goal) int64 { return x.ID })
		return append(list, goal)
	})
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	g.logger.InfoContext(ctx, "Goal created", log.FieldUserID, uid.String(), "goal", goal.GoalName)
	return goal, nil
}

// UpdateProgress sets a goal's saved amount and replaces the local record on success.
func (g *Goals) UpdateProgress(ctx context.Context, goalID int64, amount string) (core.Goal, error) {
	uid, err := g.deps.userID()
	if err != nil {
		return core.Goal{}, err
	}
	cents, err := core.ParseNonNegativeCents(amount)
	if err != nil {
		verr := &core.ValidationError{}
		verr.Add("current_amount", "must be zero or a positive number")
		return core.Goal{}, verr
	}
	current := core.Money{Cents: cents}

	var updated core.Goal
	if !slices.ContainsFunc(g.goals.Snapshot().Data, func(x core.Goal) bool { return x.ID == goalID }) {
		return core.Goal{}, ErrGoalNotFound
	}

	err = g.goals.Mutate(ctx, func(ctx context.Context) error {
		_, err := g.deps.Gateway.UpdateGoal(ctx, uid, goalID, current)
		return err
	}, func(list []core.Goal) []core.Goal {
		out := make([]core.Goal, len(list))
		copy(out, list)
		for i := range out {
			if out[i].ID == goalID {
				out[i].CurrentAmount = current
				updated = out[i]
			}
		}
		return out
	})
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal %d: %w", goalID, err)
	}
	return updated, nil
}

func (g *Goals) View() GoalsView {
	s := g.goals.Snapshot()
	v := GoalsView{
		Goals:      s.Data,
		Categories: core.GoalCategories,
		Loading:    s.Loading,
		Busy:       s.Busy,
	}
	if s.Err != nil {
		v.Notice = Notice{Level: LevelError, Message: ErrorMessage(s.Err, msgGoalsLoadFailed)}
	}
	return v
}

func (g *Goals) CreateNotice(err error) Notice {
	if err == nil {
		return Notice{Level: LevelSuccess, Message: msgGoalCreateSuccess}
	}
	return Notice{Level: LevelError, Message: ErrorMessage(err, msgGoalCreateFailed)}
}

func (g *Goals) UpdateNotice(err error) Notice {
	switch {
	case err == nil:
		return Notice{Level: LevelSuccess, Message: msgGoalUpdateSuccess}
	case errors.Is(err, ErrGoalNotFound):
		return Notice{Level: LevelWarning, Message: "That goal no longer exists. Reload the page."}
	default:
		return Notice{Level: LevelError, Message: ErrorMessage(err, msgGoalUpdateFailed)}
	}
}

func (g *Goals) Dismiss() { g.goals.Dismiss() }

func (g *Goals) Reset() { g.goals.Reset() }
