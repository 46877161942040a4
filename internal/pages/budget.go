package pages

import (
	"context"
	"fmt"

	"spendly/internal/api"
	"spendly/internal/core"
	"spendly/internal/log"
	"spendly/internal/resource"
)

const (
	msgBudgetsLoadFailed   = "Failed to load budgets. Please try again."
	msgBudgetCreateFailed  = "Failed to create budget. Please try again."
	msgBudgetCreateSuccess = "Budget created successfully!"
)

type BudgetView struct {
	Budgets    []core.Budget
	Categories []string
	Periods    []string
	Loading    bool
	Busy       bool
	Notice     Notice
}

type Budget struct {
	deps    Deps
	logger  *log.Logger
	budgets resource.Resource[[]core.Budget]
}

func NewBudget(deps Deps) *Budget {
	deps = deps.withDefaults()
	return &Budget{deps: deps, logger: deps.Logger.WithComponent(log.ComponentPages).With("page", "budget")}
}

func (b *Budget) Load(ctx context.Context) error {
	uid, err := b.deps.userID()
	if err != nil {
		return err
	}
	err = settled(b.budgets.Load(ctx, "budgets/"+uid.String(), func(ctx context.Context) ([]core.Budget, error) {
		return b.deps.Gateway.ListBudgets(ctx, uid)
	}))
	if err != nil {
		b.logger.WarnContext(ctx, "Failed to load budgets", log.FieldUserID, uid.String(), log.FieldError, err.Error())
		return fmt.Errorf("load budgets: %w", err)
	}
	if b.deps.Categories != nil {
		b.deps.Categories.Set(uid.String(), core.Categories(b.budgets.Snapshot().Data))
	}
	return nil
}

// Create validates the form, sends it and appends the new budget locally
// with a synthesized id, nothing spent and the full amount remaining.
func (b *Budget) Create(ctx context.Context, form core.BudgetForm) (core.Budget, error) {
	uid, err := b.deps.userID()
	if err != nil {
		return core.Budget{}, err
	}
	budget, err := form.Parse(b.deps.Now())
	if err != nil {
		return core.Budget{}, err
	}

	err = b.budgets.Mutate(ctx, func(ctx context.Context) error {
		_, err := b.deps.Gateway.CreateBudget(ctx, api.NewBudgetFor(uid, budget))
		return err
	}, func(list []core.Budget) []core.Budget {
		budget.ID = core.NextID(list, func(x core.Budget) int64 { return x.ID })
		budget.Spent = core.Money{}
		budget.Remaining = budget.Amount
		return append(list, budget)
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	if b.deps.Categories != nil {
		b.deps.Categories.Delete(uid.String())
	}
	b.logger.InfoContext(ctx, "Budget created", log.FieldUserID, uid.String(), log.FieldCategory, budget.Category)
	return budget, nil
}

func (b *Budget) View() BudgetView {
	s := b.budgets.Snapshot()
	v := BudgetView{
		Budgets:    s.Data,
		Categories: core.BudgetCategories,
		Periods:    []string{core.PeriodWeekly, core.PeriodMonthly, core.PeriodYearly},
		Loading:    s.Loading,
		Busy:       s.Busy,
	}
	if s.Err != nil {
		v.Notice = Notice{Level: LevelError, Message: ErrorMessage(s.Err, msgBudgetsLoadFailed)}
	}
	return v
}

// CreateNotice describes the outcome of Create for the user.
func (b *Budget) CreateNotice(err error) Notice {
	if err == nil {
		return Notice{Level: LevelSuccess, Message: msgBudgetCreateSuccess}
	}
	return Notice{Level: LevelError, Message: ErrorMessage(err, msgBudgetCreateFailed)}
}

func (b *Budget) Dismiss() { b.budgets.Dismiss() }

func (b *Budget) Reset() { b.budgets.Reset() }
