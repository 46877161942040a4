package pages

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"spendly/internal/api"
	"spendly/internal/core"
	"spendly/internal/log"
	"spendly/internal/resource"
)

const msgDashboardFailed = "Failed to load dashboard data. Please try again later."

// DashboardView is everything the dashboard renders.
type DashboardView struct {
	Username string
	Period   string
	Budgets  []api.BudgetProgressItem
	Goals    []core.Goal
	Stats    api.StatsSummary
	Loading  bool
	Notice   Notice
}

// Dashboard fetches budget progress, goals and spending stats side by side.
type Dashboard struct {
	deps   Deps
	logger *log.Logger

	progress resource.Resource[[]api.BudgetProgressItem]
	goals    resource.Resource[[]core.Goal]
	stats    resource.Resource[api.StatsSummary]
	period   resource.Resource[string]
}

func NewDashboard(deps Deps) *Dashboard {
	deps = deps.withDefaults()
	return &Dashboard{deps: deps, logger: deps.Logger.WithComponent(log.ComponentPages).With("page", "dashboard")}
}

// Load refreshes all three sections concurrently. A failing section keeps
// its previous data; the others still update.
func (d *Dashboard) Load(ctx context.Context, period string) error {
	uid, err := d.deps.userID()
	if err != nil {
		return err
	}
	if period == "" {
		period = api.DefaultStatsPeriod
	}
	d.period.Set(period)
	gw := d.deps.Gateway

	var g errgroup.Group
	g.Go(func() error {
		return settled(d.progress.Load(ctx, "progress/"+uid.String(), func(ctx context.Context) ([]api.BudgetProgressItem, error) {
			report, err := gw.BudgetProgress(ctx, uid, "")
			if err != nil {
				return nil, err
			}
			return report.Items(), nil
		}))
	})
	g.Go(func() error {
		return settled(d.goals.Load(ctx, "goals/"+uid.String(), func(ctx context.Context) ([]core.Goal, error) {
			return gw.ListGoals(ctx, uid)
		}))
	})
	g.Go(func() error {
		return settled(d.stats.Load(ctx, "stats/"+uid.String()+"?period="+period, func(ctx context.Context) (api.StatsSummary, error) {
			report, err := gw.TransactionStats(ctx, uid, period)
			if err != nil {
				return api.StatsSummary{}, err
			}
			return report.Summary(), nil
		}))
	})
	if err := g.Wait(); err != nil {
		d.logger.WarnContext(ctx, "Dashboard load incomplete", log.FieldUserID, uid.String(), log.FieldError, err.Error())
		return fmt.Errorf("load dashboard: %w", err)
	}
	return nil
}

func (d *Dashboard) View() DashboardView {
	progress := d.progress.Snapshot()
	goals := d.goals.Snapshot()
	stats := d.stats.Snapshot()

	v := DashboardView{
		Period:  d.period.Snapshot().Data,
		Budgets: progress.Data,
		Goals:   goals.Data,
		Stats:   stats.Data,
		Loading: progress.Loading || goals.Loading || stats.Loading,
	}
	if sess, ok := d.deps.Identity.Current(); ok {
		v.Username = sess.Username
	}
	if v.Period == "" {
		v.Period = api.DefaultStatsPeriod
	}
	for _, err := range []error{progress.Err, goals.Err, stats.Err} {
		if err != nil {
			v.Notice = Notice{Level: LevelError, Message: ErrorMessage(err, msgDashboardFailed)}
			break
		}
	}
	return v
}

// Dismiss clears the error banner.
func (d *Dashboard) Dismiss() {
	d.progress.Dismiss()
	d.goals.Dismiss()
	d.stats.Dismiss()
}

func (d *Dashboard) Reset() {
	d.progress.Reset()
	d.goals.Reset()
	d.stats.Reset()
	d.period.Reset()
}
