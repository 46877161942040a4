package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"spendly/internal/api"
	"spendly/internal/cli"
	"spendly/internal/core"
)

const barWidth = 20

func newDashboardCmd(get func() *app) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Budget progress, goals and spending statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if err := signedIn(a); err != nil {
				return err
			}
			_ = a.pages.Dashboard.Load(cmd.Context(), period)
			v := a.pages.Dashboard.View()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, cli.RenderTitle("Welcome back, "+v.Username))
			if n := cli.RenderNotice(v.Notice); n != "" {
				fmt.Fprintln(out, n)
			}

			stats := cli.Table{Title: "Spending this " + v.Period, Headers: []string{"Category", "Total"}}
			for _, c := range v.Stats.ByCategory {
				stats.Rows = append(stats.Rows, []string{c.Category, c.Total.String()})
			}
			fmt.Fprint(out, cli.RenderTable(stats))
			fmt.Fprintf(out, "Total %s across %d transactions\n\n", v.Stats.TotalSpent, v.Stats.Count)

			progress := cli.Table{Title: "Budget progress", Headers: []string{"Category", "Spent", "Budget", "Progress"}}
			for _, b := range v.Budgets {
				progress.Rows = append(progress.Rows, []string{
					b.Category, b.Spent.String(), b.Amount.String(),
					cli.RenderBar(b.Progress(), barWidth, b.Severity()),
				})
			}
			fmt.Fprint(out, cli.RenderTable(progress))
			fmt.Fprint(out, goalTable(v.Goals))
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", api.DefaultStatsPeriod, "Statistics period (week, month, year)")
	return cmd
}

func newTransactionsCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List or record transactions",
	}

	var page, limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "Show one page of transaction history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if err := signedIn(a); err != nil {
				return err
			}
			if page < 1 {
				page = 1
			}
			err := a.pages.Transactions.Load(cmd.Context(), page-1, api.NormalizePageSize(limit))
			v := a.pages.Transactions.View(cmd.Context())
			if err != nil {
				return failure(v.Notice, err)
			}
			t := cli.Table{Title: "Transactions", Headers: []string{"Date", "Item", "Category", "Amount", "Label"}}
			for _, tx := range v.Page.Items {
				t.Rows = append(t.Rows, []string{tx.Date.String(), tx.Item, tx.Category, tx.Amount.String(), tx.Label})
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(t))
			fmt.Fprintln(cmd.OutOrStdout(), cli.Muted(fmt.Sprintf("%s · page %d of %d", v.Page.RangeLabel(), v.Page.Page+1, v.Page.Pages())))
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	list.Flags().IntVar(&limit, "limit", api.DefaultPageSize, "Rows per page (5, 10 or 25)")

	var form core.TransactionForm
	add := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if err := signedIn(a); err != nil {
				return err
			}
			_, err := a.pages.Transactions.Create(cmd.Context(), form)
			n := a.pages.Transactions.CreateNotice(err)
			if err != nil {
				return failure(n, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderNotice(n))
			return nil
		},
	}
	add.Flags().StringVar(&form.Item, "item", "", "What was bought")
	add.Flags().StringVar(&form.Category, "category", "", "Spending category")
	add.Flags().StringVar(&form.Amount, "amount", "", "Amount, e.g. 12.50")
	add.Flags().StringVar(&form.Date, "date", "", "Date as YYYY-MM-DD (default today)")
	add.Flags().StringVar(&form.Label, "label", "", "Optional note")

	cmd.AddCommand(list, add)
	return cmd
}

func newBudgetsCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "List or create budgets",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show budgets and how much of each is spent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if err := signedIn(a); err != nil {
				return err
			}
			err := a.pages.Budget.Load(cmd.Context())
			v := a.pages.Budget.View()
			if err != nil {
				return failure(v.Notice, err)
			}
			t := cli.Table{Title: "Budgets", Headers: []string{"Category", "Period", "Spent", "Budget", "Remaining", "Progress"}}
			for _, b := range v.Budgets {
				t.Rows = append(t.Rows, []string{
					b.Category, b.Period, b.Spent.String(), b.Amount.String(), b.Remaining.String(),
					cli.RenderBar(b.Progress(), barWidth, b.Severity()),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(t))
			return nil
		},
	}

	var form core.BudgetForm
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a budget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if err := signedIn(a); err != nil {
				return err
			}
			if err := a.pages.Budget.Load(cmd.Context()); err != nil {
				return failure(a.pages.Budget.View().Notice, err)
			}
			_, err := a.pages.Budget.Create(cmd.Context(), form)
			n := a.pages.Budget.CreateNotice(err)
			if err != nil {
				return failure(n, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderNotice(n))
			return nil
		},
	}
	add.Flags().StringVar(&form.Category, "category", "", "Budget category")
	add.Flags().StringVar(&form.Amount, "amount", "", "Budget amount")
	add.Flags().StringVar(&form.Period, "period", core.PeriodMonthly, "weekly, monthly or yearly")
	add.Flags().StringVar(&form.StartDate, "start", "", "Start date as YYYY-MM-DD (default today)")
	add.Flags().StringVar(&form.EndDate, "end", "", "Optional end date as YYYY-MM-DD")

	cmd.AddCommand(list, add)
	return cmd
}

func goalTable(goals []core.Goal) string {
	t := cli.Table{Title: "Goals", Headers: []string{"ID", "Goal", "Saved", "Target", "Deadline", "Progress"}}
	for _, g := range goals {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(g.ID, 10), g.GoalName, g.CurrentAmount.String(), g.TargetAmount.String(),
			g.Deadline.String(), cli.RenderBar(g.Progress(), barWidth, core.SeverityNormal),
		})
	}
	return cli.RenderTable(t)
}

func newGoalsCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "List, create or update savings goals",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show savings goals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if err := signedIn(a); err != nil {
				return err
			}
			err := a.pages.Goals.Load(cmd.Context())
			v := a.pages.Goals.View()
			if err != nil {
				return failure(v.Notice, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), goalTable(v.Goals))
			return nil
		},
	}

	var form core.GoalForm
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a savings goal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if err := signedIn(a); err != nil {
				return err
			}
			if err := a.pages.Goals.Load(cmd.Context()); err != nil {
				return failure(a.pages.Goals.View().Notice, err)
			}
			_, err := a.pages.Goals.Create(cmd.Context(), form)
			n := a.pages.Goals.CreateNotice(err)
			if err != nil {
				return failure(n, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderNotice(n))
			return nil
		},
	}
	add.Flags().StringVar(&form.GoalName, "name", "", "Goal name")
	add.Flags().StringVar(&form.TargetAmount, "target", "", "Target amount")
	add.Flags().StringVar(&form.CurrentAmount, "saved", "", "Amount already saved")
	add.Flags().StringVar(&form.Deadline, "deadline", "", "Deadline as YYYY-MM-DD (default in six months)")
	add.Flags().StringVar(&form.Category, "category", "", "Goal category (electronics, travel, education, ...)")

	progress := &cobra.Command{
		Use:   "progress GOAL_ID AMOUNT",
		Short: "Set how much has been saved towards a goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := signedIn(a); err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid goal id %q", args[0])
			}
			if err := a.pages.Goals.Load(cmd.Context()); err != nil {
				return failure(a.pages.Goals.View().Notice, err)
			}
			g, err := a.pages.Goals.UpdateProgress(cmd.Context(), id, args[1])
			n := a.pages.Goals.UpdateNotice(err)
			if err != nil {
				return failure(n, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderNotice(n))
			fmt.Fprintln(cmd.OutOrStdout(), g.GoalName, cli.RenderBar(g.Progress(), barWidth, core.SeverityNormal))
			return nil
		},
	}

	cmd.AddCommand(list, add, progress)
	return cmd
}
