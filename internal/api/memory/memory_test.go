package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/api"
	"spendly/internal/core"
)

func TestSeededLogin(t *testing.T) {
	b := NewSeeded()
	ctx := context.Background()

	resp, err := b.Login(ctx, "demo", "demo")
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, core.UserID("1"), resp.User.ID)

	resp, err = b.Login(ctx, "demo", "nope")
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, "Invalid username or password", resp.Problem())
	assert.Equal(t, 2, b.Calls(OpLogin))
}

func TestCreateUserConflict(t *testing.T) {
	b := NewSeeded()
	ctx := context.Background()

	_, err := b.CreateUser(ctx, core.RegisterForm{Username: "demo", Email: "x@y.z", Password: "abcd"})
	assert.Equal(t, "Username already exists", api.BackendMessage(err))

	resp, err := b.CreateUser(ctx, core.RegisterForm{Username: "ana", Email: "ana@y.z", Password: "abcd"})
	require.NoError(t, err)
	assert.True(t, resp.OK())

	login, err := b.Login(ctx, "ana", "abcd")
	require.NoError(t, err)
	assert.Equal(t, core.UserID("2"), login.User.ID)
}

func TestTransactionsChargeBudgetsAndPage(t *testing.T) {
	b := NewSeeded()
	b.SetClock(func() time.Time { return time.Date(2023, 4, 25, 10, 0, 0, 0, time.UTC) })
	ctx := context.Background()

	resp, err := b.CreateTransaction(ctx, api.NewTransaction{UserID: "1", Item: "Taxi", Category: "Transportation", Amount: core.FromUnits(500)})
	require.NoError(t, err)
	require.True(t, resp.OK())

	budgets, err := b.ListBudgets(ctx, "1")
	require.NoError(t, err)
	transport := budgets[2]
	assert.Equal(t, core.FromUnits(3300), transport.Spent)
	assert.Equal(t, core.FromUnits(-300), transport.Remaining)
	assert.False(t, transport.Healthy())

	page, err := b.ListTransactions(ctx, "1", api.TransactionQuery{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 6, page.TotalCount)
	require.Len(t, page.Transactions, 5)
	assert.Equal(t, "Taxi", page.Transactions[0].Item, "newest first")
	assert.Equal(t, "2023-04-25", page.Transactions[0].Date.String())

	page, err = b.ListTransactions(ctx, "1", api.TransactionQuery{Limit: 5, Offset: 5})
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 1)

	page, err = b.ListTransactions(ctx, "1", api.TransactionQuery{Limit: 10, Category: "Food"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
}

func TestProgressAndStats(t *testing.T) {
	b := NewSeeded()
	ctx := context.Background()

	report, err := b.BudgetProgress(ctx, "1", "")
	require.NoError(t, err)
	items := report.Items()
	require.Len(t, items, 4)
	assert.Equal(t, core.SeverityDanger, items[2].Severity(), "transportation is at 93%")

	only, err := b.BudgetProgress(ctx, "1", "food")
	require.NoError(t, err)
	assert.Len(t, only.Items(), 1)

	stats, err := b.TransactionStats(ctx, "1", "")
	require.NoError(t, err)
	s := stats.Summary()
	assert.Equal(t, core.FromUnits(13800), s.TotalSpent)
	assert.Equal(t, 5, s.Count)
	assert.Equal(t, "Food", s.ByCategory[0].Category)
}

func TestGoalUpdate(t *testing.T) {
	b := NewSeeded()
	ctx := context.Background()

	_, err := b.UpdateGoal(ctx, "1", 2, core.FromUnits(150000))
	require.NoError(t, err)
	goals, err := b.ListGoals(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, core.FromUnits(150000), goals[1].CurrentAmount)

	_, err = b.UpdateGoal(ctx, "1", 99, core.FromUnits(1))
	var rerr *api.RequestError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 404, rerr.Status)
}

func TestChatRoundTrip(t *testing.T) {
	b := NewSeeded()
	ctx := context.Background()

	resp, err := b.SendMessage(ctx, "1", "How is my transportation budget?")
	require.NoError(t, err)
	assert.Contains(t, resp.Response, "Transportation")

	hist, err := b.ChatHistory(ctx, "1", 50)
	require.NoError(t, err)
	msgs := hist.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].FromUser)
	assert.False(t, msgs[1].FromUser)

	hist, err = b.ChatHistory(ctx, "1", 1)
	require.NoError(t, err)
	assert.Len(t, hist.Data, 1)
}

func TestFailNextAndCancelledContext(t *testing.T) {
	b := NewSeeded()
	boom := errors.New("boom")
	b.FailNext(OpListGoals, boom)

	_, err := b.ListGoals(context.Background(), "1")
	assert.ErrorIs(t, err, boom)
	_, err = b.ListGoals(context.Background(), "1")
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.ListBudgets(ctx, "1")
	assert.ErrorIs(t, err, context.Canceled)
}
