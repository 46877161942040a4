// Package memory is an in-process stand-in for the backend. It serves local
// demos (API_BACKEND=memory) and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"spendly/internal/api"
	"spendly/internal/core"
)

// Operation names accepted by FailNext and Calls.
const (
	OpLogin             = "Login"
	OpCreateUser        = "CreateUser"
	OpCreateBudget      = "CreateBudget"
	OpListBudgets       = "ListBudgets"
	OpBudgetProgress    = "BudgetProgress"
	OpCreateGoal        = "CreateGoal"
	OpListGoals         = "ListGoals"
	OpUpdateGoal        = "UpdateGoal"
	OpCreateTransaction = "CreateTransaction"
	OpListTransactions  = "ListTransactions"
	OpTransactionStats  = "TransactionStats"
	OpSendMessage       = "SendMessage"
	OpChatHistory       = "ChatHistory"
)

type user struct {
	session  core.Session
	password string
}

type Backend struct {
	mu         sync.Mutex
	users      map[string]user
	nextUserID int64
	budgets    map[core.UserID][]core.Budget
	goals      map[core.UserID][]core.Goal
	txs        map[core.UserID][]core.Transaction
	chats      map[core.UserID][]api.ChatHistoryItem
	failures   map[string][]error
	calls      map[string]int
	now        func() time.Time
}

var _ api.Gateway = (*Backend)(nil)

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		users:      make(map[string]user),
		nextUserID: 1,
		budgets:    make(map[core.UserID][]core.Budget),
		goals:      make(map[core.UserID][]core.Goal),
		txs:        make(map[core.UserID][]core.Transaction),
		chats:      make(map[core.UserID][]api.ChatHistoryItem),
		failures:   make(map[string][]error),
		calls:      make(map[string]int),
		now:        time.Now,
	}
}

// NewSeeded returns a backend holding the demo account (demo/demo, id 1)
// with sample budgets, goals and transactions.
func NewSeeded() *Backend {
	b := New()
	id := b.AddUser("demo", "demo@spendly.local", "demo")
	b.budgets[id] = []core.Budget{
		seedBudget(1, "Food", 10000, 7500),
		seedBudget(2, "Entertainment", 5000, 2000),
		seedBudget(3, "Transportation", 3000, 2800),
		seedBudget(4, "Shopping", 8000, 1500),
	}
	b.goals[id] = []core.Goal{
		{ID: 1, GoalName: "New iPhone", TargetAmount: core.FromUnits(80000), CurrentAmount: core.FromUnits(45000), Deadline: core.NewDate(2023, 8, 15), Category: "electronics", Icon: "phone"},
		{ID: 2, GoalName: "Trip to Bali", TargetAmount: core.FromUnits(200000), CurrentAmount: core.FromUnits(120000), Deadline: core.NewDate(2023, 12, 1), Category: "travel", Icon: "flight"},
		{ID: 3, GoalName: "Coding Bootcamp", TargetAmount: core.FromUnits(50000), CurrentAmount: core.FromUnits(30000), Deadline: core.NewDate(2023, 6, 30), Category: "education", Icon: "school"},
		{ID: 4, GoalName: "Emergency Fund", TargetAmount: core.FromUnits(300000), CurrentAmount: core.FromUnits(75000), Deadline: core.NewDate(2024, 1, 1), Category: "other", Icon: "event"},
	}
	b.txs[id] = []core.Transaction{
		{ID: 1, Item: "Groceries", Category: "Food", Amount: core.FromUnits(4500), Date: core.NewDate(2023, 4, 3), Label: "weekly shop"},
		{ID: 2, Item: "Movie night", Category: "Entertainment", Amount: core.FromUnits(2000), Date: core.NewDate(2023, 4, 8)},
		{ID: 3, Item: "Metro card", Category: "Transportation", Amount: core.FromUnits(2800), Date: core.NewDate(2023, 4, 10)},
		{ID: 4, Item: "Restaurant", Category: "Food", Amount: core.FromUnits(3000), Date: core.NewDate(2023, 4, 14)},
		{ID: 5, Item: "Sneakers", Category: "Shopping", Amount: core.FromUnits(1500), Date: core.NewDate(2023, 4, 20)},
	}
	return b
}

func seedBudget(id int64, category string, amount, spent int64) core.Budget {
	return core.Budget{
		ID:        id,
		Category:  category,
		Amount:    core.FromUnits(amount),
		Spent:     core.FromUnits(spent),
		Remaining: core.FromUnits(amount - spent),
		Period:    core.PeriodMonthly,
		StartDate: core.NewDate(2023, 4, 1),
		EndDate:   core.NewDate(2023, 4, 30),
	}
}

// AddUser registers an account and returns its id.
func (b *Backend) AddUser(username, email, password string) core.UserID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(username, email, password)
}

func (b *Backend) addUserLocked(username, email, password string) core.UserID {
	id := core.UserID(strconv.FormatInt(b.nextUserID, 10))
	b.nextUserID++
	b.users[username] = user{
		session:  core.Session{ID: id, Username: username, Email: email},
		password: password,
	}
	return id
}

// FailNext makes the next call of op return err. Calls queue in order.
func (b *Backend) FailNext(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[op] = append(b.failures[op], err)
}

// Calls returns how many times op was invoked.
func (b *Backend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// SetClock replaces the time source.
func (b *Backend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// enter records the call and pops a queued failure. Callers hold b.mu.
func (b *Backend) enter(ctx context.Context, op string) error {
	b.calls[op]++
	if err := ctx.Err(); err != nil {
		return &api.RequestError{Op: op, Err: err}
	}
	if q := b.failures[op]; len(q) > 0 {
		err := q[0]
		b.failures[op] = q[1:]
		return err
	}
	return nil
}

func rejected(op string, status int, msg string) error {
	return &api.RequestError{Op: op, Status: status, Message: msg, Err: api.ErrUnexpectedStatus}
}

func (b *Backend) Login(ctx context.Context, username, password string) (*api.LoginResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpLogin); err != nil {
		return nil, err
	}
	u, ok := b.users[username]
	if !ok || u.password != password {
		return &api.LoginResponse{Status: "error", Error: "Invalid username or password"}, nil
	}
	return &api.LoginResponse{Status: api.StatusSuccess, User: u.session}, nil
}

func (b *Backend) CreateUser(ctx context.Context, form core.RegisterForm) (*api.StatusResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpCreateUser); err != nil {
		return nil, err
	}
	if _, exists := b.users[form.Username]; exists {
		return nil, rejected("POST /user", http.StatusConflict, "Username already exists")
	}
	b.addUserLocked(form.Username, form.Email, form.Password)
	return &api.StatusResponse{Status: api.StatusSuccess, Message: "User created successfully"}, nil
}

func (b *Backend) CreateBudget(ctx context.Context, nb api.NewBudget) (json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpCreateBudget); err != nil {
		return nil, err
	}
	if nb.Category == "" || nb.Amount.Cents <= 0 {
		return nil, rejected("POST /budget", http.StatusBadRequest, "category and amount are required")
	}
	list := b.budgets[nb.UserID]
	budget := core.Budget{
		ID:        core.NextID(list, func(x core.Budget) int64 { return x.ID }),
		Category:  nb.Category,
		Amount:    nb.Amount,
		Remaining: nb.Amount,
		Period:    nb.Period,
		StartDate: nb.StartDate,
		EndDate:   nb.EndDate,
	}
	b.budgets[nb.UserID] = append(list, budget)
	return json.Marshal(map[string]any{"status": api.StatusSuccess, "budget_id": budget.ID})
}

func (b *Backend) ListBudgets(ctx context.Context, userID core.UserID) ([]core.Budget, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpListBudgets); err != nil {
		return nil, err
	}
	return slices.Clone(b.budgets[userID]), nil
}

func (b *Backend) BudgetProgress(ctx context.Context, userID core.UserID, category string) (*api.BudgetProgressReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpBudgetProgress); err != nil {
		return nil, err
	}
	items := make([]api.BudgetProgressItem, 0, len(b.budgets[userID]))
	for _, bu := range b.budgets[userID] {
		if category != "" && !strings.EqualFold(bu.Category, category) {
			continue
		}
		pct := bu.Progress().Percent
		items = append(items, api.BudgetProgressItem{
			Category:   bu.Category,
			Amount:     bu.Amount,
			Spent:      bu.Spent,
			Remaining:  bu.Remaining,
			Percentage: &pct,
		})
	}
	raw, err := json.Marshal(map[string]any{"status": api.StatusSuccess, "data": items})
	if err != nil {
		return nil, err
	}
	return &api.BudgetProgressReport{Raw: raw}, nil
}

func (b *Backend) CreateGoal(ctx context.Context, ng api.NewGoal) (json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpCreateGoal); err != nil {
		return nil, err
	}
	if ng.GoalName == "" || ng.TargetAmount.Cents <= 0 {
		return nil, rejected("POST /goal", http.StatusBadRequest, "goal_name and target_amount are required")
	}
	list := b.goals[ng.UserID]
	goal := core.Goal{
		ID:            core.NextID(list, func(x core.Goal) int64 { return x.ID }),
		GoalName:      ng.GoalName,
		TargetAmount:  ng.TargetAmount,
		CurrentAmount: ng.CurrentAmount,
		Deadline:      ng.Deadline,
		Category:      ng.Category,
		Icon:          ng.Icon,
	}
	b.goals[ng.UserID] = append(list, goal)
	return json.Marshal(map[string]any{"status": api.StatusSuccess, "goal_id": goal.ID})
}

func (b *Backend) ListGoals(ctx context.Context, userID core.UserID) ([]core.Goal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpListGoals); err != nil {
		return nil, err
	}
	return slices.Clone(b.goals[userID]), nil
}

func (b *Backend) UpdateGoal(ctx context.Context, userID core.UserID, goalID int64, current core.Money) (json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpUpdateGoal); err != nil {
		return nil, err
	}
	if current.Cents < 0 {
		return nil, rejected(fmt.Sprintf("PUT /goal/%s/%d", userID, goalID), http.StatusBadRequest, "current_amount must not be negative")
	}
	list := b.goals[userID]
	for i := range list {
		if list[i].ID == goalID {
			list[i].CurrentAmount = current
			return json.Marshal(map[string]any{"status": api.StatusSuccess, "goal": list[i]})
		}
	}
	return nil, rejected(fmt.Sprintf("PUT /goal/%s/%d", userID, goalID), http.StatusNotFound, "Goal not found")
}

// CreateTransaction stores t and charges it to the budget of the same category.
func (b *Backend) CreateTransaction(ctx context.Context, nt api.NewTransaction) (*api.StatusResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpCreateTransaction); err != nil {
		return nil, err
	}
	if nt.Item == "" || nt.Category == "" || nt.Amount.Cents <= 0 {
		return &api.StatusResponse{Status: "error", Error: "item, category and amount are required"}, nil
	}
	list := b.txs[nt.UserID]
	tx := core.Transaction{
		ID:       core.NextID(list, func(x core.Transaction) int64 { return x.ID }),
		Item:     nt.Item,
		Category: nt.Category,
		Amount:   nt.Amount,
		Date:     nt.Date,
		Label:    nt.Label,
	}
	if tx.Date.IsZero() {
		tx.Date = core.Today(b.now())
	}
	b.txs[nt.UserID] = append(list, tx)

	budgets := b.budgets[nt.UserID]
	for i := range budgets {
		if budgets[i].Category == tx.Category {
			budgets[i].Spent.Cents += tx.Amount.Cents
			budgets[i].Remaining = budgets[i].Amount.Sub(budgets[i].Spent)
		}
	}
	return &api.StatusResponse{Status: api.StatusSuccess, Message: "Transaction recorded"}, nil
}

// ListTransactions pages newest first.
func (b *Backend) ListTransactions(ctx context.Context, userID core.UserID, q api.TransactionQuery) (*api.TransactionPage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpListTransactions); err != nil {
		return nil, err
	}
	var matching []core.Transaction
	for _, tx := range b.txs[userID] {
		if q.Category == "" || tx.Category == q.Category {
			matching = append(matching, tx)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		if !matching[i].Date.Equal(matching[j].Date.Time) {
			return matching[i].Date.After(matching[j].Date.Time)
		}
		return matching[i].ID > matching[j].ID
	})

	limit := q.Limit
	if limit <= 0 {
		limit = api.DefaultPageSize
	}
	start := min(max(q.Offset, 0), len(matching))
	end := min(start+limit, len(matching))
	return &api.TransactionPage{
		Status:       api.StatusSuccess,
		Transactions: slices.Clone(matching[start:end]),
		TotalCount:   len(matching),
	}, nil
}

func (b *Backend) TransactionStats(ctx context.Context, userID core.UserID, period string) (*api.StatsReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpTransactionStats); err != nil {
		return nil, err
	}
	if period == "" {
		period = api.DefaultStatsPeriod
	}
	var total int64
	byCategory := map[string]core.Money{}
	for _, tx := range b.txs[userID] {
		total += tx.Amount.Cents
		m := byCategory[tx.Category]
		m.Cents += tx.Amount.Cents
		byCategory[tx.Category] = m
	}
	raw, err := json.Marshal(map[string]any{
		"status":            api.StatusSuccess,
		"period":            period,
		"total_spent":       core.Money{Cents: total},
		"transaction_count": len(b.txs[userID]),
		"by_category":       byCategory,
	})
	if err != nil {
		return nil, err
	}
	return &api.StatsReport{Raw: raw}, nil
}

func (b *Backend) SendMessage(ctx context.Context, userID core.UserID, message string) (*api.ChatResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpSendMessage); err != nil {
		return nil, err
	}
	now := b.now().UTC().Format(time.RFC3339)
	reply := b.adviseLocked(userID, message)
	b.chats[userID] = append(b.chats[userID],
		api.ChatHistoryItem{Message: message, Sender: api.SenderUser, Timestamp: now},
		api.ChatHistoryItem{Message: reply, Sender: api.SenderBot, Timestamp: now},
	)
	return &api.ChatResponse{Response: reply}, nil
}

// ChatHistory returns the latest limit messages, oldest first.
func (b *Backend) ChatHistory(ctx context.Context, userID core.UserID, limit int) (*api.ChatHistoryResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpChatHistory); err != nil {
		return nil, err
	}
	items := b.chats[userID]
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	return &api.ChatHistoryResponse{Success: true, Data: slices.Clone(items)}, nil
}

// adviseLocked answers from the user's own budgets.
func (b *Backend) adviseLocked(userID core.UserID, message string) string {
	lower := strings.ToLower(message)
	for _, bu := range b.budgets[userID] {
		if strings.Contains(lower, strings.ToLower(bu.Category)) {
			if !bu.Healthy() {
				return fmt.Sprintf("Your %s budget is used up: %s spent of %s. Try to hold off on %s purchases until the next period.",
					bu.Category, bu.Spent, bu.Amount, strings.ToLower(bu.Category))
			}
			return fmt.Sprintf("You have %s left in your %s budget (%.0f%% used).",
				bu.Remaining, bu.Category, bu.Progress().Percent)
		}
	}
	var tight []string
	for _, bu := range b.budgets[userID] {
		if bu.Severity() != core.SeverityNormal {
			tight = append(tight, bu.Category)
		}
	}
	if len(tight) > 0 {
		return "Keep an eye on " + strings.Join(tight, ", ") + ": those budgets are close to their limit."
	}
	return "Your budgets look healthy. Setting aside a fixed amount for your goals each month is a good next step."
}
