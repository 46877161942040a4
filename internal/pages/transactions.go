package pages

import (
	"context"
	"errors"
	"fmt"

	"spendly/internal/api"
	"spendly/internal/core"
	"spendly/internal/log"
	"spendly/internal/resource"
)

const (
	msgTransactionsLoadFailed = "Failed to load transaction history. Please try again."
	msgTransactionFailed      = "Failed to record transaction. Please try again."
	msgTransactionSuccess     = "Transaction recorded successfully!"
	msgRequiredFields         = "Please fill in all required fields"
)

// TransactionPage is one page of the user's history.
type TransactionPage struct {
	Items []core.Transaction
	Total int
	// Page is zero-based.
	Page  int
	Limit int
}

// Pages returns the number of pages, at least one.
func (p TransactionPage) Pages() int {
	if p.Limit <= 0 || p.Total <= p.Limit {
		return 1
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// RangeLabel describes the rows shown, e.g. "6-10 of 12".
func (p TransactionPage) RangeLabel() string {
	from, to := p.Range()
	return fmt.Sprintf("%d-%d of %d", from, to, p.Total)
}

func (p TransactionPage) HasPrev() bool { return p.Page > 0 }

func (p TransactionPage) HasNext() bool { return p.Page+1 < p.Pages() }

// Range returns the 1-based bounds of the rows shown.
func (p TransactionPage) Range() (from, to int) {
	if len(p.Items) == 0 {
		return 0, 0
	}
	from = p.Page*p.Limit + 1
	return from, from + len(p.Items) - 1
}

type TransactionsView struct {
	Page       TransactionPage
	Categories []string
	PageSizes  []int
	Loading    bool
	Busy       bool
	Notice     Notice
}

type Transactions struct {
	deps   Deps
	logger *log.Logger
	page   resource.Resource[TransactionPage]
}

func NewTransactions(deps Deps) *Transactions {
	deps = deps.withDefaults()
	return &Transactions{deps: deps, logger: deps.Logger.WithComponent(log.ComponentPages).With("page", "transactions")}
}

// Load fetches page (zero-based) with the given page size; sizes outside
// the offered set fall back to the default.
func (t *Transactions) Load(ctx context.Context, page, limit int) error {
	uid, err := t.deps.userID()
	if err != nil {
		return err
	}
	if page < 0 {
		page = 0
	}
	limit = api.NormalizePageSize(limit)

	err = settled(t.page.Load(ctx, fmt.Sprintf("transactions/%s?page=%d&limit=%d", uid, page, limit), func(ctx context.Context) (TransactionPage, error) {
		resp, err := t.deps.Gateway.ListTransactions(ctx, uid, api.TransactionQuery{Limit: limit, Offset: page * limit})
		if err != nil {
			return TransactionPage{}, err
		}
		if !resp.OK() {
			return TransactionPage{}, api.Rejected("GET /transaction", resp.Error)
		}
		return TransactionPage{Items: resp.Transactions, Total: resp.TotalCount, Page: page, Limit: limit}, nil
	}))
	if err != nil {
		t.logger.WarnContext(ctx, "Failed to load transactions", log.FieldUserID, uid.String(), log.FieldError, err.Error())
		return fmt.Errorf("load transactions: %w", err)
	}
	return nil
}

// Reload fetches the page currently shown.
func (t *Transactions) Reload(ctx context.Context) error {
	cur := t.page.Snapshot().Data
	return t.Load(ctx, cur.Page, cur.Limit)
}

// Create records a transaction and then re-fetches the current page. Missing
// item, category or amount are rejected before any request is made.
func (t *Transactions) Create(ctx context.Context, form core.TransactionForm) (core.Transaction, error) {
	uid, err := t.deps.userID()
	if err != nil {
		return core.Transaction{}, err
	}
	tx, err := form.Parse(t.deps.Now())
	if err != nil {
		return core.Transaction{}, err
	}

	err = t.page.Mutate(ctx, func(ctx context.Context) error {
		resp, err := t.deps.Gateway.CreateTransaction(ctx, api.NewTransactionFor(uid, tx))
		if err != nil {
			return err
		}
		if !resp.OK() {
			return api.Rejected("POST /transaction", resp.Problem())
		}
		return nil
	}, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}

	t.logger.InfoContext(ctx, "Transaction recorded", log.NewFields().
		WithUser("", uid.String()).
		WithTransaction(tx.Category, tx.Amount.Cents).ToSlice()...)

	if t.deps.Publisher != nil {
		if err := t.deps.Publisher.PublishTransactionRecorded(ctx, uid, tx); err != nil {
			t.logger.WarnContext(ctx, "Failed to publish transaction event", log.FieldError, err.Error())
		}
	}

	if err := t.Reload(ctx); err != nil {
		// The write succeeded; the stale list is reported through View.
		t.logger.WarnContext(ctx, "Refresh after create failed", log.FieldError, err.Error())
	}
	return tx, nil
}

// Categories returns the user's budget categories, cached, or the fixed
// list when there are none or they cannot be fetched.
func (t *Transactions) Categories(ctx context.Context) []string {
	uid, err := t.deps.userID()
	if err != nil {
		return core.TransactionCategories
	}
	key := uid.String()
	if t.deps.Categories != nil {
		if cats, ok := t.deps.Categories.Get(key); ok && len(cats) > 0 {
			return cats
		}
	}

	budgets, err := t.deps.Gateway.ListBudgets(ctx, uid)
	if err != nil {
		t.logger.DebugContext(ctx, "Budget categories unavailable", log.FieldError, err.Error())
		return core.TransactionCategories
	}
	cats := core.Categories(budgets)
	if len(cats) == 0 {
		return core.TransactionCategories
	}
	if t.deps.Categories != nil {
		t.deps.Categories.Set(key, cats)
	}
	return cats
}

func (t *Transactions) View(ctx context.Context) TransactionsView {
	s := t.page.Snapshot()
	v := TransactionsView{
		Page:       s.Data,
		Categories: t.Categories(ctx),
		PageSizes:  api.PageSizes,
		Loading:    s.Loading,
		Busy:       s.Busy,
	}
	if v.Page.Limit == 0 {
		v.Page.Limit = api.DefaultPageSize
	}
	if s.Err != nil {
		v.Notice = Notice{Level: LevelError, Message: ErrorMessage(s.Err, msgTransactionsLoadFailed)}
	}
	return v
}

// CreateNotice describes the outcome of Create. Missing required fields get
// a warning rather than an error.
func (t *Transactions) CreateNotice(err error) Notice {
	if err == nil {
		return Notice{Level: LevelSuccess, Message: msgTransactionSuccess}
	}
	var verr *core.ValidationError
	if errors.As(err, &verr) && verr.Missing("item", "category", "amount") {
		return Notice{Level: LevelWarning, Message: msgRequiredFields}
	}
	return Notice{Level: LevelError, Message: ErrorMessage(err, msgTransactionFailed)}
}

func (t *Transactions) Dismiss() { t.page.Dismiss() }

func (t *Transactions) Reset() { t.page.Reset() }
