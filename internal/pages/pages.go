// Package pages holds the per-page controllers: each owns the data shown on
// one screen, loads it through the backend gateway and applies user writes.
package pages

import (
	"context"
	"errors"
	"time"

	"spendly/internal/api"
	"spendly/internal/cache"
	"spendly/internal/core"
	"spendly/internal/log"
	"spendly/internal/resource"
)

// ErrNotLoggedIn is returned when a page is used without a signed-in user.
var ErrNotLoggedIn = errors.New("not logged in")

// Identity yields the signed-in user.
type Identity interface {
	Current() (core.Session, bool)
}

// EventPublisher announces recorded transactions.
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, userID core.UserID, tx core.Transaction) error
}

// Notice is a dismissible message shown above a page.
type Notice struct {
	Level   string // success, info, warning, error
	Message string
}

func (n Notice) Empty() bool { return n.Message == "" }

const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Deps are the collaborators shared by every page controller.
type Deps struct {
	Gateway       api.Gateway
	Identity      Identity
	DefaultUserID core.UserID
	// Publisher is optional.
	Publisher EventPublisher
	// Categories caches each user's budget categories. Optional.
	Categories *cache.LRUCache[[]string]
	Logger     *log.Logger
	Now        func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = log.Discard()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.DefaultUserID.IsZero() {
		d.DefaultUserID = "1"
	}
	return d
}

// userID returns the signed-in user's backend id, falling back to the
// configured default when the backend sent none.
func (d Deps) userID() (core.UserID, error) {
	sess, ok := d.Identity.Current()
	if !ok {
		return "", ErrNotLoggedIn
	}
	if sess.ID.IsZero() {
		return d.DefaultUserID, nil
	}
	return sess.ID, nil
}

// Set groups the controllers of every protected page.
type Set struct {
	Dashboard    *Dashboard
	Budget       *Budget
	Goals        *Goals
	Transactions *Transactions
	Chat         *Chat
}

func NewSet(deps Deps) *Set {
	deps = deps.withDefaults()
	if deps.Categories == nil {
		deps.Categories = cache.NewLRUCache[[]string](64, 5*time.Minute)
	}
	return &Set{
		Dashboard:    NewDashboard(deps),
		Budget:       NewBudget(deps),
		Goals:        NewGoals(deps),
		Transactions: NewTransactions(deps),
		Chat:         NewChat(deps),
	}
}

// Reset drops every page's data and invalidates in-flight fetches.
func (s *Set) Reset() {
	s.Dashboard.Reset()
	s.Budget.Reset()
	s.Goals.Reset()
	s.Transactions.Reset()
	s.Chat.Reset()
}

// ErrorMessage turns err into text for a notification. Validation problems
// and backend explanations are shown as-is, anything else as fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	if errors.Is(err, resource.ErrBusy) {
		return "Please wait for the previous submission to finish."
	}
	if msg := api.BackendMessage(err); msg != "" {
		return msg
	}
	return fallback
}

// settled maps a superseded result to success; its data was dropped.
func settled(err error) error {
	if errors.Is(err, resource.ErrStale) {
		return nil
	}
	return err
}
