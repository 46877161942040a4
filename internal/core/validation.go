package core

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 4

const (
	msgRequired = "is required"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// ValidationError collects per-field problems found before any request is sent.
type ValidationError struct {
	Fields map[string]string
}

// Add records a problem for field, keeping the first message per field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

// Has reports whether field has a recorded problem.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// Missing reports whether any of fields was left blank.
func (e *ValidationError) Missing(fields ...string) bool {
	if e == nil {
		return false
	}
	for _, f := range fields {
		if e.Fields[f] == msgRequired {
			return true
		}
	}
	return false
}

// Err returns e as an error, or nil when nothing was recorded.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func required(verr *ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		verr.Add(field, msgRequired)
	}
}

// LoginForm holds sign-in credentials.
type LoginForm struct {
	Username string
	Password string
}

func (f LoginForm) Validate() error {
	verr := &ValidationError{}
	required(verr, "username", f.Username)
	required(verr, "password", f.Password)
	return verr.Err()
}

// RegisterForm holds the fields needed to create an account.
type RegisterForm struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (f RegisterForm) Validate() error {
	verr := &ValidationError{}
	required(verr, "username", f.Username)
	required(verr, "email", f.Email)
	if strings.TrimSpace(f.Email) != "" && !emailPattern.MatchString(strings.TrimSpace(f.Email)) {
		verr.Add("email", "is not a valid email address")
	}
	required(verr, "password", f.Password)
	if f.Password != "" && len(f.Password) < MinPasswordLength {
		verr.Add("password", "must be at least 4 characters")
	}
	return verr.Err()
}

// TransactionForm is the raw user input for a new transaction.
type TransactionForm struct {
	Item     string
	Category string
	Amount   string
	Date     string
	Label    string
}

// Parse validates the form and builds the transaction. A blank date means today.
func (f TransactionForm) Parse(now time.Time) (Transaction, error) {
	verr := &ValidationError{}
	required(verr, "item", f.Item)
	required(verr, "category", f.Category)
	required(verr, "amount", f.Amount)

	tx := Transaction{
		Item:     strings.TrimSpace(f.Item),
		Category: strings.TrimSpace(f.Category),
		Label:    strings.TrimSpace(f.Label),
		Date:     Today(now),
	}
	if !verr.Has("amount") {
		cents, err := ParseDecimalToCents(f.Amount)
		if err != nil {
			verr.Add("amount", "must be a positive number")
		}
		tx.Amount = Money{Cents: cents}
	}
	if strings.TrimSpace(f.Date) != "" {
		d, err := ParseDate(f.Date)
		if err != nil {
			verr.Add("date", "must be a date (YYYY-MM-DD)")
		}
		tx.Date = d
	}
	if err := verr.Err(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// BudgetForm is the raw user input for a new budget.
type BudgetForm struct {
	Category  string
	Amount    string
	Period    string
	StartDate string
	EndDate   string
}

// Parse validates the form. Period defaults to monthly and the start date to today.
func (f BudgetForm) Parse(now time.Time) (Budget, error) {
	verr := &ValidationError{}
	required(verr, "category", f.Category)
	required(verr, "amount", f.Amount)

	b := Budget{
		Category:  strings.TrimSpace(f.Category),
		Period:    strings.ToLower(strings.TrimSpace(f.Period)),
		StartDate: Today(now),
	}
	if b.Period == "" {
		b.Period = PeriodMonthly
	}
	switch b.Period {
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
	default:
		verr.Add("period", "must be weekly, monthly or yearly")
	}
	if !verr.Has("amount") {
		cents, err := ParseDecimalToCents(f.Amount)
		if err != nil {
			verr.Add("amount", "must be a positive number")
		}
		b.Amount = Money{Cents: cents}
	}
	if strings.TrimSpace(f.StartDate) != "" {
		d, err := ParseDate(f.StartDate)
		if err != nil {
			verr.Add("start_date", "must be a date (YYYY-MM-DD)")
		}
		b.StartDate = d
	}
	if strings.TrimSpace(f.EndDate) != "" {
		d, err := ParseDate(f.EndDate)
		if err != nil {
			verr.Add("end_date", "must be a date (YYYY-MM-DD)")
		} else if d.Before(b.StartDate.Time) {
			verr.Add("end_date", "must not be before the start date")
		}
		b.EndDate = d
	}
	if err := verr.Err(); err != nil {
		return Budget{}, err
	}
	b.Remaining = b.Amount
	return b, nil
}

// GoalForm is the raw user input for a new savings goal.
type GoalForm struct {
	GoalName      string
	TargetAmount  string
	CurrentAmount string
	Deadline      string
	Category      string
}

// DefaultDeadline is six months after now.
func DefaultDeadline(now time.Time) Date {
	return Today(now.AddDate(0, 6, 0))
}

// Parse validates the form. The deadline defaults to six months from now and
// the category to "other"; the icon follows the category.
func (f GoalForm) Parse(now time.Time) (Goal, error) {
	verr := &ValidationError{}
	required(verr, "goal_name", f.GoalName)
	required(verr, "target_amount", f.TargetAmount)

	g := Goal{
		GoalName: strings.TrimSpace(f.GoalName),
		Category: strings.ToLower(strings.TrimSpace(f.Category)),
		Deadline: DefaultDeadline(now),
	}
	if g.Category == "" {
		g.Category = "other"
	}
	g.Icon = GoalIcon(g.Category)

	if !verr.Has("target_amount") {
		cents, err := ParseDecimalToCents(f.TargetAmount)
		if err != nil {
			verr.Add("target_amount", "must be a positive number")
		}
		g.TargetAmount = Money{Cents: cents}
	}
	current, err := ParseNonNegativeCents(f.CurrentAmount)
	if err != nil {
		verr.Add("current_amount", "must be zero or a positive number")
	}
	g.CurrentAmount = Money{Cents: current}
	if strings.TrimSpace(f.Deadline) != "" {
		d, err := ParseDate(f.Deadline)
		if err != nil {
			verr.Add("deadline", "must be a date (YYYY-MM-DD)")
		}
		g.Deadline = d
	}
	if err := verr.Err(); err != nil {
		return Goal{}, err
	}
	return g, nil
}
