package core

import (
	"strings"
	"time"
)

// Severity classifies how much of a budget has been consumed.
type Severity string

const (
	SeverityNormal  Severity = "normal"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Consumption thresholds, in percent of the budget amount.
const (
	WarningThreshold = 70.0
	DangerThreshold  = 90.0
)

type (
	Budget struct {
		ID        int64  `json:"id"`
		Category  string `json:"category"`
		Amount    Money  `json:"amount"`
		Spent     Money  `json:"spent"`
		Remaining Money  `json:"remaining"`
		Period    string `json:"period"`
		StartDate Date   `json:"start_date"`
		EndDate   Date   `json:"end_date"`
	}

	Goal struct {
		ID            int64  `json:"id"`
		GoalName      string `json:"goal_name"`
		TargetAmount  Money  `json:"target_amount"`
		CurrentAmount Money  `json:"current_amount"`
		Deadline      Date   `json:"deadline"`
		Category      string `json:"category"`
		Icon          string `json:"icon"`
	}

	Transaction struct {
		ID       int64  `json:"id,omitempty"`
		Item     string `json:"item"`
		Category string `json:"category"`
		Amount   Money  `json:"amount"`
		Date     Date   `json:"date"`
		Label    string `json:"label,omitempty"`
	}

	// ChatMessage is one entry of the advisor conversation.
	ChatMessage struct {
		Text      string
		FromUser  bool
		Timestamp time.Time
		IsError   bool
	}

	// Progress is a completion ratio. Percent is unclamped and is what labels
	// show; Bar is clamped to [0,100] for progress bars.
	Progress struct {
		Percent float64
		Bar     float64
	}
)

// Advisor canned replies.
const (
	WelcomeMessage       = "Hi! I'm your AI financial advisor. I can help you make smart spending decisions, understand your budget, and reach your financial goals. How can I assist you today?"
	FallbackReply        = "Sorry, I couldn't process that request. Please try again."
	ConnectionErrorReply = "Sorry, I couldn't connect to the server. Please try again later."
)

// BudgetCategories are offered when creating a budget.
var BudgetCategories = []string{
	"Food", "Entertainment", "Housing", "Transportation",
	"Healthcare", "Education", "Shopping", "Travel", "Other",
}

// TransactionCategories are offered when the user has no budgets yet.
var TransactionCategories = []string{
	"Food", "Entertainment", "Transportation", "Housing", "Utilities", "Healthcare",
	"Education", "Electronics", "Clothing", "Travel", "Financial", "Miscellaneous",
}

// GoalCategory pairs a goal category value with its label and icon.
type GoalCategory struct {
	Value string
	Label string
	Icon  string
}

var GoalCategories = []GoalCategory{
	{"electronics", "Electronics", "phone"},
	{"travel", "Travel", "flight"},
	{"education", "Education", "school"},
	{"housing", "Housing", "home"},
	{"vehicle", "Vehicle", "car"},
	{"shopping", "Shopping", "shopping"},
	{"health", "Health", "health"},
	{"debt", "Debt Repayment", "credit"},
	{"other", "Other", "event"},
}

const defaultCategoryColor = "#9e9e9e"

var categoryColors = map[string]string{
	"Food":           "#4caf50",
	"Entertainment":  "#9c27b0",
	"Transportation": "#2196f3",
	"Housing":        "#ff9800",
	"Utilities":      "#607d8b",
	"Healthcare":     "#f44336",
	"Education":      "#3f51b5",
	"Electronics":    "#00bcd4",
	"Clothing":       "#e91e63",
	"Travel":         "#795548",
	"Financial":      "#ffeb3b",
	"Miscellaneous":  defaultCategoryColor,
}

// CategoryColor returns the badge colour for a transaction category.
func CategoryColor(category string) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return defaultCategoryColor
}

// GoalIcon returns the icon name for a goal category, "event" when unknown.
func GoalIcon(category string) string {
	for _, c := range GoalCategories {
		if c.Value == category {
			return c.Icon
		}
	}
	return "event"
}

// Ratio computes part/whole*100 with an unclamped Percent and a Bar clamped
// to [0,100]. A non-positive whole yields zero progress.
func Ratio(part, whole Money) Progress {
	if whole.Cents <= 0 {
		return Progress{}
	}
	return ProgressFromPercent(float64(part.Cents) / float64(whole.Cents) * 100)
}

// SeverityFor classifies a consumption percentage.
func SeverityFor(percent float64) Severity {
	switch {
	case percent >= DangerThreshold:
		return SeverityDanger
	case percent >= WarningThreshold:
		return SeverityWarning
	default:
		return SeverityNormal
	}
}

func (b Budget) Progress() Progress { return Ratio(b.Spent, b.Amount) }

func (b Budget) Severity() Severity { return SeverityFor(b.Progress().Percent) }

// Healthy reports whether some budget is left.
func (b Budget) Healthy() bool { return b.Remaining.Cents > 0 }

func (g Goal) Progress() Progress { return Ratio(g.CurrentAmount, g.TargetAmount) }

// Categories returns the distinct budget categories in order of appearance.
func Categories(budgets []Budget) []string {
	seen := make(map[string]struct{}, len(budgets))
	out := make([]string, 0, len(budgets))
	for _, b := range budgets {
		c := strings.TrimSpace(b.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// NextID returns one more than the largest id produced by idOf.
func NextID[T any](items []T, idOf func(T) int64) int64 {
	var max int64
	for _, it := range items {
		if id := idOf(it); id > max {
			max = id
		}
	}
	return max + 1
}

// ProgressFromPercent builds a Progress from an already computed percentage.
func ProgressFromPercent(pct float64) Progress {
	bar := pct
	if bar > 100 {
		bar = 100
	}
	if bar < 0 {
		bar = 0
	}
	return Progress{Percent: pct, Bar: bar}
}
