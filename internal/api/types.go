package api

import (
	"strings"
	"time"

	"spendly/internal/core"
)

// StatusSuccess is the status value backends use for a successful call.
const StatusSuccess = "success"

// Chat senders as reported in history.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Transaction page sizes offered by the ledger.
var PageSizes = []int{5, 10, 25}

// DefaultPageSize is used when no or an unknown page size is requested.
const DefaultPageSize = 10

// DefaultHistoryLimit is how many chat messages are fetched at once.
const DefaultHistoryLimit = 50

// DefaultStatsPeriod is the period requested for transaction statistics.
const DefaultStatsPeriod = "month"

type (
	LoginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		Status  string       `json:"status"`
		User    core.Session `json:"user"`
		Error   string       `json:"error,omitempty"`
		Message string       `json:"message,omitempty"`
	}

	// StatusResponse is the common {status, error} envelope.
	StatusResponse struct {
		Status  string `json:"status"`
		Error   string `json:"error,omitempty"`
		Message string `json:"message,omitempty"`
	}

	NewBudget struct {
		UserID    core.UserID `json:"user_id"`
		Category  string      `json:"category"`
		Amount    core.Money  `json:"amount"`
		Period    string      `json:"period"`
		StartDate core.Date   `json:"start_date"`
		EndDate   core.Date   `json:"end_date"`
	}

	NewGoal struct {
		UserID        core.UserID `json:"user_id"`
		GoalName      string      `json:"goal_name"`
		TargetAmount  core.Money  `json:"target_amount"`
		CurrentAmount core.Money  `json:"current_amount"`
		Deadline      core.Date   `json:"deadline"`
		Category      string      `json:"category"`
		Icon          string      `json:"icon"`
	}

	NewTransaction struct {
		UserID   core.UserID `json:"user_id"`
		Item     string      `json:"item"`
		Category string      `json:"category"`
		Amount   core.Money  `json:"amount"`
		Date     core.Date   `json:"date"`
		Label    string      `json:"label,omitempty"`
	}

	GoalProgressUpdate struct {
		CurrentAmount core.Money `json:"current_amount"`
	}

	TransactionQuery struct {
		Limit    int
		Offset   int
		Category string
	}

	TransactionPage struct {
		Status       string             `json:"status"`
		Transactions []core.Transaction `json:"transactions"`
		TotalCount   int                `json:"total_count"`
		Error        string             `json:"error,omitempty"`
	}

	ChatRequest struct {
		UserID  core.UserID `json:"userId"`
		Message string      `json:"message"`
	}

	ChatResponse struct {
		Response string `json:"response"`
	}

	ChatHistoryItem struct {
		Message   string `json:"message"`
		Sender    string `json:"sender"`
		Timestamp string `json:"timestamp"`
	}

	ChatHistoryResponse struct {
		Success bool              `json:"success"`
		Data    []ChatHistoryItem `json:"data"`
	}
)

// OK reports whether the backend accepted the call.
func (r *LoginResponse) OK() bool { return r != nil && r.Status == StatusSuccess }

// Problem returns the backend's explanation, preferring error over message.
func (r *LoginResponse) Problem() string {
	if r == nil {
		return ""
	}
	return firstNonBlank(r.Error, r.Message)
}

func (r *StatusResponse) OK() bool { return r != nil && r.Status == StatusSuccess }

func (r *StatusResponse) Problem() string {
	if r == nil {
		return ""
	}
	return firstNonBlank(r.Error, r.Message)
}

func (p *TransactionPage) OK() bool { return p != nil && p.Status == StatusSuccess }

// NewBudgetFor builds the create payload for b owned by userID.
func NewBudgetFor(userID core.UserID, b core.Budget) NewBudget {
	return NewBudget{
		UserID:    userID,
		Category:  b.Category,
		Amount:    b.Amount,
		Period:    b.Period,
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
	}
}

func NewGoalFor(userID core.UserID, g core.Goal) NewGoal {
	return NewGoal{
		UserID:        userID,
		GoalName:      g.GoalName,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Deadline:      g.Deadline,
		Category:      g.Category,
		Icon:          g.Icon,
	}
}

func NewTransactionFor(userID core.UserID, t core.Transaction) NewTransaction {
	return NewTransaction{
		UserID:   userID,
		Item:     t.Item,
		Category: t.Category,
		Amount:   t.Amount,
		Date:     t.Date,
		Label:    t.Label,
	}
}

// NormalizePageSize maps any requested size onto one of PageSizes.
func NormalizePageSize(limit int) int {
	for _, s := range PageSizes {
		if s == limit {
			return limit
		}
	}
	return DefaultPageSize
}

// Messages converts history items to chat messages in the order received.
// Unparsable timestamps become the zero time.
func (h *ChatHistoryResponse) Messages() []core.ChatMessage {
	if h == nil {
		return nil
	}
	out := make([]core.ChatMessage, 0, len(h.Data))
	for _, item := range h.Data {
		out = append(out, core.ChatMessage{
			Text:      item.Message,
			FromUser:  item.Sender == SenderUser,
			Timestamp: parseTimestamp(item.Timestamp),
		})
	}
	return out
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
