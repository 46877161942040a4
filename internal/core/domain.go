package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire and form format for calendar dates.
const DateLayout = "2006-01-02"

const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

type (
	// Date is a calendar day. The zero value encodes as JSON null.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// UserID is the backend identifier of a user. Backends send it either as a
	// number or as a string; numeric IDs are encoded back as numbers.
	UserID string

	// Session is the identity of the logged-in user as returned by the backend.
	Session struct {
		ID       UserID `json:"id,omitempty"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Token    string `json:"token,omitempty"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar day in UTC.
func Today(now time.Time) Date {
	y, m, d := now.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD date. RFC3339 timestamps are accepted and
// truncated to their calendar day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Today(t), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON encodes the amount as a plain JSON number in currency units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(formatUnits(m.Cents)), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		m.Cents = 0
		return nil
	}
	raw = strings.Trim(raw, `"`)
	if raw == "" {
		m.Cents = 0
		return nil
	}
	cents, err := unitsToCents(raw)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(b))
	}
	m.Cents = cents
	return nil
}

func (id UserID) String() string { return string(id) }

// IsZero reports whether no identifier is present.
func (id UserID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

func (id UserID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(string(id)), nil
	}
	return json.Marshal(string(id))
}

func (id *UserID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = UserID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid user id %s: %w", raw, err)
	}
	*id = UserID(n.String())
	return nil
}

// Valid reports whether the session carries the minimum identity needed to be
// treated as logged in.
func (s Session) Valid() bool {
	return strings.TrimSpace(s.Username) != ""
}
