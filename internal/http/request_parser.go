package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"spendly/internal/api"
	"spendly/internal/core"
)

const maxFormBytes = 64 << 10

// PageParams is the requested page of a paginated list. Page is zero-based.
type PageParams struct {
	Page  int
	Limit int
}

// ParsePageParams reads page and limit from the query, falling back to the
// first page and the default size on missing or invalid values.
func ParsePageParams(query url.Values) PageParams {
	p := PageParams{Limit: api.DefaultPageSize}
	if v := strings.TrimSpace(query.Get("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			p.Page = n
		}
	}
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.Limit = api.NormalizePageSize(n)
		}
	}
	return p
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once, up to 64 KiB, and keeps it for
// subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxFormBytes))
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func (p *RequestBodyParser) LoginForm() core.LoginForm {
	return core.LoginForm{Username: p.Get("username"), Password: p.Get("password")}
}

func (p *RequestBodyParser) RegisterForm() core.RegisterForm {
	return core.RegisterForm{Username: p.Get("username"), Email: p.Get("email"), Password: p.Get("password")}
}

func (p *RequestBodyParser) BudgetForm() core.BudgetForm {
	return core.BudgetForm{
		Category:  p.Get("category"),
		Amount:    p.Get("amount"),
		Period:    p.Get("period"),
		StartDate: p.Get("start_date"),
		EndDate:   p.Get("end_date"),
	}
}

func (p *RequestBodyParser) GoalForm() core.GoalForm {
	return core.GoalForm{
		GoalName:      p.Get("goal_name"),
		TargetAmount:  p.Get("target_amount"),
		CurrentAmount: p.Get("current_amount"),
		Deadline:      p.Get("deadline"),
		Category:      p.Get("category"),
	}
}

func (p *RequestBodyParser) TransactionForm() core.TransactionForm {
	return core.TransactionForm{
		Item:     p.Get("item"),
		Category: p.Get("category"),
		Amount:   p.Get("amount"),
		Date:     p.Get("date"),
		Label:    p.Get("label"),
	}
}

// parseBody reads the request body or writes a 400 and returns nil.
func parseBody(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return nil
	}
	return p
}
