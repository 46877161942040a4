// Package rest implements api.Gateway over the backend's HTTP/JSON API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"spendly/internal/api"
	"spendly/internal/core"
	"spendly/internal/log"
)

const (
	// DefaultTimeout bounds every backend call.
	DefaultTimeout = 30 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

// TokenSource returns the bearer token to send, or "" for none.
type TokenSource func(ctx context.Context) string

// Observer is told about every completed backend call.
type Observer interface {
	ObserveBackendCall(method, route string, status int, d time.Duration)
}

// RequestIDFunc returns the request ID to propagate, or "" to mint one.
type RequestIDFunc func(ctx context.Context) string

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithTokenSource(ts TokenSource) Option { return func(c *Client) { c.token = ts } }

func WithObserver(o Observer) Option { return func(c *Client) { c.observer = o } }

func WithRequestID(f RequestIDFunc) Option { return func(c *Client) { c.requestID = f } }

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = log.NewStructuredLogger(l.WithComponent(log.ComponentGateway))
		}
	}
}

// Client issues one HTTP request per call and never retries.
type Client struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	token     TokenSource
	observer  Observer
	requestID RequestIDFunc
	logger    *log.StructuredLogger
}

var _ api.Gateway = (*Client)(nil)

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: DefaultTimeout,
		logger:  log.NewStructuredLogger(log.Discard()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Login(ctx context.Context, username, password string) (*api.LoginResponse, error) {
	var out api.LoginResponse
	err := c.do(ctx, call{
		method: http.MethodPost, route: "/login", path: "/login",
		body: api.LoginRequest{Username: username, Password: password},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateUser(ctx context.Context, form core.RegisterForm) (*api.StatusResponse, error) {
	var out api.StatusResponse
	if err := c.do(ctx, call{method: http.MethodPost, route: "/user", path: "/user", body: form}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateBudget(ctx context.Context, b api.NewBudget) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, call{method: http.MethodPost, route: "/budget", path: "/budget", body: b}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListBudgets(ctx context.Context, userID core.UserID) ([]core.Budget, error) {
	var budgets []core.Budget
	if err := c.list(ctx, call{method: http.MethodGet, route: "/budget/{userId}", path: "/budget/" + escape(userID)}, &budgets); err != nil {
		return nil, err
	}
	return budgets, nil
}

func (c *Client) BudgetProgress(ctx context.Context, userID core.UserID, category string) (*api.BudgetProgressReport, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	var out api.BudgetProgressReport
	err := c.do(ctx, call{
		method: http.MethodGet, route: "/budget/progress/{userId}",
		path: "/budget/progress/" + escape(userID), query: q,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateGoal(ctx context.Context, g api.NewGoal) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, call{method: http.MethodPost, route: "/goal", path: "/goal", body: g}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListGoals(ctx context.Context, userID core.UserID) ([]core.Goal, error) {
	var goals []core.Goal
	if err := c.list(ctx, call{method: http.MethodGet, route: "/goal/{userId}", path: "/goal/" + escape(userID)}, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

func (c *Client) UpdateGoal(ctx context.Context, userID core.UserID, goalID int64, current core.Money) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, call{
		method: http.MethodPut, route: "/goal/{userId}/{goalId}",
		path: "/goal/" + escape(userID) + "/" + strconv.FormatInt(goalID, 10),
		body: api.GoalProgressUpdate{CurrentAmount: current},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTransaction(ctx context.Context, t api.NewTransaction) (*api.StatusResponse, error) {
	var out api.StatusResponse
	if err := c.do(ctx, call{method: http.MethodPost, route: "/transaction", path: "/transaction", body: t}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTransactions sends offset only when it is positive.
func (c *Client) ListTransactions(ctx context.Context, userID core.UserID, q api.TransactionQuery) (*api.TransactionPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = api.DefaultPageSize
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	var out api.TransactionPage
	err := c.do(ctx, call{
		method: http.MethodGet, route: "/transaction/{userId}",
		path: "/transaction/" + escape(userID), query: params,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TransactionStats(ctx context.Context, userID core.UserID, period string) (*api.StatsReport, error) {
	if period == "" {
		period = api.DefaultStatsPeriod
	}
	var out api.StatsReport
	err := c.do(ctx, call{
		method: http.MethodGet, route: "/dashboard/{userId}",
		path: "/dashboard/" + escape(userID), query: url.Values{"period": {period}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendMessage(ctx context.Context, userID core.UserID, message string) (*api.ChatResponse, error) {
	var out api.ChatResponse
	err := c.do(ctx, call{
		method: http.MethodPost, route: "/chat", path: "/chat",
		body: api.ChatRequest{UserID: userID, Message: message},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChatHistory(ctx context.Context, userID core.UserID, limit int) (*api.ChatHistoryResponse, error) {
	if limit <= 0 {
		limit = api.DefaultHistoryLimit
	}
	var out api.ChatHistoryResponse
	err := c.do(ctx, call{
		method: http.MethodGet, route: "/chat/history", path: "/chat/history",
		query: url.Values{"userId": {userID.String()}, "limit": {strconv.Itoa(limit)}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type call struct {
	method string
	// route is the path template, used for metrics and logs.
	route string
	path  string
	query url.Values
	body  any
}

func (cl call) op() string { return cl.method + " " + cl.path }

// list fetches a collection that may come bare or wrapped in an object.
func (c *Client) list(ctx context.Context, cl call, out any) error {
	var raw json.RawMessage
	if err := c.do(ctx, cl, &raw); err != nil {
		return err
	}
	var ok bool
	switch dst := out.(type) {
	case *[]core.Budget:
		ok = api.DecodeList(raw, dst, "data", "budgets")
	case *[]core.Goal:
		ok = api.DecodeList(raw, dst, "data", "goals")
	default:
		ok = json.Unmarshal(raw, out) == nil
	}
	if !ok {
		return &api.RequestError{Op: cl.op(), Status: http.StatusOK, Err: errors.New("decode response: unexpected list shape")}
	}
	return nil
}

// do performs the call and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, cl call, out any) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	status := 0
	defer func() {
		d := time.Since(start)
		if c.observer != nil {
			c.observer.ObserveBackendCall(cl.method, cl.route, status, d)
		}
		c.logger.LogGatewayCall(ctx, cl.method, cl.route, status, d, err)
	}()

	var body io.Reader
	if cl.body != nil {
		data, merr := json.Marshal(cl.body)
		if merr != nil {
			return &api.RequestError{Op: cl.op(), Err: fmt.Errorf("encode request: %w", merr)}
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return &api.RequestError{Op: cl.op(), Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", c.newRequestID(ctx))
	if c.token != nil {
		if tok := c.token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &api.RequestError{Op: cl.op(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	status = resp.StatusCode

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &api.RequestError{Op: cl.op(), Status: status, Err: fmt.Errorf("read response: %w", err)}
	}

	if status < 200 || status >= 300 {
		return &api.RequestError{Op: cl.op(), Status: status, Message: backendMessage(data), Err: api.ErrUnexpectedStatus}
	}

	if out == nil {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		if len(bytes.TrimSpace(data)) > 0 {
			*raw = append((*raw)[:0], data...)
		}
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &api.RequestError{Op: cl.op(), Status: status, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) newRequestID(ctx context.Context) string {
	if c.requestID != nil {
		if id := c.requestID(ctx); id != "" {
			return id
		}
	}
	return uuid.NewString()
}

// backendMessage extracts the error or message field of a JSON error body.
func backendMessage(body []byte) string {
	var payload struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	switch e := payload.Error.(type) {
	case string:
		if strings.TrimSpace(e) != "" {
			return e
		}
	case map[string]any:
		if m, ok := e["message"].(string); ok && m != "" {
			return m
		}
	}
	return strings.TrimSpace(payload.Message)
}

func escape(id core.UserID) string {
	return url.PathEscape(id.String())
}
