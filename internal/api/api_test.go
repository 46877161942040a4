package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/core"
)

func TestRequestError(t *testing.T) {
	withMessage := &RequestError{Op: "POST /login", Status: 401, Message: "bad credentials", Err: ErrUnexpectedStatus}
	assert.Equal(t, "POST /login: 401 Unauthorized: bad credentials", withMessage.Error())
	assert.ErrorIs(t, withMessage, ErrUnexpectedStatus)
	assert.Equal(t, "bad credentials", BackendMessage(fmt.Errorf("wrapped: %w", withMessage)))

	timeout := &RequestError{Op: "GET /goal/1", Err: context.DeadlineExceeded}
	assert.True(t, timeout.Timeout())
	assert.ErrorIs(t, timeout, context.DeadlineExceeded)
	assert.Equal(t, "GET /goal/1: context deadline exceeded", timeout.Error())

	assert.Empty(t, BackendMessage(errors.New("plain")))
}

func TestNormalizePageSize(t *testing.T) {
	for in, want := range map[int]int{5: 5, 10: 10, 25: 25, 0: 10, 7: 10, 100: 10} {
		assert.Equal(t, want, NormalizePageSize(in), "limit %d", in)
	}
}

func TestChatHistoryMessages(t *testing.T) {
	var h ChatHistoryResponse
	require.NoError(t, json.Unmarshal([]byte(`{"success":true,"data":[
		{"message":"How much did I spend?","sender":"user","timestamp":"2025-01-10T09:00:00Z"},
		{"message":"About 4,200.","sender":"bot","timestamp":"not a time"}
	]}`), &h))

	msgs := h.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].FromUser)
	assert.Equal(t, time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC), msgs[0].Timestamp)
	assert.False(t, msgs[1].FromUser)
	assert.True(t, msgs[1].Timestamp.IsZero())
}

func TestLoginResponseProblem(t *testing.T) {
	var r LoginResponse
	require.NoError(t, json.Unmarshal([]byte(`{"status":"error","message":"user locked"}`), &r))
	assert.False(t, r.OK())
	assert.Equal(t, "user locked", r.Problem())

	r = LoginResponse{Status: StatusSuccess, Error: "ignored", Message: "also"}
	assert.True(t, r.OK())
	assert.Equal(t, "ignored", r.Problem())
}

func TestNewPayloadsEncoding(t *testing.T) {
	tx := core.Transaction{Item: "Pizza", Category: "Food", Amount: core.FromUnits(250), Date: core.NewDate(2025, 1, 10)}
	out, err := json.Marshal(NewTransactionFor("1", tx))
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":1,"item":"Pizza","category":"Food","amount":250,"date":"2025-01-10"}`, string(out))

	b := core.Budget{Category: "Food", Amount: core.FromUnits(5000), Period: core.PeriodMonthly, StartDate: core.NewDate(2025, 1, 1)}
	out, err = json.Marshal(NewBudgetFor("1", b))
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":1,"category":"Food","amount":5000,"period":"monthly","start_date":"2025-01-01","end_date":null}`, string(out))
}

func TestBudgetProgressItems(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"bare array", `[{"category":"Food","amount":100,"spent":70}]`, []string{"Food"}},
		{"wrapped", `{"status":"success","data":[{"category":"Food","amount":100,"spent":10},{"category":"Travel","amount":50,"spent":50}]}`, []string{"Food", "Travel"}},
		{"single", `{"category":"Housing","amount":2000,"spent":500}`, []string{"Housing"}},
		{"garbage", `"nope"`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r BudgetProgressReport
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &r))
			var got []string
			for _, it := range r.Items() {
				got = append(got, it.Category)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("categories mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBudgetProgressItemProgress(t *testing.T) {
	pct := 95.0
	withPct := BudgetProgressItem{Amount: core.FromUnits(100), Spent: core.FromUnits(10), Percentage: &pct}
	assert.Equal(t, core.SeverityDanger, withPct.Severity())

	computed := BudgetProgressItem{Amount: core.FromUnits(100), Spent: core.FromUnits(70)}
	assert.Equal(t, core.SeverityWarning, computed.Severity())
	assert.InDelta(t, 70.0, computed.Progress().Percent, 0.001)
}

func TestStatsSummary(t *testing.T) {
	var r StatsReport
	require.NoError(t, json.Unmarshal([]byte(`{"status":"success","data":{
		"total_spent":"4200.50",
		"transaction_count":12,
		"by_category":{"Food":1200,"Housing":3000.5}
	}}`), &r))

	s := r.Summary()
	assert.Equal(t, int64(420050), s.TotalSpent.Cents)
	assert.Equal(t, 12, s.Count)
	want := []CategoryTotal{
		{Category: "Housing", Total: core.Money{Cents: 300050}},
		{Category: "Food", Total: core.FromUnits(1200)},
	}
	if diff := cmp.Diff(want, s.ByCategory); diff != "" {
		t.Fatalf("by category mismatch (-want +got):\n%s", diff)
	}

	var rows StatsReport
	require.NoError(t, json.Unmarshal([]byte(`{"total":10,"categories":[{"category":"Food","amount":10}]}`), &rows))
	assert.Equal(t, []CategoryTotal{{Category: "Food", Total: core.FromUnits(10)}}, rows.Summary().ByCategory)

	var empty StatsReport
	require.NoError(t, json.Unmarshal([]byte(`[]`), &empty))
	assert.True(t, empty.Summary().Empty())
}

func TestRejected(t *testing.T) {
	err := Rejected("POST /transaction", "Invalid category")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, "POST /transaction: Invalid category", err.Error())
	assert.Equal(t, "Invalid category", BackendMessage(err))
}
