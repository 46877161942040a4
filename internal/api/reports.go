package api

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"spendly/internal/core"
)

// Backends disagree on the shape of progress and statistics payloads, so
// both are kept raw and decoded on demand.

// BudgetProgressReport is the raw /budget/progress payload.
type BudgetProgressReport struct {
	Raw json.RawMessage
}

func (r *BudgetProgressReport) UnmarshalJSON(b []byte) error {
	r.Raw = append(r.Raw[:0], b...)
	return nil
}

func (r BudgetProgressReport) MarshalJSON() ([]byte, error) {
	if len(r.Raw) == 0 {
		return []byte("null"), nil
	}
	return r.Raw, nil
}

// BudgetProgressItem is one category row of a progress report.
type BudgetProgressItem struct {
	Category   string     `json:"category"`
	Amount     core.Money `json:"amount"`
	Spent      core.Money `json:"spent"`
	Remaining  core.Money `json:"remaining"`
	Percentage *float64   `json:"percentage,omitempty"`
}

// Progress prefers the backend's percentage and falls back to spent/amount.
func (i BudgetProgressItem) Progress() core.Progress {
	if i.Percentage != nil {
		return core.ProgressFromPercent(*i.Percentage)
	}
	return core.Ratio(i.Spent, i.Amount)
}

func (i BudgetProgressItem) Severity() core.Severity {
	return core.SeverityFor(i.Progress().Percent)
}

var listKeys = []string{"data", "budgets", "progress", "items"}

// Items decodes the report as a list of rows. It accepts a bare array, an
// object wrapping one under a well-known key, or a single row object.
// Undecodable payloads yield no rows.
func (r *BudgetProgressReport) Items() []BudgetProgressItem {
	if r == nil {
		return nil
	}
	var items []BudgetProgressItem
	if decodeList(r.Raw, listKeys, &items) {
		return items
	}
	var single BudgetProgressItem
	if err := json.Unmarshal(r.Raw, &single); err == nil && single.Category != "" {
		return []BudgetProgressItem{single}
	}
	return nil
}

// StatsReport is the raw /dashboard payload.
type StatsReport struct {
	Raw json.RawMessage
}

func (r *StatsReport) UnmarshalJSON(b []byte) error {
	r.Raw = append(r.Raw[:0], b...)
	return nil
}

func (r StatsReport) MarshalJSON() ([]byte, error) {
	if len(r.Raw) == 0 {
		return []byte("null"), nil
	}
	return r.Raw, nil
}

type CategoryTotal struct {
	Category string
	Total    core.Money
}

// StatsSummary is the part of a statistics payload the dashboard shows.
type StatsSummary struct {
	TotalSpent core.Money
	Count      int
	ByCategory []CategoryTotal
}

var (
	totalKeys    = []string{"total_spent", "total_amount", "totalSpent", "total"}
	countKeys    = []string{"transaction_count", "total_transactions", "count"}
	categoryKeys = []string{"by_category", "category_breakdown", "categories"}
)

// Summary extracts totals from the report, tolerating missing fields and a
// top-level "data" wrapper. ByCategory is sorted by descending total.
func (r *StatsReport) Summary() StatsSummary {
	var s StatsSummary
	if r == nil {
		return s
	}
	fields := objectFields(r.Raw)
	if inner, ok := fields["data"]; ok {
		if nested := objectFields(inner); nested != nil {
			fields = nested
		}
	}
	if fields == nil {
		return s
	}

	for _, k := range totalKeys {
		if raw, ok := fields[k]; ok {
			var m core.Money
			if json.Unmarshal(raw, &m) == nil {
				s.TotalSpent = m
				break
			}
		}
	}
	for _, k := range countKeys {
		if raw, ok := fields[k]; ok {
			if n, ok := decodeInt(raw); ok {
				s.Count = n
				break
			}
		}
	}
	for _, k := range categoryKeys {
		if raw, ok := fields[k]; ok {
			if totals := decodeCategoryTotals(raw); totals != nil {
				s.ByCategory = totals
				break
			}
		}
	}
	sort.SliceStable(s.ByCategory, func(i, j int) bool {
		return s.ByCategory[i].Total.Cents > s.ByCategory[j].Total.Cents
	})
	return s
}

// Empty reports whether the payload carried nothing usable.
func (s StatsSummary) Empty() bool {
	return s.TotalSpent.Cents == 0 && s.Count == 0 && len(s.ByCategory) == 0
}

func decodeCategoryTotals(raw json.RawMessage) []CategoryTotal {
	var asMap map[string]core.Money
	if err := json.Unmarshal(raw, &asMap); err == nil {
		out := make([]CategoryTotal, 0, len(asMap))
		for c, m := range asMap {
			out = append(out, CategoryTotal{Category: c, Total: m})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
		return out
	}
	var rows []struct {
		Category string      `json:"category"`
		Total    *core.Money `json:"total"`
		Amount   *core.Money `json:"amount"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil
	}
	out := make([]CategoryTotal, 0, len(rows))
	for _, row := range rows {
		ct := CategoryTotal{Category: row.Category}
		switch {
		case row.Total != nil:
			ct.Total = *row.Total
		case row.Amount != nil:
			ct.Total = *row.Amount
		}
		out = append(out, ct)
	}
	return out
}

// decodeList decodes raw into out when it is an array, or an object holding an
// array under one of keys.
func decodeList[T any](raw json.RawMessage, keys []string, out *[]T) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out) == nil
	}
	fields := objectFields(trimmed)
	for _, k := range keys {
		if inner, ok := fields[k]; ok {
			inner = bytes.TrimSpace(inner)
			if len(inner) > 0 && inner[0] == '[' && json.Unmarshal(inner, out) == nil {
				return true
			}
		}
	}
	return false
}

// DecodeList is decodeList for list endpoints outside this package.
func DecodeList[T any](raw json.RawMessage, out *[]T, keys ...string) bool {
	if len(keys) == 0 {
		keys = listKeys
	}
	return decodeList(raw, keys, out)
}

func objectFields(raw json.RawMessage) map[string]json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}

func decodeInt(raw json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
	}
	return 0, false
}
