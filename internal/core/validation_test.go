package core

import (
	"errors"
	"testing"
	"time"
)

var fixedNow = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
	}
	return verr.Fields
}

func TestRegisterFormValidate(t *testing.T) {
	good := RegisterForm{Username: "ana", Email: "ana@example.com", Password: "abcd"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name  string
		form  RegisterForm
		field string
	}{
		{"missing username", RegisterForm{Email: "a@b.co", Password: "abcd"}, "username"},
		{"missing email", RegisterForm{Username: "a", Password: "abcd"}, "email"},
		{"bad email", RegisterForm{Username: "a", Email: "a@b", Password: "abcd"}, "email"},
		{"email with spaces", RegisterForm{Username: "a", Email: "a b@c.d", Password: "abcd"}, "email"},
		{"short password", RegisterForm{Username: "a", Email: "a@b.co", Password: "abc"}, "password"},
		{"missing password", RegisterForm{Username: "a", Email: "a@b.co"}, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields := fieldsOf(t, tc.form.Validate())
			if _, ok := fields[tc.field]; !ok {
				t.Fatalf("expected problem on %s, got %v", tc.field, fields)
			}
		})
	}
}

func TestLoginFormValidate(t *testing.T) {
	if err := (LoginForm{Username: "u", Password: "p"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	fields := fieldsOf(t, LoginForm{}.Validate())
	if len(fields) != 2 {
		t.Fatalf("expected two problems, got %v", fields)
	}
}

func TestTransactionFormParse(t *testing.T) {
	tx, err := TransactionForm{Item: "Pizza", Category: "Food", Amount: "250", Label: "dinner"}.Parse(fixedNow)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tx.Amount.Cents != 25000 || tx.Date.String() != "2025-01-10" || tx.Label != "dinner" {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	for _, form := range []TransactionForm{
		{Category: "Food", Amount: "1"},
		{Item: "x", Amount: "1"},
		{Item: "x", Category: "Food"},
	} {
		fields := fieldsOf(t, func() error { _, err := form.Parse(fixedNow); return err }())
		if len(fields) != 1 {
			t.Fatalf("form %+v: expected one missing field, got %v", form, fields)
		}
	}

	_, err = TransactionForm{Item: "x", Category: "Food", Amount: "-3"}.Parse(fixedNow)
	if fields := fieldsOf(t, err); fields["amount"] == "" {
		t.Fatalf("negative amount should be rejected")
	}
}

func TestBudgetFormParse(t *testing.T) {
	b, err := BudgetForm{Category: "Food", Amount: "10000"}.Parse(fixedNow)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if b.Period != PeriodMonthly || b.StartDate.String() != "2025-01-10" || !b.EndDate.IsZero() {
		t.Fatalf("unexpected defaults %+v", b)
	}
	if b.Spent.Cents != 0 || b.Remaining != b.Amount {
		t.Fatalf("new budget must have nothing spent, got %+v", b)
	}

	_, err = BudgetForm{Category: "Food", Amount: "5", StartDate: "2025-02-01", EndDate: "2025-01-01"}.Parse(fixedNow)
	if fields := fieldsOf(t, err); fields["end_date"] == "" {
		t.Fatalf("end before start should be rejected: %v", fields)
	}
	_, err = BudgetForm{Category: "Food", Amount: "5", Period: "daily"}.Parse(fixedNow)
	if fields := fieldsOf(t, err); fields["period"] == "" {
		t.Fatalf("unknown period should be rejected: %v", fields)
	}
}

func TestGoalFormParse(t *testing.T) {
	g, err := GoalForm{GoalName: "Trip", TargetAmount: "20000", Category: "travel"}.Parse(fixedNow)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if g.Icon != "flight" || g.CurrentAmount.Cents != 0 || g.Deadline.String() != "2025-07-10" {
		t.Fatalf("unexpected goal %+v", g)
	}

	g, err = GoalForm{GoalName: "Fund", TargetAmount: "100"}.Parse(fixedNow)
	if err != nil || g.Category != "other" || g.Icon != "event" {
		t.Fatalf("unexpected defaults %+v err=%v", g, err)
	}

	_, err = GoalForm{TargetAmount: "0", CurrentAmount: "-1"}.Parse(fixedNow)
	fields := fieldsOf(t, err)
	for _, f := range []string{"goal_name", "target_amount", "current_amount"} {
		if fields[f] == "" {
			t.Errorf("expected problem on %s: %v", f, fields)
		}
	}
}

func TestValidationErrorMessage(t *testing.T) {
	verr := &ValidationError{}
	verr.Add("item", "is required")
	verr.Add("amount", "is required")
	verr.Add("item", "ignored")
	want := "validation failed: amount is required, item is required"
	if verr.Error() != want {
		t.Fatalf("Error() = %q, want %q", verr.Error(), want)
	}
	var empty *ValidationError
	if empty.Err() != nil {
		t.Fatalf("nil ValidationError should be nil error")
	}
}

func TestValidationErrorMissing(t *testing.T) {
	verr := &ValidationError{}
	verr.Add("amount", "must be a positive number")
	if verr.Missing("amount") {
		t.Fatal("an invalid amount is not a missing one")
	}
	verr.Add("item", "is required")
	if !verr.Missing("category", "item") {
		t.Fatal("item should be reported missing")
	}
	var none *ValidationError
	if none.Missing("item") {
		t.Fatal("nil ValidationError reports nothing missing")
	}
}
