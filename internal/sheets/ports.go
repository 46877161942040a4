// Package sheets exports recorded transactions to a spreadsheet ledger.
package sheets

import (
	"context"
	"errors"
	"strings"

	"spendly/internal/core"
)

// Header is the first row of the ledger sheet.
var Header = []any{"Date", "Item", "Category", "Amount", "Label", "User ID"}

// LedgerRow is one exported transaction.
type LedgerRow struct {
	UserID      core.UserID
	Transaction core.Transaction
}

var ErrInvalidRow = errors.New("invalid ledger row")

func (r LedgerRow) Validate() error {
	if r.UserID.IsZero() || strings.TrimSpace(r.Transaction.Item) == "" || r.Transaction.Amount.Validate() != nil {
		return ErrInvalidRow
	}
	return nil
}

// Values returns the cells in Header order.
func (r LedgerRow) Values() []any {
	tx := r.Transaction
	return []any{tx.Date.String(), tx.Item, tx.Category, tx.Amount.Units(), tx.Label, r.UserID.String()}
}

// LedgerWriter appends rows to the ledger.
type LedgerWriter interface {
	Append(ctx context.Context, row LedgerRow) (rowRef string, err error)
}
