// Package memory is an in-process ledger used by tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "spendly/internal/sheets"
)

type Ledger struct {
	mu   sync.Mutex
	rows []ports.LedgerRow
	err  error
}

var _ ports.LedgerWriter = (*Ledger)(nil)

func New() *Ledger { return &Ledger{} }

// Append stores the row and returns a synthetic row reference.
func (l *Ledger) Append(_ context.Context, row ports.LedgerRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", l.err
	}
	l.rows = append(l.rows, row)
	return fmt.Sprintf("mem:%d", len(l.rows)), nil
}

// FailWith makes every following Append fail with err, or succeed again when nil.
func (l *Ledger) FailWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *Ledger) Rows() []ports.LedgerRow {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ports.LedgerRow(nil), l.rows...)
}
