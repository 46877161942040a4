package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/core"
	ports "spendly/internal/sheets"
)

func TestLedgerAppend(t *testing.T) {
	l := New()
	ctx := context.Background()
	row := ports.LedgerRow{UserID: "1", Transaction: core.Transaction{Item: "Tea", Amount: core.FromUnits(3)}}

	ref, err := l.Append(ctx, row)
	require.NoError(t, err)
	assert.Equal(t, "mem:1", ref)

	_, err = l.Append(ctx, ports.LedgerRow{})
	assert.ErrorIs(t, err, ports.ErrInvalidRow)

	boom := errors.New("boom")
	l.FailWith(boom)
	_, err = l.Append(ctx, row)
	assert.ErrorIs(t, err, boom)

	assert.Len(t, l.Rows(), 1)
}
