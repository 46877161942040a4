package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendly/internal/amqp"
	"spendly/internal/core"
	sheetmem "spendly/internal/sheets/memory"
	"spendly/internal/storage/memory"
)

func message() *amqp.TransactionRecordedMessage {
	return amqp.NewTransactionRecordedMessage("1", core.Transaction{
		Item: "Lunch", Category: "Food", Amount: core.FromUnits(250), Date: core.NewDate(2024, 3, 1),
	}, time.Now())
}

func TestExportOnce(t *testing.T) {
	ledger := sheetmem.New()
	w := NewExportWorker(ledger, memory.New(), nil)
	ctx := context.Background()
	msg := message()

	require.NoError(t, w.HandleTransactionRecorded(ctx, msg))
	require.NoError(t, w.HandleTransactionRecorded(ctx, msg), "redelivery")

	rows := ledger.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Lunch", rows[0].Transaction.Item)
	assert.Equal(t, core.UserID("1"), rows[0].UserID)
}

func TestExportFailureIsRetryable(t *testing.T) {
	ledger := sheetmem.New()
	boom := errors.New("quota exceeded")
	ledger.FailWith(boom)
	w := NewExportWorker(ledger, memory.New(), nil)
	ctx := context.Background()
	msg := message()

	assert.ErrorIs(t, w.HandleTransactionRecorded(ctx, msg), boom)

	ledger.FailWith(nil)
	require.NoError(t, w.HandleTransactionRecorded(ctx, msg))
	assert.Len(t, ledger.Rows(), 1)
}

func TestExportWithoutStateStore(t *testing.T) {
	ledger := sheetmem.New()
	w := NewExportWorker(ledger, nil, nil)
	msg := message()

	require.NoError(t, w.HandleTransactionRecorded(context.Background(), msg))
	require.NoError(t, w.HandleTransactionRecorded(context.Background(), msg))
	assert.Len(t, ledger.Rows(), 2)
}
