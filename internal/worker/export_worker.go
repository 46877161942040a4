// Package worker consumes transaction events and exports them to the ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spendly/internal/amqp"
	"spendly/internal/log"
	"spendly/internal/sheets"
	"spendly/internal/storage"
)

const processedKeyPrefix = "export:"

// ExportWorker appends every recorded transaction to the ledger once.
// Message IDs already exported are remembered in a KV store so a redelivered
// message does not produce a second row.
type ExportWorker struct {
	ledger    sheets.LedgerWriter
	processed storage.KV
	logger    *log.Logger
	now       func() time.Time
}

func NewExportWorker(ledger sheets.LedgerWriter, processed storage.KV, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		ledger:    ledger,
		processed: processed,
		logger:    logger.WithComponent(log.ComponentWorker),
		now:       time.Now,
	}
}

// HandleTransactionRecorded is an amqp.Handler. A returned error requeues the message.
func (w *ExportWorker) HandleTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	key := processedKeyPrefix + msg.MessageID

	if msg.MessageID != "" && w.processed != nil {
		_, err := w.processed.Get(ctx, key)
		switch {
		case err == nil:
			w.logger.InfoContext(ctx, "Skipping already exported message", "message_id", msg.MessageID)
			return nil
		case !errors.Is(err, storage.ErrNotFound):
			return fmt.Errorf("check export state: %w", err)
		}
	}

	ref, err := w.ledger.Append(ctx, sheets.LedgerRow{UserID: msg.UserID, Transaction: msg.Transaction})
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	if msg.MessageID != "" && w.processed != nil {
		if err := w.processed.Set(ctx, key, w.now().UTC().Format(time.RFC3339)); err != nil {
			// The row exists; only a redelivery could duplicate it.
			w.logger.ErrorContext(ctx, "Failed to record export", "message_id", msg.MessageID, log.FieldError, err.Error())
		}
	}

	w.logger.InfoContext(ctx, "Exported transaction",
		"message_id", msg.MessageID,
		"sheets_ref", ref,
		log.FieldUserID, msg.UserID.String(),
		"amount_cents", msg.Transaction.Amount.Cents)
	return nil
}
