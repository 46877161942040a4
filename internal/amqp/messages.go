package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"spendly/internal/core"
)

// TypeTransactionRecorded is the event type published after a transaction
// was accepted by the backend.
const TypeTransactionRecorded = "transaction.recorded"

// ErrInvalidMessage marks a message that can never be processed.
var ErrInvalidMessage = errors.New("invalid message")

// TransactionRecordedMessage carries a recorded transaction to the export worker.
type TransactionRecordedMessage struct {
	MessageID   string           `json:"message_id"`
	Type        string           `json:"type"`
	UserID      core.UserID      `json:"user_id"`
	Transaction core.Transaction `json:"transaction"`
	RecordedAt  time.Time        `json:"recorded_at"`
}

func NewTransactionRecordedMessage(userID core.UserID, tx core.Transaction, now time.Time) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		MessageID:   uuid.NewString(),
		Type:        TypeTransactionRecorded,
		UserID:      userID,
		Transaction: tx,
		RecordedAt:  now.UTC(),
	}
}

func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate rejects messages the worker could not turn into a ledger row.
func (m *TransactionRecordedMessage) Validate() error {
	switch {
	case m.Type != TypeTransactionRecorded:
		return fmt.Errorf("%w: unexpected type %q", ErrInvalidMessage, m.Type)
	case m.UserID.IsZero():
		return fmt.Errorf("%w: missing user id", ErrInvalidMessage)
	case strings.TrimSpace(m.Transaction.Item) == "":
		return fmt.Errorf("%w: missing item", ErrInvalidMessage)
	case m.Transaction.Amount.Validate() != nil:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidMessage)
	}
	return nil
}

// TransactionRecordedFromJSON decodes and validates a message body.
func TransactionRecordedFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
