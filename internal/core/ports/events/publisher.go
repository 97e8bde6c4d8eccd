package events

import (
	"context"
	"time"
)

// TransactionRecorded is emitted after a transaction's effects have been
// applied and persisted. Amounts travel in canonical decimal-string form.
type TransactionRecorded struct {
	EntityID      string    `json:"entityID"`
	TransactionID string    `json:"transactionID"`
	JournalID     string    `json:"journalID,omitempty"`
	Description   string    `json:"description"`
	TotalAmount   string    `json:"totalAmount"`
	LineCount     int       `json:"lineCount"`
	RecordedAt    time.Time `json:"recordedAt"`
}

// Publisher pushes ledger events to downstream consumers. Publication is
// best-effort: a failure is logged by the caller and never fails the
// recording itself.
type Publisher interface {
	PublishTransactionRecorded(ctx context.Context, event TransactionRecorded) error
	Close() error
}
