package ledger

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/openbooks/ledger_backend/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Journal is a named, entity-scoped grouping of transactions with aggregate
// queries. It never mutates transaction or account state; recording effects
// is the Ledger's job. The contained collection is guarded by its own lock,
// so a journal is safe for concurrent use.
type Journal struct {
	JournalID string
	Name      string
	EntityID  string

	mu           sync.RWMutex
	transactions []*Transaction
	byID         map[string]struct{}
	logger       *slog.Logger
}

// JournalOption configures a journal at construction.
type JournalOption func(*Journal)

// WithJournalLogger injects the diagnostics logger used for rejection
// reasons. Defaults to slog.Default().
func WithJournalLogger(logger *slog.Logger) JournalOption {
	return func(j *Journal) { j.logger = logger }
}

// NewJournal validates and builds an empty journal.
func NewJournal(journalID, name, entityID string, opts ...JournalOption) (*Journal, error) {
	if strings.TrimSpace(journalID) == "" {
		return nil, apperrors.NewLedgerError(apperrors.CodeMissingField, "", "journal id is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewLedgerError(apperrors.CodeMissingField, "", "journal name is required")
	}
	if strings.TrimSpace(entityID) == "" {
		return nil, apperrors.NewLedgerError(apperrors.CodeMissingField, "", "journal entity id is required")
	}
	j := &Journal{
		JournalID: journalID,
		Name:      name,
		EntityID:  entityID,
		byID:      make(map[string]struct{}),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// AddTransaction adds a transaction reference to the journal. Rejections are
// ordinary negative outcomes, signalled by a false return with the reason
// logged: entity mismatch, fewer than two lines, unbalanced, or an id already
// present in this journal.
func (j *Journal) AddTransaction(tx *Transaction) bool {
	if tx == nil {
		j.logger.Warn("journal rejected nil transaction", slog.String("journal_id", j.JournalID))
		return false
	}
	log := j.logger.With(
		slog.String("journal_id", j.JournalID),
		slog.String("transaction_id", tx.TransactionID),
	)
	if tx.EntityID != j.EntityID {
		log.Warn("journal rejected transaction: entity mismatch",
			slog.String("journal_entity_id", j.EntityID),
			slog.String("transaction_entity_id", tx.EntityID))
		return false
	}
	if tx.LineCount() < 2 {
		log.Warn("journal rejected transaction: fewer than two lines",
			slog.Int("line_count", tx.LineCount()))
		return false
	}
	if !tx.IsBalanced() {
		log.Warn("journal rejected transaction: debits do not equal credits",
			slog.String("total_debits", tx.TotalDebits().String()),
			slog.String("total_credits", tx.TotalCredits().String()))
		return false
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, exists := j.byID[tx.TransactionID]; exists {
		log.Warn("journal rejected transaction: id already present")
		return false
	}
	j.transactions = append(j.transactions, tx)
	j.byID[tx.TransactionID] = struct{}{}
	return true
}

// RemoveTransaction removes the transaction with the given id, reporting
// whether it was present.
func (j *Journal) RemoveTransaction(transactionID string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, exists := j.byID[transactionID]; !exists {
		return false
	}
	for i, tx := range j.transactions {
		if tx.TransactionID == transactionID {
			j.transactions = append(j.transactions[:i], j.transactions[i+1:]...)
			break
		}
	}
	delete(j.byID, transactionID)
	return true
}

// Transaction returns the contained transaction with the given id.
func (j *Journal) Transaction(transactionID string) (*Transaction, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if _, exists := j.byID[transactionID]; !exists {
		return nil, false
	}
	for _, tx := range j.transactions {
		if tx.TransactionID == transactionID {
			return tx, true
		}
	}
	return nil, false
}

// Transactions returns the contained transactions in insertion order.
func (j *Journal) Transactions() []*Transaction {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]*Transaction, len(j.transactions))
	copy(out, j.transactions)
	return out
}

// TransactionsByDateRange returns transactions whose date falls within the
// inclusive day range: start is normalized to 00:00:00.000 and end to
// 23:59:59.999 (UTC) before comparison.
func (j *Journal) TransactionsByDateRange(start, end time.Time) []*Transaction {
	startUTC := start.UTC()
	endUTC := end.UTC()
	from := time.Date(startUTC.Year(), startUTC.Month(), startUTC.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(endUTC.Year(), endUTC.Month(), endUTC.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)

	j.mu.RLock()
	defer j.mu.RUnlock()
	var out []*Transaction
	for _, tx := range j.transactions {
		d := tx.Date.UTC()
		if !d.Before(from) && !d.After(to) {
			out = append(out, tx)
		}
	}
	return out
}

// TotalDebits sums debit-side line amounts across all contained
// transactions, optionally restricted to posted ones.
func (j *Journal) TotalDebits(onlyPosted bool) decimal.Decimal {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.totalDebitsLocked(onlyPosted)
}

func (j *Journal) totalDebitsLocked(onlyPosted bool) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range j.transactions {
		if onlyPosted && tx.Status() != StatusPosted {
			continue
		}
		sum = sum.Add(tx.TotalDebits())
	}
	return sum
}

// TotalCredits sums credit-side line amounts across all contained
// transactions, optionally restricted to posted ones.
func (j *Journal) TotalCredits(onlyPosted bool) decimal.Decimal {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.totalCreditsLocked(onlyPosted)
}

func (j *Journal) totalCreditsLocked(onlyPosted bool) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range j.transactions {
		if onlyPosted && tx.Status() != StatusPosted {
			continue
		}
		sum = sum.Add(tx.TotalCredits())
	}
	return sum
}

// IsBalanced compares the journal's aggregate debit and credit totals for
// exact equality. Both totals come from one locked pass so a concurrent add
// cannot land between them.
func (j *Journal) IsBalanced(onlyPosted bool) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.totalDebitsLocked(onlyPosted).Equal(j.totalCreditsLocked(onlyPosted))
}
