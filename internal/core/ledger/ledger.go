// Package ledger implements the double-entry bookkeeping core: the account
// registry, the transaction lifecycle state machine, journals, and the Ledger
// aggregate that enforces debit/credit invariants and produces the trial
// balance. The package is an in-process library; persistence, transport, and
// report formatting live in the surrounding service layer.
package ledger

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/openbooks/ledger_backend/internal/apperrors"
)

// Ledger is the aggregate root for one entity. It owns all accounts and
// journals, keeps the append-only list of recorded transactions, and is the
// sole mutator of account balances. All mutating operations are serialized
// behind a single writer lock; reads may run concurrently with each other.
type Ledger struct {
	entityID string
	logger   *slog.Logger

	mu          sync.RWMutex
	accounts    map[string]*Account
	journals    map[string]*Journal
	recorded    []*Transaction
	recordedIDs map[string]struct{}
}

// LedgerOption configures a ledger at construction.
type LedgerOption func(*Ledger)

// WithLogger injects the diagnostics logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) LedgerOption {
	return func(l *Ledger) { l.logger = logger }
}

// NewLedger builds an empty ledger for the given entity.
func NewLedger(entityID string, opts ...LedgerOption) (*Ledger, error) {
	if strings.TrimSpace(entityID) == "" {
		return nil, apperrors.NewLedgerError(apperrors.CodeMissingField, "", "ledger entity id is required")
	}
	l := &Ledger{
		entityID:    entityID,
		logger:      slog.Default(),
		accounts:    make(map[string]*Account),
		journals:    make(map[string]*Journal),
		recordedIDs: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// EntityID returns the entity this ledger belongs to.
func (l *Ledger) EntityID() string {
	return l.entityID
}

// AddAccount registers an account. A duplicate id is a setup-time programmer
// error and fails with ErrDuplicate.
func (l *Ledger) AddAccount(a *Account) error {
	if a == nil {
		return fmt.Errorf("%w: account is nil", apperrors.ErrValidation)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.accounts[a.AccountID]; exists {
		return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, a.AccountID)
	}
	l.accounts[a.AccountID] = a
	return nil
}

// AddJournal registers a journal. Duplicate ids and entity mismatches are
// setup-time programmer errors.
func (l *Ledger) AddJournal(j *Journal) error {
	if j == nil {
		return fmt.Errorf("%w: journal is nil", apperrors.ErrValidation)
	}
	if j.EntityID != l.entityID {
		return fmt.Errorf("%w: journal %s belongs to entity %s, ledger belongs to %s",
			apperrors.ErrValidation, j.JournalID, j.EntityID, l.entityID)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.journals[j.JournalID]; exists {
		return fmt.Errorf("%w: journal %s", apperrors.ErrDuplicate, j.JournalID)
	}
	l.journals[j.JournalID] = j
	return nil
}

// Account returns a point-in-time copy of the account with the given id.
// The copy is taken under the read lock, so it never observes a writer
// mid-application; callers wanting a fresher balance look the account up
// again.
func (l *Ledger) Account(accountID string) (*Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.accounts[accountID]
	if !ok {
		return nil, false
	}
	snapshot := *a
	return &snapshot, true
}

// Accounts returns point-in-time copies of all accounts sorted ascending by
// code.
func (l *Ledger) Accounts() []*Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	live := l.accountsSortedLocked()
	out := make([]*Account, len(live))
	for i, a := range live {
		snapshot := *a
		out[i] = &snapshot
	}
	return out
}

func (l *Ledger) accountsSortedLocked() []*Account {
	out := make([]*Account, 0, len(l.accounts))
	for _, a := range l.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Code < out[k].Code })
	return out
}

// Journal returns the journal with the given id.
func (l *Ledger) Journal(journalID string) (*Journal, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	j, ok := l.journals[journalID]
	return j, ok
}

// Journals returns all journals sorted by id.
func (l *Ledger) Journals() []*Journal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Journal, 0, len(l.journals))
	for _, j := range l.journals {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].JournalID < out[k].JournalID })
	return out
}

// DeactivateAccount soft-retires an account. Accounts are never deleted so
// historical postings keep resolving. Returns false when the id is unknown.
func (l *Ledger) DeactivateAccount(accountID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[accountID]
	if !ok {
		return false
	}
	a.IsActive = false
	return true
}

// ActivateAccount re-enables a deactivated account.
func (l *Ledger) ActivateAccount(accountID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[accountID]
	if !ok {
		return false
	}
	a.IsActive = true
	return true
}

// RecordTransaction is the single invariant-enforcing entry point for
// applying a transaction's effects. The precondition checks run in order and
// short-circuit: entity match, balanced, posted, not already recorded, every
// line's account resolves, every referenced account active. The first failure
// logs the reason and returns false with no mutation at all. Only when every
// check passes does the ledger apply each line to its account and append the
// transaction to the recorded history, atomically with respect to concurrent
// callers.
func (l *Ledger) RecordTransaction(tx *Transaction) bool {
	if tx == nil {
		l.logger.Warn("record rejected: nil transaction", slog.String("entity_id", l.entityID))
		return false
	}
	log := l.logger.With(
		slog.String("entity_id", l.entityID),
		slog.String("transaction_id", tx.TransactionID),
	)

	l.mu.Lock()
	defer l.mu.Unlock()

	if tx.EntityID != l.entityID {
		log.Warn("record rejected: entity mismatch", slog.String("transaction_entity_id", tx.EntityID))
		return false
	}
	if !tx.IsBalanced() {
		log.Warn("record rejected: debits do not equal credits",
			slog.String("total_debits", tx.TotalDebits().String()),
			slog.String("total_credits", tx.TotalCredits().String()))
		return false
	}
	if tx.Status() != StatusPosted {
		log.Warn("record rejected: transaction is not posted", slog.String("status", string(tx.Status())))
		return false
	}
	if _, exists := l.recordedIDs[tx.TransactionID]; exists {
		log.Warn("record rejected: transaction already recorded")
		return false
	}

	// Resolve every account before touching any balance, so a failure on the
	// fifth line cannot leave the first four applied.
	lines := tx.Lines()
	resolved := make([]*Account, len(lines))
	for i, line := range lines {
		a, ok := l.accounts[line.AccountID]
		if !ok {
			log.Warn("record rejected: unknown account", slog.String("account_id", line.AccountID))
			return false
		}
		resolved[i] = a
	}
	for _, a := range resolved {
		if !a.IsActive {
			log.Warn("record rejected: inactive account", slog.String("account_id", a.AccountID))
			return false
		}
	}

	for i, line := range lines {
		resolved[i].applyTransaction(line.Amount, line.IsDebit)
	}
	l.recorded = append(l.recorded, tx)
	l.recordedIDs[tx.TransactionID] = struct{}{}

	log.Info("transaction recorded",
		slog.Int("line_count", len(lines)),
		slog.String("total_amount", tx.TotalAmount().String()))
	return true
}

// RecordedTransactions returns the recorded history in record order.
func (l *Ledger) RecordedTransactions() []*Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Transaction, len(l.recorded))
	copy(out, l.recorded)
	return out
}

// RecordedTransaction returns a recorded transaction by id.
func (l *Ledger) RecordedTransaction(transactionID string) (*Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.recordedIDs[transactionID]; !ok {
		return nil, false
	}
	for _, tx := range l.recorded {
		if tx.TransactionID == transactionID {
			return tx, true
		}
	}
	return nil, false
}

// RecordedCount returns the number of recorded transactions.
func (l *Ledger) RecordedCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.recorded)
}

// RestoreRecordedTransaction appends a previously persisted transaction to
// the recorded history without re-applying its balance effects, which are
// already reflected in the rehydrated account balances. It exists for
// repository rehydration only.
func (l *Ledger) RestoreRecordedTransaction(tx *Transaction) error {
	if tx == nil {
		return fmt.Errorf("%w: transaction is nil", apperrors.ErrValidation)
	}
	if tx.EntityID != l.entityID {
		return fmt.Errorf("%w: transaction %s belongs to entity %s", apperrors.ErrValidation, tx.TransactionID, tx.EntityID)
	}
	if tx.Status() != StatusPosted && tx.Status() != StatusVoid {
		return fmt.Errorf("%w: transaction %s has status %s, only posted or void transactions can be restored",
			apperrors.ErrValidation, tx.TransactionID, tx.Status())
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.recordedIDs[tx.TransactionID]; exists {
		return fmt.Errorf("%w: transaction %s", apperrors.ErrDuplicate, tx.TransactionID)
	}
	l.recorded = append(l.recorded, tx)
	l.recordedIDs[tx.TransactionID] = struct{}{}
	return nil
}
