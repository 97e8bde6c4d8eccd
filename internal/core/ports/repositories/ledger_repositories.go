package repositories

import (
	"context"

	"github.com/openbooks/ledger_backend/internal/core/ledger"
	"github.com/shopspring/decimal"
)

// LedgerRepository persists and rehydrates the bookkeeping core for one
// entity at a time. The core itself performs no I/O; everything durable goes
// through this port.
type LedgerRepository interface {
	// LoadLedger rebuilds the full in-memory ledger for an entity: accounts
	// with their persisted balances, journals with their memberships, and the
	// recorded transaction history (appended without re-applying effects).
	// Returns apperrors.ErrNotFound when the entity has no state at all.
	LoadLedger(ctx context.Context, entityID string) (*ledger.Ledger, error)

	// SaveAccount inserts a newly created account.
	SaveAccount(ctx context.Context, entityID string, account *ledger.Account) error

	// UpdateAccountStatus persists an activation flag change.
	UpdateAccountStatus(ctx context.Context, entityID, accountID string, isActive bool) error

	// SaveJournal inserts a newly created journal.
	SaveJournal(ctx context.Context, entityID string, journal *ledger.Journal) error

	// SaveRecordedTransaction persists a recorded transaction, its lines, its
	// optional journal membership, and the resulting account balances in one
	// database transaction, so a crash cannot separate effects from history.
	SaveRecordedTransaction(ctx context.Context, entityID string, txn *ledger.Transaction, journalID string, balances map[string]decimal.Decimal) error

	// UpdateTransactionStatus persists a lifecycle change (e.g. voiding).
	UpdateTransactionStatus(ctx context.Context, entityID, transactionID string, status ledger.TransactionStatus) error

	// UpdateTransactionJournal persists a journal membership change. An empty
	// journalID clears the membership.
	UpdateTransactionJournal(ctx context.Context, entityID, transactionID, journalID string) error
}
