package services

import (
	"context"
	"time"

	"github.com/openbooks/ledger_backend/internal/core/ledger"
	"github.com/openbooks/ledger_backend/internal/dto"
)

// LedgerSvcFacade is the application-facing surface over the bookkeeping
// core: it owns one in-memory ledger per entity and sequences validation,
// recording, persistence, and event publication.
type LedgerSvcFacade interface {
	CreateAccount(ctx context.Context, entityID string, req dto.CreateAccountRequest) (*ledger.Account, error)
	GetAccount(ctx context.Context, entityID, accountID string) (*ledger.Account, error)
	ListAccounts(ctx context.Context, entityID string) ([]*ledger.Account, error)
	DeactivateAccount(ctx context.Context, entityID, accountID string) error

	CreateJournal(ctx context.Context, entityID string, req dto.CreateJournalRequest) (*ledger.Journal, error)
	GetJournal(ctx context.Context, entityID, journalID string) (*ledger.Journal, error)
	ListJournals(ctx context.Context, entityID string) ([]*ledger.Journal, error)
	AddTransactionToJournal(ctx context.Context, entityID, journalID, transactionID string) error
	RemoveTransactionFromJournal(ctx context.Context, entityID, journalID, transactionID string) error
	JournalTransactionsByDateRange(ctx context.Context, entityID, journalID string, from, to time.Time) ([]*ledger.Transaction, error)

	RecordTransaction(ctx context.Context, entityID string, req dto.RecordTransactionRequest) (*ledger.Transaction, error)
	GetTransaction(ctx context.Context, entityID, transactionID string) (*ledger.Transaction, error)
	ListTransactions(ctx context.Context, entityID string) ([]*ledger.Transaction, error)
	ReverseTransaction(ctx context.Context, entityID, transactionID string, req dto.ReverseTransactionRequest) (*ledger.Transaction, error)
	VoidTransaction(ctx context.Context, entityID, transactionID string) error

	TrialBalance(ctx context.Context, entityID string) (ledger.TrialBalance, error)
}

// ServiceContainer bundles the service facades handed to the HTTP layer.
type ServiceContainer struct {
	Ledger LedgerSvcFacade
}
