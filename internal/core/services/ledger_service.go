package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openbooks/ledger_backend/internal/apperrors"
	"github.com/openbooks/ledger_backend/internal/core/ledger"
	"github.com/openbooks/ledger_backend/internal/core/money"
	portsevents "github.com/openbooks/ledger_backend/internal/core/ports/events"
	portsrepo "github.com/openbooks/ledger_backend/internal/core/ports/repositories"
	portssvc "github.com/openbooks/ledger_backend/internal/core/ports/services"
	"github.com/openbooks/ledger_backend/internal/dto"
)

var (
	ErrTransactionUnbalanced = errors.New("transaction debits do not equal credits")
	ErrTransactionRejected   = errors.New("transaction rejected by ledger")
	ErrJournalRejected       = errors.New("journal rejected transaction")
)

// ledgerService implements the LedgerSvcFacade. It keeps one rehydrated
// ledger per entity and sequences recording, persistence, and event
// publication. The core ledger serializes its own mutations; the service's
// mutex only guards the entity cache.
type ledgerService struct {
	BaseService
	repo      portsrepo.LedgerRepository
	publisher portsevents.Publisher

	mu      sync.Mutex
	ledgers map[string]*ledger.Ledger
}

// LedgerServiceOption is a functional option for configuring the service.
type LedgerServiceOption func(*ledgerService)

// WithEventPublisher attaches a downstream event publisher. Publication is
// best-effort and never fails a request.
func WithEventPublisher(p portsevents.Publisher) LedgerServiceOption {
	return func(s *ledgerService) {
		s.publisher = p
	}
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(repo portsrepo.LedgerRepository, options ...LedgerServiceOption) portssvc.LedgerSvcFacade {
	svc := &ledgerService{
		repo:    repo,
		ledgers: make(map[string]*ledger.Ledger),
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// getLedger returns the cached ledger for an entity, rehydrating it from the
// repository on first use. An entity with no persisted state gets a fresh
// empty ledger.
func (s *ledgerService) getLedger(ctx context.Context, entityID string) (*ledger.Ledger, error) {
	if entityID == "" {
		return nil, fmt.Errorf("%w: entity id is required", apperrors.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if led, ok := s.ledgers[entityID]; ok {
		return led, nil
	}

	led, err := s.repo.LoadLedger(ctx, entityID)
	if errors.Is(err, apperrors.ErrNotFound) {
		led, err = ledger.NewLedger(entityID, ledger.WithLogger(s.GetLogger(ctx)))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger for entity %s: %w", entityID, err)
	}
	s.ledgers[entityID] = led
	return led, nil
}

// evictLedger drops an entity's cached ledger so the next request rebuilds
// it from durable state. Called when persistence fails after an in-memory
// mutation, to stop the two from drifting apart.
func (s *ledgerService) evictLedger(entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ledgers, entityID)
}

func (s *ledgerService) CreateAccount(ctx context.Context, entityID string, req dto.CreateAccountRequest) (*ledger.Account, error) {
	led, err := s.getLedger(ctx, entityID)
	if err != nil {
		return nil, err
	}

	account, err := ledger.NewAccount(uuid.NewString(), req.Code, req.Name, req.AccountType, true)
	if err != nil {
		return nil, err
	}
	if err := led.AddAccount(account); err != nil {
		return nil, err
	}
	if err := s.repo.SaveAccount(ctx, entityID, account); err != nil {
		s.evictLedger(entityID)
		return nil, fmt.Errorf("failed to persist account %s: %w", account.AccountID, err)
	}

	s.LogInfo(ctx, "Account created",
		slog.String("entity_id", entityID),
		slog.String("account_id", account.AccountID),
		slog.String("account_code", account.Code))
	return account, nil
}

func (s *ledgerService) GetAccount(ctx context.Context, entityID, accountID string) (*ledger.Account, error) {
	led, err := s.getLedger(ctx, entityID)
	if err != nil {
		return nil, err
	}
	account, ok := led.Account(accountID)
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return account, nil
}

func (s *ledgerService) ListAccounts(ctx context.Context, entityID string) ([]*ledger.Account, error) {
	led, err := s.getLedger(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return led.Accounts(), nil
}

func (s *ledgerService) DeactivateAccount(ctx context.Context, entityID, accountID string) error {
	led, err := s.getLedger(ctx, entityID)
	if err != nil {
		return err
	}
	if !led.DeactivateAccount(accountID) {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	if err := s.repo.UpdateAccountStatus(ctx, entityID, accountID, false); err != nil {
		s.evictLedger(entityID)
		return fmt.Errorf("failed to persist deactivation of account %s: %w", accountID, err)
	}
	s.LogInfo(ctx, "Account deactivated",
		slog.String("entity_id", entityID),
		slog.String("account_id", accountID))
	return nil
}

func (s *ledgerService) CreateJournal(ctx context.Context, entityID string, req dto.CreateJournalRequest) (*ledger.Journal, error) {
	led, err := s.getLedger(ctx, entityID)
	if err != nil {
		return nil, err
	}

	journal, err := ledger.NewJournal(uuid.NewString(), req.Name, entityID,
		ledger.WithJournalLogger(s.GetLogger(ctx)))
	if err != nil {
		return nil, err
	}
	if err := led.AddJournal(journal); err != nil {
		return nil, err
	}
	if err := s.repo.SaveJournal(ctx, entityID, journal); err != nil {
		s.evictLedger(entityID)
		return nil, fmt.Errorf("failed to persist journal %s: %w", journal.JournalID, err)
	}

	s.LogInfo(ctx, "Journal created",
		slog.String("entity_id", entityID),
		slog.String("journal_id", journal.JournalID),
		slog.String("journal_name", journal.Name))
	return journal, nil
}

func (s *ledgerService) GetJournal(ctx context.Context, entityID, journalID string) (*ledger.Journal, error) {
	led, err := s.getLedger(ctx, entityID)
	if err != nil {
		return nil, err
	}
	journal, ok := led.Journal(journalID)
	if !ok {
		return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
	}
	return journal, nil
}

func (s *ledgerService) ListJournals(ctx context.Context, entityID string) ([]*ledger.Journal, error) {
	led, err := s.getLedger(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return led.Journals(), nil
}

func (s *ledgerService) AddTransactionToJournal(ctx context.Context, entityID, journalID, transactionID string) error {
	led, err := s.getLedger(ctx, entityID)
	if err != nil {
		return err
	}
	journal, ok := led.Journal(journalID)
	if !ok {
		return fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
	}
	txn, ok := led.RecordedTransaction(transactionID)
	if !ok {
		return fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
	}
	if !journal.AddTransaction(txn) {
		return fmt.Errorf("%w: journal %s did not accept transaction %s", ErrJournalRejected, journalID, transactionID)
	}
	if err := s.repo.UpdateTransactionJournal(ctx, entityID, transactionID, journalID); err != nil {
		s.evictLedger(entityID)
		return fmt.Errorf("failed to persist journal membership: %w", err)
	}
	return nil
}

func (s *ledgerService) RemoveTransactionFromJournal(ctx context.Context, entityID, journalID, transactionID string) error {
	led, err := s.getLedger(ctx, entityID)
	if err != nil {
		return err
	}
	journal, ok := led.Journal(journalID)
	if !ok {
		return fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
	}
	if !journal.RemoveTransaction(transactionID) {
		return fmt.Errorf("%w: transaction %s not in journal %s", apperrors.ErrNotFound, transactionID, journalID)
	}
	if err := s.repo.UpdateTransactionJournal(ctx, entityID, transactionID, ""); err != nil {
		s.evictLedger(entityID)
		return fmt.Errorf("failed to persist journal membership: %w", err)
	}
	return nil
}

func (s *ledgerService) JournalTransactionsByDateRange(ctx context.Context, entityID, journalID string, from, to time.Time) ([]*ledger.Transaction, error) {
	led, err := s.getLedger(ctx, entityID)
	if err != nil {
		return nil, err
	}
	journal, ok := led.Journal(journalID)
	if !ok {
		return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
	}
	return journal.TransactionsByDateRange(from, to), nil
}

// RecordTransaction builds a transaction from the request, posts it, records
// it against the entity's ledger, persists the outcome, and publishes a
// TransactionRecorded event. The core's two-tier error model is preserved:
// structural defects surface as typed LedgerErrors, business-rule rejections
// as wrapped sentinel errors the HTTP layer turns into 4xx responses.
func (s *ledgerService) RecordTransaction(ctx context.Context, entityID string, req dto.RecordTransactionRequest) (*ledger.Transaction, error) {
	led, err := s.getLedger(ctx, entityID)
	if err != nil {
		return nil, err
	}

	transactionID := req.TransactionID
	if transactionID == "" {
		transactionID = uuid.NewString()
	}

	lines := make([]ledger.TransactionLine, 0, len(req.Lines))
	for _, lineReq := range req.Lines {
		amount, err := money.Parse(lineReq.Amount)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ledger.TransactionLine{
			LineID:    uuid.NewString(),
			AccountID: lineReq.AccountID,
			Amount:    amount,
			IsDebit:   lineReq.Side == dto.SideDebit,
			Memo:      lineReq.Memo,
		})
	}

	opts := []ledger.TransactionOption{}
	if req.Reference != "" {
		opts = append(opts, ledger.WithReference(req.Reference))
	}
	if len(req.Metadata) > 0 {
		opts = append(opts, ledger.WithMetadata(req.Metadata))
	}
	txn, err := ledger.NewTransaction(transactionID, req.Date, req.Description, entityID, lines, opts...)
	if err != nil {
		return nil, err
	}
	for _, w := range txn.Warnings() {
		s.LogWarn(ctx, "Transaction line normalized",
			slog.String("transaction_id", transactionID),
			slog.String("warning_code", w.Code),
			slog.String("line_id", w.LineID),
			slog.String("detail", w.Message))
	}

	// Resolve the journal before recording; grouping must not fail after
	// effects have been applied.
	var journal *ledger.Journal
	if req.JournalID != "" {
		var ok bool
		journal, ok = led.Journal(req.JournalID)
		if !ok {
			return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, req.JournalID)
		}
	}

	ok, err := txn.Post()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: debits %s, credits %s", ErrTransactionUnbalanced,
			txn.TotalDebits().String(), txn.TotalCredits().String())
	}

	if !led.RecordTransaction(txn) {
		return nil, fmt.Errorf("%w: transaction %s", ErrTransactionRejected, transactionID)
	}
	if journal != nil && !journal.AddTransaction(txn) {
		// Recording succeeded; a grouping rejection at this point is
		// diagnostic only.
		s.LogWarn(ctx, "Journal did not accept recorded transaction",
			slog.String("journal_id", req.JournalID),
			slog.String("transaction_id", transactionID))
	}

	balances := make(map[string]decimal.Decimal, len(lines))
	for _, line := range lines {
		if account, ok := led.Account(line.AccountID); ok {
			balances[line.AccountID] = account.Balance()
		}
	}
	if err := s.repo.SaveRecordedTransaction(ctx, entityID, txn, req.JournalID, balances); err != nil {
		s.evictLedger(entityID)
		return nil, fmt.Errorf("failed to persist transaction %s: %w", transactionID, err)
	}

	s.publishRecorded(ctx, entityID, req.JournalID, txn)

	s.LogInfo(ctx, "Transaction recorded",
		slog.String("entity_id", entityID),
		slog.String("transaction_id", transactionID),
		slog.String("total_amount", txn.TotalAmount().String()))
	return txn, nil
}

func (s *ledgerService) publishRecorded(ctx context.Context, entityID, journalID string, txn *ledger.Transaction) {
	if s.publisher == nil {
		return
	}
	event := portsevents.TransactionRecorded{
		EntityID:      entityID,
		TransactionID: txn.TransactionID,
		JournalID:     journalID,
		Description:   txn.Description,
		TotalAmount:   money.Canonical(txn.TotalAmount()),
		LineCount:     txn.LineCount(),
		RecordedAt:    time.Now().UTC(),
	}
	if err := s.publisher.PublishTransactionRecorded(ctx, event); err != nil {
		s.LogError(ctx, err, "Failed to publish TransactionRecorded event",
			slog.String("transaction_id", txn.TransactionID))
	}
}

func (s *ledgerService) GetTransaction(ctx context.Context, entityID, transactionID string) (*ledger.Transaction, error) {
	led, err := s.getLedger(ctx, entityID)
	if err != nil {
		return nil, err
	}
	txn, ok := led.RecordedTransaction(transactionID)
	if !ok {
		return nil, fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
	}
	return txn, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, entityID string) ([]*ledger.Transaction, error) {
	led, err := s.getLedger(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return led.RecordedTransactions(), nil
}

// ReverseTransaction records a new transaction that exactly negates a
// previously recorded one, leaving a net-zero cumulative effect on every
// account the original touched.
func (s *ledgerService) ReverseTransaction(ctx context.Context, entityID, transactionID string, req dto.ReverseTransactionRequest) (*ledger.Transaction, error) {
	led, err := s.getLedger(ctx, entityID)
	if err != nil {
		return nil, err
	}
	original, ok := led.RecordedTransaction(transactionID)
	if !ok {
		return nil, fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
	}

	reversal, err := original.CreateReversal(uuid.NewString(), req.Date, req.Description)
	if err != nil {
		return nil, err
	}
	posted, err := reversal.Post()
	if err != nil {
		return nil, err
	}
	if !posted {
		// A reversal of a recorded transaction is balanced by construction.
		return nil, apperrors.NewLedgerError(apperrors.CodeCalculationError, reversal.TransactionID,
			"reversal failed to post")
	}
	if !led.RecordTransaction(reversal) {
		return nil, fmt.Errorf("%w: reversal of %s", ErrTransactionRejected, transactionID)
	}

	balances := make(map[string]decimal.Decimal)
	for _, line := range reversal.Lines() {
		if account, ok := led.Account(line.AccountID); ok {
			balances[line.AccountID] = account.Balance()
		}
	}
	if err := s.repo.SaveRecordedTransaction(ctx, entityID, reversal, "", balances); err != nil {
		s.evictLedger(entityID)
		return nil, fmt.Errorf("failed to persist reversal %s: %w", reversal.TransactionID, err)
	}

	s.publishRecorded(ctx, entityID, "", reversal)

	s.LogInfo(ctx, "Transaction reversed",
		slog.String("entity_id", entityID),
		slog.String("transaction_id", transactionID),
		slog.String("reversal_id", reversal.TransactionID))
	return reversal, nil
}

// VoidTransaction marks a recorded transaction as void. The status change is
// audit-trail only: balance effects are undone exclusively via reversals.
func (s *ledgerService) VoidTransaction(ctx context.Context, entityID, transactionID string) error {
	led, err := s.getLedger(ctx, entityID)
	if err != nil {
		return err
	}
	txn, ok := led.RecordedTransaction(transactionID)
	if !ok {
		return fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
	}
	if err := txn.Void(); err != nil {
		return err
	}
	if err := s.repo.UpdateTransactionStatus(ctx, entityID, transactionID, ledger.StatusVoid); err != nil {
		s.evictLedger(entityID)
		return fmt.Errorf("failed to persist void of transaction %s: %w", transactionID, err)
	}
	s.LogInfo(ctx, "Transaction voided",
		slog.String("entity_id", entityID),
		slog.String("transaction_id", transactionID))
	return nil
}

func (s *ledgerService) TrialBalance(ctx context.Context, entityID string) (ledger.TrialBalance, error) {
	led, err := s.getLedger(ctx, entityID)
	if err != nil {
		return ledger.TrialBalance{}, err
	}
	return led.GenerateTrialBalance(), nil
}
