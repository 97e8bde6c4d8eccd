package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/openbooks/ledger_backend/internal/apperrors"
	"github.com/openbooks/ledger_backend/internal/core/ledger"
	portsrepo "github.com/openbooks/ledger_backend/internal/core/ports/repositories"
)

type PgxLedgerRepository struct {
	pool *pgxpool.Pool
}

// NewPgxLedgerRepository creates a new repository for ledger data.
func NewPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepository {
	return &PgxLedgerRepository{pool: pool}
}

var _ portsrepo.LedgerRepository = (*PgxLedgerRepository)(nil)

// LoadLedger rebuilds the in-memory ledger for an entity. Accounts come back
// with their persisted balances, so recorded transactions are replayed through
// the restore path, which appends history without re-applying effects.
func (r *PgxLedgerRepository) LoadLedger(ctx context.Context, entityID string) (*ledger.Ledger, error) {
	led, err := ledger.NewLedger(entityID)
	if err != nil {
		return nil, err
	}

	accountCount, err := r.loadAccounts(ctx, entityID, led)
	if err != nil {
		return nil, err
	}
	journals, err := r.loadJournals(ctx, entityID, led)
	if err != nil {
		return nil, err
	}
	if accountCount == 0 && len(journals) == 0 {
		return nil, apperrors.ErrNotFound
	}

	if err := r.loadTransactions(ctx, entityID, led, journals); err != nil {
		return nil, err
	}
	return led, nil
}

func (r *PgxLedgerRepository) loadAccounts(ctx context.Context, entityID string, led *ledger.Ledger) (int, error) {
	query := `
		SELECT account_id, code, name, account_type, is_active, balance
		FROM accounts
		WHERE entity_id = $1;
	`
	rows, err := r.pool.Query(ctx, query, entityID)
	if err != nil {
		return 0, fmt.Errorf("failed to query accounts for entity %s: %w", entityID, err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			accountID   string
			code        string
			name        string
			accountType ledger.AccountType
			isActive    bool
			balance     decimal.Decimal
		)
		if err := rows.Scan(&accountID, &code, &name, &accountType, &isActive, &balance); err != nil {
			return 0, fmt.Errorf("failed to scan account row: %w", err)
		}
		account, err := ledger.NewAccountWithBalance(accountID, code, name, accountType, isActive, balance)
		if err != nil {
			return 0, fmt.Errorf("failed to rebuild account %s: %w", accountID, err)
		}
		if err := led.AddAccount(account); err != nil {
			return 0, err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate account rows: %w", err)
	}
	return count, nil
}

func (r *PgxLedgerRepository) loadJournals(ctx context.Context, entityID string, led *ledger.Ledger) (map[string]*ledger.Journal, error) {
	query := `
		SELECT journal_id, name
		FROM journals
		WHERE entity_id = $1;
	`
	rows, err := r.pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query journals for entity %s: %w", entityID, err)
	}
	defer rows.Close()

	journals := make(map[string]*ledger.Journal)
	for rows.Next() {
		var journalID, name string
		if err := rows.Scan(&journalID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		journal, err := ledger.NewJournal(journalID, name, entityID)
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild journal %s: %w", journalID, err)
		}
		if err := led.AddJournal(journal); err != nil {
			return nil, err
		}
		journals[journalID] = journal
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal rows: %w", err)
	}
	return journals, nil
}

func (r *PgxLedgerRepository) loadTransactions(ctx context.Context, entityID string, led *ledger.Ledger, journals map[string]*ledger.Journal) error {
	lines, err := r.loadTransactionLines(ctx, entityID)
	if err != nil {
		return err
	}

	query := `
		SELECT transaction_id, journal_id, transaction_date, description, reference, metadata, status
		FROM transactions
		WHERE entity_id = $1
		ORDER BY created_at;
	`
	rows, err := r.pool.Query(ctx, query, entityID)
	if err != nil {
		return fmt.Errorf("failed to query transactions for entity %s: %w", entityID, err)
	}
	defer rows.Close()

	type txnRow struct {
		transaction *ledger.Transaction
		journalID   string
	}
	var restored []txnRow
	for rows.Next() {
		var (
			transactionID string
			journalID     *string
			date          time.Time
			description   string
			reference     string
			metadata      map[string]string
			status        ledger.TransactionStatus
		)
		if err := rows.Scan(&transactionID, &journalID, &date, &description, &reference, &metadata, &status); err != nil {
			return fmt.Errorf("failed to scan transaction row: %w", err)
		}

		opts := []ledger.TransactionOption{}
		if reference != "" {
			opts = append(opts, ledger.WithReference(reference))
		}
		if len(metadata) > 0 {
			opts = append(opts, ledger.WithMetadata(metadata))
		}
		txn, err := ledger.NewTransaction(transactionID, date, description, entityID, lines[transactionID], opts...)
		if err != nil {
			return fmt.Errorf("failed to rebuild transaction %s: %w", transactionID, err)
		}
		if _, err := txn.Post(); err != nil {
			return fmt.Errorf("failed to rebuild transaction %s: %w", transactionID, err)
		}
		if status == ledger.StatusVoid {
			if err := txn.Void(); err != nil {
				return fmt.Errorf("failed to rebuild transaction %s: %w", transactionID, err)
			}
		}

		entry := txnRow{transaction: txn}
		if journalID != nil {
			entry.journalID = *journalID
		}
		restored = append(restored, entry)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate transaction rows: %w", err)
	}

	for _, entry := range restored {
		if err := led.RestoreRecordedTransaction(entry.transaction); err != nil {
			return fmt.Errorf("failed to restore transaction %s: %w", entry.transaction.TransactionID, err)
		}
		if journal, ok := journals[entry.journalID]; ok {
			journal.AddTransaction(entry.transaction)
		}
	}
	return nil
}

func (r *PgxLedgerRepository) loadTransactionLines(ctx context.Context, entityID string) (map[string][]ledger.TransactionLine, error) {
	query := `
		SELECT l.transaction_id, l.line_id, l.account_id, l.amount, l.is_debit, l.memo
		FROM transaction_lines l
		JOIN transactions t ON t.transaction_id = l.transaction_id
		WHERE t.entity_id = $1
		ORDER BY l.created_at;
	`
	rows, err := r.pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction lines for entity %s: %w", entityID, err)
	}
	defer rows.Close()

	lines := make(map[string][]ledger.TransactionLine)
	for rows.Next() {
		var (
			transactionID string
			line          ledger.TransactionLine
		)
		if err := rows.Scan(&transactionID, &line.LineID, &line.AccountID, &line.Amount, &line.IsDebit, &line.Memo); err != nil {
			return nil, fmt.Errorf("failed to scan transaction line row: %w", err)
		}
		lines[transactionID] = append(lines[transactionID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transaction line rows: %w", err)
	}
	return lines, nil
}

// SaveAccount inserts a newly created account.
func (r *PgxLedgerRepository) SaveAccount(ctx context.Context, entityID string, account *ledger.Account) error {
	query := `
		INSERT INTO accounts (entity_id, account_id, code, name, account_type, is_active, balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.pool.Exec(ctx, query,
		entityID,
		account.AccountID,
		account.Code,
		account.Name,
		account.Type,
		account.IsActive,
		account.Balance(),
	)
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}
	return nil
}

// UpdateAccountStatus persists an activation flag change.
func (r *PgxLedgerRepository) UpdateAccountStatus(ctx context.Context, entityID, accountID string, isActive bool) error {
	query := `
		UPDATE accounts
		SET is_active = $3, updated_at = now()
		WHERE entity_id = $1 AND account_id = $2;
	`
	tag, err := r.pool.Exec(ctx, query, entityID, accountID, isActive)
	if err != nil {
		return fmt.Errorf("failed to update status of account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SaveJournal inserts a newly created journal.
func (r *PgxLedgerRepository) SaveJournal(ctx context.Context, entityID string, journal *ledger.Journal) error {
	query := `
		INSERT INTO journals (entity_id, journal_id, name)
		VALUES ($1, $2, $3);
	`
	_, err := r.pool.Exec(ctx, query, entityID, journal.JournalID, journal.Name)
	if err != nil {
		return fmt.Errorf("failed to save journal %s: %w", journal.JournalID, err)
	}
	return nil
}

// SaveRecordedTransaction persists a recorded transaction, its lines, and the
// resulting account balances within one DB transaction.
func (r *PgxLedgerRepository) SaveRecordedTransaction(ctx context.Context, entityID string, txn *ledger.Transaction, journalID string, balances map[string]decimal.Decimal) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var journalRef *string
	if journalID != "" {
		journalRef = &journalID
	}
	txnQuery := `
		INSERT INTO transactions (entity_id, transaction_id, journal_id, transaction_date, description, reference, metadata, status, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err = tx.Exec(ctx, txnQuery,
		entityID,
		txn.TransactionID,
		journalRef,
		txn.Date,
		txn.Description,
		txn.Reference,
		txn.Metadata,
		txn.Status(),
		txn.TotalAmount(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.TransactionID, err)
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO transaction_lines (line_id, transaction_id, account_id, amount, is_debit, memo)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	for _, line := range txn.Lines() {
		batch.Queue(lineQuery,
			line.LineID,
			txn.TransactionID,
			line.AccountID,
			line.Amount,
			line.IsDebit,
			line.Memo,
		)
	}
	balanceQuery := `
		UPDATE accounts
		SET balance = $3, updated_at = now()
		WHERE entity_id = $1 AND account_id = $2;
	`
	for accountID, balance := range balances {
		batch.Queue(balanceQuery, entityID, accountID, balance)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute batch for transaction %s: %w", txn.TransactionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction %s: %w", txn.TransactionID, err)
	}
	return nil
}

// UpdateTransactionStatus persists a lifecycle change.
func (r *PgxLedgerRepository) UpdateTransactionStatus(ctx context.Context, entityID, transactionID string, status ledger.TransactionStatus) error {
	query := `
		UPDATE transactions
		SET status = $3, updated_at = now()
		WHERE entity_id = $1 AND transaction_id = $2;
	`
	tag, err := r.pool.Exec(ctx, query, entityID, transactionID, status)
	if err != nil {
		return fmt.Errorf("failed to update status of transaction %s: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateTransactionJournal persists a journal membership change.
func (r *PgxLedgerRepository) UpdateTransactionJournal(ctx context.Context, entityID, transactionID, journalID string) error {
	var journalRef *string
	if journalID != "" {
		journalRef = &journalID
	}
	query := `
		UPDATE transactions
		SET journal_id = $3, updated_at = now()
		WHERE entity_id = $1 AND transaction_id = $2;
	`
	tag, err := r.pool.Exec(ctx, query, entityID, transactionID, journalRef)
	if err != nil {
		return fmt.Errorf("failed to update journal of transaction %s: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
