package ledger_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/openbooks/ledger_backend/internal/apperrors"
	"github.com/openbooks/ledger_backend/internal/core/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.NewLedger("entity-1")
	require.NoError(t, err)
	return l
}

func addAccount(t *testing.T, l *ledger.Ledger, id, code, name string, accountType ledger.AccountType) *ledger.Account {
	t.Helper()
	a, err := ledger.NewAccount(id, code, name, accountType, true)
	require.NoError(t, err)
	require.NoError(t, l.AddAccount(a))
	return a
}

func TestLedger_AddAccountDuplicate(t *testing.T) {
	l := newTestLedger(t)
	addAccount(t, l, "acc-cash", "1000", "Cash", ledger.Asset)

	dup, err := ledger.NewAccount("acc-cash", "1001", "Cash again", ledger.Asset, true)
	require.NoError(t, err)
	err = l.AddAccount(dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestLedger_AddJournal(t *testing.T) {
	l := newTestLedger(t)

	j, err := ledger.NewJournal("j-1", "General", "entity-1")
	require.NoError(t, err)
	require.NoError(t, l.AddJournal(j))

	dup, err := ledger.NewJournal("j-1", "General again", "entity-1")
	require.NoError(t, err)
	err = l.AddJournal(dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	foreign, err := ledger.NewJournal("j-2", "Foreign", "entity-2")
	require.NoError(t, err)
	err = l.AddJournal(foreign)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

// Scenario A: a balanced debit-cash / credit-income transaction posts,
// records, and lands 100.00 on both accounts.
func TestLedger_RecordTransaction_Success(t *testing.T) {
	l := newTestLedger(t)
	cash := addAccount(t, l, "acc-cash", "1000", "Cash", ledger.Asset)
	income := addAccount(t, l, "acc-income", "4000", "Rental Income", ledger.Income)

	tx := postedTx(t, "tx-1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "entity-1", "100.00")

	require.True(t, l.RecordTransaction(tx))
	assert.Equal(t, 1, l.RecordedCount())
	assert.Equal(t, "100.00", cash.Balance().String())
	assert.Equal(t, "100.00", income.Balance().String())
}

// Scenario C: recording the same transaction id twice leaves the count and
// every balance exactly as after the first call.
func TestLedger_RecordTransaction_Idempotent(t *testing.T) {
	l := newTestLedger(t)
	cash := addAccount(t, l, "acc-cash", "1000", "Cash", ledger.Asset)
	income := addAccount(t, l, "acc-income", "4000", "Rental Income", ledger.Income)

	tx := postedTx(t, "tx-1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "entity-1", "100.00")

	require.True(t, l.RecordTransaction(tx))
	assert.False(t, l.RecordTransaction(tx))

	assert.Equal(t, 1, l.RecordedCount())
	assert.Equal(t, "100.00", cash.Balance().String())
	assert.Equal(t, "100.00", income.Balance().String())
}

func TestLedger_RecordTransaction_Rejections(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("entity mismatch", func(t *testing.T) {
		l := newTestLedger(t)
		addAccount(t, l, "acc-cash", "1000", "Cash", ledger.Asset)
		addAccount(t, l, "acc-income", "4000", "Income", ledger.Income)
		tx := postedTx(t, "tx-1", date, "entity-2", "100.00")
		assert.False(t, l.RecordTransaction(tx))
		assert.Equal(t, 0, l.RecordedCount())
	})

	t.Run("draft never recorded", func(t *testing.T) {
		l := newTestLedger(t)
		cash := addAccount(t, l, "acc-cash", "1000", "Cash", ledger.Asset)
		addAccount(t, l, "acc-income", "4000", "Income", ledger.Income)
		tx := draftTx(t, "tx-1", date, "entity-1", "100.00")
		assert.False(t, l.RecordTransaction(tx))
		assert.True(t, cash.Balance().IsZero())
	})

	t.Run("unknown account leaves no partial mutation", func(t *testing.T) {
		l := newTestLedger(t)
		cash := addAccount(t, l, "acc-cash", "1000", "Cash", ledger.Asset)
		// acc-income is never registered.
		tx := postedTx(t, "tx-1", date, "entity-1", "100.00")
		assert.False(t, l.RecordTransaction(tx))
		assert.True(t, cash.Balance().IsZero(), "first line must not have been applied")
		assert.Equal(t, 0, l.RecordedCount())
	})

	t.Run("inactive account leaves no partial mutation", func(t *testing.T) {
		l := newTestLedger(t)
		cash := addAccount(t, l, "acc-cash", "1000", "Cash", ledger.Asset)
		income := addAccount(t, l, "acc-income", "4000", "Income", ledger.Income)
		require.True(t, l.DeactivateAccount("acc-income"))

		tx := postedTx(t, "tx-1", date, "entity-1", "100.00")
		assert.False(t, l.RecordTransaction(tx))
		assert.True(t, cash.Balance().IsZero())
		assert.True(t, income.Balance().IsZero())
		assert.Equal(t, 0, l.RecordedCount())
	})

	t.Run("nil transaction", func(t *testing.T) {
		l := newTestLedger(t)
		assert.False(t, l.RecordTransaction(nil))
	})
}

// Recording a reversal nets every touched account back to its prior balance.
func TestLedger_ReversalNetsToZero(t *testing.T) {
	l := newTestLedger(t)
	cash := addAccount(t, l, "acc-cash", "1000", "Cash", ledger.Asset)
	income := addAccount(t, l, "acc-income", "4000", "Rental Income", ledger.Income)

	tx := postedTx(t, "tx-1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "entity-1", "100.00")
	require.True(t, l.RecordTransaction(tx))

	rev, err := tx.CreateReversal("tx-2", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	ok, err := rev.Post()
	require.NoError(t, err)
	require.True(t, ok)

	require.True(t, l.RecordTransaction(rev))
	assert.True(t, cash.Balance().IsZero())
	assert.True(t, income.Balance().IsZero())
	assert.Equal(t, 2, l.RecordedCount())
}

func TestLedger_GenerateTrialBalance(t *testing.T) {
	l := newTestLedger(t)
	addAccount(t, l, "acc-cash", "1000", "Cash", ledger.Asset)
	addAccount(t, l, "acc-payable", "2000", "Accounts Payable", ledger.Liability)
	addAccount(t, l, "acc-income", "4000", "Rental Income", ledger.Income)
	addAccount(t, l, "acc-rent", "5000", "Rent Expense", ledger.Expense)

	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	record := func(id, debitAcc, creditAcc, amount string) {
		t.Helper()
		tx, err := ledger.NewTransaction(id, date, "TB "+id, "entity-1", []ledger.TransactionLine{
			{LineID: id + "-d", AccountID: debitAcc, Amount: amt(amount), IsDebit: true},
			{LineID: id + "-c", AccountID: creditAcc, Amount: amt(amount), IsDebit: false},
		})
		require.NoError(t, err)
		ok, err := tx.Post()
		require.NoError(t, err)
		require.True(t, ok)
		require.True(t, l.RecordTransaction(tx))
	}

	record("tx-1", "acc-cash", "acc-income", "500.00")
	record("tx-2", "acc-rent", "acc-cash", "120.00")
	record("tx-3", "acc-cash", "acc-payable", "80.00")

	tb := l.GenerateTrialBalance()
	require.Len(t, tb.Lines, 4)

	// Rows come out ascending by account code.
	codes := []string{tb.Lines[0].Code, tb.Lines[1].Code, tb.Lines[2].Code, tb.Lines[3].Code}
	assert.Equal(t, []string{"1000", "2000", "4000", "5000"}, codes)

	assert.Equal(t, "460.00", tb.Lines[0].Debit.String()) // 500 - 120 + 80
	assert.Equal(t, "80.00", tb.Lines[1].Credit.String())
	assert.Equal(t, "500.00", tb.Lines[2].Credit.String())
	assert.Equal(t, "120.00", tb.Lines[3].Debit.String())

	assert.True(t, tb.IsBalanced())
	assert.Equal(t, "580.00", tb.TotalDebits.String())
	assert.Equal(t, "580.00", tb.TotalCredits.String())
}

func TestLedger_TrialBalanceNegativeBalanceSwitchesColumn(t *testing.T) {
	l := newTestLedger(t)
	cash := addAccount(t, l, "acc-cash", "1000", "Cash", ledger.Asset)
	addAccount(t, l, "acc-payable", "2000", "Accounts Payable", ledger.Liability)

	// Credit cash harder than its balance: debit-normal account goes negative
	// and must report its absolute value in the credit column.
	tx, err := ledger.NewTransaction("tx-1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		"Overdraft", "entity-1", []ledger.TransactionLine{
			{LineID: "l-1", AccountID: "acc-payable", Amount: amt("75.00"), IsDebit: true},
			{LineID: "l-2", AccountID: "acc-cash", Amount: amt("75.00"), IsDebit: false},
		})
	require.NoError(t, err)
	ok, err := tx.Post()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, l.RecordTransaction(tx))

	require.Equal(t, "-75.00", cash.Balance().String())

	tb := l.GenerateTrialBalance()
	require.Len(t, tb.Lines, 2)
	assert.Equal(t, "75.00", tb.Lines[0].Credit.String())
	assert.True(t, tb.Lines[0].Debit.IsZero())
	assert.Equal(t, "75.00", tb.Lines[1].Debit.String())
	assert.True(t, tb.IsBalanced())
}

// Two goroutines racing to record the same transaction id: exactly one wins
// and balances reflect a single application.
func TestLedger_ConcurrentDuplicateRecording(t *testing.T) {
	l := newTestLedger(t)
	cash := addAccount(t, l, "acc-cash", "1000", "Cash", ledger.Asset)
	addAccount(t, l, "acc-income", "4000", "Income", ledger.Income)

	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	txA := postedTx(t, "tx-race", date, "entity-1", "100.00")
	txB := postedTx(t, "tx-race", date, "entity-1", "100.00")

	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i, tx := range []*ledger.Transaction{txA, txB} {
		wg.Add(1)
		go func(i int, tx *ledger.Transaction) {
			defer wg.Done()
			results[i] = l.RecordTransaction(tx)
		}(i, tx)
	}
	wg.Wait()

	assert.NotEqual(t, results[0], results[1], "exactly one record must succeed")
	assert.Equal(t, 1, l.RecordedCount())
	assert.Equal(t, "100.00", cash.Balance().String())
}

// Account lookups hand out point-in-time copies: a held copy keeps the
// balance it was read with, and a fresh lookup sees the new one.
func TestLedger_AccountLookupReturnsSnapshot(t *testing.T) {
	l := newTestLedger(t)
	addAccount(t, l, "acc-cash", "1000", "Cash", ledger.Asset)
	addAccount(t, l, "acc-income", "4000", "Income", ledger.Income)

	before, ok := l.Account("acc-cash")
	require.True(t, ok)
	assert.True(t, before.Balance().IsZero())

	tx := postedTx(t, "tx-1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "entity-1", "100.00")
	require.True(t, l.RecordTransaction(tx))

	assert.True(t, before.Balance().IsZero(), "held copy must not move")
	after, ok := l.Account("acc-cash")
	require.True(t, ok)
	assert.Equal(t, "100.00", after.Balance().String())

	// Accounts() copies too.
	for _, a := range l.Accounts() {
		if a.AccountID == "acc-cash" {
			assert.Equal(t, "100.00", a.Balance().String())
		}
	}
}

// Balance reads must never interleave with an in-flight writer: a reader
// looping over Account/Balance while a goroutine records transactions sees
// only fully applied balances (run with -race).
func TestLedger_ConcurrentRecordingAndBalanceReads(t *testing.T) {
	l := newTestLedger(t)
	addAccount(t, l, "acc-cash", "1000", "Cash", ledger.Asset)
	addAccount(t, l, "acc-income", "4000", "Income", ledger.Income)
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	const writes = 200
	txs := make([]*ledger.Transaction, writes)
	for i := range txs {
		txs[i] = postedTx(t, fmt.Sprintf("tx-%d", i), date, "entity-1", "1.00")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, tx := range txs {
			l.RecordTransaction(tx)
		}
	}()

	for {
		a, ok := l.Account("acc-cash")
		require.True(t, ok)
		_ = a.Balance().String()
		select {
		case <-done:
			final, ok := l.Account("acc-cash")
			require.True(t, ok)
			assert.Equal(t, "200.00", final.Balance().String())
			assert.Equal(t, writes, l.RecordedCount())
			return
		default:
		}
	}
}

func TestLedger_RestoreRecordedTransaction(t *testing.T) {
	l := newTestLedger(t)
	cash := addAccount(t, l, "acc-cash", "1000", "Cash", ledger.Asset)
	addAccount(t, l, "acc-income", "4000", "Income", ledger.Income)

	tx := postedTx(t, "tx-1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "entity-1", "100.00")

	require.NoError(t, l.RestoreRecordedTransaction(tx))
	assert.Equal(t, 1, l.RecordedCount())
	assert.True(t, cash.Balance().IsZero(), "restore must not re-apply balance effects")

	err := l.RestoreRecordedTransaction(tx)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	draft := draftTx(t, "tx-2", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "entity-1", "50.00")
	err = l.RestoreRecordedTransaction(draft)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
