package ledger

import (
	"log/slog"

	"github.com/shopspring/decimal"
)

// TrialBalanceLine is one account's row in the trial balance. Exactly one of
// Debit/Credit carries the unsigned balance; the other is zero.
type TrialBalanceLine struct {
	AccountID string          `json:"accountID"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// TrialBalance lists every account's balance split into debit and credit
// columns, with column totals. For a ledger whose every recorded transaction
// was balanced at record time, the two totals are equal.
type TrialBalance struct {
	EntityID     string             `json:"entityID"`
	Lines        []TrialBalanceLine `json:"lines"`
	TotalDebits  decimal.Decimal    `json:"totalDebits"`
	TotalCredits decimal.Decimal    `json:"totalCredits"`
}

// IsBalanced reports whether the debit and credit column totals are exactly
// equal.
func (tb TrialBalance) IsBalanced() bool {
	return tb.TotalDebits.Equal(tb.TotalCredits)
}

// GenerateTrialBalance iterates all accounts ascending by code and places
// each unsigned balance in the debit or credit column: a debit-normal account
// with a non-negative balance reports in the debit column and a negative one
// reports its absolute value in the credit column, symmetrically for
// credit-normal accounts. Imbalance between the column totals is diagnostic,
// not a fault: it is logged and the report is still returned.
func (l *Ledger) GenerateTrialBalance() TrialBalance {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tb := TrialBalance{
		EntityID:     l.entityID,
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}
	for _, a := range l.accountsSortedLocked() {
		line := TrialBalanceLine{
			AccountID: a.AccountID,
			Code:      a.Code,
			Name:      a.Name,
			Type:      a.Type,
			Debit:     decimal.Zero,
			Credit:    decimal.Zero,
		}
		bal := a.Balance()
		if a.IsDebitNormal() {
			if bal.IsNegative() {
				line.Credit = bal.Abs()
			} else {
				line.Debit = bal
			}
		} else {
			if bal.IsNegative() {
				line.Debit = bal.Abs()
			} else {
				line.Credit = bal
			}
		}
		tb.TotalDebits = tb.TotalDebits.Add(line.Debit)
		tb.TotalCredits = tb.TotalCredits.Add(line.Credit)
		tb.Lines = append(tb.Lines, line)
	}

	if !tb.IsBalanced() {
		l.logger.Warn("trial balance columns do not match",
			slog.String("entity_id", l.entityID),
			slog.String("total_debits", tb.TotalDebits.String()),
			slog.String("total_credits", tb.TotalCredits.String()))
	}
	return tb
}
