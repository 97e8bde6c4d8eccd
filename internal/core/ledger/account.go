package ledger

import (
	"fmt"
	"strings"

	"github.com/openbooks/ledger_backend/internal/apperrors"
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// BalanceSide is the side of the ledger on which a balance sits.
type BalanceSide string

const (
	DebitSide  BalanceSide = "DEBIT"
	CreditSide BalanceSide = "CREDIT"
)

// Valid reports whether t is one of the five recognised account types.
func (t AccountType) Valid() bool {
	switch t {
	case Asset, Liability, Equity, Income, Expense:
		return true
	}
	return false
}

// NormalBalanceSide returns the side on which accounts of this type increase:
// asset/expense accounts are debit-normal, liability/equity/income accounts
// are credit-normal.
func (t AccountType) NormalBalanceSide() BalanceSide {
	if t == Asset || t == Expense {
		return DebitSide
	}
	return CreditSide
}

// Account is a chart-of-accounts entry with a running balance. The balance is
// owned exclusively by the Ledger: it changes only through the Ledger's
// record path, and Ledger lookups hand out copies so a held Account is a
// stable snapshot. Accounts are never deleted, only deactivated, so
// historical postings always resolve.
type Account struct {
	AccountID string
	Code      string // display/sort key for the trial balance
	Name      string
	Type      AccountType
	IsActive  bool

	balance decimal.Decimal
}

// NewAccount validates and builds an account with a zero balance.
func NewAccount(accountID, code, name string, accountType AccountType, isActive bool) (*Account, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, apperrors.NewLedgerError(apperrors.CodeMissingField, "", "account id is required")
	}
	if strings.TrimSpace(code) == "" {
		return nil, apperrors.NewLedgerError(apperrors.CodeMissingField, "", "account code is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewLedgerError(apperrors.CodeMissingField, "", "account name is required")
	}
	if !accountType.Valid() {
		return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, accountType)
	}
	return &Account{
		AccountID: accountID,
		Code:      code,
		Name:      name,
		Type:      accountType,
		IsActive:  isActive,
		balance:   decimal.Zero,
	}, nil
}

// NewAccountWithBalance rebuilds an account from persisted state. It exists
// for repository rehydration; application code must go through NewAccount and
// let the Ledger drive the balance.
func NewAccountWithBalance(accountID, code, name string, accountType AccountType, isActive bool, balance decimal.Decimal) (*Account, error) {
	a, err := NewAccount(accountID, code, name, accountType, isActive)
	if err != nil {
		return nil, err
	}
	a.balance = balance
	return a, nil
}

// Balance returns the current running balance.
func (a *Account) Balance() decimal.Decimal {
	return a.balance
}

// IsDebitNormal reports whether the account increases on the debit side.
// The trial balance uses this for column placement.
func (a *Account) IsDebitNormal() bool {
	return a.Type.NormalBalanceSide() == DebitSide
}

// applyTransaction applies one transaction line's effect. A debit to a
// debit-normal account (or a credit to a credit-normal one) increases the
// balance; the opposite side decreases it. Only the Ledger calls this, inside
// a successful RecordTransaction.
func (a *Account) applyTransaction(amount decimal.Decimal, isDebit bool) {
	if isDebit == a.IsDebitNormal() {
		a.balance = a.balance.Add(amount)
	} else {
		a.balance = a.balance.Sub(amount)
	}
}
