package ledger_test

import (
	"testing"

	"github.com/openbooks/ledger_backend/internal/apperrors"
	"github.com/openbooks/ledger_backend/internal/core/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount_Validation(t *testing.T) {
	tests := []struct {
		name        string
		accountID   string
		code        string
		accName     string
		accountType ledger.AccountType
		wantCode    apperrors.ErrorCode
		wantErrIs   error
	}{
		{name: "missing id", accountID: "", code: "1000", accName: "Cash", accountType: ledger.Asset, wantCode: apperrors.CodeMissingField},
		{name: "missing code", accountID: "acc-1", code: "", accName: "Cash", accountType: ledger.Asset, wantCode: apperrors.CodeMissingField},
		{name: "missing name", accountID: "acc-1", code: "1000", accName: "  ", accountType: ledger.Asset, wantCode: apperrors.CodeMissingField},
		{name: "unknown type", accountID: "acc-1", code: "1000", accName: "Cash", accountType: "CONTRA", wantErrIs: apperrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.NewAccount(tt.accountID, tt.code, tt.accName, tt.accountType, true)
			require.Error(t, err)
			if tt.wantCode != "" {
				assert.True(t, apperrors.IsCode(err, tt.wantCode), "got %v", err)
			}
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
			}
		})
	}
}

func TestAccountType_NormalBalanceSide(t *testing.T) {
	tests := []struct {
		accountType ledger.AccountType
		want        ledger.BalanceSide
	}{
		{ledger.Asset, ledger.DebitSide},
		{ledger.Expense, ledger.DebitSide},
		{ledger.Liability, ledger.CreditSide},
		{ledger.Equity, ledger.CreditSide},
		{ledger.Income, ledger.CreditSide},
	}

	for _, tt := range tests {
		t.Run(string(tt.accountType), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.accountType.NormalBalanceSide())
		})
	}
}

func TestNewAccount_StartsInactiveWhenRequested(t *testing.T) {
	a, err := ledger.NewAccount("acc-1", "1000", "Cash", ledger.Asset, false)
	require.NoError(t, err)
	assert.False(t, a.IsActive)
	assert.True(t, a.Balance().IsZero())
	assert.True(t, a.IsDebitNormal())
}

func TestNewAccountWithBalance_Rehydration(t *testing.T) {
	bal := decimal.RequireFromString("250.75")
	a, err := ledger.NewAccountWithBalance("acc-1", "2000", "Accounts Payable", ledger.Liability, true, bal)
	require.NoError(t, err)
	assert.True(t, a.Balance().Equal(bal))
	assert.False(t, a.IsDebitNormal())
}
