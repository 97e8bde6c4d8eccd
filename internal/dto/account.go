package dto

import (
	"github.com/openbooks/ledger_backend/internal/core/ledger"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Code        string             `json:"code" binding:"required"`
	Name        string             `json:"name" binding:"required"`
	AccountType ledger.AccountType `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID   string             `json:"accountID"`
	Code        string             `json:"code"`
	Name        string             `json:"name"`
	AccountType ledger.AccountType `json:"accountType"`
	NormalSide  ledger.BalanceSide `json:"normalBalanceSide"`
	IsActive    bool               `json:"isActive"`
	Balance     decimal.Decimal    `json:"balance"`
}

// ToAccountResponse converts a core account to its response DTO.
func ToAccountResponse(a *ledger.Account) AccountResponse {
	return AccountResponse{
		AccountID:   a.AccountID,
		Code:        a.Code,
		Name:        a.Name,
		AccountType: a.Type,
		NormalSide:  a.Type.NormalBalanceSide(),
		IsActive:    a.IsActive,
		Balance:     a.Balance(),
	}
}

// ToListAccountResponse converts a slice of core accounts.
func ToListAccountResponse(accounts []*ledger.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i, a := range accounts {
		res[i] = ToAccountResponse(a)
	}
	return res
}
