package dto

import (
	"github.com/openbooks/ledger_backend/internal/core/ledger"
	"github.com/shopspring/decimal"
)

// TrialBalanceRowResponse is one account's row in the trial balance report.
type TrialBalanceRowResponse struct {
	AccountID string             `json:"accountID"`
	Code      string             `json:"code"`
	Name      string             `json:"name"`
	Type      ledger.AccountType `json:"type"`
	Debit     decimal.Decimal    `json:"debit"`
	Credit    decimal.Decimal    `json:"credit"`
}

// TrialBalanceResponse wraps the full trial balance report.
type TrialBalanceResponse struct {
	EntityID     string                    `json:"entityID"`
	Rows         []TrialBalanceRowResponse `json:"rows"`
	TotalDebits  decimal.Decimal           `json:"totalDebits"`
	TotalCredits decimal.Decimal           `json:"totalCredits"`
	IsBalanced   bool                      `json:"isBalanced"`
}

// ToTrialBalanceResponse converts the core trial balance report.
func ToTrialBalanceResponse(tb ledger.TrialBalance) TrialBalanceResponse {
	rows := make([]TrialBalanceRowResponse, len(tb.Lines))
	for i, line := range tb.Lines {
		rows[i] = TrialBalanceRowResponse{
			AccountID: line.AccountID,
			Code:      line.Code,
			Name:      line.Name,
			Type:      line.Type,
			Debit:     line.Debit,
			Credit:    line.Credit,
		}
	}
	return TrialBalanceResponse{
		EntityID:     tb.EntityID,
		Rows:         rows,
		TotalDebits:  tb.TotalDebits,
		TotalCredits: tb.TotalCredits,
		IsBalanced:   tb.IsBalanced(),
	}
}
