package dto

import (
	"time"

	"github.com/openbooks/ledger_backend/internal/core/ledger"
	"github.com/shopspring/decimal"
)

// CreateJournalRequest defines the data needed to create a new journal.
type CreateJournalRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddJournalTransactionRequest references an already-recorded transaction to
// group under a journal.
type AddJournalTransactionRequest struct {
	TransactionID string `json:"transactionID" binding:"required"`
}

// JournalDateRangeParams defines the inclusive day range for listing a
// journal's transactions.
type JournalDateRangeParams struct {
	From time.Time `form:"from" time_format:"2006-01-02" binding:"required"`
	To   time.Time `form:"to" time_format:"2006-01-02" binding:"required"`
}

// JournalResponse defines the data returned for a journal, including its
// aggregate totals.
type JournalResponse struct {
	JournalID        string          `json:"journalID"`
	Name             string          `json:"name"`
	EntityID         string          `json:"entityID"`
	TransactionCount int             `json:"transactionCount"`
	TotalDebits      decimal.Decimal `json:"totalDebits"`
	TotalCredits     decimal.Decimal `json:"totalCredits"`
	IsBalanced       bool            `json:"isBalanced"`
}

// ToJournalResponse converts a core journal to its response DTO. Totals cover
// all contained transactions regardless of status; posted-only figures are
// available through the core directly.
func ToJournalResponse(j *ledger.Journal) JournalResponse {
	return JournalResponse{
		JournalID:        j.JournalID,
		Name:             j.Name,
		EntityID:         j.EntityID,
		TransactionCount: len(j.Transactions()),
		TotalDebits:      j.TotalDebits(false),
		TotalCredits:     j.TotalCredits(false),
		IsBalanced:       j.IsBalanced(false),
	}
}

// ToListJournalResponse converts a slice of core journals.
func ToListJournalResponse(journals []*ledger.Journal) []JournalResponse {
	res := make([]JournalResponse, len(journals))
	for i, j := range journals {
		res[i] = ToJournalResponse(j)
	}
	return res
}
