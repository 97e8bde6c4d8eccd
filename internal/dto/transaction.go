package dto

import (
	"time"

	"github.com/openbooks/ledger_backend/internal/core/ledger"
	"github.com/shopspring/decimal"
)

// TransactionSide mirrors the debit/credit flag on the wire.
type TransactionSide string

const (
	SideDebit  TransactionSide = "DEBIT"
	SideCredit TransactionSide = "CREDIT"
)

// TransactionLineRequest is one line of a transaction to record. The amount
// travels as a decimal string to keep the wire format exact; the custom
// "decimal" binding validator rejects anything money.Parse would not accept.
type TransactionLineRequest struct {
	AccountID string          `json:"accountID" binding:"required"`
	Amount    string          `json:"amount" binding:"required,decimal"`
	Side      TransactionSide `json:"side" binding:"required,oneof=DEBIT CREDIT"`
	Memo      string          `json:"memo"`
}

// RecordTransactionRequest defines a transaction to post and record in one
// step. TransactionID is optional; when absent the service mints a UUID.
type RecordTransactionRequest struct {
	TransactionID string                   `json:"transactionID"`
	Date          time.Time                `json:"date" binding:"required"`
	Description   string                   `json:"description" binding:"required"`
	Reference     string                   `json:"reference"`
	Metadata      map[string]string        `json:"metadata"`
	JournalID     string                   `json:"journalID"`
	Lines         []TransactionLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// ReverseTransactionRequest defines the optional overrides for a reversal.
type ReverseTransactionRequest struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
}

// TransactionLineResponse is one line of a returned transaction.
type TransactionLineResponse struct {
	LineID    string          `json:"lineID"`
	AccountID string          `json:"accountID"`
	Amount    decimal.Decimal `json:"amount"`
	Side      TransactionSide `json:"side"`
	Memo      string          `json:"memo,omitempty"`
}

// WarningResponse surfaces a normalization warning produced while building
// the transaction (e.g. a negative amount coerced to its absolute value).
type WarningResponse struct {
	Code    string `json:"code"`
	LineID  string `json:"lineID"`
	Message string `json:"message"`
}

// TransactionResponse defines the data returned for a transaction.
type TransactionResponse struct {
	TransactionID string                    `json:"transactionID"`
	EntityID      string                    `json:"entityID"`
	Date          time.Time                 `json:"date"`
	Description   string                    `json:"description"`
	Reference     string                    `json:"reference,omitempty"`
	Metadata      map[string]string         `json:"metadata,omitempty"`
	Status        ledger.TransactionStatus  `json:"status"`
	Lines         []TransactionLineResponse `json:"lines"`
	TotalAmount   decimal.Decimal           `json:"totalAmount"`
	Warnings      []WarningResponse         `json:"warnings,omitempty"`
}

// ToTransactionResponse converts a core transaction to its response DTO.
func ToTransactionResponse(tx *ledger.Transaction) TransactionResponse {
	lines := tx.Lines()
	lineResponses := make([]TransactionLineResponse, len(lines))
	for i, line := range lines {
		side := SideCredit
		if line.IsDebit {
			side = SideDebit
		}
		lineResponses[i] = TransactionLineResponse{
			LineID:    line.LineID,
			AccountID: line.AccountID,
			Amount:    line.Amount,
			Side:      side,
			Memo:      line.Memo,
		}
	}

	var warnings []WarningResponse
	for _, w := range tx.Warnings() {
		warnings = append(warnings, WarningResponse{Code: w.Code, LineID: w.LineID, Message: w.Message})
	}

	return TransactionResponse{
		TransactionID: tx.TransactionID,
		EntityID:      tx.EntityID,
		Date:          tx.Date,
		Description:   tx.Description,
		Reference:     tx.Reference,
		Metadata:      tx.Metadata,
		Status:        tx.Status(),
		Lines:         lineResponses,
		TotalAmount:   tx.TotalAmount(),
		Warnings:      warnings,
	}
}

// ToListTransactionResponse converts a slice of core transactions.
func ToListTransactionResponse(txns []*ledger.Transaction) []TransactionResponse {
	res := make([]TransactionResponse, len(txns))
	for i, tx := range txns {
		res[i] = ToTransactionResponse(tx)
	}
	return res
}
