package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrorCode is a stable identifier carried by structural ledger errors.
// Calling code branches on these values, so they must never change.
type ErrorCode string

const (
	CodeMissingField       ErrorCode = "MISSING_FIELD"
	CodeInvalidLines       ErrorCode = "INVALID_LINES"
	CodeInvalidLineData    ErrorCode = "INVALID_LINE_DATA"
	CodeInvalidAmount      ErrorCode = "INVALID_AMOUNT"
	CodeInvalidStatus      ErrorCode = "INVALID_STATUS"
	CodeBalanceCheckFailed ErrorCode = "BALANCE_CHECK_FAILED"
	CodeCalculationError   ErrorCode = "CALCULATION_ERROR"
	CodeAddLineFailed      ErrorCode = "ADD_LINE_FAILED"
)

// LedgerError is a structural error raised by the bookkeeping core: malformed
// construction, wrong-state method calls, and similar programming or
// integration defects. Business-rule rejections (unbalanced transaction,
// duplicate recording, inactive account) are signalled by boolean returns
// instead, never by a LedgerError.
type LedgerError struct {
	Code          ErrorCode
	TransactionID string // optional; empty when the error is not tied to a transaction
	Message       string
}

func (e *LedgerError) Error() string {
	if e.TransactionID != "" {
		return fmt.Sprintf("%s: %s (transaction %s)", e.Code, e.Message, e.TransactionID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewLedgerError builds a LedgerError with the given stable code.
func NewLedgerError(code ErrorCode, transactionID, message string) *LedgerError {
	return &LedgerError{Code: code, TransactionID: transactionID, Message: message}
}

// CodeOf extracts the stable code from err, if it is (or wraps) a LedgerError.
func CodeOf(err error) (ErrorCode, bool) {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Code, true
	}
	return "", false
}

// IsCode reports whether err carries the given stable code.
func IsCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
