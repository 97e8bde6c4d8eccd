package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/openbooks/ledger_backend/internal/apperrors"
	"github.com/openbooks/ledger_backend/internal/core/money"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a transaction.
// Valid transitions: DRAFT -> POSTED -> VOID. There is no way back.
type TransactionStatus string

const (
	StatusDraft  TransactionStatus = "DRAFT"
	StatusPosted TransactionStatus = "POSTED"
	StatusVoid   TransactionStatus = "VOID"
)

// MetadataReversalOf is the metadata key linking a reversal to the
// transaction it negates.
const MetadataReversalOf = "reversalOf"

// TransactionLine is one side-entry of a transaction, referencing an account
// by id. Amount is always non-negative; the direction lives in IsDebit.
type TransactionLine struct {
	LineID    string
	AccountID string
	Amount    decimal.Decimal
	IsDebit   bool
	Memo      string
}

// Warning is a non-fatal normalization notice produced during construction or
// AddLine, e.g. a negative amount coerced to its absolute value. Warnings are
// carried on the transaction so callers can surface them instead of relying
// on a log line.
type Warning struct {
	Code    string
	LineID  string
	Message string
}

// WarningNegativeAmount marks a caller-supplied negative line amount that was
// normalized via Abs. The auto-correction can mask caller bugs, hence the
// explicit warning value.
const WarningNegativeAmount = "NEGATIVE_AMOUNT_NORMALIZED"

// Transaction is a multi-line double-entry record. Lines are mutable only
// while the transaction is a draft; posting freezes them and makes the
// transaction eligible for recording in a Ledger.
type Transaction struct {
	TransactionID string
	Date          time.Time
	Description   string
	EntityID      string
	Reference     string
	Metadata      map[string]string

	status   TransactionStatus
	lines    []TransactionLine
	warnings []Warning
}

// TransactionOption configures optional transaction fields at construction.
type TransactionOption func(*Transaction)

// WithReference sets the external reference field.
func WithReference(ref string) TransactionOption {
	return func(t *Transaction) { t.Reference = ref }
}

// WithMetadata attaches free-form metadata.
func WithMetadata(md map[string]string) TransactionOption {
	return func(t *Transaction) {
		if t.Metadata == nil {
			t.Metadata = make(map[string]string, len(md))
		}
		for k, v := range md {
			t.Metadata[k] = v
		}
	}
}

// NewTransaction validates required fields and builds a draft transaction.
// Structural problems fail with typed errors: MISSING_FIELD for absent
// id/date/description/entity, INVALID_LINES for fewer than two lines,
// INVALID_LINE_DATA for a line missing its id or account reference. Negative
// line amounts are normalized to their absolute value and reported as
// warnings rather than rejected.
func NewTransaction(transactionID string, date time.Time, description, entityID string, lines []TransactionLine, opts ...TransactionOption) (*Transaction, error) {
	if strings.TrimSpace(transactionID) == "" {
		return nil, apperrors.NewLedgerError(apperrors.CodeMissingField, "", "transaction id is required")
	}
	if date.IsZero() {
		return nil, apperrors.NewLedgerError(apperrors.CodeMissingField, transactionID, "transaction date is required")
	}
	if strings.TrimSpace(description) == "" {
		return nil, apperrors.NewLedgerError(apperrors.CodeMissingField, transactionID, "transaction description is required")
	}
	if strings.TrimSpace(entityID) == "" {
		return nil, apperrors.NewLedgerError(apperrors.CodeMissingField, transactionID, "transaction entity id is required")
	}
	if len(lines) < 2 {
		return nil, apperrors.NewLedgerError(apperrors.CodeInvalidLines, transactionID,
			fmt.Sprintf("transaction requires at least two lines, got %d", len(lines)))
	}

	t := &Transaction{
		TransactionID: transactionID,
		Date:          date,
		Description:   description,
		EntityID:      entityID,
		status:        StatusDraft,
		lines:         make([]TransactionLine, 0, len(lines)),
	}
	for _, line := range lines {
		normalized, warning, err := t.normalizeLine(line, apperrors.CodeInvalidLineData)
		if err != nil {
			return nil, err
		}
		t.lines = append(t.lines, normalized)
		if warning != nil {
			t.warnings = append(t.warnings, *warning)
		}
	}

	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// normalizeLine validates a line and coerces a negative amount to its
// absolute value, reporting the coercion as a warning. failureCode selects
// the structural code used for a malformed line (INVALID_LINE_DATA at
// construction, ADD_LINE_FAILED from AddLine).
func (t *Transaction) normalizeLine(line TransactionLine, failureCode apperrors.ErrorCode) (TransactionLine, *Warning, error) {
	if strings.TrimSpace(line.LineID) == "" {
		return line, nil, apperrors.NewLedgerError(failureCode, t.TransactionID, "transaction line is missing its id")
	}
	if strings.TrimSpace(line.AccountID) == "" {
		return line, nil, apperrors.NewLedgerError(failureCode, t.TransactionID,
			fmt.Sprintf("line %s is missing its account reference", line.LineID))
	}
	if line.Amount.IsNegative() {
		original := line.Amount
		line.Amount = line.Amount.Abs()
		return line, &Warning{
			Code:   WarningNegativeAmount,
			LineID: line.LineID,
			Message: fmt.Sprintf("line %s: negative amount %s normalized to %s",
				line.LineID, money.Canonical(original), money.Canonical(line.Amount)),
		}, nil
	}
	return line, nil, nil
}

// Status returns the lifecycle state.
func (t *Transaction) Status() TransactionStatus {
	return t.status
}

// Lines returns a copy of the transaction's lines in order.
func (t *Transaction) Lines() []TransactionLine {
	out := make([]TransactionLine, len(t.lines))
	copy(out, t.lines)
	return out
}

// LineCount returns the number of lines.
func (t *Transaction) LineCount() int {
	return len(t.lines)
}

// Warnings returns normalization warnings accumulated so far.
func (t *Transaction) Warnings() []Warning {
	out := make([]Warning, len(t.warnings))
	copy(out, t.warnings)
	return out
}

// AddLine appends a line. Permitted only while the transaction is a draft;
// any other status is a structural misuse and fails with INVALID_STATUS. A
// malformed line fails with ADD_LINE_FAILED.
func (t *Transaction) AddLine(line TransactionLine) error {
	if t.status != StatusDraft {
		return apperrors.NewLedgerError(apperrors.CodeInvalidStatus, t.TransactionID,
			fmt.Sprintf("cannot add a line to a %s transaction", t.status))
	}
	normalized, warning, err := t.normalizeLine(line, apperrors.CodeAddLineFailed)
	if err != nil {
		return err
	}
	t.lines = append(t.lines, normalized)
	if warning != nil {
		t.warnings = append(t.warnings, *warning)
	}
	return nil
}

// RemoveLine removes the line with the given id. Permitted only while the
// transaction is a draft. The boolean reports whether a line was removed.
func (t *Transaction) RemoveLine(lineID string) (bool, error) {
	if t.status != StatusDraft {
		return false, apperrors.NewLedgerError(apperrors.CodeInvalidStatus, t.TransactionID,
			fmt.Sprintf("cannot remove a line from a %s transaction", t.status))
	}
	for i, line := range t.lines {
		if line.LineID == lineID {
			t.lines = append(t.lines[:i], t.lines[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// TotalDebits returns the exact sum of debit-side line amounts.
func (t *Transaction) TotalDebits() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range t.lines {
		if line.IsDebit {
			sum = sum.Add(line.Amount)
		}
	}
	return sum
}

// TotalCredits returns the exact sum of credit-side line amounts.
func (t *Transaction) TotalCredits() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range t.lines {
		if !line.IsDebit {
			sum = sum.Add(line.Amount)
		}
	}
	return sum
}

// IsBalanced reports whether debits equal credits, by exact decimal equality.
func (t *Transaction) IsBalanced() bool {
	return t.TotalDebits().Equal(t.TotalCredits())
}

// TotalAmount is the economic value of the transaction: the debit-side sum
// rounded to two places with banker's rounding.
func (t *Transaction) TotalAmount() decimal.Decimal {
	return money.RoundHalfEven(t.TotalDebits(), 2)
}

// Post finalizes the draft. Calling Post on a non-draft transaction is a
// structural misuse and returns an INVALID_STATUS error. An unbalanced
// transaction, or one with fewer than two lines, is an ordinary business-rule
// rejection: Post returns (false, nil) and the status stays DRAFT.
func (t *Transaction) Post() (bool, error) {
	if t.status != StatusDraft {
		return false, apperrors.NewLedgerError(apperrors.CodeInvalidStatus, t.TransactionID,
			fmt.Sprintf("cannot post a %s transaction", t.status))
	}
	if len(t.lines) < 2 {
		return false, nil
	}
	if !t.IsBalanced() {
		return false, nil
	}
	t.status = StatusPosted
	return true, nil
}

// Void marks a posted transaction as void. Voiding changes status only; the
// balance effects of a recorded transaction are undone by recording a
// reversal, keeping the audit trail append-only.
func (t *Transaction) Void() error {
	if t.status != StatusPosted {
		return apperrors.NewLedgerError(apperrors.CodeInvalidStatus, t.TransactionID,
			fmt.Sprintf("cannot void a %s transaction", t.status))
	}
	t.status = StatusVoid
	return nil
}

// CreateReversal builds a new draft transaction that exactly negates this
// one: every line is copied with its debit/credit side flipped. The reversal
// carries metadata linking back to the original and a REV- prefixed
// reference. Requires the original to be posted.
func (t *Transaction) CreateReversal(newID string, date time.Time, description string) (*Transaction, error) {
	if t.status != StatusPosted {
		return nil, apperrors.NewLedgerError(apperrors.CodeInvalidStatus, t.TransactionID,
			fmt.Sprintf("cannot reverse a %s transaction", t.status))
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	if strings.TrimSpace(description) == "" {
		description = "Reversal of " + t.Description
	}

	reversedLines := make([]TransactionLine, 0, len(t.lines))
	for _, line := range t.lines {
		reversedLines = append(reversedLines, TransactionLine{
			LineID:    line.LineID + "-rev",
			AccountID: line.AccountID,
			Amount:    line.Amount,
			IsDebit:   !line.IsDebit,
			Memo:      line.Memo,
		})
	}

	ref := t.Reference
	if ref == "" {
		ref = t.TransactionID
	}
	md := map[string]string{MetadataReversalOf: t.TransactionID}
	for k, v := range t.Metadata {
		if k != MetadataReversalOf {
			md[k] = v
		}
	}

	return NewTransaction(newID, date, description, t.EntityID, reversedLines,
		WithReference("REV-"+ref), WithMetadata(md))
}
