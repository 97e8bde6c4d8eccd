// Package money provides exact-precision monetary helpers on top of
// github.com/shopspring/decimal. All arithmetic is exact in base 10; binary
// floating point never enters the ledger.
package money

import (
	"fmt"
	"strings"

	"github.com/openbooks/ledger_backend/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Parse constructs a decimal from its canonical string form. It fails with an
// INVALID_AMOUNT error on non-numeric or non-finite input. The caller-supplied
// fractional precision is preserved: "1.10" parses to a value that serializes
// back as "1.10".
func Parse(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero, apperrors.NewLedgerError(apperrors.CodeInvalidAmount, "", "amount is empty")
	}
	// decimal.NewFromString accepts scientific notation; the ledger's wire
	// format does not.
	if strings.ContainsAny(trimmed, "eE") {
		return decimal.Zero, apperrors.NewLedgerError(apperrors.CodeInvalidAmount, "",
			fmt.Sprintf("amount %q uses scientific notation", s))
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, apperrors.NewLedgerError(apperrors.CodeInvalidAmount, "",
			fmt.Sprintf("amount %q is not a valid decimal", s))
	}
	return d, nil
}

// RoundHalfEven rounds to the given number of fractional places using banker's
// rounding: ties resolve to the nearest even digit (2.345 -> 2.34,
// 2.355 -> 2.36 at two places).
func RoundHalfEven(d decimal.Decimal, places int32) decimal.Decimal {
	return d.RoundBank(places)
}

// Canonical returns the canonical decimal-string serialization: plain decimal
// notation, no exponent, no precision loss.
func Canonical(d decimal.Decimal) string {
	return d.String()
}
