package money_test

import (
	"testing"

	"github.com/openbooks/ledger_backend/internal/apperrors"
	"github.com/openbooks/ledger_backend/internal/core/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "integer", input: "100", want: "100"},
		{name: "two fractional places", input: "100.00", want: "100.00"},
		{name: "trailing zero preserved", input: "1.10", want: "1.10"},
		{name: "negative", input: "-42.5", want: "-42.5"},
		{name: "leading whitespace tolerated", input: " 3.14", want: "3.14"},
		{name: "high precision", input: "0.000000001", want: "0.000000001"},
		{name: "empty", input: "", wantErr: true},
		{name: "non numeric", input: "abc", wantErr: true},
		{name: "scientific notation rejected", input: "1e5", wantErr: true},
		{name: "nan rejected", input: "NaN", wantErr: true},
		{name: "infinity rejected", input: "Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := money.Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidAmount))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, money.Canonical(got))
		})
	}
}

func TestRoundHalfEven(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		places int32
		want   string
	}{
		{name: "tie rounds down to even", input: "2.345", places: 2, want: "2.34"},
		{name: "tie rounds up to even", input: "2.355", places: 2, want: "2.36"},
		{name: "below tie rounds down", input: "2.344", places: 2, want: "2.34"},
		{name: "above tie rounds up", input: "2.346", places: 2, want: "2.35"},
		{name: "integer tie to even down", input: "2.5", places: 0, want: "2"},
		{name: "integer tie to even up", input: "3.5", places: 0, want: "4"},
		{name: "negative tie", input: "-2.345", places: 2, want: "-2.34"},
		{name: "no rounding needed", input: "10.25", places: 2, want: "10.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decimal.RequireFromString(tt.input)
			got := money.RoundHalfEven(d, tt.places)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestExactArithmetic(t *testing.T) {
	// 0.1 + 0.2 must be exactly 0.3; this is the whole point of refusing
	// binary floating point inside the ledger.
	a := decimal.RequireFromString("0.1")
	b := decimal.RequireFromString("0.2")
	assert.True(t, a.Add(b).Equal(decimal.RequireFromString("0.3")))
}
