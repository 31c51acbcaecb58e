package service

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RateScale is the number of fractional digits rates are stored and rendered with.
const RateScale = 4

// ParseRate converts a provider rate string such as "1,432.50" into an exact decimal.
// Empty or malformed input yields an invalid (absent) value rather than an error.
func ParseRate(raw string) decimal.NullDecimal {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// FormatRate renders d with RateScale fractional digits, e.g. "1432.5000".
func FormatRate(d decimal.Decimal) string {
	return d.StringFixed(RateScale)
}

func formatNullRate(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := FormatRate(d.Decimal)
	return &s
}
