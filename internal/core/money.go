// Package core provides the ledger domain types, the category taxonomy and
// money parsing helpers.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-typed amount to a positive decimal rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. Signs, exponents and zero are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("12.345") -> 12.35
//	ParseAmount("-1")     -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if s == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseSignedAmount parses a persisted signed amount ("-9.99", "100", "12,5").
func ParseSignedAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatEuros formats an amount for display, e.g. "-12,34 €".
func FormatEuros(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1) + " €"
}
