// Package core provides the domain types of the finance dashboard and
// helpers for parsing user-entered amounts.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered decimal string into a canonical amount
// rounded half-up to cents.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted and a
// leading sign is kept, since expenses are entered as negative amounts.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("-12,345") -> -12.35, nil
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	d = d.Round(2)
	if d.IsZero() {
		return 0, ErrInvalidAmount
	}
	return d.InexactFloat64(), nil
}

// RoundCents rounds an amount to two decimals.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
