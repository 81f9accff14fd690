// Package core provides money parsing and handling utilities.
//
// Amounts are whole "10,000-won" units stored as int64. User input is often
// copied from spreadsheets, so thousands separators and stray fractional
// parts have to be tolerated.
package core

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// ParseAmount converts user input to whole units.
//
// Thousands separators are stripped, the empty string is 0, a leading sign is
// allowed (withdrawals are negative) and a fractional part is truncated
// toward zero.
//
// Examples:
//
//	ParseAmount("20,000") -> 20000, nil
//	ParseAmount("")       -> 0, nil
//	ParseAmount("-1,500") -> -1500, nil
//	ParseAmount("12.9")   -> 12, nil
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, nil
	}
	if strings.ContainsAny(s, "eE") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	intPart := d.Truncate(0)
	if intPart.Abs().GreaterThan(decimal.NewFromInt(1<<53)) {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}
	return intPart.IntPart(), nil
}

// FormatAmount renders an amount with thousands separators, e.g. 1,139,268.
func FormatAmount(v int64) string {
	return humanize.Comma(v)
}
