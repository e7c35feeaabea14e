package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DisplayDateLayout renders dates as day/month/year.
const DisplayDateLayout = "02/01/2006"

// BlockedNumericKeys are rejected while typing into numeric inputs. The list
// only reduces malformed input; ValidateBill remains authoritative.
var BlockedNumericKeys = []string{"-", "e", "E", "+"}

// KeystrokeAllowed reports whether key may be typed into a numeric input.
func KeystrokeAllowed(key string) bool {
	for _, k := range BlockedNumericKeys {
		if key == k {
			return false
		}
	}
	return true
}

// StripBlocked removes blocked characters from pasted text.
func StripBlocked(s string) string {
	return strings.Map(func(r rune) rune {
		if !KeystrokeAllowed(string(r)) {
			return -1
		}
		return r
	}, s)
}

// Fixed2 formats v with exactly two decimals for display.
func Fixed2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// DisplayDate formats d as dd/MM/yyyy, or "N/A" when the store sent none.
func DisplayDate(d Date) string {
	if d.IsZero() {
		return "N/A"
	}
	return d.Format(DisplayDateLayout)
}
