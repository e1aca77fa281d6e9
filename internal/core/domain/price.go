package domain

import (
	"strconv"
	"strings"
	"unicode"
)

// ParsePrice parses a display price into a numeric amount. It tolerates
// currency symbols, currency codes and thousands separators:
//
//	"₦ 3,850"  -> 3850, true
//	"$999"     -> 999, true
//	"N/A"      -> 0, false
//
// The second return is false when no numeric amount is present; the value
// is always 0 in that case, never an error.
func ParsePrice(raw string) (float64, bool) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.':
			b.WriteRune(r)
		case r == ',':
			// thousands separator, dropped
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ParseDiscount parses a display discount such as "-12%" into a positive
// percentage. Unparsable input yields 0, never an error.
func ParseDiscount(raw string) float64 {
	value, ok := ParsePrice(raw)
	if !ok {
		return 0
	}
	if value < 0 {
		value = -value
	}
	return value
}
