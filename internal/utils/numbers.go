package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeNumber converts a Brazilian formatted number ("16.000,50") to the
// dotted form ("16000.50"). Strings without a comma are returned trimmed.
func NormalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return s
}

// ParseDecimal parses a number in either format. Empty or invalid input
// yields a null decimal.
func ParseDecimal(s string) decimal.NullDecimal {
	normalized := NormalizeNumber(s)
	if normalized == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
