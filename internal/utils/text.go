package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleCase capitalizes every word of a name the way the campaign files expect
// ("MARIA DA SILVA" -> "Maria Da Silva").
func TitleCase(s string) string {
	if s == "" {
		return s
	}
	// cases.Caser is stateful, so each call gets its own.
	return cases.Title(language.BrazilianPortuguese).String(strings.ToLower(s))
}

// StripDocumentPunctuation removes the "." and "-" separators of a CPF.
func StripDocumentPunctuation(s string) string {
	return strings.NewReplacer(".", "", "-", "").Replace(s)
}

// DigitsOnly keeps only the decimal digits of s.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// SplitKeywords splits a ";"-separated keyword list, dropping blanks.
func SplitKeywords(s string) []string {
	parts := strings.Split(s, ";")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}
