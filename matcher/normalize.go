package matcher

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var enumerationMarker = regexp.MustCompile(`^\d+\.\s*`)

// NormalizeIssue strips a leading enumeration marker such as "1. " and trims
// surrounding whitespace.
func NormalizeIssue(raw string) string {
	return strings.TrimSpace(enumerationMarker.ReplaceAllString(raw, ""))
}

// NormalizeText performs NFKC normalization, trims whitespace and drops
// control characters other than newlines and tabs.
func NormalizeText(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.TrimSpace(normed)
	normed = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
	return normed
}

// foldCase lower-cases s with full Unicode rules. A Caser keeps state, so a
// fresh one is built per call to stay safe under concurrent matching.
func foldCase(s string) string {
	return cases.Lower(language.Und).String(s)
}
