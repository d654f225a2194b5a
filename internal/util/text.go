package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reSpaces    = regexp.MustCompile(`\s+`)
	reSeparator = regexp.MustCompile(`[-_/]+`)
)

// NormalizeText applies NFKD and trims surrounding whitespace. Inner
// whitespace is kept as is.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(norm.NFKD.String(s))
}

// CollapseSpaces trims s and folds every whitespace run into one space.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// FoldKey builds a lookup key that ignores case, accents and word separators:
// "Hautes-Pyrénées" and "hautes pyrenees" fold to the same key.
func FoldKey(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = reSeparator.ReplaceAllString(folded, " ")
	return CollapseSpaces(folded)
}
