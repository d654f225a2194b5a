package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	nonNumeric    = regexp.MustCompile(`[^\d.\-]`)
	numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*`)

	thousandsDot   = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	thousandsComma = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)

	KmPattern      = UnitPattern(`km`)
	PercentPattern = UnitPattern(`%`)
)

// UnitPattern matches a number immediately followed by marker, allowing
// spaces in between. The number is the first capture group.
func UnitPattern(marker string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*` + marker)
}

// ParseNumeric keeps digits, dots and minus signs and parses the rest.
// Anything unparseable is 0.
func ParseNumeric(s string) float64 {
	clean := nonNumeric.ReplaceAllString(s, "")
	if clean == "" {
		return 0
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return v
}

func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ExtractNumber returns the first number matched by unit in text, or 0.
func ExtractNumber(text string, unit *regexp.Regexp) float64 {
	m := unit.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseCell reads the first numeric token of a table cell. Grouped thousands
// ("1.000", "1,000") and decimal commas ("12,5") are both understood.
func ParseCell(s string) float64 {
	token := numberPattern.FindString(strings.ReplaceAll(s, "\u00A0", " "))
	if token == "" {
		return 0
	}
	v, err := strconv.ParseFloat(normalizeNumericToken(token), 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseDecimal reads the first numeric token of a cell holding a fractional
// unit value such as a length or a gradient. Separators are never read as
// thousands grouping: "1.250" is 1.25 and "7,125" is 7.125.
func ParseDecimal(s string) float64 {
	token := numberPattern.FindString(strings.ReplaceAll(s, "\u00A0", " "))
	if token == "" {
		return 0
	}
	v, err := strconv.ParseFloat(normalizeDecimalToken(token), 64)
	if err != nil {
		return 0
	}
	return v
}

// NumericTokens lists every standalone numeric literal in document order.
func NumericTokens(s string) []string {
	return numberPattern.FindAllString(s, -1)
}

// IntegerTokens lists the numeric literals that carry no fractional part.
// Grouped thousands ("1,120", "1.054") count as integers.
func IntegerTokens(s string) []int {
	var out []int
	for _, tok := range NumericTokens(s) {
		if strings.ContainsAny(tok, ".,") {
			if !thousandsDot.MatchString(tok) && !thousandsComma.MatchString(tok) {
				continue
			}
			tok = normalizeNumericToken(tok)
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	if thousandsDot.MatchString(compact) {
		return strings.ReplaceAll(compact, ".", "")
	}
	if thousandsComma.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	hasComma, hasDot := strings.Contains(compact, ","), strings.Contains(compact, ".")
	switch {
	case hasComma && hasDot:
		// the right-most separator is the decimal one
		if strings.LastIndex(compact, ",") > strings.LastIndex(compact, ".") {
			return strings.ReplaceAll(strings.ReplaceAll(compact, ".", ""), ",", ".")
		}
		return strings.ReplaceAll(compact, ",", "")
	case hasComma:
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}

func normalizeDecimalToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	comma, dot := strings.LastIndex(compact, ","), strings.LastIndex(compact, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		return strings.ReplaceAll(strings.ReplaceAll(compact, ".", ""), ",", ".")
	case comma >= 0 && dot >= 0:
		return strings.ReplaceAll(compact, ",", "")
	case comma >= 0:
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}
