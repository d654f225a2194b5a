package pipeline

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Trailing "profile" in the languages the site is published in.
var profileSuffix = regexp.MustCompile(`(?i)[\s\-–|:]*\b(profile|profiel|profil|profilo|perfil)\s*$`)

// IsValidName rejects fragments that are numbers, units or known UI noise.
func IsValidName(candidate string, noise []string) bool {
	candidate = strings.TrimSpace(candidate)
	if utf8.RuneCountInString(candidate) < 3 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(candidate)
	if unicode.IsDigit(first) {
		return false
	}
	lower := strings.ToLower(candidate)
	if strings.Contains(lower, "km") || strings.Contains(lower, "%") {
		return false
	}
	for _, phrase := range noise {
		if phrase != "" && strings.Contains(lower, strings.ToLower(phrase)) {
			return false
		}
	}
	return true
}

type nameSource func(sel *goquery.Selection, text string) []string

var nameSources = []nameSource{
	anchorNames,
	imageAltNames,
	headerNames,
	pipeSegmentNames,
}

// ResolveName tries anchor text, image alt text, the first header and the
// first pipe-delimited segment of text, in that order.
func ResolveName(sel *goquery.Selection, text string, noise []string) (string, bool) {
	for _, source := range nameSources {
		for _, candidate := range source(sel, text) {
			if IsValidName(candidate, noise) {
				return candidate, true
			}
		}
	}
	return "", false
}

func anchorNames(sel *goquery.Selection, _ string) []string {
	var out []string
	sel.Find("a").Each(func(_ int, a *goquery.Selection) {
		if t := cleanText(a.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

func imageAltNames(sel *goquery.Selection, _ string) []string {
	var out []string
	sel.Find("img[alt]").Each(func(_ int, img *goquery.Selection) {
		alt := profileSuffix.ReplaceAllString(img.AttrOr("alt", ""), "")
		if t := cleanText(alt); t != "" {
			out = append(out, t)
		}
	})
	return out
}

func headerNames(sel *goquery.Selection, _ string) []string {
	h := sel.Find("h1, h2, h3, h4, h5, h6").First()
	if h.Length() == 0 {
		return nil
	}
	return []string{cleanText(h.Text())}
}

func pipeSegmentNames(_ *goquery.Selection, text string) []string {
	first, _, _ := strings.Cut(text, "|")
	if t := cleanText(first); t != "" {
		return []string{t}
	}
	return nil
}
