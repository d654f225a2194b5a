package pipeline

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"climbrank/internal/util"
)

// links treats every climb detail link as one record and reads its numbers
// from the closest ancestor that has enough of them.
func (e *Extractor) links(doc *goquery.Document) []item {
	pattern := e.opts.LinkPattern
	if pattern == nil {
		pattern = DefaultLinkPattern
	}

	seen := map[string]struct{}{}
	var items []item
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if !pattern.MatchString(a.AttrOr("href", "")) {
			return
		}
		name := cleanText(a.Text())
		if utf8.RuneCountInString(name) < 3 || e.isNavLabel(name) {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		items = append(items, e.itemFromContext(a, name))
	})
	return items
}

func (e *Extractor) itemFromContext(a *goquery.Selection, name string) item {
	it := item{Name: name}
	n := a.Nodes[0].Parent
	for depth := 0; depth < e.opts.LinkAncestorDepth && n != nil; depth++ {
		tokens := util.NumericTokens(flattenNode(n, " "))
		if len(tokens) >= 3 {
			it.Rank = roundCell(tokens[0])
			it.LengthKm = util.ParseDecimal(tokens[1])
			it.Gradient = util.ParseDecimal(tokens[2])
			if len(tokens) > 3 {
				it.Difficulty = roundCell(tokens[3])
			}
			return it
		}
		n = n.Parent
	}
	return it
}

func (e *Extractor) isNavLabel(name string) bool {
	lower := strings.ToLower(name)
	for _, label := range e.opts.NavLabels {
		if lower == label {
			return true
		}
	}
	return false
}
