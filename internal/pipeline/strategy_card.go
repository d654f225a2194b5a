package pipeline

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Container selectors in order of preference. Generic rows are a last resort.
var cardSelectors = []string{
	`[class*="card"]`,
	`.list-group-item`,
	`.row`,
}

const rankBadgeSelector = `[class*="badge"], [class*="rank"]`

func (e *Extractor) cards(doc *goquery.Document) []item {
	for _, sel := range cardSelectors {
		containers := e.cardContainers(doc.Find(sel))
		if len(containers) == 0 {
			continue
		}
		items := make([]item, 0, len(containers))
		for _, c := range containers {
			items = append(items, e.parseCard(c))
		}
		return items
	}
	return nil
}

// cardContainers keeps the containers that carry climb stats. A container
// wrapping two or more such containers is a grid, not a card; within a
// nested chain of matches the outermost one is kept.
func (e *Extractor) cardContainers(matches *goquery.Selection) []*goquery.Selection {
	var passing []*html.Node
	matches.Each(func(_ int, s *goquery.Selection) {
		if e.hasClimbMarkers(flattenText(s, pipeSep)) {
			passing = append(passing, s.Nodes[0])
		}
	})

	nearest := func(n *html.Node, set []*html.Node) *html.Node {
		for p := n.Parent; p != nil; p = p.Parent {
			for _, q := range set {
				if q == p {
					return q
				}
			}
		}
		return nil
	}

	wrapper := make(map[*html.Node]bool)
	for _, n := range passing {
		if parent := nearest(n, passing); parent != nil {
			children := 0
			for _, m := range passing {
				if nearest(m, passing) == parent {
					children++
				}
			}
			if children >= 2 {
				wrapper[parent] = true
			}
		}
	}

	var kept []*html.Node
	var out []*goquery.Selection
	for _, n := range passing {
		if wrapper[n] || nearest(n, kept) != nil {
			continue
		}
		kept = append(kept, n)
		out = append(out, matches.FilterNodes(n))
	}
	return out
}

func (e *Extractor) hasClimbMarkers(text string) bool {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "km") {
		return false
	}
	if e.opts.CardRequirePercent && !strings.Contains(lower, "%") {
		return false
	}
	return true
}

func (e *Extractor) parseCard(card *goquery.Selection) item {
	text := flattenText(card, pipeSep)
	name, _ := ResolveName(card, text, e.opts.NoisePhrases)
	f := ExtractFields(text, e.opts)
	it := item{
		Name:       name,
		LengthKm:   f.LengthKm,
		Gradient:   f.GradientPct,
		Difficulty: f.DifficultyPoints,
	}
	if badge := card.Find(rankBadgeSelector).First(); badge.Length() > 0 {
		it.Rank = parseRank(cleanText(badge.Text()))
	}
	return it
}
