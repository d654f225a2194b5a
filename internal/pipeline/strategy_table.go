package pipeline

import (
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"climbrank/internal/util"
)

const (
	colRank       = "rank"
	colName       = "name"
	colDifficulty = "difficulty"
	colLength     = "length"
	colGradient   = "gradient"
)

// Header keyword probes, checked in this order for every header cell.
var headerKeywords = []struct {
	field  string
	probes []string
}{
	{colRank, []string{"rank", "#", "pos"}},
	{colName, []string{"name", "climb", "col "}},
	{colDifficulty, []string{"diff", "point", "pts", "score"}},
	{colLength, []string{"length", "dist", "km"}},
	{colGradient, []string{"grad", "avg", "slope", "%"}},
}

// ColumnMap maps a record field to its column index.
type ColumnMap map[string]int

// DetectColumns maps header texts to fields. The first header matching a
// field keeps it.
func DetectColumns(headers []string) ColumnMap {
	cols := ColumnMap{}
	for idx, h := range headers {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		for _, kw := range headerKeywords {
			if !containsAny(h, kw.probes) {
				continue
			}
			if _, taken := cols[kw.field]; !taken {
				cols[kw.field] = idx
			}
			break
		}
	}
	return cols
}

func (e *Extractor) table(doc *goquery.Document) []item {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil
	}

	var headers []string
	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		ths := row.Find("th")
		if ths.Length() == 0 {
			return true
		}
		ths.Each(func(_ int, th *goquery.Selection) {
			headers = append(headers, cleanText(th.Text()))
		})
		return false
	})
	cols := DetectColumns(headers)
	mapped := len(cols) >= e.opts.MinHeaderColumns

	var items []item
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < e.opts.MinTableCells {
			return
		}
		if it, ok := parseTableRow(cells, cols, mapped); ok {
			items = append(items, it)
		}
	})
	return items
}

func parseTableRow(cells *goquery.Selection, cols ColumnMap, mapped bool) (item, bool) {
	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		texts = append(texts, cleanText(c.Text()))
	})

	name, nameIdx := "", -1
	cells.EachWithBreak(func(i int, c *goquery.Selection) bool {
		c.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			name = cleanText(a.Text())
			return name == ""
		})
		if name != "" {
			nameIdx = i
			return false
		}
		return true
	})
	if name == "" {
		nameIdx = 1
		if idx, ok := cols[colName]; ok && idx < len(texts) {
			nameIdx = idx
		}
		name = cellAt(texts, nameIdx)
	}
	if name == "" {
		return item{}, false
	}

	it := item{Name: name}
	if mapped {
		it.Rank = parseRank(mappedCell(texts, cols, colRank))
		it.LengthKm = util.ParseDecimal(mappedCell(texts, cols, colLength))
		it.Gradient = util.ParseDecimal(mappedCell(texts, cols, colGradient))
		it.Difficulty = roundCell(mappedCell(texts, cols, colDifficulty))
		return it, true
	}

	if nameIdx > 0 {
		it.Rank = parseRank(texts[0])
	}
	rest := texts[min(nameIdx+1, len(texts)):]
	it.LengthKm = util.ParseDecimal(cellAt(rest, 0))
	it.Gradient = util.ParseDecimal(cellAt(rest, 1))
	it.Difficulty = roundCell(cellAt(rest, 2))
	return it, true
}

func mappedCell(texts []string, cols ColumnMap, field string) string {
	idx, ok := cols[field]
	if !ok {
		return ""
	}
	return cellAt(texts, idx)
}

func cellAt(texts []string, idx int) string {
	if idx < 0 || idx >= len(texts) {
		return ""
	}
	return texts[idx]
}

func parseRank(s string) int {
	s = strings.NewReplacer(".", "", "#", "").Replace(s)
	return roundCell(s)
}

func roundCell(s string) int {
	return int(math.Round(util.ParseCell(s)))
}

func containsAny(s string, probes []string) bool {
	for _, p := range probes {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
