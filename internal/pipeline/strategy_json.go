package pipeline

import (
	"encoding/json"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/titanous/json5"

	"climbrank/internal/util"
)

const structuredDataSelector = `script#__NEXT_DATA__, script[type="application/json"], script[type="application/ld+json"]`

// Key synonyms per field, matched case-insensitively against object keys.
var (
	nameKeys       = []string{"name", "title", "climb", "climbname", "climb_name"}
	lengthKeys     = []string{"length", "distance", "km", "length_km"}
	gradientKeys   = []string{"gradient", "avg_gradient", "avggradient", "avg_gradient_pct", "averagegradient"}
	difficultyKeys = []string{"difficulty", "points", "difficultypoints", "difficulty_points", "score", "rating"}
	rankKeys       = []string{"rank", "position", "ranking"}
	elevationKeys  = []string{"elevation", "elevationgain", "elevation_gain", "height", "altitude"}
)

func (e *Extractor) structuredData(doc *goquery.Document) []item {
	var best []map[string]any
	doc.Find(structuredDataSelector).Each(func(i int, s *goquery.Selection) {
		data, ok := decodeStructured(s.Text())
		if !ok {
			slog.Debug("malformed structured data block", "index", i, "id", s.AttrOr("id", ""))
			return
		}
		var candidates [][]map[string]any
		collectRankingLists(data, 0, e.opts.JSONMaxDepth, &candidates)
		for _, c := range candidates {
			if len(c) > len(best) {
				best = c
			}
		}
	})

	items := make([]item, 0, len(best))
	for idx, obj := range best {
		items = append(items, normalizeClimbObject(obj, idx))
	}
	return items
}

// decodeStructured accepts strict JSON and falls back to JSON5 for blocks
// written as JavaScript object literals.
func decodeStructured(raw string) (any, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err == nil {
		return data, true
	}
	data = nil
	if err := json5.Unmarshal([]byte(raw), &data); err == nil {
		return data, true
	}
	return nil, false
}

// collectRankingLists walks the tree up to maxDepth and records every list
// whose first object looks like a climb.
func collectRankingLists(node any, depth, maxDepth int, out *[][]map[string]any) {
	if depth > maxDepth {
		return
	}
	switch v := node.(type) {
	case []any:
		if len(v) >= 2 {
			if first, ok := v[0].(map[string]any); ok && looksLikeClimb(first) {
				list := make([]map[string]any, 0, len(v))
				for _, el := range v {
					if obj, ok := el.(map[string]any); ok {
						list = append(list, obj)
					}
				}
				*out = append(*out, list)
			}
		}
		for _, el := range v {
			collectRankingLists(el, depth+1, maxDepth, out)
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectRankingLists(v[k], depth+1, maxDepth, out)
		}
	}
}

func looksLikeClimb(obj map[string]any) bool {
	keys := make(map[string]struct{}, len(obj))
	for k := range obj {
		keys[strings.ToLower(k)] = struct{}{}
	}
	if !hasAnyKey(keys, nameKeys) {
		return false
	}
	categories := 0
	for _, set := range [][]string{lengthKeys, gradientKeys, difficultyKeys, rankKeys, elevationKeys} {
		if hasAnyKey(keys, set) {
			categories++
		}
	}
	return categories >= 2
}

func hasAnyKey(keys map[string]struct{}, probes []string) bool {
	for _, p := range probes {
		if _, ok := keys[p]; ok {
			return true
		}
	}
	return false
}

func normalizeClimbObject(obj map[string]any, idx int) item {
	lc := make(map[string]any, len(obj))
	for k, v := range obj {
		lc[strings.ToLower(k)] = v
	}

	it := item{
		Name:       cleanText(toString(firstValue(lc, nameKeys))),
		LengthKm:   toDecimal(firstValue(lc, lengthKeys)),
		Gradient:   toDecimal(firstValue(lc, gradientKeys)),
		Difficulty: int(math.Round(toNumber(firstValue(lc, difficultyKeys)))),
		Rank:       int(math.Round(toNumber(firstValue(lc, rankKeys)))),
	}
	if it.Rank == 0 {
		it.Rank = idx + 1
	}
	return it
}

// firstValue returns the first synonym holding a non-empty value.
func firstValue(lc map[string]any, keys []string) any {
	for _, k := range keys {
		v, ok := lc[k]
		if !ok || isEmptyValue(v) {
			continue
		}
		return v
	}
	return nil
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return t == 0
	case bool:
		return !t
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return util.FormatFloat(t)
	}
	return ""
}

func toNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		return util.ParseCell(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	}
	return 0
}

// toDecimal is toNumber for fractional fields given as strings.
func toDecimal(v any) float64 {
	if t, ok := v.(string); ok {
		return util.ParseDecimal(t)
	}
	return toNumber(v)
}
