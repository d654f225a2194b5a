package pipeline

import (
	"bytes"
	"strings"
)

type DetectResult struct {
	NeedsBrowser bool
	Score        float64
	Reason       string
}

var (
	spaMarkers = []string{`id="__next"`, `id="root"`, `id="app"`, `data-reactroot`, `ng-version`}
	// Anything the static strategies can work with.
	rankingMarkers = []string{`__next_data__`, `<table`, `/climbs/`, `/cols/`, `/climb/`, `/col/`, `class="card`}
)

// DetectRendering scores whether a statically fetched page is an unrendered
// client-side shell that only a browser can turn into a ranking.
func DetectRendering(page []byte) DetectResult {
	lower := strings.ToLower(string(bytes.TrimSpace(page)))
	if lower == "" {
		return DetectResult{NeedsBrowser: true, Score: 1, Reason: "empty_body"}
	}

	score := 0.0
	for _, m := range spaMarkers {
		if strings.Contains(lower, m) {
			score += 0.4
			break
		}
	}
	if scriptDensityHigh(lower) {
		score += 0.3
	}
	if len(lower) < 2048 {
		score += 0.2
	}

	hits := 0
	for _, m := range rankingMarkers {
		if strings.Contains(lower, m) {
			hits++
		}
	}
	if hits == 0 {
		score += 0.4
	} else {
		score -= 0.3 * float64(hits)
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	needs := score >= 0.5
	reason := "rules_static_ok"
	if needs {
		reason = "rules_needs_browser"
	}
	return DetectResult{NeedsBrowser: needs, Score: score, Reason: reason}
}

func scriptDensityHigh(lower string) bool {
	total := len(lower)
	if total == 0 {
		return false
	}
	return strings.Count(lower, "<script")*100/total > 3
}

func NeedsBrowser(page []byte) bool {
	return DetectRendering(page).NeedsBrowser
}
