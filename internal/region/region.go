// Package region maps user queries to climbfinder region ids using an
// embedded region table.
package region

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/antzucaro/matchr"
	"gopkg.in/yaml.v3"

	"climbrank/internal"
	"climbrank/internal/util"
)

var ErrNotFound = errors.New("region not found")

//go:embed regions.yaml
var regionsYAML []byte

var (
	digitsOnly = regexp.MustCompile(`^\d+$`)
	urlParam   = regexp.MustCompile(`[?&]l=(\d+)`)
)

const (
	suggestionThreshold = 0.8
	maxSuggestions      = 3
)

type tableFile struct {
	Countries []struct {
		Name    string            `yaml:"name"`
		Regions []internal.Region `yaml:"regions"`
	} `yaml:"countries"`
	Aliases []struct {
		Alias string `yaml:"alias"`
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
	} `yaml:"aliases"`
}

// Table is a parsed region list with a folded-name index.
type Table struct {
	regions []internal.Region
	byKey   map[string]internal.Region
	byID    map[string]internal.Region
}

func Parse(raw []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse region table: %w", err)
	}

	t := &Table{byKey: map[string]internal.Region{}, byID: map[string]internal.Region{}}
	for _, c := range f.Countries {
		for _, r := range c.Regions {
			r.Country = c.Name
			t.regions = append(t.regions, r)
			t.byKey[util.FoldKey(r.Name)] = r
			t.byKey[util.FoldKey(r.Label())] = r
			if _, dup := t.byID[r.ID]; !dup {
				t.byID[r.ID] = r
			}
		}
	}
	for _, a := range f.Aliases {
		r, ok := t.byID[a.ID]
		if !ok {
			r = internal.Region{ID: a.ID, Name: a.Name}
			t.byID[a.ID] = r
		}
		t.byKey[util.FoldKey(a.Alias)] = r
	}

	sort.SliceStable(t.regions, func(i, j int) bool {
		return t.regions[i].Label() < t.regions[j].Label()
	})
	return t, nil
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the embedded table.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Parse(regionsYAML)
	})
	return defaultTable, defaultErr
}

// Resolve accepts a numeric id, a ranking URL with an l= parameter, or a
// region name with or without its country.
func (t *Table) Resolve(query string) (internal.Region, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return internal.Region{}, fmt.Errorf("%w: empty query", ErrNotFound)
	}
	if digitsOnly.MatchString(q) {
		return t.known(q), nil
	}
	if m := urlParam.FindStringSubmatch(q); m != nil {
		return t.known(m[1]), nil
	}
	if r, ok := t.byKey[util.FoldKey(q)]; ok {
		return r, nil
	}

	if s := t.Suggest(q); len(s) > 0 {
		return internal.Region{}, fmt.Errorf("%w: %q (did you mean %s?)", ErrNotFound, q, strings.Join(s, ", "))
	}
	return internal.Region{}, fmt.Errorf("%w: %q", ErrNotFound, q)
}

// known fills in the name for ids present in the table. Unknown ids are
// still valid region ids.
func (t *Table) known(id string) internal.Region {
	if r, ok := t.byID[id]; ok {
		return r
	}
	return internal.Region{ID: id}
}

// Suggest returns up to three region labels close to query.
func (t *Table) Suggest(query string) []string {
	folded := util.FoldKey(query)
	type scored struct {
		label string
		score float64
	}
	var hits []scored
	for _, r := range t.regions {
		score := max(
			matchr.JaroWinkler(folded, util.FoldKey(r.Name), false),
			matchr.JaroWinkler(folded, util.FoldKey(r.Label()), false),
		)
		if score >= suggestionThreshold {
			hits = append(hits, scored{label: r.Label(), score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]string, 0, maxSuggestions)
	for i := 0; i < len(hits) && i < maxSuggestions; i++ {
		out = append(out, hits[i].label)
	}
	return out
}

// List returns the regions sorted by label, optionally for one country.
func (t *Table) List(country string) []internal.Region {
	if country == "" {
		return append([]internal.Region(nil), t.regions...)
	}
	key := util.FoldKey(country)
	var out []internal.Region
	for _, r := range t.regions {
		if util.FoldKey(r.Country) == key {
			out = append(out, r)
		}
	}
	return out
}

func (t *Table) Countries() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range t.regions {
		if _, ok := seen[r.Country]; ok {
			continue
		}
		seen[r.Country] = struct{}{}
		out = append(out, r.Country)
	}
	sort.Strings(out)
	return out
}

// Resolve looks query up in the embedded table.
func Resolve(query string) (internal.Region, error) {
	t, err := Default()
	if err != nil {
		return internal.Region{}, err
	}
	return t.Resolve(query)
}

func List(country string) ([]internal.Region, error) {
	t, err := Default()
	if err != nil {
		return nil, err
	}
	return t.List(country), nil
}

func Countries() ([]string, error) {
	t, err := Default()
	if err != nil {
		return nil, err
	}
	return t.Countries(), nil
}
