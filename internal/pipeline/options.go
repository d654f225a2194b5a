package pipeline

import (
	"regexp"
	"time"

	"climbrank/internal/config"
)

type NamePolicy string

const (
	NameDrop        NamePolicy = "drop"
	NamePlaceholder NamePolicy = "placeholder"

	UnknownName = "Unknown"
)

var (
	DefaultNoisePhrases = []string{"attempt", "poging", "tentative", "versuch", "intento", "tentativo"}
	DefaultNavLabels    = []string{"ranking", "home", "climbs", "map"}
	DefaultLinkPattern  = regexp.MustCompile(`/(climbs?|cols?)/`)
)

// Options holds the extraction tunables. All of them are heuristics fitted
// against the live site and are expected to drift.
type Options struct {
	// Difficulty candidates must lie strictly inside (DifficultyMin, DifficultyMax).
	DifficultyMin int
	DifficultyMax int
	// ExcludeYears rejects difficulty candidates in
	// [currentYear-YearLookback, currentYear+1].
	ExcludeYears bool
	YearLookback int

	NoisePhrases     []string
	OnUnresolvedName NamePolicy

	CardRequirePercent bool
	JSONMaxDepth       int
	MinTableCells      int
	MinHeaderColumns   int

	LinkPattern       *regexp.Regexp
	LinkAncestorDepth int
	NavLabels         []string

	Now func() time.Time
}

func DefaultOptions() Options {
	return Options{
		DifficultyMin:      20,
		DifficultyMax:      3000,
		ExcludeYears:       true,
		YearLookback:       0,
		NoisePhrases:       DefaultNoisePhrases,
		OnUnresolvedName:   NameDrop,
		CardRequirePercent: false,
		JSONMaxDepth:       12,
		MinTableCells:      3,
		MinHeaderColumns:   3,
		LinkPattern:        DefaultLinkPattern,
		LinkAncestorDepth:  4,
		NavLabels:          DefaultNavLabels,
		Now:                time.Now,
	}
}

func OptionsFromConfig(cfg config.Config) Options {
	opts := DefaultOptions()
	// An unset range keeps the defaults; a set one may start at 0.
	if cfg.DifficultyMax > 0 {
		opts.DifficultyMin = max(cfg.DifficultyMin, 0)
		opts.DifficultyMax = cfg.DifficultyMax
	}
	opts.ExcludeYears = cfg.ExcludeYearValues
	opts.OnUnresolvedName = NamePolicy(cfg.OnUnresolvedName)
	opts.CardRequirePercent = cfg.CardRequirePercent
	if cfg.JSONMaxDepth > 0 {
		opts.JSONMaxDepth = cfg.JSONMaxDepth
	}
	if len(cfg.NoisePhrases) > 0 {
		opts.NoisePhrases = cfg.NoisePhrases
	}
	return opts
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}
