package pipeline

import (
	"strings"

	"climbrank/internal"
)

// item is what a layout strategy produces for one detected entry.
type item struct {
	Rank       int
	Name       string
	LengthKm   float64
	Gradient   float64
	Difficulty int
}

// assemble turns strategy items into records for page, in order. Items whose
// name cannot be validated are dropped or renamed per the name policy.
func assemble(items []item, page int, opts Options) []internal.ClimbRecord {
	out := make([]internal.ClimbRecord, 0, len(items))
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if !IsValidName(name, opts.NoisePhrases) {
			if opts.OnUnresolvedName != NamePlaceholder {
				continue
			}
			name = UnknownName
		}
		length := nonNegative(it.LengthKm)
		gradient := nonNegative(it.Gradient)
		out = append(out, internal.ClimbRecord{
			Rank:             max(it.Rank, 0),
			Name:             name,
			LengthKm:         length,
			GradientPct:      gradient,
			DifficultyPoints: max(it.Difficulty, 0),
			ElevationGainM:   ElevationGain(length, gradient),
			Page:             page,
		})
	}
	return out
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
