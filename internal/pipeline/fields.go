package pipeline

import (
	"math"

	"climbrank/internal/util"
)

type Fields struct {
	LengthKm         float64
	GradientPct      float64
	DifficultyPoints int
}

// ExtractFields reads length and gradient by unit marker and picks the
// difficulty score among the remaining integers.
func ExtractFields(text string, opts Options) Fields {
	f := Fields{
		LengthKm:    util.ExtractNumber(text, util.KmPattern),
		GradientPct: util.ExtractNumber(text, util.PercentPattern),
	}
	f.DifficultyPoints = pickDifficulty(text, f.LengthKm, f.GradientPct, opts)
	return f
}

// pickDifficulty returns the largest standalone integer inside the
// configured range that is neither the length, the gradient nor a year.
func pickDifficulty(text string, length, gradient float64, opts Options) int {
	year := opts.now().Year()
	best := 0
	// "1.250 km" must not come back as a grouped 1250.
	text = util.KmPattern.ReplaceAllString(text, " ")
	text = util.PercentPattern.ReplaceAllString(text, " ")
	for _, v := range util.IntegerTokens(text) {
		if v <= opts.DifficultyMin || v >= opts.DifficultyMax {
			continue
		}
		if float64(v) == length || float64(v) == gradient {
			continue
		}
		if opts.ExcludeYears && v >= year-opts.YearLookback && v <= year+1 {
			continue
		}
		if v > best {
			best = v
		}
	}
	return best
}

// ElevationGain approximates metres climbed: 10 m per km per percent of
// average gradient. Zero when either input is missing.
func ElevationGain(lengthKm, gradientPct float64) int {
	if lengthKm == 0 || gradientPct == 0 {
		return 0
	}
	return int(math.Round(lengthKm * gradientPct * 10))
}
