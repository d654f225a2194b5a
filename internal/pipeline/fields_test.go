package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedOptions(year int) Options {
	opts := DefaultOptions()
	opts.Now = func() time.Time { return time.Date(year, time.May, 1, 0, 0, 0, 0, time.UTC) }
	return opts
}

func TestPickDifficultySkipsLengthAndYear(t *testing.T) {
	opts := fixedOptions(2026)
	require.Equal(t, 812, pickDifficulty("12 34.8 7 812 2026", 34.8, 7, opts))

	// Without year exclusion the year is a plausible score.
	opts.ExcludeYears = false
	require.Equal(t, 2026, pickDifficulty("12 34.8 7 812 2026", 34.8, 7, opts))
}

func TestPickDifficultyRange(t *testing.T) {
	opts := fixedOptions(2026)
	require.Equal(t, 0, pickDifficulty("20 3000 5", 0, 0, opts))
	require.Equal(t, 21, pickDifficulty("20 21 3000", 0, 0, opts))

	opts.DifficultyMax = 5000
	require.Equal(t, 4100, pickDifficulty("4100 pts", 0, 0, opts))
}

func TestPickDifficultyExcludesWholeGradient(t *testing.T) {
	opts := fixedOptions(2026)
	opts.DifficultyMin = 1
	require.Equal(t, 0, pickDifficulty("8 %", 0, 8, opts))
}

func TestExtractFields(t *testing.T) {
	f := ExtractFields("Col X | 12.3 km | 8% | 950 pts", fixedOptions(2026))
	require.Equal(t, Fields{LengthKm: 12.3, GradientPct: 8, DifficultyPoints: 950}, f)

	f = ExtractFields("Kapelmuur | 1,1 km | 9,3 % | 2025", fixedOptions(2025))
	require.Equal(t, Fields{LengthKm: 1.1, GradientPct: 9.3}, f)
}

func TestExtractFieldsGroupedScore(t *testing.T) {
	f := ExtractFields("Col X | 12.3 km | 8% | 1,120 pts", fixedOptions(2026))
	require.Equal(t, Fields{LengthKm: 12.3, GradientPct: 8, DifficultyPoints: 1120}, f)

	// A three-decimal length is not a grouped score.
	f = ExtractFields("Col Y | 1.250 km | 7.125 % | 900 pts", fixedOptions(2026))
	require.Equal(t, Fields{LengthKm: 1.25, GradientPct: 7.125, DifficultyPoints: 900}, f)
}

func TestElevationGain(t *testing.T) {
	require.Equal(t, 984, ElevationGain(12.3, 8))
	require.Equal(t, 200, ElevationGain(5.0, 4))
	require.Equal(t, 0, ElevationGain(0, 8))
	require.Equal(t, 0, ElevationGain(12.3, 0))

	for _, l := range []float64{0.4, 1.1, 5, 12.3, 21.5, 34.8} {
		for _, g := range []float64{0.5, 3.3, 7, 8.1, 12.6} {
			got := ElevationGain(l, g)
			require.Equal(t, int(math.Round(l*g*10)), got)
			require.GreaterOrEqual(t, got, 0)
		}
	}
}
