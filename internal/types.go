package internal

import "errors"

var (
	ErrInvalidRange = errors.New("invalid page range")
	ErrFatalFetch   = errors.New("unrecoverable fetch failure")
)

// ClimbRecord is one ranking entry. Zero numeric fields mean "not found".
type ClimbRecord struct {
	Rank             int     `json:"rank"`
	Name             string  `json:"name"`
	LengthKm         float64 `json:"length_km"`
	GradientPct      float64 `json:"avg_gradient_pct"`
	DifficultyPoints int     `json:"difficulty_points"`
	ElevationGainM   int     `json:"elevation_gain_m"`
	Page             int     `json:"page"`
}

// RecordColumns is the exported column order. Downstream consumers depend on it.
var RecordColumns = []string{
	"rank", "name", "length_km", "avg_gradient_pct", "difficulty_points", "elevation_gain_m", "page",
}

type PageError struct {
	Page    int    `json:"page"`
	Message string `json:"message"`
}

type RunResult struct {
	RunID        string
	RegionID     string
	StartPage    int
	EndPage      int
	Records      []ClimbRecord
	Errors       []PageError
	PagesFetched int
	StoppedEarly bool
}

type Region struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Country string `yaml:"-"`
}

func (r Region) Label() string {
	if r.Country == "" {
		return r.Name
	}
	return r.Name + ", " + r.Country
}

type RunRow struct {
	ID           string
	RegionID     string
	StartPage    int
	EndPage      int
	RecordCount  int
	ErrorCount   int
	StoppedEarly bool
	CreatedAt    string
}
