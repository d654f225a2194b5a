package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"climbrank/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "climbrank.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPageCacheRespectsMaxAge(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return now }

	_, ok, err := db.GetPage("688", 1, time.Hour)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.PutPage("688", 1, []byte("<html>v1</html>")))
	require.NoError(t, db.PutPage("688", 1, []byte("<html>v2</html>")))

	now = now.Add(30 * time.Minute)
	body, ok, err := db.GetPage("688", 1, time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "<html>v2</html>", string(body))

	now = now.Add(time.Hour)
	_, ok, err = db.GetPage("688", 1, time.Hour)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRunRoundTrip(t *testing.T) {
	db := openTestDB(t)
	run := internal.RunResult{
		RunID:     "run-1",
		RegionID:  "688",
		StartPage: 1,
		EndPage:   3,
		Records: []internal.ClimbRecord{
			{Rank: 1, Name: "Col du Tourmalet", LengthKm: 19, GradientPct: 7.4, DifficultyPoints: 1200, ElevationGainM: 1406, Page: 1},
			{Rank: 2, Name: "Col d'Aubisque", LengthKm: 16.6, GradientPct: 7.2, DifficultyPoints: 990, ElevationGainM: 1195, Page: 1},
			{Rank: 21, Name: "Col du Tourmalet", LengthKm: 19, GradientPct: 7.4, DifficultyPoints: 1200, ElevationGainM: 1406, Page: 3},
		},
		Errors:       []internal.PageError{{Page: 2, Message: "status 503"}},
		StoppedEarly: true,
	}
	require.NoError(t, db.SaveRun(run))

	got, err := db.GetRun("run-1")
	require.NoError(t, err)
	require.Equal(t, "688", got.RegionID)
	require.Equal(t, 3, got.RecordCount)
	require.Equal(t, 1, got.ErrorCount)
	require.True(t, got.StoppedEarly)
	require.NotEmpty(t, got.CreatedAt)

	records, err := db.GetRunRecords("run-1")
	require.NoError(t, err)
	if diff := cmp.Diff(run.Records, records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}

	errs, err := db.GetRunErrors("run-1")
	require.NoError(t, err)
	require.Equal(t, run.Errors, errs)

	_, err = db.GetRun("missing")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return now }

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, db.SaveRun(internal.RunResult{RunID: id, RegionID: "744", StartPage: 1, EndPage: 1}))
		now = now.Add(time.Minute)
	}

	runs, err := db.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "c", runs[0].ID)
	require.Equal(t, "b", runs[1].ID)
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)
	v, err := db.GetMetadata("last_run_id")
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, db.SetMetadata("last_run_id", "a"))
	require.NoError(t, db.SetMetadata("last_run_id", "b"))
	v, err = db.GetMetadata("last_run_id")
	require.NoError(t, err)
	require.Equal(t, "b", *v)
}
