package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"climbrank/internal/config"
	"climbrank/internal/pipeline"
	"climbrank/internal/storage"
)

const rankingPage = `<html><body>
<div class="card"><h3>Col de la Croix de Fer</h3><span>29.2 km</span><span>5.2%</span><span>1010 pts</span></div>
<div class="card"><h3>Col du Glandon</h3><span>21.3 km</span><span>5.1%</span><span>870 pts</span></div>
</body></html>`

func newTestService(t *testing.T, fetcher pipeline.Fetcher, regions ...string) (*Service, *storage.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "climbrank.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		OutputDir:        filepath.Join(dir, "out"),
		DifficultyMin:    20,
		DifficultyMax:    3000,
		WatchRegions:     regions,
		WatchIntervalMin: 60,
		WatchPages:       1,
		WatchAutoExport:  true,
	}
	return NewService(db, cfg, fetcher), db, cfg.OutputDir
}

func TestRunCycleRefreshesAndSkips(t *testing.T) {
	calls := 0
	fetcher := pipeline.FetcherFunc(func(_ context.Context, _ string, _ int) ([]byte, error) {
		calls++
		return []byte(rankingPage), nil
	})
	svc, db, outDir := newTestService(t, fetcher, "savoie", "688")
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	res, err := svc.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Refreshed, 2)
	require.Equal(t, "957", res.Refreshed[0].RegionID)
	require.Len(t, res.Refreshed[0].Records, 2)
	require.Equal(t, 2, calls)

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	entries, err := os.ReadDir(filepath.Join(outDir, "watch"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "688_Pyrenees_20260601-0800.xlsx", entries[0].Name())

	now = now.Add(30 * time.Minute)
	res, err = svc.RunCycle(context.Background())
	require.NoError(t, err)
	require.Empty(t, res.Refreshed)
	require.Equal(t, []string{"957", "688"}, res.Skipped)

	now = now.Add(time.Hour)
	res, err = svc.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Refreshed, 2)
}

func TestRunCycleKeepsGoingAfterFailures(t *testing.T) {
	fetcher := pipeline.FetcherFunc(func(_ context.Context, regionID string, _ int) ([]byte, error) {
		if regionID == "957" {
			return nil, errors.New("status 503")
		}
		return []byte(rankingPage), nil
	})
	svc, db, _ := newTestService(t, fetcher, "no such region", "savoie", "dolomites")

	res, err := svc.RunCycle(context.Background())
	require.Error(t, err)
	require.Len(t, res.Refreshed, 2)

	// The failed page is recorded with its run.
	failed := res.Refreshed[0]
	require.Equal(t, "957", failed.RegionID)
	pageErrs, err := db.GetRunErrors(failed.RunID)
	require.NoError(t, err)
	require.Len(t, pageErrs, 1)

	last, err := db.GetMetadata(refreshKeyPrefix + "123")
	require.NoError(t, err)
	require.NotNil(t, last)
}

func TestRunRequiresRegions(t *testing.T) {
	svc, _, _ := newTestService(t, pipeline.FetcherFunc(func(context.Context, string, int) ([]byte, error) {
		return nil, nil
	}))
	require.Error(t, svc.Run(context.Background()))
}
