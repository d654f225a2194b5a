// Package watch keeps the stored rankings of a fixed set of regions fresh by
// re-scraping them on an interval.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"climbrank/internal"
	"climbrank/internal/config"
	"climbrank/internal/pipeline"
	"climbrank/internal/region"
	"climbrank/internal/storage"
)

const refreshKeyPrefix = "watch.last_refresh."

type Service struct {
	db      *storage.DB
	cfg     config.Config
	fetcher pipeline.Fetcher
	now     func() time.Time
}

func NewService(db *storage.DB, cfg config.Config, fetcher pipeline.Fetcher) *Service {
	return &Service{db: db, cfg: cfg, fetcher: fetcher, now: time.Now}
}

func (s *Service) interval() time.Duration {
	if s.cfg.WatchIntervalMin <= 0 {
		return time.Hour
	}
	return time.Duration(s.cfg.WatchIntervalMin) * time.Minute
}

// Run refreshes the watched regions until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	if err := s.cfg.Require("WATCH_REGIONS", strings.Join(s.cfg.WatchRegions, ",")); err != nil {
		return err
	}
	for {
		if _, err := s.RunCycle(ctx); err != nil {
			slog.Error("watch cycle failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.interval()):
		}
	}
}

type CycleResult struct {
	Refreshed []internal.RunResult
	Skipped   []string
}

// RunCycle refreshes every watched region whose last refresh is older than
// the interval. A failing region does not stop the others.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	var out CycleResult
	var errs []error
	for _, query := range s.cfg.WatchRegions {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		reg, err := region.Resolve(query)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		due, err := s.due(reg.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !due {
			out.Skipped = append(out.Skipped, reg.ID)
			continue
		}

		res, err := s.refresh(ctx, reg)
		if err != nil {
			errs = append(errs, fmt.Errorf("region %s: %w", reg.ID, err))
		}
		if res.RunID != "" {
			out.Refreshed = append(out.Refreshed, res)
		}
	}
	slog.Info("watch cycle done", "refreshed", len(out.Refreshed), "skipped", len(out.Skipped), "errors", len(errs))
	return out, errors.Join(errs...)
}

func (s *Service) due(regionID string) (bool, error) {
	last, err := s.db.GetMetadata(refreshKeyPrefix + regionID)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}
	parsed, err := time.Parse(time.RFC3339, *last)
	if err != nil {
		return true, nil
	}
	return s.now().Sub(parsed) >= s.interval(), nil
}

func (s *Service) refresh(ctx context.Context, reg internal.Region) (internal.RunResult, error) {
	agg := pipeline.NewAggregator(s.fetcher, pipeline.NewExtractor(pipeline.OptionsFromConfig(s.cfg)), pipeline.AggregateOptionsFromConfig(s.cfg))

	var res internal.RunResult
	var runErr error
	if s.cfg.WatchPages > 0 {
		res, runErr = agg.Run(ctx, reg.ID, 1, s.cfg.WatchPages)
	} else {
		res, runErr = agg.RunUntilEmpty(ctx, reg.ID, 1)
	}
	if errors.Is(runErr, internal.ErrInvalidRange) {
		return internal.RunResult{}, runErr
	}

	if err := s.db.SaveRun(res); err != nil {
		return res, err
	}
	if runErr != nil {
		// Partial runs are kept but do not count as a refresh.
		return res, runErr
	}
	if err := s.db.SetMetadata(refreshKeyPrefix+reg.ID, s.now().UTC().Format(time.RFC3339)); err != nil {
		return res, err
	}

	if s.cfg.WatchAutoExport && len(res.Records) > 0 {
		path := filepath.Join(s.cfg.OutputDir, "watch", exportName(reg, s.now()))
		if err := pipeline.ExportRecordsToXLSX(res.Records, path); err != nil {
			return res, err
		}
		slog.Info("watch export written", "region", reg.ID, "path", path, "records", len(res.Records))
	}
	return res, nil
}

func exportName(reg internal.Region, at time.Time) string {
	name := reg.Name
	if name == "" {
		name = "region"
	}
	repl := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ",", "", "'", "", "(", "", ")", "")
	return fmt.Sprintf("%s_%s_%s.xlsx", reg.ID, repl.Replace(name), at.UTC().Format("20060102-1504"))
}
