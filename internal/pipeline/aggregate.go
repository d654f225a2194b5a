package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"climbrank/internal"
	"climbrank/internal/config"
)

var ErrTooManyFailures = errors.New("too many consecutive page failures")

// Fetcher returns the raw HTML of one ranking page.
type Fetcher interface {
	FetchPage(ctx context.Context, regionID string, page int) ([]byte, error)
}

type FetcherFunc func(ctx context.Context, regionID string, page int) ([]byte, error)

func (f FetcherFunc) FetchPage(ctx context.Context, regionID string, page int) ([]byte, error) {
	return f(ctx, regionID, page)
}

type AggregateOptions struct {
	MaxPages             int
	StopOnEmptyPage      bool
	MaxConsecutiveErrors int
	DelayMin             time.Duration
	DelayMax             time.Duration
	OnPageComplete       func(page, recordsFound int)
}

func DefaultAggregateOptions() AggregateOptions {
	return AggregateOptions{
		MaxPages:             20,
		MaxConsecutiveErrors: 3,
		DelayMin:             500 * time.Millisecond,
		DelayMax:             1500 * time.Millisecond,
	}
}

func AggregateOptionsFromConfig(cfg config.Config) AggregateOptions {
	opts := DefaultAggregateOptions()
	if cfg.MaxPages > 0 {
		opts.MaxPages = cfg.MaxPages
	}
	// 0 turns the consecutive-failure halt off.
	if cfg.MaxConsecutiveErrors >= 0 {
		opts.MaxConsecutiveErrors = cfg.MaxConsecutiveErrors
	}
	opts.StopOnEmptyPage = cfg.StopOnEmptyPage
	opts.DelayMin = time.Duration(cfg.DelayMinMs) * time.Millisecond
	opts.DelayMax = time.Duration(cfg.DelayMaxMs) * time.Millisecond
	return opts
}

// Aggregator walks a page range sequentially and collects every page's
// records in page order.
type Aggregator struct {
	fetcher   Fetcher
	extractor *Extractor
	pacer     *Pacer
	opts      AggregateOptions
}

func NewAggregator(fetcher Fetcher, extractor *Extractor, opts AggregateOptions) *Aggregator {
	if extractor == nil {
		extractor = NewExtractor(DefaultOptions())
	}
	return &Aggregator{
		fetcher:   fetcher,
		extractor: extractor,
		pacer:     NewPacer(opts.DelayMin, opts.DelayMax),
		opts:      opts,
	}
}

// Run fetches pages start..end. Per-page failures are recorded and the run
// moves on; the returned error is set only when the run was cut short by a
// fatal fetch, repeated failures or cancellation. The partial result is
// returned either way.
func (a *Aggregator) Run(ctx context.Context, regionID string, start, end int) (internal.RunResult, error) {
	res := internal.RunResult{
		RunID:     uuid.NewString(),
		RegionID:  regionID,
		StartPage: start,
		EndPage:   end,
	}
	if start < 1 || end < start {
		return res, fmt.Errorf("%w: %d..%d", internal.ErrInvalidRange, start, end)
	}
	if limit := a.opts.MaxPages; limit > 0 && end-start+1 > limit {
		capped := start + limit - 1
		slog.Warn("page range capped", "requested_end", end, "end", capped, "max_pages", limit)
		end = capped
		res.EndPage = end
	}

	failures := 0
	for page := start; page <= end; page++ {
		if err := ctx.Err(); err != nil {
			res.StoppedEarly = true
			return res, err
		}
		if page > start {
			a.pacer.Wait()
		}

		found, err := a.runPage(ctx, regionID, page, &res)
		if a.opts.OnPageComplete != nil {
			a.opts.OnPageComplete(page, found)
		}
		if err != nil {
			res.Errors = append(res.Errors, internal.PageError{Page: page, Message: err.Error()})
			slog.Warn("page failed", "region", regionID, "page", page, "err", err)
			if errors.Is(err, internal.ErrFatalFetch) {
				res.StoppedEarly = true
				return res, err
			}
			failures++
			if a.opts.MaxConsecutiveErrors > 0 && failures >= a.opts.MaxConsecutiveErrors {
				res.StoppedEarly = true
				return res, fmt.Errorf("%w: %d in a row, last page %d", ErrTooManyFailures, failures, page)
			}
			continue
		}
		failures = 0

		if found == 0 && a.opts.StopOnEmptyPage {
			slog.Info("empty page, stopping", "region", regionID, "page", page)
			res.StoppedEarly = true
			res.EndPage = page
			break
		}
	}
	return res, nil
}

func (a *Aggregator) runPage(ctx context.Context, regionID string, page int, res *internal.RunResult) (int, error) {
	// An in-flight fetch is allowed to finish even if the run is cancelled.
	body, err := a.fetcher.FetchPage(context.WithoutCancel(ctx), regionID, page)
	if err != nil {
		return 0, fmt.Errorf("fetch page %d: %w", page, err)
	}
	res.PagesFetched++

	out, err := a.extractor.ExtractHTML(body, page)
	if err != nil {
		return 0, err
	}
	res.Records = append(res.Records, out.Records...)
	slog.Info("page done", "region", regionID, "page", page, "strategy", out.Strategy, "records", len(out.Records))
	return len(out.Records), nil
}

// RunUntilEmpty explores from start until a page yields nothing or the
// page cap is reached.
func (a *Aggregator) RunUntilEmpty(ctx context.Context, regionID string, start int) (internal.RunResult, error) {
	limit := a.opts.MaxPages
	if limit <= 0 {
		limit = DefaultAggregateOptions().MaxPages
	}
	saved := a.opts.StopOnEmptyPage
	a.opts.StopOnEmptyPage = true
	defer func() { a.opts.StopOnEmptyPage = saved }()
	return a.Run(ctx, regionID, start, start+limit-1)
}

// Aggregate runs one range with default options.
func Aggregate(ctx context.Context, regionID string, start, end int, fetcher Fetcher) ([]internal.ClimbRecord, []internal.PageError, error) {
	res, err := NewAggregator(fetcher, nil, DefaultAggregateOptions()).Run(ctx, regionID, start, end)
	return res.Records, res.Errors, err
}

// AggregateUntilEmpty is RunUntilEmpty with default options.
func AggregateUntilEmpty(ctx context.Context, regionID string, start int, fetcher Fetcher) ([]internal.ClimbRecord, []internal.PageError, error) {
	res, err := NewAggregator(fetcher, nil, DefaultAggregateOptions()).RunUntilEmpty(ctx, regionID, start)
	return res.Records, res.Errors, err
}
