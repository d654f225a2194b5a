package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"climbrank/internal"
	"climbrank/internal/config"
)

type fakeSite struct {
	pages map[int]string
	fail  map[int]error
	calls []int
}

func (f *fakeSite) FetchPage(_ context.Context, _ string, page int) ([]byte, error) {
	f.calls = append(f.calls, page)
	if err, ok := f.fail[page]; ok {
		return nil, err
	}
	return []byte(f.pages[page]), nil
}

func cardPage(names ...string) string {
	out := "<html><body>"
	for i, n := range names {
		out += fmt.Sprintf(`<div class="card"><h3>%s</h3><span>%d.5 km</span><span>6%%</span><span>%d pts</span></div>`, n, i+3, 400+i)
	}
	return out + "</body></html>"
}

func newTestAggregator(site Fetcher, opts AggregateOptions) (*Aggregator, *[]time.Duration) {
	var slept []time.Duration
	a := NewAggregator(site, NewExtractor(fixedOptions(2026)), opts)
	a.pacer.sleep = func(d time.Duration) { slept = append(slept, d) }
	return a, &slept
}

func TestAggregatorCollectsPagesInOrder(t *testing.T) {
	site := &fakeSite{pages: map[int]string{
		1: cardPage("Col A", "Col B"),
		2: cardPage("Col C"),
		3: cardPage("Col A"),
	}}
	var progress [][2]int
	opts := DefaultAggregateOptions()
	opts.OnPageComplete = func(page, found int) { progress = append(progress, [2]int{page, found}) }
	a, slept := newTestAggregator(site, opts)

	res, err := a.Run(context.Background(), "688", 1, 3)
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)
	require.Equal(t, "688", res.RegionID)
	require.Equal(t, 3, res.PagesFetched)
	require.False(t, res.StoppedEarly)

	var names []string
	var pages []int
	for _, r := range res.Records {
		names = append(names, r.Name)
		pages = append(pages, r.Page)
	}
	// Repeats across pages are kept.
	require.Equal(t, []string{"Col A", "Col B", "Col C", "Col A"}, names)
	require.Equal(t, []int{1, 1, 2, 3}, pages)
	require.Equal(t, [][2]int{{1, 2}, {2, 1}, {3, 1}}, progress)

	// Pacing happens between pages only.
	require.Len(t, *slept, 2)
	for _, d := range *slept {
		require.GreaterOrEqual(t, d, 500*time.Millisecond)
		require.LessOrEqual(t, d, 1500*time.Millisecond)
	}
}

func TestAggregatorAccumulatesErrors(t *testing.T) {
	site := &fakeSite{
		pages: map[int]string{1: cardPage("Col A"), 3: cardPage("Col C")},
		fail:  map[int]error{2: errors.New("status 503")},
	}
	a, _ := newTestAggregator(site, DefaultAggregateOptions())

	res, err := a.Run(context.Background(), "688", 1, 3)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	require.Len(t, res.Errors, 1)
	require.Equal(t, 2, res.Errors[0].Page)
	require.Contains(t, res.Errors[0].Message, "status 503")
	require.Equal(t, []int{1, 2, 3}, site.calls)
}

func TestAggregatorStopsOnEmptyPage(t *testing.T) {
	site := &fakeSite{pages: map[int]string{
		1: cardPage("Col A"),
		2: "<html><body><p>nothing</p></body></html>",
		3: cardPage("Col C"),
	}}
	opts := DefaultAggregateOptions()
	opts.StopOnEmptyPage = true
	a, _ := newTestAggregator(site, opts)

	res, err := a.Run(context.Background(), "688", 1, 3)
	require.NoError(t, err)
	require.True(t, res.StoppedEarly)
	require.Equal(t, 2, res.EndPage)
	require.Len(t, res.Records, 1)
	require.Equal(t, []int{1, 2}, site.calls)
}

func TestAggregatorHaltsAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("connection reset")
	site := &fakeSite{
		pages: map[int]string{1: cardPage("Col A"), 6: cardPage("Col F")},
		fail:  map[int]error{2: boom, 3: boom, 4: boom, 5: boom},
	}
	a, _ := newTestAggregator(site, DefaultAggregateOptions())

	res, err := a.Run(context.Background(), "688", 1, 6)
	require.ErrorIs(t, err, ErrTooManyFailures)
	require.True(t, res.StoppedEarly)
	require.Len(t, res.Records, 1)
	require.Len(t, res.Errors, 3)
	require.Equal(t, []int{1, 2, 3, 4}, site.calls)
}

func TestAggregatorHaltsOnFatalFetch(t *testing.T) {
	site := &fakeSite{
		pages: map[int]string{1: cardPage("Col A")},
		fail:  map[int]error{2: fmt.Errorf("launch chrome: %w", internal.ErrFatalFetch)},
	}
	a, _ := newTestAggregator(site, DefaultAggregateOptions())

	res, err := a.Run(context.Background(), "688", 1, 5)
	require.ErrorIs(t, err, internal.ErrFatalFetch)
	require.Len(t, res.Records, 1)
	require.Equal(t, []int{1, 2}, site.calls)
}

func TestAggregatorRangeValidationAndCap(t *testing.T) {
	site := &fakeSite{pages: map[int]string{}}
	a, _ := newTestAggregator(site, DefaultAggregateOptions())

	_, err := a.Run(context.Background(), "688", 0, 3)
	require.ErrorIs(t, err, internal.ErrInvalidRange)
	_, err = a.Run(context.Background(), "688", 4, 3)
	require.ErrorIs(t, err, internal.ErrInvalidRange)
	require.Empty(t, site.calls)

	res, err := a.Run(context.Background(), "688", 5, 100)
	require.NoError(t, err)
	require.Equal(t, 24, res.EndPage)
	require.Len(t, site.calls, 20)
}

func TestAggregatorCancelledBeforeNextPage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	site := FetcherFunc(func(ctx context.Context, _ string, page int) ([]byte, error) {
		cancel()
		require.NoError(t, ctx.Err())
		return []byte(cardPage("Col A")), nil
	})
	a, _ := newTestAggregator(site, DefaultAggregateOptions())

	res, err := a.Run(ctx, "688", 1, 3)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, res.StoppedEarly)
	require.Equal(t, 1, res.PagesFetched)
	require.Len(t, res.Records, 1)
}

func TestAggregatorRunUntilEmpty(t *testing.T) {
	site := &fakeSite{pages: map[int]string{
		2: cardPage("Col B"),
		3: cardPage("Col C"),
	}}
	a, _ := newTestAggregator(site, DefaultAggregateOptions())

	res, err := a.RunUntilEmpty(context.Background(), "688", 2)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	require.Equal(t, 4, res.EndPage)
	require.Equal(t, []int{2, 3, 4}, site.calls)
	require.False(t, a.opts.StopOnEmptyPage)
}

func TestAggregateOptionsFromConfigConsecutiveErrors(t *testing.T) {
	opts := AggregateOptionsFromConfig(config.Config{MaxConsecutiveErrors: 5})
	require.Equal(t, 5, opts.MaxConsecutiveErrors)

	opts = AggregateOptionsFromConfig(config.Config{MaxConsecutiveErrors: -1})
	require.Equal(t, 3, opts.MaxConsecutiveErrors)

	// 0 switches the halt off: every page is tried.
	opts = AggregateOptionsFromConfig(config.Config{MaxConsecutiveErrors: 0})
	require.Zero(t, opts.MaxConsecutiveErrors)
	site := &fakeSite{fail: map[int]error{
		1: errors.New("status 503"), 2: errors.New("status 503"),
		3: errors.New("status 503"), 4: errors.New("status 503"),
	}}
	a, _ := newTestAggregator(site, opts)
	res, err := a.Run(context.Background(), "688", 1, 4)
	require.NoError(t, err)
	require.Len(t, res.Errors, 4)
	require.Equal(t, []int{1, 2, 3, 4}, site.calls)
}
