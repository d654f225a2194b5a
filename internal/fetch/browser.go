package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"climbrank/internal"
	"climbrank/internal/config"
)

// Anything that shows the ranking has rendered.
const renderedSelector = `table tr td, a[href*='/climbs/'], a[href*='/cols/'], [class*='ranking']`

const renderWait = 10 * time.Second

// BrowserFetcher renders ranking pages in headless Chrome. Each call
// launches its own browser; pages are fetched one at a time.
type BrowserFetcher struct {
	baseURL    string
	userAgent  string
	chromePath string
	timeout    time.Duration
}

func NewBrowserFetcher(cfg config.Config) *BrowserFetcher {
	timeout := time.Duration(cfg.FetchTimeoutMs) * time.Millisecond
	// Rendering takes longer than a plain GET.
	if timeout < 30*time.Second {
		timeout = 30 * time.Second
	}
	return &BrowserFetcher{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		chromePath: cfg.ChromePath,
		timeout:    timeout,
	}
}

func (f *BrowserFetcher) pageURL(regionID string, page int) (string, error) {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("l", regionID)
	q.Set("p", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (f *BrowserFetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.UserAgent(f.userAgent),
		chromedp.WindowSize(1280, 900),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", "en-US"),
	)
	if f.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(f.chromePath))
	}
	return opts
}

func (f *BrowserFetcher) FetchPage(ctx context.Context, regionID string, page int) ([]byte, error) {
	target, err := f.pageURL(regionID, page)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base url: %v", internal.ErrFatalFetch, err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	// Starting the browser with an empty action list surfaces launch errors
	// separately from navigation errors.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("%w: launch chrome: %v", internal.ErrFatalFetch, err)
	}

	runCtx, cancel := context.WithTimeout(browserCtx, f.timeout)
	defer cancel()

	var html string
	err = chromedp.Run(runCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept":          acceptHTML,
			"Accept-Language": acceptLanguage,
			"Referer":         f.baseURL,
		}),
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			waitCtx, cancel := context.WithTimeout(ctx, renderWait)
			defer cancel()
			if err := chromedp.WaitVisible(renderedSelector, chromedp.ByQuery).Do(waitCtx); err != nil {
				slog.Debug("ranking selector not seen", "region", regionID, "page", page, "err", err)
			}
			return nil
		}),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("render region %s page %d: %w", regionID, page, err)
	}
	return []byte(html), nil
}
