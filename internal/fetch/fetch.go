// Package fetch retrieves climbfinder ranking pages over HTTP or through a
// headless browser.
package fetch

import (
	"fmt"
	"time"

	"climbrank/internal/config"
	"climbrank/internal/pipeline"
)

const (
	ModeHTTP    = "http"
	ModeBrowser = "browser"
	ModeAuto    = "auto"
)

// New builds the fetcher for mode. A nil store disables the page cache.
func New(cfg config.Config, mode string, store PageStore) (pipeline.Fetcher, error) {
	var f pipeline.Fetcher
	switch mode {
	case ModeHTTP:
		f = NewHTTPFetcher(cfg)
	case ModeBrowser:
		f = NewBrowserFetcher(cfg)
	case ModeAuto:
		f = NewAutoFetcher(NewHTTPFetcher(cfg), NewBrowserFetcher(cfg))
	default:
		return nil, fmt.Errorf("unknown fetch mode %q", mode)
	}
	if store == nil {
		return f, nil
	}
	return NewCachedFetcher(f, store, time.Duration(cfg.PageCacheTTL)*time.Minute), nil
}
