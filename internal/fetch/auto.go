package fetch

import (
	"context"
	"log/slog"

	"climbrank/internal/pipeline"
)

// AutoFetcher tries a plain GET first and renders the page in a browser only
// when the static HTML looks like an unrendered client-side shell.
type AutoFetcher struct {
	static   pipeline.Fetcher
	rendered pipeline.Fetcher
	detect   func([]byte) pipeline.DetectResult
}

func NewAutoFetcher(static, rendered pipeline.Fetcher) *AutoFetcher {
	return &AutoFetcher{static: static, rendered: rendered, detect: pipeline.DetectRendering}
}

func (f *AutoFetcher) FetchPage(ctx context.Context, regionID string, page int) ([]byte, error) {
	body, err := f.static.FetchPage(ctx, regionID, page)
	if err != nil {
		slog.Debug("static fetch failed, rendering", "region", regionID, "page", page, "err", err)
		return f.rendered.FetchPage(ctx, regionID, page)
	}
	det := f.detect(body)
	if !det.NeedsBrowser {
		return body, nil
	}
	slog.Info("page needs a browser", "region", regionID, "page", page, "score", det.Score, "reason", det.Reason)
	return f.rendered.FetchPage(ctx, regionID, page)
}
