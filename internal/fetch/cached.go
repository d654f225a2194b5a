package fetch

import (
	"context"
	"log/slog"
	"time"

	"climbrank/internal/pipeline"
)

// PageStore persists raw page HTML keyed by region and page number.
type PageStore interface {
	GetPage(regionID string, page int, maxAge time.Duration) ([]byte, bool, error)
	PutPage(regionID string, page int, html []byte) error
}

// CachedFetcher serves pages younger than ttl from the store and writes
// every successful fetch back. A zero ttl disables reads.
type CachedFetcher struct {
	next  pipeline.Fetcher
	store PageStore
	ttl   time.Duration
}

func NewCachedFetcher(next pipeline.Fetcher, store PageStore, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{next: next, store: store, ttl: ttl}
}

func (f *CachedFetcher) FetchPage(ctx context.Context, regionID string, page int) ([]byte, error) {
	if f.ttl > 0 {
		body, ok, err := f.store.GetPage(regionID, page, f.ttl)
		if err != nil {
			slog.Warn("page cache read failed", "region", regionID, "page", page, "err", err)
		} else if ok {
			slog.Debug("page cache hit", "region", regionID, "page", page)
			return body, nil
		}
	}

	body, err := f.next.FetchPage(ctx, regionID, page)
	if err != nil {
		return nil, err
	}
	if err := f.store.PutPage(regionID, page, body); err != nil {
		slog.Warn("page cache write failed", "region", regionID, "page", page, "err", err)
	}
	return body, nil
}
