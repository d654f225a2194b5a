package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"climbrank/internal/config"
)

const (
	acceptHTML     = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.9"
)

// HTTPFetcher downloads ranking pages as static HTML.
type HTTPFetcher struct {
	baseURL string
	client  *resty.Client
}

func NewHTTPFetcher(cfg config.Config) *HTTPFetcher {
	client := resty.New()
	client.SetTimeout(time.Duration(cfg.FetchTimeoutMs) * time.Millisecond)
	client.SetHeaders(map[string]string{
		"User-Agent":      cfg.UserAgent,
		"Accept":          acceptHTML,
		"Accept-Language": acceptLanguage,
		"Referer":         cfg.BaseURL,
	})
	client.SetRetryCount(max(cfg.FetchRetries, 0))
	client.SetRetryWaitTime(250 * time.Millisecond)
	client.SetRetryMaxWaitTime(4 * time.Second)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r != nil && isRetryableStatus(r.StatusCode())
	})

	return &HTTPFetcher{baseURL: cfg.BaseURL, client: client}
}

func (f *HTTPFetcher) FetchPage(ctx context.Context, regionID string, page int) ([]byte, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"l": regionID,
			"p": strconv.Itoa(page),
		}).
		Get(f.baseURL)
	if err != nil {
		return nil, fmt.Errorf("get region %s page %d: %w", regionID, page, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("climbfinder status %d for region %s page %d", resp.StatusCode(), regionID, page)
	}
	return resp.Body(), nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
