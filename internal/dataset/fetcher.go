package dataset

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// FetcherConfig holds settings for the HTTP snapshot fetcher.
type FetcherConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	RateLimit    float64 // requests per second
}

// DefaultFetcherConfig returns recommended defaults.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:      30 * time.Second,
		MaxRetries:   5,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 10 * time.Second,
		RateLimit:    2.0,
	}
}

// Fetcher downloads runner-table snapshots over HTTP with retries and
// client-side rate limiting.
type Fetcher struct {
	client  *retryablehttp.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// NewFetcher creates a snapshot fetcher.
func NewFetcher(cfg FetcherConfig, logger *logrus.Logger) *Fetcher {
	if logger == nil {
		logger = logrus.New()
	}

	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = cfg.Timeout
	client.RetryMax = cfg.MaxRetries
	client.RetryWaitMin = cfg.RetryWaitMin
	client.RetryWaitMax = cfg.RetryWaitMax
	client.Logger = nil

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 1
	}

	return &Fetcher{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(limit), 1),
		logger:  logger,
	}
}

// Fetch downloads and parses a runner table from url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Table, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter interrupted: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot fetch returned status %d", resp.StatusCode)
	}

	table, err := ParseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot from %s: %w", url, err)
	}

	f.logger.WithFields(logrus.Fields{"url": url, "rows": len(table)}).Info("Fetched runner snapshot")
	return table, nil
}
