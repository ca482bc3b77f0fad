package tools

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
	"github.com/vibin/search-agent/internal/core/services/extract"
	"github.com/vibin/search-agent/internal/logger"
	"github.com/vibin/search-agent/internal/metrics"
)

// ReaderOptions configures how pages are turned into SourceResults
type ReaderOptions struct {
	MaxChars     int
	ExcerptChars int
	Concurrency  int
}

// PageReader fetches pages and extracts their main text. Failures never escape:
// every URL yields exactly one SourceResult.
type PageReader struct {
	fetcher   ports.PageFetcherPort
	extractor *extract.Extractor
	cache     ports.PageCachePort
	opts      ReaderOptions
	logger    logger.Logger
	metrics   *metrics.Metrics
}

// NewPageReader creates a PageReader. cache and m may be nil.
func NewPageReader(fetcher ports.PageFetcherPort, extractor *extract.Extractor, cache ports.PageCachePort, opts ReaderOptions, log logger.Logger, m *metrics.Metrics) *PageReader {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &PageReader{
		fetcher:   fetcher,
		extractor: extractor,
		cache:     cache,
		opts:      opts,
		logger:    log,
		metrics:   m,
	}
}

// Read fetches and extracts a single page
func (r *PageReader) Read(ctx context.Context, url string) domain.SourceResult {
	if cached, ok := r.fromCache(ctx, url); ok {
		r.metrics.ObserveFetch("cached", 0)
		return cached
	}

	start := time.Now()
	html, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return r.fail(url, err, start)
	}

	page, err := r.extractor.Extract(ctx, html, url)
	if err != nil {
		return r.fail(url, err, start)
	}

	result := domain.NewSourceResult(url, page.Title, page.Text, r.opts.MaxChars, r.opts.ExcerptChars)
	r.metrics.ObserveFetch("ok", time.Since(start))
	r.logger.Debug("Extracted page", "url", url, "char_count", result.CharCount)

	if r.cache != nil {
		if err := r.cache.Set(ctx, result); err != nil {
			r.logger.Warn("Failed to cache page", "url", url, "error", err)
		}
	}
	return result
}

// ReadAll reads every URL with bounded concurrency. Results keep the order of urls.
func (r *PageReader) ReadAll(ctx context.Context, urls []string) []domain.SourceResult {
	results := make([]domain.SourceResult, len(urls))

	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = r.Read(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *PageReader) fromCache(ctx context.Context, url string) (domain.SourceResult, bool) {
	if r.cache == nil {
		return domain.SourceResult{}, false
	}
	cached, ok, err := r.cache.Get(ctx, url)
	if err != nil {
		r.logger.Warn("Page cache lookup failed", "url", url, "error", err)
		return domain.SourceResult{}, false
	}
	return cached, ok
}

func (r *PageReader) fail(url string, err error, start time.Time) domain.SourceResult {
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		fetchErr = domain.NewTransportError(err)
	}
	r.metrics.ObserveFetch(string(fetchErr.Kind), time.Since(start))
	r.logger.Info("Skipping source", "url", url, "reason", fetchErr.Error())
	return domain.FailedSourceResult(url, fetchErr)
}
