package ports

import (
	"context"

	"github.com/vibin/search-agent/internal/core/domain"
)

// PageFetcherPort retrieves raw HTML. Every failure is a *domain.FetchError.
type PageFetcherPort interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// PageCachePort stores successfully extracted sources by URL
type PageCachePort interface {
	Get(ctx context.Context, url string) (domain.SourceResult, bool, error)
	Set(ctx context.Context, result domain.SourceResult) error
}
