package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/vibin/search-agent/config"
	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
	"github.com/vibin/search-agent/internal/logger"
)

const (
	defaultTimeout      = 12 * time.Second
	defaultMaxBodyBytes = 5 << 20
	maxRedirects        = 10
)

var htmlContentTypes = []string{"text/html", "application/xhtml+xml"}

// HTTPFetcher implements the PageFetcherPort interface over net/http
type HTTPFetcher struct {
	config     *config.FetchConfig
	logger     logger.Logger
	httpClient *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPFetcher creates a new HTTPFetcher
func NewHTTPFetcher(cfg *config.FetchConfig, log logger.Logger) *HTTPFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPFetcher{
		config: cfg,
		logger: log,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		limiters: make(map[string]*rate.Limiter),
	}
}

// Fetch retrieves the page at rawURL. Failures are checked in order: transport,
// final status, content-type.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", domain.NewTransportError(err)
	}
	if err := f.wait(ctx, u.Hostname()); err != nil {
		return "", domain.NewTransportError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", domain.NewTransportError(err)
	}
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Debug("Fetch failed", "url", rawURL, "error", err)
		return "", domain.NewTransportError(unwrapURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &domain.FetchError{Kind: domain.FetchHTTPStatus, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return "", &domain.FetchError{Kind: domain.FetchUnsupportedType, Detail: strings.ToLower(contentType)}
	}

	limit := f.config.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	body, err := charset.NewReader(io.LimitReader(resp.Body, limit), contentType)
	if err != nil {
		return "", domain.NewTransportError(err)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", domain.NewTransportError(err)
	}

	f.logger.Debug("Fetched page", "url", rawURL, "bytes", len(raw))
	return string(raw), nil
}

// wait blocks on the host's limiter when per-host politeness is enabled
func (f *HTTPFetcher) wait(ctx context.Context, host string) error {
	if f.config.PerHostRPS <= 0 || host == "" {
		return nil
	}

	f.mu.Lock()
	limiter, ok := f.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(f.config.PerHostRPS), 1)
		f.limiters[host] = limiter
	}
	f.mu.Unlock()

	return limiter.Wait(ctx)
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	for _, t := range htmlContentTypes {
		if strings.Contains(ct, t) {
			return true
		}
	}
	return false
}

// unwrapURLError drops the "Get \"<url>\":" prefix net/http adds
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

var _ ports.PageFetcherPort = (*HTTPFetcher)(nil)
