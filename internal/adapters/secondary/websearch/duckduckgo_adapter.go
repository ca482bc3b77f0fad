package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/vibin/search-agent/config"
	"github.com/vibin/search-agent/internal/core/ports"
	"github.com/vibin/search-agent/internal/logger"
)

const (
	duckDuckGoBaseURL = "https://html.duckduckgo.com/html/"
)

// DuckDuckGoAdapter implements the WebSearchPort interface by reading DuckDuckGo's HTML endpoint.
// It needs no API key.
type DuckDuckGoAdapter struct {
	config     *config.SearchConfig
	userAgent  string
	logger     logger.Logger
	httpClient *http.Client
}

// NewDuckDuckGoAdapter creates a new DuckDuckGoAdapter
func NewDuckDuckGoAdapter(config *config.SearchConfig, userAgent string, log logger.Logger) *DuckDuckGoAdapter {
	return &DuckDuckGoAdapter{
		config:    config,
		userAgent: userAgent,
		logger:    log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Search performs a web search with the given query and returns at most limit results
func (a *DuckDuckGoAdapter) Search(ctx context.Context, query string, limit int) ([]ports.SearchResult, error) {
	a.logger.Info("Performing web search", "provider", "duckduckgo", "query", query)
	limit = clampLimit(limit)

	base := a.config.DuckDuckGoURL
	if base == "" {
		base = duckDuckGoBaseURL
	}
	searchURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse duckduckgo url: %w", err)
	}
	q := searchURL.Query()
	q.Set("q", query)
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create duckduckgo request: %w", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("DuckDuckGo request failed", "error", err)
		return nil, fmt.Errorf("duckduckgo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo search: HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse duckduckgo page: %w", err)
	}

	results := parseDuckDuckGoResults(doc, limit)
	a.logger.Info("Web search completed", "provider", "duckduckgo", "results_count", len(results))
	return results, nil
}

func parseDuckDuckGoResults(doc *goquery.Document, limit int) []ports.SearchResult {
	var results []ports.SearchResult
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		anchor := s.Find(".result__a").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return true
		}
		link := resolveDuckDuckGoLink(href)
		if link == "" {
			return true
		}

		results = append(results, ports.SearchResult{
			Title:         strings.TrimSpace(anchor.Text()),
			Link:          link,
			Snippet:       strings.TrimSpace(s.Find(".result__snippet").Text()),
			DisplayedLink: strings.TrimSpace(s.Find(".result__url").Text()),
			Position:      len(results) + 1,
		})
		return len(results) < limit
	})
	return results
}

// resolveDuckDuckGoLink unwraps the /l/?uddg= redirect used on result anchors
func resolveDuckDuckGoLink(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" {
		return ""
	}
	return u.String()
}

var _ ports.WebSearchPort = (*DuckDuckGoAdapter)(nil)
