package websearch

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vibin/search-agent/config"
	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
	"github.com/vibin/search-agent/internal/logger"
)

const (
	braveSearchBaseURL = "https://api.search.brave.com/res/v1/web/search"
)

// BraveSearchResponse represents the response from Brave Search API
type BraveSearchResponse struct {
	Query struct {
		Original string `json:"original"`
	} `json:"query"`
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			Age         string `json:"age,omitempty"`
		} `json:"results"`
		MoreResultsAvailable bool `json:"more_results_available"`
	} `json:"web"`
}

// BraveAdapter implements the WebSearchPort interface using Brave Search API
type BraveAdapter struct {
	config     *config.SearchConfig
	logger     logger.Logger
	httpClient *http.Client
}

// NewBraveAdapter creates a new BraveAdapter
func NewBraveAdapter(config *config.SearchConfig, log logger.Logger) *BraveAdapter {
	return &BraveAdapter{
		config: config,
		logger: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Search performs a web search with the given query and returns at most limit results
func (a *BraveAdapter) Search(ctx context.Context, query string, limit int) ([]ports.SearchResult, error) {
	a.logger.Info("Performing web search", "provider", "brave", "query", query)

	if a.config.BraveAPIKey == "" {
		return nil, fmt.Errorf("brave: %w", domain.ErrMissingAPIKey)
	}
	limit = clampLimit(limit)

	base := a.config.BraveURL
	if base == "" {
		base = braveSearchBaseURL
	}
	searchURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse brave url: %w", err)
	}

	q := searchURL.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(limit))
	q.Set("offset", "0")
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create brave request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("X-Subscription-Token", a.config.BraveAPIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("Brave Search request failed", "error", err)
		return nil, fmt.Errorf("brave request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		a.logger.Error("Brave Search returned non-OK status", "status", resp.StatusCode, "body", string(errorBody))
		return nil, fmt.Errorf("brave search: HTTP %d", resp.StatusCode)
	}

	// The transport only decompresses transparently when it set Accept-Encoding itself
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("brave gzip: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	var braveResp BraveSearchResponse
	if err := json.NewDecoder(reader).Decode(&braveResp); err != nil {
		a.logger.Error("Failed to parse Brave Search response", "error", err)
		return nil, fmt.Errorf("decode brave response: %w", err)
	}

	var results []ports.SearchResult
	for _, result := range braveResp.Web.Results {
		if len(results) >= limit {
			break
		}
		displayedLink := result.URL
		if parsedURL, err := url.Parse(result.URL); err == nil && parsedURL.Host != "" {
			displayedLink = parsedURL.Host
		}
		results = append(results, ports.SearchResult{
			Title:         result.Title,
			Link:          result.URL,
			Snippet:       result.Description,
			DisplayedLink: displayedLink,
			Position:      len(results) + 1,
		})
	}

	a.logger.Info("Web search completed", "provider", "brave", "results_count", len(results))
	return results, nil
}

var _ ports.WebSearchPort = (*BraveAdapter)(nil)
