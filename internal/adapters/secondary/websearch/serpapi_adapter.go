package websearch

import (
	"context"
	"fmt"
	"strconv"

	serpapi "github.com/serpapi/google-search-results-golang"

	"github.com/vibin/search-agent/config"
	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
	"github.com/vibin/search-agent/internal/logger"
)

// SerpAPIAdapter implements the WebSearchPort interface using SerpAPI
type SerpAPIAdapter struct {
	config *config.SearchConfig
	logger logger.Logger
}

// NewSerpAPIAdapter creates a new SerpAPIAdapter
func NewSerpAPIAdapter(config *config.SearchConfig, log logger.Logger) *SerpAPIAdapter {
	return &SerpAPIAdapter{
		config: config,
		logger: log,
	}
}

// Search performs a Google search through SerpAPI and returns at most limit organic results
func (a *SerpAPIAdapter) Search(ctx context.Context, query string, limit int) ([]ports.SearchResult, error) {
	a.logger.Info("Performing web search", "provider", "serpapi", "query", query)

	if a.config.SerpAPIKey == "" {
		return nil, fmt.Errorf("serpapi: %w", domain.ErrMissingAPIKey)
	}
	limit = clampLimit(limit)

	parameters := map[string]string{
		"q":             query,
		"engine":        "google",
		"google_domain": "google.com",
		"gl":            "us",
		"hl":            "en",
		"num":           strconv.Itoa(limit),
	}

	type outcome struct {
		data map[string]interface{}
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		client := serpapi.NewGoogleSearch(parameters, a.config.SerpAPIKey)
		data, err := client.GetJSON()
		done <- outcome{data: data, err: err}
	}()

	var res outcome
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		a.logger.Error("SerpAPI search failed", "error", res.err)
		return nil, fmt.Errorf("serpapi search: %w", res.err)
	}

	results := parseOrganicResults(res.data, limit)
	a.logger.Info("Web search completed", "provider", "serpapi", "results_count", len(results))
	return results, nil
}

// parseOrganicResults converts SerpAPI's organic_results array
func parseOrganicResults(data map[string]interface{}, limit int) []ports.SearchResult {
	organic, ok := data["organic_results"].([]interface{})
	if !ok {
		return nil
	}

	var results []ports.SearchResult
	for _, item := range organic {
		if len(results) >= limit {
			break
		}
		resultMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		link := getStringValue(resultMap, "link")
		if link == "" {
			continue
		}
		results = append(results, ports.SearchResult{
			Title:         getStringValue(resultMap, "title"),
			Link:          link,
			Snippet:       getStringValue(resultMap, "snippet"),
			DisplayedLink: getStringValue(resultMap, "displayed_link"),
			Position:      len(results) + 1,
		})
	}
	return results
}

// Helper function to safely extract string values from map
func getStringValue(data map[string]interface{}, key string) string {
	if value, ok := data[key]; ok {
		if strValue, ok := value.(string); ok {
			return strValue
		}
	}
	return ""
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > ports.MaxSearchResults {
		return ports.MaxSearchResults
	}
	return limit
}

var _ ports.WebSearchPort = (*SerpAPIAdapter)(nil)
