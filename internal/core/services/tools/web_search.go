package tools

import (
	"context"
	"net/url"
	"strings"

	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
	"github.com/vibin/search-agent/internal/logger"
	"github.com/vibin/search-agent/internal/metrics"
)

// WebSearchToolName is the name the model uses to call the search tool
const WebSearchToolName = "web_search"

// WebSearchTool searches the web and reads the main text of every result page
type WebSearchTool struct {
	backend    ports.WebSearchPort
	reader     *PageReader
	shrink     ShrinkOptions
	maxResults int
	logger     logger.Logger
	metrics    *metrics.Metrics
}

// NewWebSearchTool creates the search tool. maxResults is capped at ports.MaxSearchResults.
func NewWebSearchTool(backend ports.WebSearchPort, reader *PageReader, shrink ShrinkOptions, maxResults int, log logger.Logger, m *metrics.Metrics) *WebSearchTool {
	if maxResults <= 0 || maxResults > ports.MaxSearchResults {
		maxResults = ports.MaxSearchResults
	}
	return &WebSearchTool{
		backend:    backend,
		reader:     reader,
		shrink:     shrink,
		maxResults: maxResults,
		logger:     log,
		metrics:    m,
	}
}

// Name implements ports.Tool
func (t *WebSearchTool) Name() string {
	return WebSearchToolName
}

// Definition implements ports.Tool
func (t *WebSearchTool) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name: WebSearchToolName,
		Description: "Search the web, open the top results and return the readable main text of each page " +
			"as a list of {url, title, text, char_count}. Use it for current or factual questions.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
			},
			"required": []string{"query"},
		},
	}
}

// Invoke implements ports.Tool
func (t *WebSearchTool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return nil, err
	}
	return t.Search(ctx, query), nil
}

// Shape reduces the raw result list with the configured shrink limits
func (t *WebSearchTool) Shape(result any) any {
	if sources, ok := result.([]domain.SourceResult); ok {
		return Shrink(sources, t.shrink)
	}
	return result
}

// Search returns one SourceResult per usable search hit, in search-engine order.
// It never fails as a whole: a backend failure yields an empty list and a page
// failure yields an error-only entry.
func (t *WebSearchTool) Search(ctx context.Context, query string) []domain.SourceResult {
	t.logger.Info("Performing web search", "query", query)

	hits, err := t.backend.Search(ctx, query, t.maxResults)
	if err != nil {
		t.logger.Error("Search backend failed", "query", query, "error", err)
		return []domain.SourceResult{}
	}
	if len(hits) > t.maxResults {
		hits = hits[:t.maxResults]
	}

	links := make([]string, 0, len(hits))
	for _, hit := range hits {
		if isWebLink(hit.Link) {
			links = append(links, hit.Link)
		}
	}

	results := t.reader.ReadAll(ctx, links)

	ok := 0
	for _, r := range results {
		if r.OK() {
			ok++
		}
	}
	t.logger.Info("Web search completed", "query", query, "links", len(links), "extracted", ok)
	return results
}

// isWebLink reports whether link is an absolute http or https URL
func isWebLink(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

var (
	_ ports.Tool         = (*WebSearchTool)(nil)
	_ ports.ResultShaper = (*WebSearchTool)(nil)
)
