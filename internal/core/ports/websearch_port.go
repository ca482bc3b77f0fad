package ports

import (
	"context"
)

// MaxSearchResults is the engine-imposed cap on candidate links per query
const MaxSearchResults = 10

// SearchResult represents a single search result item
type SearchResult struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Snippet       string `json:"snippet"`
	DisplayedLink string `json:"displayed_link"`
	Position      int    `json:"position"`
}

// WebSearchPort defines the interface for the search engine backend
type WebSearchPort interface {
	// Search performs a web search with the given query and returns at most limit results
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}
