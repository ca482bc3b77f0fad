package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
	"github.com/vibin/search-agent/internal/logger"
)

func searchFixture() (*fakeBackend, *fakeFetcher) {
	backend := &fakeBackend{hits: []ports.SearchResult{
		{Title: "One", Link: "https://one.example/story"},
		{Title: "FTP", Link: "ftp://files.example/story.txt"},
		{Title: "Missing", Link: "https://missing.example/"},
		{Title: "Mail", Link: "mailto:desk@example.com"},
		{Title: "Thin", Link: "http://thin.example/"},
		{Title: "Relative", Link: "/local/path"},
	}}

	fetcher := newFakeFetcher()
	fetcher.pages["https://one.example/story"] = articleHTML("Comets over the ridge", 8)
	fetcher.pages["http://thin.example/"] = articleHTML("Thin page", 3)
	fetcher.errs["https://missing.example/"] = &domain.FetchError{Kind: domain.FetchHTTPStatus, StatusCode: 404}
	return backend, fetcher
}

func TestWebSearch_PerSourceResults(t *testing.T) {
	backend, fetcher := searchFixture()
	tool := NewWebSearchTool(backend, newTestReader(fetcher, nil), DefaultShrinkOptions(), 0, logger.Nop(), nil)

	results := tool.Search(context.Background(), "comet trails")

	require.Len(t, results, 3)
	assert.Equal(t, "https://one.example/story", results[0].URL)
	assert.Equal(t, "https://missing.example/", results[1].URL)
	assert.Equal(t, "http://thin.example/", results[2].URL)

	assert.Equal(t, "Comets over the ridge", results[0].Title)
	assert.Greater(t, results[0].CharCount, 800)
	assert.Contains(t, results[0].Text, "observatory team")
	assert.NotContains(t, results[0].Text, "Home")

	assert.Equal(t, "HTTP 404", results[1].Error)
	assert.Empty(t, results[1].Text)
	assert.Zero(t, results[1].CharCount)

	assert.True(t, results[2].OK())
	assert.LessOrEqual(t, results[2].CharCount, 800)

	assert.Equal(t, ports.MaxSearchResults, backend.limit)
}

func TestWebSearch_ShapeKeepsOnlySubstantiveSources(t *testing.T) {
	backend, fetcher := searchFixture()
	tool := NewWebSearchTool(backend, newTestReader(fetcher, nil), DefaultShrinkOptions(), 10, logger.Nop(), nil)

	shaped, ok := tool.Shape(tool.Search(context.Background(), "comet trails")).([]domain.SourceResult)

	require.True(t, ok)
	require.Len(t, shaped, 1)
	assert.Equal(t, "https://one.example/story", shaped[0].URL)
	assert.Empty(t, shaped[0].Excerpt)
}

func TestWebSearch_BackendFailureYieldsEmptyList(t *testing.T) {
	tool := NewWebSearchTool(&fakeBackend{err: errors.New("rate limited")}, newTestReader(newFakeFetcher(), nil), DefaultShrinkOptions(), 10, logger.Nop(), nil)

	results := tool.Search(context.Background(), "anything")

	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestWebSearch_CapsResults(t *testing.T) {
	backend := &fakeBackend{}
	for i := 0; i < 15; i++ {
		backend.hits = append(backend.hits, ports.SearchResult{Link: "https://unreachable.example/" + string(rune('a'+i))})
	}
	tool := NewWebSearchTool(backend, newTestReader(newFakeFetcher(), nil), DefaultShrinkOptions(), 25, logger.Nop(), nil)

	results := tool.Search(context.Background(), "q")

	assert.Len(t, results, ports.MaxSearchResults)
	for _, r := range results {
		assert.Contains(t, r.Error, "TransportError")
	}
}

func TestWebSearch_UsesCacheForSuccessfulPages(t *testing.T) {
	backend, fetcher := searchFixture()
	tool := NewWebSearchTool(backend, newTestReader(fetcher, &mapCache{}), DefaultShrinkOptions(), 10, logger.Nop(), nil)

	first := tool.Search(context.Background(), "comet trails")
	second := tool.Search(context.Background(), "comet trails")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetcher.count("https://one.example/story"))
	assert.Equal(t, 2, fetcher.count("https://missing.example/"))
}

func TestWebSearch_InvokeValidatesQuery(t *testing.T) {
	backend, fetcher := searchFixture()
	tool := NewWebSearchTool(backend, newTestReader(fetcher, nil), DefaultShrinkOptions(), 10, logger.Nop(), nil)

	for _, args := range []map[string]any{{}, {"query": ""}, {"query": 42}} {
		_, err := tool.Invoke(context.Background(), args)
		assert.True(t, errors.Is(err, domain.ErrInvalidArguments), "%v", args)
	}

	out, err := tool.Invoke(context.Background(), map[string]any{"query": "comets"})
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestFetchPage_Invoke(t *testing.T) {
	_, fetcher := searchFixture()
	tool := NewFetchPageTool(newTestReader(fetcher, nil))

	out, err := tool.Invoke(context.Background(), map[string]any{"url": "https://one.example/story"})
	require.NoError(t, err)
	page, ok := out.(domain.SourceResult)
	require.True(t, ok)
	assert.Equal(t, "Comets over the ridge", page.Title)

	out, err = tool.Invoke(context.Background(), map[string]any{"url": "https://missing.example/"})
	require.NoError(t, err)
	assert.Equal(t, "HTTP 404", out.(domain.SourceResult).Error)

	_, err = tool.Invoke(context.Background(), map[string]any{"url": "file:///etc/passwd"})
	assert.True(t, errors.Is(err, domain.ErrInvalidArguments))
}
