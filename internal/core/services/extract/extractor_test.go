package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibin/search-agent/internal/core/domain"
)

const storyTitle = "How the Harbor Bridge Was Built Over Ten Years"

func storyPage() string {
	return `<!doctype html><html><head><title> ` + storyTitle + ` </title>
		<style>.x{color:red}</style><script>var tracking = "should never appear in extracted text";</script></head>
		<body>
		<header><div class="site-header">` + paragraphs(1, 120) + `</div></header>
		<nav><a href="/">Home</a><a href="/news">News</a></nav>
		<div class="article-body">` + paragraphs(8, 180) + `
			<p>Accept all cookies to keep reading the remainder of this long article today.</p>
			<form><input value="search"><button>Go</button></form>
		</div>
		<aside class="related">` + paragraphs(5, 200) + `</aside>
		<footer>` + paragraphs(1, 100) + `</footer>
		</body></html>`
}

func newTestExtractor(mode Mode) *Extractor {
	return NewExtractor(mode, NewLocator(0, 0), MustNewCleaner(0))
}

func TestExtract_Heuristic(t *testing.T) {
	page, err := newTestExtractor(ModeHeuristic).Extract(context.Background(), storyPage(), "https://example.com/story")
	require.NoError(t, err)

	assert.Equal(t, storyTitle, page.Title)
	assert.Contains(t, page.Text, "0 harbor bridge engineers")
	assert.Contains(t, page.Text, "7 harbor bridge engineers")
	assert.NotContains(t, page.Text, "tracking")
	assert.NotContains(t, page.Text, "Accept all cookies")
	assert.NotContains(t, page.Text, "Home")
	assert.Equal(t, 8, len(splitLines(page.Text)))
}

func TestExtract_NoiseOnlyPageDegradesToBody(t *testing.T) {
	html := `<html><head><title>Tiny</title></head><body><p>` + prose(60) + `</p><nav>` + prose(60) + `</nav></body></html>`

	page, err := newTestExtractor(ModeHeuristic).Extract(context.Background(), html, "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, "Tiny", page.Title)
	assert.Equal(t, 1, len(splitLines(page.Text)))
}

func TestExtract_Readability(t *testing.T) {
	page, err := newTestExtractor(ModeReadability).Extract(context.Background(), storyPage(), "https://example.com/story")
	require.NoError(t, err)

	assert.Equal(t, storyTitle, page.Title)
	assert.Contains(t, page.Text, "3 harbor bridge engineers")
	assert.NotContains(t, page.Text, "tracking")
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestExtractor(ModeHeuristic).Extract(ctx, storyPage(), "https://example.com")

	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, domain.FetchTransport, fetchErr.Kind)
}

func TestNewExtractor_UnknownModeFallsBack(t *testing.T) {
	assert.Equal(t, ModeHeuristic, NewExtractor("magic", NewLocator(0, 0), MustNewCleaner(0)).Mode())
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}
