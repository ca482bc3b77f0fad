package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
	"github.com/vibin/search-agent/internal/core/services/extract"
	"github.com/vibin/search-agent/internal/logger"
)

type fakeBackend struct {
	hits  []ports.SearchResult
	err   error
	limit int
}

func (b *fakeBackend) Search(_ context.Context, _ string, limit int) ([]ports.SearchResult, error) {
	b.limit = limit
	return b.hits, b.err
}

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]string{}, errs: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	if html, ok := f.pages[url]; ok {
		return html, nil
	}
	return "", domain.NewTransportError(errors.New("no such host"))
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

type mapCache struct {
	mu    sync.Mutex
	items map[string]domain.SourceResult
}

func (c *mapCache) Get(_ context.Context, url string) (domain.SourceResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.items[url]
	return r, ok, nil
}

func (c *mapCache) Set(_ context.Context, r domain.SourceResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = map[string]domain.SourceResult{}
	}
	c.items[r.URL] = r
	return nil
}

var sentenceWords = strings.Fields("the observatory team recorded comet trails above the northern ridge and compared them with archived plates from earlier surveys")

func sentence(n int) string {
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(sentenceWords[i%len(sentenceWords)])
	}
	return b.String()
}

// articleHTML renders a page whose <article> holds count paragraphs of roughly 200 characters
func articleHTML(title string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>%s</title></head><body><nav><a href=\"/\">Home</a></nav><article>", title)
	for i := 0; i < count; i++ {
		fmt.Fprintf(&b, "<p>%d %s.</p>", i, sentence(200))
	}
	b.WriteString("</article></body></html>")
	return b.String()
}

func newTestReader(f ports.PageFetcherPort, cache ports.PageCachePort) *PageReader {
	ex := extract.NewExtractor(extract.ModeHeuristic, extract.NewLocator(0, 0), extract.MustNewCleaner(0))
	return NewPageReader(f, ex, cache, ReaderOptions{MaxChars: 9000, ExcerptChars: 800, Concurrency: 3}, logger.Nop(), nil)
}

// brokenCache fails every lookup and store
type brokenCache struct {
	mu   sync.Mutex
	gets int
	sets int
}

func (c *brokenCache) Get(context.Context, string) (domain.SourceResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	return domain.SourceResult{}, false, errors.New("redis get: connection refused")
}

func (c *brokenCache) Set(context.Context, domain.SourceResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	return errors.New("redis set: connection refused")
}
