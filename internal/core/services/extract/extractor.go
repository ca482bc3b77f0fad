package extract

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/vibin/search-agent/internal/core/domain"
)

// Mode selects how the main content is located
type Mode string

const (
	// ModeHeuristic scores candidate regions by text length and link density
	ModeHeuristic Mode = "heuristic"
	// ModeReadability delegates region selection to go-readability
	ModeReadability Mode = "readability"
)

var (
	noiseSelector     = "script, style, noscript, svg, iframe, form, button, input"
	structureSelector = "nav, footer, header, aside"
)

// Page is the readable part of a fetched document
type Page struct {
	Title string
	Text  string
}

// Extractor turns raw HTML into cleaned article text
type Extractor struct {
	mode    Mode
	locator *Locator
	cleaner *Cleaner
}

// NewExtractor creates an extractor. An unknown mode falls back to ModeHeuristic.
func NewExtractor(mode Mode, locator *Locator, cleaner *Cleaner) *Extractor {
	if mode != ModeReadability {
		mode = ModeHeuristic
	}
	return &Extractor{mode: mode, locator: locator, cleaner: cleaner}
}

// Mode reports the configured extraction mode
func (e *Extractor) Mode() Mode {
	return e.mode
}

// Extract parses rawHTML and returns the page title and cleaned main text.
// Failures are reported as *domain.FetchError with kind FetchParse.
func (e *Extractor) Extract(ctx context.Context, rawHTML, pageURL string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, domain.NewTransportError(err)
	}
	if e.mode == ModeReadability {
		return e.extractReadability(rawHTML, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Page{}, domain.NewParseError(err)
	}

	doc.Find(noiseSelector).Remove()
	doc.Find(structureSelector).Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())

	region := e.locator.PickMainContent(doc)
	raw := VisibleText(region, "\n")

	return Page{Title: title, Text: e.cleaner.Clean(raw)}, nil
}

func (e *Extractor) extractReadability(rawHTML, pageURL string) (Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		u = &url.URL{}
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), u)
	if err != nil {
		return Page{}, domain.NewParseError(err)
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return Page{}, domain.NewParseError(errors.New("readability found no content"))
	}

	return Page{
		Title: strings.TrimSpace(article.Title),
		Text:  e.cleaner.Clean(article.TextContent),
	}, nil
}

// String describes the extractor for logs
func (e *Extractor) String() string {
	return fmt.Sprintf("extractor(mode=%s)", e.mode)
}
