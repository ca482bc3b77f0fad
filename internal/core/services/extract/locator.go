package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/vibin/search-agent/internal/core/domain"
)

const (
	// DefaultMinContentChars is the floor below which a region cannot be the article
	DefaultMinContentChars = 800
	// DefaultMaxCandidates bounds how many block nodes are scored on huge pages
	DefaultMaxCandidates = 2000
)

// contentKeywords mark id/class tokens used by publishing templates for the article body
var contentKeywords = []string{"content", "article", "post", "entry", "text", "body", "main"}

// Locator picks the region of a document most likely to hold the article body
type Locator struct {
	minChars      int
	maxCandidates int
}

// NewLocator creates a locator; non-positive values fall back to the defaults
func NewLocator(minChars, maxCandidates int) *Locator {
	if minChars <= 0 {
		minChars = DefaultMinContentChars
	}
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &Locator{minChars: minChars, maxCandidates: maxCandidates}
}

type candidate struct {
	sel   *goquery.Selection
	score float64
}

// PickMainContent returns the article region. It never returns an empty selection:
// without a qualifying region it falls back to <body>, then to the whole document.
func (l *Locator) PickMainContent(doc *goquery.Document) *goquery.Selection {
	for _, tag := range []string{"article", "main"} {
		node := doc.Find(tag).First()
		if node.Length() > 0 && textLen(node) >= l.minChars {
			return node
		}
	}

	candidates := doc.Find("div, section")
	if candidates.Length() > l.maxCandidates {
		candidates = candidates.Slice(0, l.maxCandidates)
	}

	var keyword, best *candidate
	candidates.Each(func(_ int, s *goquery.Selection) {
		tl := textLen(s)
		if tl < l.minChars {
			return
		}
		score := float64(tl) * (1.0 - linkDensity(s))

		if hasContentKeyword(s) && (keyword == nil || score > keyword.score) {
			keyword = &candidate{sel: s, score: score}
		}
		// A zero score never wins the generic pass.
		if score > 0 && (best == nil || score > best.score) {
			best = &candidate{sel: s, score: score}
		}
	})

	if keyword != nil {
		return keyword.sel
	}
	if best != nil {
		return best.sel
	}

	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}
	return doc.Selection
}

func hasContentKeyword(s *goquery.Selection) bool {
	id, _ := s.Attr("id")
	class, _ := s.Attr("class")
	token := strings.ToLower(strings.TrimSpace(id + " " + strings.Join(strings.Fields(class), " ")))
	if token == "" {
		return false
	}
	for _, k := range contentKeywords {
		if strings.Contains(token, k) {
			return true
		}
	}
	return false
}

// textLen is the character length of the visible text joined with single spaces
func textLen(s *goquery.Selection) int {
	return domain.RuneLen(VisibleText(s, " "))
}

// linkDensity is the share of visible text that sits inside links, clamped to [0, 1].
// An empty region counts as all links.
func linkDensity(s *goquery.Selection) float64 {
	total := textLen(s)
	if total == 0 {
		return 1.0
	}

	var parts []string
	s.Find("a").Each(func(_ int, a *goquery.Selection) {
		parts = append(parts, VisibleText(a, " "))
	})
	linkLen := domain.RuneLen(strings.Join(parts, " "))

	d := float64(linkLen) / float64(total)
	if d > 1 {
		return 1
	}
	return d
}

// VisibleText joins the trimmed, non-empty text nodes under s with sep
func VisibleText(s *goquery.Selection, sep string) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		if n.Type == html.CommentNode {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}
