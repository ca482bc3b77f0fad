package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vibin/search-agent/internal/core/domain"
)

// DefaultMinLineChars is the shortest line that survives cleaning
const DefaultMinLineChars = 40

// DefaultBoilerplatePatterns match consent banners, subscribe prompts and ad labels
// in English and Russian. Matching is case-insensitive.
var DefaultBoilerplatePatterns = []string{
	`cookie`,
	`consent`,
	`privacy policy`,
	`политика конфиденциальности`,
	`использу(ем|ете) cookie`,
	`файлы cookie`,
	`подпис(ать|к)а`,
	`подпишитесь`,
	`реклама`,
	`advertis`,
	`accept all`,
	`agree`,
	`subscribe`,
	`sign up for (our|the) newsletter`,
}

var (
	excessBlankLines = regexp.MustCompile(`\n{3,}`)
	spaceRuns        = regexp.MustCompile(`[ \t]{2,}`)
)

// Cleaner normalizes extracted page text
type Cleaner struct {
	minLineChars int
	boilerplate  *regexp.Regexp
}

// NewCleaner builds a cleaner with the default patterns plus any extra ones
func NewCleaner(minLineChars int, extraPatterns ...string) (*Cleaner, error) {
	if minLineChars <= 0 {
		minLineChars = DefaultMinLineChars
	}

	patterns := append(append([]string{}, DefaultBoilerplatePatterns...), extraPatterns...)
	re, err := regexp.Compile("(?i)" + strings.Join(patterns, "|"))
	if err != nil {
		return nil, fmt.Errorf("compile boilerplate patterns: %w", err)
	}

	return &Cleaner{minLineChars: minLineChars, boilerplate: re}, nil
}

// MustNewCleaner is NewCleaner for static pattern sets
func MustNewCleaner(minLineChars int, extraPatterns ...string) *Cleaner {
	c, err := NewCleaner(minLineChars, extraPatterns...)
	if err != nil {
		panic(err)
	}
	return c
}

// Clean drops short lines and boilerplate and collapses whitespace.
// Applying it to its own output changes nothing.
func (c *Cleaner) Clean(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = excessBlankLines.ReplaceAllString(text, "\n\n")

	kept := make([]string, 0, strings.Count(text, "\n")+1)
	for _, line := range strings.Split(text, "\n") {
		// Runs are collapsed before measuring so a second pass sees the same lengths.
		line = spaceRuns.ReplaceAllString(strings.TrimSpace(line), " ")
		if domain.RuneLen(line) < c.minLineChars {
			continue
		}
		if c.boilerplate.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}

	text = strings.Join(kept, "\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
