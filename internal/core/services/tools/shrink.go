package tools

import (
	"sort"

	"github.com/vibin/search-agent/internal/core/domain"
)

// ShrinkOptions bounds what a search result list may contribute to the conversation
type ShrinkOptions struct {
	MaxSources        int
	MaxCharsPerSource int
	MinChars          int
}

// DefaultShrinkOptions returns the limits used when none are configured
func DefaultShrinkOptions() ShrinkOptions {
	return ShrinkOptions{
		MaxSources:        4,
		MaxCharsPerSource: 3000,
		MinChars:          800,
	}
}

// Shrink keeps the most substantive sources: failed entries and entries with at most
// MinChars characters are dropped, survivors are ordered by CharCount descending
// (ties keep their input order), capped at MaxSources and truncated to
// MaxCharsPerSource. The input slice is not modified. The result is never nil.
func Shrink(results []domain.SourceResult, opts ShrinkOptions) []domain.SourceResult {
	kept := make([]domain.SourceResult, 0, len(results))
	for _, r := range results {
		if !r.OK() || r.CharCount <= opts.MinChars {
			continue
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].CharCount > kept[j].CharCount
	})

	if opts.MaxSources >= 0 && len(kept) > opts.MaxSources {
		kept = kept[:opts.MaxSources]
	}

	for i := range kept {
		kept[i] = kept[i].Shrunk(opts.MaxCharsPerSource)
	}
	return kept
}
