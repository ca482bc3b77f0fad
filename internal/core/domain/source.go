package domain

import "strings"

// EllipsisMarker is appended to excerpts that were cut short
const EllipsisMarker = "…"

// SourceResult is the outcome of fetching and extracting one page.
// CharCount always equals the character length of Text; values are built with the
// constructors below and copied, never patched field by field.
type SourceResult struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"`
	Excerpt   string `json:"excerpt,omitempty"`
	CharCount int    `json:"char_count"`
	Error     string `json:"error,omitempty"`
}

// NewSourceResult builds a successful result. Text is capped at maxChars characters
// (0 disables the cap) before CharCount is derived; excerptChars controls the preview.
func NewSourceResult(url, title, text string, maxChars, excerptChars int) SourceResult {
	if maxChars > 0 {
		text = TruncateRunes(text, maxChars)
	}
	text = strings.TrimSpace(text)

	r := SourceResult{
		URL:       url,
		Title:     strings.TrimSpace(title),
		Text:      text,
		CharCount: RuneLen(text),
	}
	if excerptChars > 0 {
		r.Excerpt = TruncateRunes(text, excerptChars)
		if r.CharCount > excerptChars {
			r.Excerpt += EllipsisMarker
		}
	}
	return r
}

// FailedSourceResult builds an error-only result
func FailedSourceResult(url string, err error) SourceResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return SourceResult{URL: url, Error: msg}
}

// OK reports whether the source was extracted successfully
func (r SourceResult) OK() bool {
	return r.Error == ""
}

// Shrunk returns a copy with Text capped at maxChars characters and the excerpt dropped
func (r SourceResult) Shrunk(maxChars int) SourceResult {
	out := r
	if maxChars > 0 {
		out.Text = TruncateRunes(r.Text, maxChars)
	}
	out.CharCount = RuneLen(out.Text)
	out.Excerpt = ""
	return out
}
