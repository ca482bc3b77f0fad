package tools

import (
	"context"
	"fmt"

	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
)

// FetchPageToolName is the name the model uses to read a single URL
const FetchPageToolName = "fetch_page"

// FetchPageTool reads the main text of one page the model already knows about
type FetchPageTool struct {
	reader *PageReader
}

// NewFetchPageTool creates the fetch_page tool
func NewFetchPageTool(reader *PageReader) *FetchPageTool {
	return &FetchPageTool{reader: reader}
}

// Name implements ports.Tool
func (t *FetchPageTool) Name() string {
	return FetchPageToolName
}

// Definition implements ports.Tool
func (t *FetchPageTool) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        FetchPageToolName,
		Description: "Open one web page and return its readable main text as {url, title, text, char_count, error}.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{
					"type":        "string",
					"description": "Absolute http or https URL",
				},
			},
			"required": []string{"url"},
		},
	}
}

// Invoke implements ports.Tool
func (t *FetchPageTool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	link, err := stringArg(args, "url")
	if err != nil {
		return nil, err
	}
	if !isWebLink(link) {
		return nil, fmt.Errorf("%w: %q is not an http(s) URL", domain.ErrInvalidArguments, link)
	}
	return t.reader.Read(ctx, link), nil
}

var _ ports.Tool = (*FetchPageTool)(nil)
