package ports

import (
	"context"

	"github.com/vibin/search-agent/internal/core/domain"
)

// Tool is a capability the model can invoke by name
type Tool interface {
	Name() string
	Definition() domain.ToolDefinition
	Invoke(ctx context.Context, args map[string]any) (any, error)
}

// ResultShaper is implemented by tools whose raw result must be reduced before it
// is serialized into the conversation
type ResultShaper interface {
	Shape(result any) any
}
