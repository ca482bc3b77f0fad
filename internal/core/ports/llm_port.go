package ports

import (
	"context"

	"github.com/vibin/search-agent/internal/core/domain"
)

// ChunkHandler receives streamed pieces of a model response in arrival order
type ChunkHandler func(chunk domain.Chunk) error

// LLMPort defines the interface for interacting with the model backend
type LLMPort interface {
	// StreamResponse sends the full history and the available tools to the model and
	// reports the response chunk by chunk. It returns once the response is complete.
	StreamResponse(ctx context.Context, messages []domain.Message, tools []domain.ToolDefinition, onChunk ChunkHandler) error

	// GetModelInfo returns information about the current model
	GetModelInfo(ctx context.Context) (map[string]interface{}, error)
}
