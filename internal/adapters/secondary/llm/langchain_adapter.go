package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/vibin/search-agent/config"
	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
	"github.com/vibin/search-agent/internal/logger"
)

// LangChainAdapter implements the LLMPort interface on top of a langchaingo model
type LangChainAdapter struct {
	model  llms.Model
	config *config.LLMConfig
	logger logger.Logger
	// textOnly providers cannot carry tool calls, so tool traffic is flattened to text
	textOnly bool
}

// NewLangChainAdapter creates the adapter for the configured provider
func NewLangChainAdapter(cfg *config.LLMConfig, log logger.Logger) (*LangChainAdapter, error) {
	log.Info("Initializing LLM adapter", "provider", cfg.Provider, "model", cfg.Model, "base_url", cfg.BaseURL)

	switch cfg.Provider {
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		client, err := ollama.New(opts...)
		if err != nil {
			log.Error("Failed to initialize Ollama client", "error", err)
			return nil, err
		}
		return NewLangChainAdapterWithModel(client, cfg, log, true), nil

	case "openai", "":
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		client, err := openai.New(opts...)
		if err != nil {
			log.Error("Failed to initialize OpenAI-compatible client", "error", err)
			return nil, err
		}
		return NewLangChainAdapterWithModel(client, cfg, log, false), nil

	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// NewLangChainAdapterWithModel wraps an already constructed model
func NewLangChainAdapterWithModel(model llms.Model, cfg *config.LLMConfig, log logger.Logger, textOnly bool) *LangChainAdapter {
	return &LangChainAdapter{
		model:    model,
		config:   cfg,
		logger:   log,
		textOnly: textOnly,
	}
}

// StreamResponse sends the history to the model, forwards text as it streams and
// reports the assembled tool calls in a final chunk
func (a *LangChainAdapter) StreamResponse(ctx context.Context, messages []domain.Message, tools []domain.ToolDefinition, onChunk ports.ChunkHandler) error {
	content, err := toMessageContent(messages, a.textOnly)
	if err != nil {
		return err
	}

	streamed := false
	opts := []llms.CallOption{
		llms.WithTemperature(a.config.Temperature),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) == 0 || isToolCallDelta(chunk) {
				return nil
			}
			streamed = true
			return onChunk(domain.Chunk{Text: string(chunk)})
		}),
	}
	if a.config.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(a.config.MaxTokens))
	}
	if len(tools) > 0 && !a.textOnly {
		opts = append(opts, llms.WithTools(toLLMTools(tools)))
	}

	a.logger.Debug("Calling model", "model", a.config.Model, "messages", len(content), "tools", len(tools))
	resp, err := a.model.GenerateContent(ctx, content, opts...)
	if err != nil {
		a.logger.Error("Model generation failed", "error", err)
		return fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return errors.New("model returned no choices")
	}
	choice := resp.Choices[0]

	if !streamed && choice.Content != "" {
		if err := onChunk(domain.Chunk{Text: choice.Content}); err != nil {
			return err
		}
	}

	calls := toolCallChunks(choice)
	if len(calls) > 0 {
		return onChunk(domain.Chunk{ToolCalls: calls})
	}
	return nil
}

// GetModelInfo returns information about the current LLM model
func (a *LangChainAdapter) GetModelInfo(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{
		"name":        a.config.Model,
		"provider":    a.config.Provider,
		"base_url":    a.config.BaseURL,
		"temperature": a.config.Temperature,
		"max_tokens":  a.config.MaxTokens,
		"tools":       !a.textOnly,
	}, nil
}

func toMessageContent(messages []domain.Message, textOnly bool) ([]llms.MessageContent, error) {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, m.Content))

		case domain.RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))

		case domain.RoleAssistant:
			if textOnly {
				out = append(out, llms.TextParts(llms.ChatMessageTypeAI, m.Content))
				continue
			}
			mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if m.Content != "" || len(m.ToolCalls) == 0 {
				mc.Parts = append(mc.Parts, llms.TextPart(m.Content))
			}
			for _, call := range m.ToolCalls {
				args, err := json.Marshal(call.Args)
				if err != nil {
					return nil, fmt.Errorf("encode arguments of %s: %w", call.Name, err)
				}
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:           call.ID,
					Type:         "function",
					FunctionCall: &llms.FunctionCall{Name: call.Name, Arguments: string(args)},
				})
			}
			out = append(out, mc)

		case domain.RoleTool:
			if textOnly {
				out = append(out, llms.TextParts(llms.ChatMessageTypeTool, m.Content))
				continue
			}
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: m.ToolCallID,
					Name:       m.ToolName,
					Content:    m.Content,
				}},
			})

		default:
			return nil, fmt.Errorf("unsupported message role %q", m.Role)
		}
	}
	return out, nil
}

func toLLMTools(defs []domain.ToolDefinition) []llms.Tool {
	out := make([]llms.Tool, 0, len(defs))
	for _, d := range defs {
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return out
}

func toolCallChunks(choice *llms.ContentChoice) []domain.ToolCallChunk {
	var calls []domain.ToolCallChunk
	for i, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		calls = append(calls, domain.ToolCallChunk{
			Index:     i,
			ID:        tc.ID,
			Name:      tc.FunctionCall.Name,
			Arguments: tc.FunctionCall.Arguments,
		})
	}
	if len(calls) == 0 && choice.FuncCall != nil {
		calls = append(calls, domain.ToolCallChunk{Name: choice.FuncCall.Name, Arguments: choice.FuncCall.Arguments})
	}
	return calls
}

// isToolCallDelta reports whether a streamed chunk is the JSON encoding of tool-call
// fragments rather than response text
func isToolCallDelta(chunk []byte) bool {
	trimmed := bytes.TrimSpace(chunk)
	if len(trimmed) == 0 || (trimmed[0] != '[' && trimmed[0] != '{') {
		return false
	}

	var deltas []map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &deltas); err != nil {
		var single map[string]json.RawMessage
		if json.Unmarshal(trimmed, &single) != nil {
			return false
		}
		deltas = append(deltas, single)
	}
	for _, d := range deltas {
		if _, ok := d["function"]; ok {
			return true
		}
		if _, ok := d["arguments"]; ok {
			return true
		}
	}
	return false
}

var _ ports.LLMPort = (*LangChainAdapter)(nil)
