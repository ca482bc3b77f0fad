package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
)

// Registry maps tool names to their handlers
type Registry struct {
	tools map[string]ports.Tool
	order []string
}

// NewRegistry creates a registry holding the given tools
func NewRegistry(tools ...ports.Tool) *Registry {
	r := &Registry{tools: make(map[string]ports.Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool, replacing any tool with the same name
func (r *Registry) Register(tool ports.Tool) {
	name := tool.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

// Lookup returns the named tool or a *domain.UnknownToolError
func (r *Registry) Lookup(name string) (ports.Tool, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, &domain.UnknownToolError{Name: name}
	}
	return tool, nil
}

// Names returns the registered tool names in registration order
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Definitions describes every registered tool to the model
func (r *Registry) Definitions() []domain.ToolDefinition {
	defs := make([]domain.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Invoke runs a tool call and returns the serialized payload for the tool-result message.
// Only an unknown tool name is returned as an error; a failing tool reports
// {"error": "..."} to the model instead.
func (r *Registry) Invoke(ctx context.Context, call domain.ToolCall) (string, error) {
	tool, err := r.Lookup(call.Name)
	if err != nil {
		return "", err
	}

	args := call.Args
	if args == nil {
		args = map[string]any{}
	}

	result, err := tool.Invoke(ctx, args)
	if err != nil {
		return encodePayload(map[string]string{"error": err.Error()})
	}

	if shaper, ok := tool.(ports.ResultShaper); ok {
		result = shaper.Shape(result)
	}
	return encodePayload(result)
}

// encodePayload serializes v as JSON without escaping HTML characters or non-ASCII text
func encodePayload(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", domain.ErrInvalidArguments, key)
	}
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %q must be a non-empty string", domain.ErrInvalidArguments, key)
	}
	return strings.TrimSpace(s), nil
}
