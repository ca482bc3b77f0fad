package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/core/ports"
	"github.com/vibin/search-agent/internal/core/services/tools"
	"github.com/vibin/search-agent/internal/logger"
)

// scriptedLLM replays canned responses; once the script runs out it repeats the last step
type scriptedLLM struct {
	mu         sync.Mutex
	steps      [][]domain.Chunk
	errAt      int
	err        error
	calls      int
	historyLen []int
	unanswered int
}

func (m *scriptedLLM) StreamResponse(_ context.Context, messages []domain.Message, _ []domain.ToolDefinition, onChunk ports.ChunkHandler) error {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.historyLen = append(m.historyLen, len(messages))
	snapshot := &domain.Chat{Messages: messages}
	m.unanswered += len(snapshot.PendingToolCalls())
	m.mu.Unlock()

	if m.err != nil && idx == m.errAt {
		return m.err
	}
	if idx >= len(m.steps) {
		idx = len(m.steps) - 1
	}
	for _, c := range m.steps[idx] {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *scriptedLLM) GetModelInfo(context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"name": "scripted", "provider": "test"}, nil
}

func textStep(parts ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(parts))
	for _, p := range parts {
		chunks = append(chunks, domain.Chunk{Text: p})
	}
	return chunks
}

func toolStep(text string, calls ...domain.ToolCallChunk) []domain.Chunk {
	return []domain.Chunk{{Text: text}, {ToolCalls: calls}}
}

func searchCall(index int, id, query string) domain.ToolCallChunk {
	return domain.ToolCallChunk{Index: index, ID: id, Name: "web_search", Arguments: fmt.Sprintf(`{"query":%q}`, query)}
}

// sleepTool waits for args["ms"] milliseconds and echoes its call label
type sleepTool struct {
	mu      sync.Mutex
	invoked []string
}

func (t *sleepTool) Name() string { return "sleep" }

func (t *sleepTool) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{Name: "sleep", Parameters: map[string]any{"type": "object"}}
}

func (t *sleepTool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	ms, _ := args["ms"].(float64)
	label, _ := args["label"].(string)
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	t.mu.Lock()
	t.invoked = append(t.invoked, label)
	t.mu.Unlock()
	return map[string]string{"label": label}, nil
}

func sleepCall(index int, label string, ms int) domain.ToolCallChunk {
	return domain.ToolCallChunk{
		Index:     index,
		ID:        "call_" + label,
		Name:      "sleep",
		Arguments: `{"label":"` + label + `","ms":` + strconv.Itoa(ms) + `}`,
	}
}

// stubSearch returns one long source for every query
type stubSearch struct {
	mu      sync.Mutex
	queries []string
}

func (s *stubSearch) Name() string { return "web_search" }

func (s *stubSearch) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{Name: "web_search", Parameters: map[string]any{"type": "object"}}
}

func (s *stubSearch) Invoke(_ context.Context, args map[string]any) (any, error) {
	q, ok := args["query"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: query", domain.ErrInvalidArguments)
	}
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	return []domain.SourceResult{
		domain.NewSourceResult("https://example.com/"+q, q, longText(1200), 9000, 800),
		domain.FailedSourceResult("https://broken.example", errors.New("boom")),
	}, nil
}

func (s *stubSearch) Shape(result any) any {
	return tools.Shrink(result.([]domain.SourceResult), tools.DefaultShrinkOptions())
}

func longText(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}

func newTestAgent(llm ports.LLMPort, opts AgentOptions, ts ...ports.Tool) *AgentService {
	return NewAgentService(llm, tools.NewRegistry(ts...), opts, logger.Nop(), nil)
}
