package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibin/search-agent/internal/core/domain"
	"github.com/vibin/search-agent/internal/logger"
)

type echoTool struct{}

func (echoTool) Name() string { return "echo" }

func (echoTool) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{Name: "echo", Parameters: map[string]any{"type": "object"}}
}

func (echoTool) Invoke(_ context.Context, args map[string]any) (any, error) {
	return args["text"], nil
}

func TestRegistry_Definitions(t *testing.T) {
	backend, fetcher := searchFixture()
	reader := newTestReader(fetcher, nil)
	reg := NewRegistry(NewWebSearchTool(backend, reader, DefaultShrinkOptions(), 10, logger.Nop(), nil), NewFetchPageTool(reader))
	reg.Register(echoTool{})

	var names []string
	for _, def := range reg.Definitions() {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{"web_search", "fetch_page", "echo"}, names)
	assert.Equal(t, names, reg.Names())
}

func TestRegistry_UnknownTool(t *testing.T) {
	reg := NewRegistry(echoTool{})

	_, err := reg.Invoke(context.Background(), domain.ToolCall{ID: "call_1", Name: "calculator"})

	var unknown *domain.UnknownToolError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "calculator", unknown.Name)
	assert.True(t, errors.Is(err, domain.ErrUnknownTool))
}

func TestRegistry_InvalidArgumentsBecomePayload(t *testing.T) {
	backend, fetcher := searchFixture()
	reg := NewRegistry(NewWebSearchTool(backend, newTestReader(fetcher, nil), DefaultShrinkOptions(), 10, logger.Nop(), nil))

	payload, err := reg.Invoke(context.Background(), domain.ToolCall{ID: "call_1", Name: "web_search", Args: map[string]any{"q": "x"}})
	require.NoError(t, err)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(payload), &body))
	assert.Contains(t, body["error"], "invalid tool arguments")
}

func TestRegistry_ShapesSearchResults(t *testing.T) {
	backend, fetcher := searchFixture()
	reg := NewRegistry(NewWebSearchTool(backend, newTestReader(fetcher, nil), DefaultShrinkOptions(), 10, logger.Nop(), nil))

	payload, err := reg.Invoke(context.Background(), domain.ToolCall{ID: "call_1", Name: "web_search", Args: map[string]any{"query": "comets"}})
	require.NoError(t, err)

	var sources []domain.SourceResult
	require.NoError(t, json.Unmarshal([]byte(payload), &sources))
	require.Len(t, sources, 1)
	assert.Equal(t, "https://one.example/story", sources[0].URL)
	assert.NotContains(t, payload, `"excerpt"`)
}

func TestRegistry_PayloadKeepsHTMLAndUnicode(t *testing.T) {
	reg := NewRegistry(echoTool{})

	payload, err := reg.Invoke(context.Background(), domain.ToolCall{Name: "echo", Args: map[string]any{"text": "<b>мост & bridge</b>"}})

	require.NoError(t, err)
	assert.Equal(t, `"<b>мост & bridge</b>"`, payload)
}
