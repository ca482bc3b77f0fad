package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Chunk is one streamed piece of a model response
type Chunk struct {
	Text      string          `json:"text,omitempty"`
	ToolCalls []ToolCallChunk `json:"tool_calls,omitempty"`
}

// ToolCallChunk is a fragment of a tool call. Fragments with the same Index belong to
// the same call; Arguments fragments are concatenated in arrival order.
type ToolCallChunk struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type partialToolCall struct {
	id   string
	name string
	args strings.Builder
}

// Accumulator merges streamed chunks into a single assistant message.
// Nothing it holds is actionable until Finalize has run.
type Accumulator struct {
	text   strings.Builder
	calls  map[int]*partialToolCall
	chunks int
}

// NewAccumulator creates an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{calls: make(map[int]*partialToolCall)}
}

// Merge folds a chunk into the accumulator
func (a *Accumulator) Merge(c Chunk) *Accumulator {
	a.chunks++
	a.text.WriteString(c.Text)
	for _, tc := range c.ToolCalls {
		p, ok := a.calls[tc.Index]
		if !ok {
			p = &partialToolCall{}
			a.calls[tc.Index] = p
		}
		if tc.ID != "" {
			p.id = tc.ID
		}
		if tc.Name != "" {
			p.name = tc.Name
		}
		p.args.WriteString(tc.Arguments)
	}
	return a
}

// Chunks returns how many chunks were merged
func (a *Accumulator) Chunks() int {
	return a.chunks
}

// Text returns the text merged so far
func (a *Accumulator) Text() string {
	return a.text.String()
}

// InvalidToolCall is a streamed tool call that could not be assembled
type InvalidToolCall struct {
	Index     int
	ID        string
	Name      string
	Arguments string
	Err       error
}

// Finalize assembles the assistant message. Tool calls are ordered by index. A call
// without a name or with malformed JSON arguments is left out of the message and
// reported in the second return value; the text is always kept.
func (a *Accumulator) Finalize() (Message, []InvalidToolCall) {
	indexes := make([]int, 0, len(a.calls))
	for i := range a.calls {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	var calls []ToolCall
	var invalid []InvalidToolCall
	for _, i := range indexes {
		p := a.calls[i]
		raw := p.args.String()
		reject := func(err error) {
			invalid = append(invalid, InvalidToolCall{Index: i, ID: p.id, Name: p.name, Arguments: raw, Err: err})
		}

		if p.name == "" {
			reject(fmt.Errorf("%w: call %d has no name", ErrIncompleteToolCall, i))
			continue
		}

		args := map[string]any{}
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
				reject(fmt.Errorf("%w: %s arguments: %v", ErrIncompleteToolCall, p.name, err))
				continue
			}
			if args == nil {
				args = map[string]any{}
			}
		}

		id := p.id
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		calls = append(calls, ToolCall{ID: id, Name: p.name, Args: args})
	}

	return NewAssistantMessage(a.text.String(), calls), invalid
}
