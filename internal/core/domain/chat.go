package domain

import (
	"time"

	"github.com/google/uuid"
)

// Chat represents a conversation between a user and the agent.
// Messages is append-only: entries are never reordered or removed by a completed turn.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewChat creates a new chat, seeded with a system prompt when one is given
func NewChat(title, systemPrompt string) *Chat {
	now := time.Now()
	c := &Chat{
		ID:        uuid.NewString(),
		Title:     title,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if systemPrompt != "" {
		c.Messages = append(c.Messages, NewSystemMessage(systemPrompt))
	}
	return c
}

// AddMessage adds a message to the chat
func (c *Chat) AddMessage(message Message) {
	c.Messages = append(c.Messages, message)
	c.UpdatedAt = time.Now()
}

// Rewind drops every message after the first n. It is used to undo an aborted turn.
func (c *Chat) Rewind(n int) {
	if n < 0 || n >= len(c.Messages) {
		return
	}
	c.Messages = c.Messages[:n]
	c.UpdatedAt = time.Now()
}

// PendingToolCalls returns the IDs of tool calls in the last assistant message
// that have not been answered yet.
func (c *Chat) PendingToolCalls() []string {
	last := -1
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			last = i
			break
		}
	}
	if last < 0 {
		return nil
	}

	answered := make(map[string]bool)
	for _, m := range c.Messages[last+1:] {
		if m.Role == RoleTool {
			answered[m.ToolCallID] = true
		}
	}

	var pending []string
	for _, call := range c.Messages[last].ToolCalls {
		if !answered[call.ID] {
			pending = append(pending, call.ID)
		}
	}
	return pending
}

// LastAssistantText returns the text of the most recent assistant message
func (c *Chat) LastAssistantText() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i].Content
		}
	}
	return ""
}

// Clone returns a copy that shares no message slice with c
func (c *Chat) Clone() *Chat {
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		if m.ToolCalls != nil {
			m.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
		}
		out.Messages[i] = m
	}
	return &out
}
