package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies which variant of the conversation a message belongs to
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Message represents one entry of the conversation history.
// Assistant messages may carry ToolCalls; tool messages carry ToolCallID and ToolName.
type Message struct {
	ID         string     `json:"id"`
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewMessage creates a new message
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewSystemMessage creates the system prompt message
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a user message
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an assistant message with optional tool calls
func NewAssistantMessage(content string, calls []ToolCall) Message {
	m := NewMessage(RoleAssistant, content)
	m.ToolCalls = calls
	return m
}

// NewToolResultMessage creates the answer to a tool call
func NewToolResultMessage(callID, toolName, payload string) Message {
	m := NewMessage(RoleTool, payload)
	m.ToolCallID = callID
	m.ToolName = toolName
	return m
}

// HasToolCalls reports whether the model asked for tools in this message
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// ToolDefinition describes a tool to the model
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
