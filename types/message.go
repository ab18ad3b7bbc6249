// Package types defines the conversation message model shared by the
// compaction engine, storage, and rendering packages.
package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role represents the message role.
type Role string

const (
	// RoleRequest represents a message sent to the model.
	RoleRequest Role = "request"

	// RoleResponse represents a message produced by the model.
	RoleResponse Role = "response"
)

// PartType represents the type of a message part.
type PartType string

const (
	// PartTypeText represents plain text content.
	PartTypeText PartType = "text"

	// PartTypeToolCall represents a tool invocation emitted by the model.
	PartTypeToolCall PartType = "tool_call"

	// PartTypeToolReturn represents the result of a tool invocation.
	PartTypeToolReturn PartType = "tool_return"

	// PartTypeThinking represents model reasoning content.
	PartTypeThinking PartType = "thinking"
)

// Part represents a single content fragment within a message.
// Different fields are populated based on the Type. Types outside the
// known set are tolerated; consumers fall back to the Raw payload.
type Part struct {
	Type PartType `json:"type"`

	// Text content (for PartTypeText, PartTypeThinking)
	Text string `json:"text,omitempty"`

	// Tool call fields (for PartTypeToolCall)
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	ToolArgs   json.RawMessage `json:"tool_args,omitempty"`

	// Tool return fields (for PartTypeToolReturn)
	ToolContent string `json:"tool_content,omitempty"`

	// Raw carries the original payload of foreign part types so they
	// survive a round trip through storage.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Message represents one conversation turn. Messages are value-like:
// created once, never mutated in place, and only ever replaced wholesale
// by compaction or truncation.
type Message struct {
	ID           uuid.UUID `json:"id"`
	Role         Role      `json:"role"`
	Instructions string    `json:"instructions,omitempty"`
	Parts        []Part    `json:"parts"`

	// IsSummary marks synthetic messages produced by compaction.
	IsSummary bool `json:"is_summary,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a new message with the given role and parts.
func NewMessage(role Role, parts []Part) *Message {
	return &Message{
		ID:        uuid.New(),
		Role:      role,
		Parts:     parts,
		CreatedAt: time.Now(),
	}
}

// NewRequest creates a request message with text content.
func NewRequest(text string) *Message {
	return NewMessage(RoleRequest, []Part{NewTextPart(text)})
}

// NewResponse creates a response message with text content.
func NewResponse(text string) *Message {
	return NewMessage(RoleResponse, []Part{NewTextPart(text)})
}

// NewTextPart creates a text part.
func NewTextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// NewThinkingPart creates a thinking part.
func NewThinkingPart(text string) Part {
	return Part{Type: PartTypeThinking, Text: text}
}

// NewToolCallPart creates a tool call part.
func NewToolCallPart(callID, toolName string, args json.RawMessage) Part {
	return Part{
		Type:       PartTypeToolCall,
		ToolCallID: callID,
		ToolName:   toolName,
		ToolArgs:   args,
	}
}

// NewToolReturnPart creates a tool return part.
func NewToolReturnPart(callID, toolName, content string) Part {
	return Part{
		Type:        PartTypeToolReturn,
		ToolCallID:  callID,
		ToolName:    toolName,
		ToolContent: content,
	}
}

// HasToolParts reports whether the message contains any tool call or
// tool return parts.
func (m *Message) HasToolParts() bool {
	if m == nil {
		return false
	}
	for _, p := range m.Parts {
		if p.Type == PartTypeToolCall || p.Type == PartTypeToolReturn {
			return true
		}
	}
	return false
}

// ToolDefinition describes a tool or MCP schema advertised to the model.
// The compaction engine only needs it to estimate static context overhead.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema,omitempty"`
}
