// Package protocol defines the conversation message model shared by every
// chatgraph subsystem: the closed set of message roles, tool-call requests,
// and the derived set of pending tool calls.
package protocol

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Role identifies the kind of a conversation message. The set is closed:
// Validate rejects any value not declared here.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a structured request from the agent asking for a tool to be
// invoked before the turn can complete. Fields are flat (ID, Name, Arguments);
// UnmarshalJSON also accepts the nested LLM API format
// (function.name, function.arguments).
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NewToolCall creates a ToolCall.
func NewToolCall(id, name, arguments string) ToolCall {
	return ToolCall{ID: id, Name: name, Arguments: arguments}
}

// MarshalJSON serializes to the nested LLM API format
// ({id, type, function: {name, arguments}}).
func (tc ToolCall) MarshalJSON() ([]byte, error) {
	type function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	}
	return json.Marshal(struct {
		ID       string   `json:"id"`
		Type     string   `json:"type"`
		Function function `json:"function"`
	}{
		ID:       tc.ID,
		Type:     "function",
		Function: function{Name: tc.Name, Arguments: tc.Arguments},
	})
}

// UnmarshalJSON handles both the nested LLM API format and the flat format.
func (tc *ToolCall) UnmarshalJSON(data []byte) error {
	var nested struct {
		ID       string `json:"id"`
		Function struct {
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		} `json:"function"`
	}
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}

	if nested.Function.Name != "" {
		tc.ID = nested.ID
		tc.Name = nested.Function.Name
		tc.Arguments = nested.Function.Arguments
		return nil
	}

	type plain ToolCall
	return json.Unmarshal(data, (*plain)(tc))
}

// Message is a single entry of a conversation. The Role tags the variant:
//
//   - RoleUser: Content holds the user's text.
//   - RoleAssistant: the agent's reply; ToolCalls may hold zero or more requests.
//   - RoleTool: a tool result; ToolCallID names the request it answers.
//   - RoleSystem: the leading instruction message. Never stored in a session.
//
// ID is assigned at creation and is stable for the lifetime of the message.
// Compaction removes messages by ID.
type Message struct {
	ID         string     `json:"id"`
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// NewMessage creates a Message with the given role and content and assigns a
// fresh UUIDv7 identifier. Use the role-specific constructors when tool fields
// are involved.
//
// Example:
//
//	msg := protocol.NewMessage(protocol.RoleUser, "Hello, world!")
func NewMessage(role Role, content string) Message {
	return Message{
		ID:      uuid.Must(uuid.NewV7()).String(),
		Role:    role,
		Content: content,
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAgentMessage creates an agent message carrying optional tool-call requests.
func NewAgentMessage(content string, calls ...ToolCall) Message {
	msg := NewMessage(RoleAssistant, content)
	if len(calls) > 0 {
		msg.ToolCalls = slices.Clone(calls)
	}
	return msg
}

// NewToolResult creates a tool result answering the request with the given ID.
func NewToolResult(toolCallID, content string) Message {
	msg := NewMessage(RoleTool, content)
	msg.ToolCallID = toolCallID
	return msg
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	m.ToolCalls = slices.Clone(m.ToolCalls)
	return m
}

// HasToolCalls reports whether the message is an agent message carrying at
// least one tool-call request.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// Validate checks the variant-specific invariants of the message.
func (m Message) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("message has no id")
	}

	switch m.Role {
	case RoleSystem, RoleUser:
		if len(m.ToolCalls) > 0 || m.ToolCallID != "" {
			return fmt.Errorf("%s message %s carries tool fields", m.Role, m.ID)
		}
	case RoleAssistant:
		if m.ToolCallID != "" {
			return fmt.Errorf("assistant message %s carries a tool_call_id", m.ID)
		}
		for _, call := range m.ToolCalls {
			if call.ID == "" {
				return fmt.Errorf("assistant message %s has a tool call without id", m.ID)
			}
		}
	case RoleTool:
		if m.ToolCallID == "" {
			return fmt.Errorf("tool message %s has no tool_call_id", m.ID)
		}
		if len(m.ToolCalls) > 0 {
			return fmt.Errorf("tool message %s carries tool calls", m.ID)
		}
	default:
		return fmt.Errorf("unknown role %q", m.Role)
	}

	return nil
}

// CloneMessages returns a deep copy of the slice.
func CloneMessages(messages []Message) []Message {
	copied := make([]Message, len(messages))
	for i, msg := range messages {
		copied[i] = msg.Clone()
	}
	return copied
}
