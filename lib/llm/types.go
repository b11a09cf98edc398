// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"encoding/json"
	"strings"
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one transcript entry. The concrete types are
// [SystemMessage], [UserMessage], [AssistantMessage], and
// [ToolMessage]; the interface is sealed so every switch over a
// Message can be exhaustive.
type Message interface {
	// Role returns the author of the message.
	Role() Role

	sealed()
}

// SystemMessage is the preamble that configures the model. A
// transcript holds at most one, always in first position.
type SystemMessage struct {
	Text string
}

// UserMessage is text authored by the human (or a prompt template
// acting on their behalf).
type UserMessage struct {
	Text string
}

// AssistantMessage is a model reply. Text may be empty when the
// reply only requests tool calls. ToolCalls preserves the order in
// which the upstream API listed them.
type AssistantMessage struct {
	Text      string
	ToolCalls []ToolCall
}

// ToolMessage carries the result of one tool call back to the model.
// ToolCallID matches the ID of a [ToolCall] in a preceding
// [AssistantMessage].
type ToolMessage struct {
	ToolCallID string
	Content    string
	IsError    bool
}

func (SystemMessage) Role() Role    { return RoleSystem }
func (UserMessage) Role() Role      { return RoleUser }
func (AssistantMessage) Role() Role { return RoleAssistant }
func (ToolMessage) Role() Role      { return RoleTool }

func (SystemMessage) sealed()    {}
func (UserMessage) sealed()      {}
func (AssistantMessage) sealed() {}
func (ToolMessage) sealed()      {}

// MessageText returns the text a message carries: the content of
// system, user, and assistant messages and the result of a tool
// message.
func MessageText(message Message) string {
	switch message := message.(type) {
	case SystemMessage:
		return message.Text
	case UserMessage:
		return message.Text
	case AssistantMessage:
		return message.Text
	case ToolMessage:
		return message.Content
	default:
		return ""
	}
}

// HasToolCalls reports whether the reply requests any tool calls. An
// empty, non-nil ToolCalls slice counts as no tool calls.
func (message AssistantMessage) HasToolCalls() bool {
	return len(message.ToolCalls) > 0
}

// Clone returns a copy of the message whose ToolCalls slice and
// argument bytes are not shared with the original.
func (message AssistantMessage) Clone() AssistantMessage {
	clone := AssistantMessage{Text: message.Text}
	if message.ToolCalls != nil {
		clone.ToolCalls = make([]ToolCall, len(message.ToolCalls))
		for index, call := range message.ToolCalls {
			clone.ToolCalls[index] = ToolCall{
				ID:        call.ID,
				Name:      call.Name,
				Arguments: append(json.RawMessage(nil), call.Arguments...),
			}
		}
	}
	return clone
}

// ToolCall is a model request to invoke a tool.
type ToolCall struct {
	// ID correlates the call with the ToolMessage carrying its result.
	ID string

	// Name is the tool name as advertised in the request's Tools.
	Name string

	// Arguments is the argument payload exactly as the upstream API
	// returned it. OpenAI-compatible APIs send a JSON-encoded string
	// that the model wrote and that is not guaranteed to be valid
	// JSON; callers must normalize it before dispatch.
	Arguments json.RawMessage
}

// ToolDefinition describes a tool the model may call.
type ToolDefinition struct {
	Name        string
	Description string

	// InputSchema is a JSON Schema object, passed to the API verbatim.
	InputSchema json.RawMessage
}

// Request is a single chat-completion request.
type Request struct {
	// Model is the provider-specific model identifier.
	Model string

	// Messages is the transcript to send, system message included.
	Messages []Message

	// Tools is omitted from the wire request when empty.
	Tools []ToolDefinition

	// MaxTokens bounds the reply length.
	MaxTokens int

	// Temperature is sent only when set.
	Temperature *float64
}

// StopReason explains why the model stopped generating.
type StopReason string

const (
	StopReasonEndTurn      StopReason = "end_turn"
	StopReasonToolUse      StopReason = "tool_use"
	StopReasonMaxTokens    StopReason = "max_tokens"
	StopReasonStopSequence StopReason = "stop_sequence"
)

// Usage reports token counts for one request.
type Usage struct {
	InputTokens      int64
	OutputTokens     int64
	CacheReadTokens  int64
	CacheWriteTokens int64
}

// Response is the result of a [Provider.Complete] call.
type Response struct {
	// Message is the assistant reply, ready to append to a transcript.
	Message AssistantMessage

	StopReason StopReason
	Usage      Usage

	// Model is the model that actually served the request, which may
	// differ from the requested one when a router picks a fallback.
	Model string
}

// SystemPrompt returns the text of the leading system message in
// messages, or "" when there is none.
func SystemPrompt(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}
	if system, ok := messages[0].(SystemMessage); ok {
		return system.Text
	}
	return ""
}

// joinText concatenates non-empty text fragments with newlines.
func joinText(parts []string) string {
	var nonEmpty []string
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, "\n")
}
