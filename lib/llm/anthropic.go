// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// DefaultAnthropicBaseURL is the Anthropic API root.
const DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"

// anthropicVersion is the API version header value.
const anthropicVersion = "2023-06-01"

// Anthropic implements [Provider] for the Anthropic Messages API.
type Anthropic struct {
	httpClient *http.Client
	endpoint   Endpoint
}

// NewAnthropic creates an Anthropic provider. An empty BaseURL selects
// [DefaultAnthropicBaseURL]. A nil httpClient selects http.DefaultClient.
func NewAnthropic(httpClient *http.Client, endpoint Endpoint) *Anthropic {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if endpoint.BaseURL == "" {
		endpoint.BaseURL = DefaultAnthropicBaseURL
	}
	return &Anthropic{
		httpClient: httpClient,
		endpoint:   endpoint,
	}
}

// Complete sends a request and returns the full response.
func (provider *Anthropic) Complete(ctx context.Context, request Request) (*Response, error) {
	wireRequest := buildAnthropicRequest(request)

	headers := map[string]string{"anthropic-version": anthropicVersion}
	for name, value := range provider.endpoint.Headers {
		headers[name] = value
	}
	if provider.endpoint.APIKey != "" {
		headers["x-api-key"] = provider.endpoint.APIKey
	}

	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		joinEndpoint(provider.endpoint.BaseURL, "/messages"),
		wireRequest, "llm/anthropic", headers)
	if err != nil {
		return nil, err
	}

	return decodeResponse[anthropicResponse](httpResponse, "llm/anthropic")
}

// buildAnthropicRequest converts our types to Anthropic wire format.
// The system message moves to the top-level system field, and each
// run of consecutive tool messages becomes a single user message of
// tool_result blocks because the Messages API requires user and
// assistant turns to alternate.
func buildAnthropicRequest(request Request) anthropicRequest {
	wireRequest := anthropicRequest{
		Model:       request.Model,
		MaxTokens:   request.MaxTokens,
		Temperature: request.Temperature,
		Messages:    []anthropicMessage{},
	}

	var systemParts []string
	for _, message := range request.Messages {
		switch message := message.(type) {
		case SystemMessage:
			systemParts = append(systemParts, message.Text)
		case UserMessage:
			wireRequest.Messages = append(wireRequest.Messages, anthropicMessage{
				Role:    "user",
				Content: []anthropicContentBlock{{Type: "text", Text: message.Text}},
			})
		case AssistantMessage:
			wireRequest.Messages = append(wireRequest.Messages, toAnthropicAssistantMessage(message))
		case ToolMessage:
			block := anthropicContentBlock{
				Type:      "tool_result",
				ToolUseID: message.ToolCallID,
				Content:   jsonString(message.Content),
				IsError:   message.IsError,
			}
			last := len(wireRequest.Messages) - 1
			if last >= 0 && wireRequest.Messages[last].Role == "user" && wireRequest.Messages[last].toolResults {
				wireRequest.Messages[last].Content = append(wireRequest.Messages[last].Content, block)
				continue
			}
			wireRequest.Messages = append(wireRequest.Messages, anthropicMessage{
				Role:        "user",
				Content:     []anthropicContentBlock{block},
				toolResults: true,
			})
		default:
			panic(fmt.Sprintf("llm/anthropic: unhandled message type %T", message))
		}
	}
	wireRequest.System = strings.Join(systemParts, "\n\n")

	for _, tool := range request.Tools {
		schema := tool.InputSchema
		if len(schema) == 0 {
			schema = json.RawMessage(`{"type":"object","properties":{}}`)
		}
		wireRequest.Tools = append(wireRequest.Tools, anthropicTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schema,
		})
	}

	return wireRequest
}

func toAnthropicAssistantMessage(message AssistantMessage) anthropicMessage {
	wire := anthropicMessage{Role: "assistant"}
	if message.Text != "" {
		wire.Content = append(wire.Content, anthropicContentBlock{Type: "text", Text: message.Text})
	}
	for _, call := range message.ToolCalls {
		wire.Content = append(wire.Content, anthropicContentBlock{
			Type:  "tool_use",
			ID:    call.ID,
			Name:  call.Name,
			Input: anthropicToolInput(call.Arguments),
		})
	}
	// The API rejects assistant turns with no content blocks.
	if len(wire.Content) == 0 {
		wire.Content = []anthropicContentBlock{{Type: "text", Text: "(no content)"}}
	}
	return wire
}

// anthropicToolInput returns arguments when they are a JSON object
// and an empty object otherwise. tool_use input must be an object,
// and a transcript may hold malformed arguments written by an
// OpenAI-compatible model before a gateway switch.
func anthropicToolInput(arguments json.RawMessage) json.RawMessage {
	trimmed := strings.TrimSpace(string(arguments))
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	return json.RawMessage(`{}`)
}

// --- Anthropic wire types ---

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`

	// toolResults marks a user message built from tool messages so
	// that consecutive results merge into it.
	toolResults bool
}

type anthropicContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicResponse struct {
	ID         string                  `json:"id"`
	Model      string                  `json:"model"`
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
}

type anthropicUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

func (wireResponse *anthropicResponse) toResponse() (*Response, error) {
	response := &Response{
		StopReason: mapAnthropicStopReason(wireResponse.StopReason),
		Model:      wireResponse.Model,
		Usage: Usage{
			InputTokens:      wireResponse.Usage.InputTokens,
			OutputTokens:     wireResponse.Usage.OutputTokens,
			CacheReadTokens:  wireResponse.Usage.CacheReadInputTokens,
			CacheWriteTokens: wireResponse.Usage.CacheCreationInputTokens,
		},
	}

	var textParts []string
	for _, block := range wireResponse.Content {
		switch block.Type {
		case "text":
			textParts = append(textParts, block.Text)
		case "tool_use":
			input := block.Input
			if len(input) == 0 {
				input = json.RawMessage(`{}`)
			}
			response.Message.ToolCalls = append(response.Message.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: input,
			})
		}
	}
	response.Message.Text = joinText(textParts)

	return response, nil
}

func mapAnthropicStopReason(reason string) StopReason {
	switch reason {
	case "end_turn":
		return StopReasonEndTurn
	case "tool_use":
		return StopReasonToolUse
	case "max_tokens":
		return StopReasonMaxTokens
	case "stop_sequence":
		return StopReasonStopSequence
	default:
		return StopReason(reason)
	}
}
