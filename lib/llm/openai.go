// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultOpenAIBaseURL is the OpenRouter API root. OpenRouter speaks
// the OpenAI chat completions format and routes to many vendors'
// models by "vendor/model" identifiers.
const DefaultOpenAIBaseURL = "https://openrouter.ai/api/v1"

// Endpoint describes where a provider sends its requests and how it
// authenticates.
type Endpoint struct {
	// BaseURL is the API root, e.g. "https://openrouter.ai/api/v1".
	// The provider appends its own path.
	BaseURL string

	// APIKey is sent as a bearer token (OpenAI) or x-api-key
	// (Anthropic). Empty means no credential header, which is useful
	// for local servers.
	APIKey string

	// Headers are added to every request. OpenRouter reads
	// HTTP-Referer and X-Title for attribution.
	Headers map[string]string
}

// OpenAI implements [Provider] for the OpenAI Chat Completions API.
// This is compatible with any API that implements the OpenAI chat
// completions wire format (OpenAI, OpenRouter, vLLM, Ollama,
// llama.cpp, etc.).
type OpenAI struct {
	httpClient *http.Client
	endpoint   Endpoint
}

// NewOpenAI creates an OpenAI-compatible provider. An empty BaseURL
// selects [DefaultOpenAIBaseURL]. A nil httpClient selects
// http.DefaultClient.
func NewOpenAI(httpClient *http.Client, endpoint Endpoint) *OpenAI {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if endpoint.BaseURL == "" {
		endpoint.BaseURL = DefaultOpenAIBaseURL
	}
	return &OpenAI{
		httpClient: httpClient,
		endpoint:   endpoint,
	}
}

// Complete sends a request and returns the full response.
func (provider *OpenAI) Complete(ctx context.Context, request Request) (*Response, error) {
	wireRequest := buildOpenAIRequest(request)

	headers := make(map[string]string, len(provider.endpoint.Headers)+1)
	for name, value := range provider.endpoint.Headers {
		headers[name] = value
	}
	if provider.endpoint.APIKey != "" {
		headers["Authorization"] = "Bearer " + provider.endpoint.APIKey
	}

	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		joinEndpoint(provider.endpoint.BaseURL, "/chat/completions"),
		wireRequest, "llm/openai", headers)
	if err != nil {
		return nil, err
	}

	return decodeResponse[openaiResponse](httpResponse, "llm/openai")
}

// buildOpenAIRequest converts our types to the OpenAI wire format.
func buildOpenAIRequest(request Request) openaiRequest {
	wireRequest := openaiRequest{
		Model:       request.Model,
		MaxTokens:   request.MaxTokens,
		Temperature: request.Temperature,
		Messages:    make([]openaiMessage, 0, len(request.Messages)),
	}

	for _, message := range request.Messages {
		wireRequest.Messages = append(wireRequest.Messages, toOpenAIMessage(message))
	}

	// Tools stays nil when the request carries none so that the
	// omitempty tag drops the field; some APIs reject "tools": [].
	for _, tool := range request.Tools {
		parameters := tool.InputSchema
		if len(parameters) == 0 {
			parameters = json.RawMessage(`{"type":"object","properties":{}}`)
		}
		wireRequest.Tools = append(wireRequest.Tools, openaiTool{
			Type: "function",
			Function: openaiToolDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  parameters,
			},
		})
	}

	return wireRequest
}

// --- OpenAI wire types ---
//
// The Content field on openaiMessage is json.RawMessage rather than
// string because OpenAI's content field is polymorphic: a JSON string
// for text, null for assistant messages that only call tools, or an
// array of content parts.

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Tools       []openaiTool    `json:"tools,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openaiMessage struct {
	Role       string           `json:"role"`
	Content    json.RawMessage  `json:"content,omitempty"`
	ToolCalls  []openaiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openaiToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openaiToolFunction `json:"function"`
}

type openaiToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openaiTool struct {
	Type     string               `json:"type"`
	Function openaiToolDefinition `json:"function"`
}

type openaiToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type openaiResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`

	// OpenRouter reports some upstream failures as a 200 response
	// carrying an error object and no choices.
	Error *struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
	} `json:"error,omitempty"`
}

type openaiChoice struct {
	Index        int           `json:"index"`
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openaiUsage struct {
	PromptTokens        int64                      `json:"prompt_tokens"`
	CompletionTokens    int64                      `json:"completion_tokens"`
	PromptTokensDetails *openaiPromptTokensDetails `json:"prompt_tokens_details,omitempty"`
}

type openaiPromptTokensDetails struct {
	CachedTokens int64 `json:"cached_tokens"`
}

// --- Wire type helpers ---

// jsonString serializes text as a JSON string value. Used for
// OpenAI message content and Anthropic tool_result content.
func jsonString(text string) json.RawMessage {
	data, _ := json.Marshal(text)
	return data
}

// openaiContentText extracts text from an openaiMessage's Content
// field. Handles a JSON string, null, and an array of content parts
// (text parts are concatenated, other part types are skipped).
func openaiContentText(content json.RawMessage) string {
	if len(content) == 0 || string(content) == "null" {
		return ""
	}
	var text string
	if json.Unmarshal(content, &text) == nil {
		return text
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if json.Unmarshal(content, &parts) == nil {
		var builder strings.Builder
		for _, part := range parts {
			if part.Type == "text" {
				builder.WriteString(part.Text)
			}
		}
		return builder.String()
	}
	return ""
}

// --- Wire type conversions ---

func toOpenAIMessage(message Message) openaiMessage {
	switch message := message.(type) {
	case SystemMessage:
		return openaiMessage{Role: "system", Content: jsonString(message.Text)}
	case UserMessage:
		return openaiMessage{Role: "user", Content: jsonString(message.Text)}
	case AssistantMessage:
		wire := openaiMessage{Role: "assistant"}
		// Assistant messages that only call tools carry no content
		// field at all; a text-only reply always carries one, even
		// when empty.
		if message.Text != "" || !message.HasToolCalls() {
			wire.Content = jsonString(message.Text)
		}
		for _, call := range message.ToolCalls {
			wire.ToolCalls = append(wire.ToolCalls, openaiToolCall{
				ID:   call.ID,
				Type: "function",
				Function: openaiToolFunction{
					Name:      call.Name,
					Arguments: string(call.Arguments),
				},
			})
		}
		return wire
	case ToolMessage:
		return openaiMessage{
			Role:       "tool",
			Content:    jsonString(message.Content),
			ToolCallID: message.ToolCallID,
		}
	default:
		panic(fmt.Sprintf("llm/openai: unhandled message type %T", message))
	}
}

func (wireResponse *openaiResponse) toResponse() (*Response, error) {
	if len(wireResponse.Choices) == 0 {
		if wireResponse.Error != nil && wireResponse.Error.Message != "" {
			return nil, &ProviderError{
				StatusCode: http.StatusOK,
				Type:       strings.Trim(string(wireResponse.Error.Code), `"`),
				Message:    wireResponse.Error.Message,
			}
		}
		return nil, errors.New("response has no choices")
	}

	response := &Response{
		Model: wireResponse.Model,
		Usage: Usage{
			InputTokens:  wireResponse.Usage.PromptTokens,
			OutputTokens: wireResponse.Usage.CompletionTokens,
		},
	}
	if wireResponse.Usage.PromptTokensDetails != nil {
		response.Usage.CacheReadTokens = wireResponse.Usage.PromptTokensDetails.CachedTokens
	}

	choice := wireResponse.Choices[0]
	response.StopReason = mapOpenAIFinishReason(choice.FinishReason)
	response.Message.Text = openaiContentText(choice.Message.Content)

	// The order of tool_calls is the dispatch order; keep it.
	for _, toolCall := range choice.Message.ToolCalls {
		response.Message.ToolCalls = append(response.Message.ToolCalls, ToolCall{
			ID:        toolCall.ID,
			Name:      toolCall.Function.Name,
			Arguments: json.RawMessage(toolCall.Function.Arguments),
		})
	}

	return response, nil
}

func mapOpenAIFinishReason(reason string) StopReason {
	switch reason {
	case "stop":
		return StopReasonEndTurn
	case "tool_calls", "function_call":
		return StopReasonToolUse
	case "length":
		return StopReasonMaxTokens
	default:
		// Preserve unknown reasons (e.g., "content_filter") as-is
		// rather than silently mapping to a default.
		return StopReason(reason)
	}
}
