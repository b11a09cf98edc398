// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm provides a provider-agnostic interface for chat
// completion APIs with tool-use support.
//
// The transcript types ([SystemMessage], [UserMessage],
// [AssistantMessage], [ToolMessage]) form a closed set behind the
// [Message] interface. Only tool messages carry a correlation ID, and
// only assistant messages carry tool calls.
//
// [Provider] has a single blocking operation, Complete. Each call is
// one HTTP request and one response; providers neither stream nor
// retry. Implementations translate between the common types and each
// vendor's wire format:
//   - [OpenAI]: the OpenAI chat completions format, spoken by
//     OpenRouter (the default endpoint), OpenAI, vLLM, and Ollama
//   - [Anthropic]: Claude models via the Messages API
package llm
