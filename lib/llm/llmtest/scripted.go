// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/parley-dev/parley/lib/llm"
)

// Scripted replays queued replies in order and records every request
// it receives. When the queue runs dry it repeats Fallback if set,
// otherwise it fails the request.
type Scripted struct {
	mutex    sync.Mutex
	replies  []Reply
	requests []llm.Request

	// Fallback answers every request after the queue is exhausted.
	Fallback *Reply
}

// Reply is one scripted outcome: a response or an error.
type Reply struct {
	Response *llm.Response
	Err      error
}

var _ llm.Provider = (*Scripted)(nil)

// NewScripted returns a provider that answers with replies in order.
func NewScripted(replies ...Reply) *Scripted {
	return &Scripted{replies: replies}
}

// Text returns a reply carrying only text.
func Text(text string) Reply {
	return Reply{Response: &llm.Response{
		Message:    llm.AssistantMessage{Text: text},
		StopReason: llm.StopReasonEndTurn,
	}}
}

// ToolCalls returns a reply requesting calls, with optional text.
func ToolCalls(text string, calls ...llm.ToolCall) Reply {
	return Reply{Response: &llm.Response{
		Message:    llm.AssistantMessage{Text: text, ToolCalls: calls},
		StopReason: llm.StopReasonToolUse,
	}}
}

// Call is shorthand for an llm.ToolCall with raw JSON arguments.
func Call(id, name, arguments string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: name, Arguments: []byte(arguments)}
}

// Failure returns a reply that fails the request with err.
func Failure(err error) Reply {
	return Reply{Err: err}
}

// Complete records request and returns the next scripted reply.
func (scripted *Scripted) Complete(ctx context.Context, request llm.Request) (*llm.Response, error) {
	scripted.mutex.Lock()
	defer scripted.mutex.Unlock()

	// Record a detached copy; the caller owns request.Messages.
	request.Messages = append([]llm.Message(nil), request.Messages...)
	scripted.requests = append(scripted.requests, request)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var reply Reply
	switch {
	case len(scripted.replies) > 0:
		reply = scripted.replies[0]
		scripted.replies = scripted.replies[1:]
	case scripted.Fallback != nil:
		reply = *scripted.Fallback
	default:
		return nil, fmt.Errorf("llmtest: no scripted reply for request %d", len(scripted.requests))
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	response := *reply.Response
	response.Message = response.Message.Clone()
	if response.Model == "" {
		response.Model = request.Model
	}
	return &response, nil
}

// Requests returns every request received so far.
func (scripted *Scripted) Requests() []llm.Request {
	scripted.mutex.Lock()
	defer scripted.mutex.Unlock()
	return append([]llm.Request(nil), scripted.requests...)
}
