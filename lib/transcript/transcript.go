// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package transcript holds the conversation log replayed on every
// model call.
//
// A [Store] owns the ordered message sequence. Callers append through
// its methods and read through [Store.Snapshot]; they never hold or
// splice the underlying slice. The only ordering rule the store
// enforces is that at most one system message exists and that it sits
// in first position. Producing a role sequence the model API accepts
// (tool messages following the assistant message that requested
// them) is the caller's job; [CheckCorrelation] verifies it.
//
// A Store is not meant for concurrent conversations: one store per
// conversation. Its methods are nonetheless guarded by a mutex so that
// a snapshot taken while another goroutine appends (for example a
// status display) never observes a partial append.
package transcript

import (
	"fmt"
	"sync"

	"github.com/parley-dev/parley/lib/chaterr"
	"github.com/parley-dev/parley/lib/llm"
)

// Store is an append-only conversation log with a fixed system
// preamble. The zero value is an empty, uninitialized store ready for
// use.
type Store struct {
	mutex sync.Mutex

	// system is nil until Initialize is called.
	system *llm.SystemMessage

	// messages holds everything after the system message.
	messages []llm.Message
}

// New returns an empty store. When systemPrompt is non-empty the
// store is initialized with it.
func New(systemPrompt string) *Store {
	store := &Store{}
	if systemPrompt != "" {
		store.system = &llm.SystemMessage{Text: systemPrompt}
	}
	return store
}

// Initialize sets the system message. It fails with
// [chaterr.ErrInvalidState] if the store already has one.
func (store *Store) Initialize(systemPrompt string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	if store.system != nil {
		return chaterr.New(chaterr.ErrInvalidState, "transcript.Initialize",
			fmt.Errorf("system message already set"))
	}
	store.system = &llm.SystemMessage{Text: systemPrompt}
	return nil
}

// Initialized reports whether a system message has been set.
func (store *Store) Initialized() bool {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.system != nil
}

// SystemPrompt returns the system message text, or "" when the store
// is uninitialized.
func (store *Store) SystemPrompt() string {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if store.system == nil {
		return ""
	}
	return store.system.Text
}

// AppendUser appends a user message.
func (store *Store) AppendUser(text string) {
	store.append(llm.UserMessage{Text: text})
}

// AppendAssistant appends a model reply, tool calls included. The
// store keeps its own copy of the tool-call slice.
func (store *Store) AppendAssistant(message llm.AssistantMessage) {
	store.append(message.Clone())
}

// AppendToolResult appends the result of the tool call identified by
// callID.
func (store *Store) AppendToolResult(callID, content string, isError bool) {
	store.append(llm.ToolMessage{ToolCallID: callID, Content: content, IsError: isError})
}

// AppendMessages appends several non-system messages as one unit, as
// when a prompt template expands into a scripted exchange. Either all
// messages are appended or none: a system message anywhere in the
// batch fails the call with [chaterr.ErrInvalidState].
func (store *Store) AppendMessages(messages ...llm.Message) error {
	for index, message := range messages {
		if message == nil {
			return chaterr.Newf(chaterr.ErrInvalidState, "transcript.AppendMessages",
				"message %d is nil", index)
		}
		if message.Role() == llm.RoleSystem {
			return chaterr.Newf(chaterr.ErrInvalidState, "transcript.AppendMessages",
				"message %d is a system message; use Initialize", index)
		}
	}

	store.mutex.Lock()
	defer store.mutex.Unlock()
	for _, message := range messages {
		if assistant, ok := message.(llm.AssistantMessage); ok {
			message = assistant.Clone()
		}
		store.messages = append(store.messages, message)
	}
	return nil
}

func (store *Store) append(message llm.Message) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.messages = append(store.messages, message)
}

// Reset drops every message except the system message. Calling it on
// an empty store is a no-op.
func (store *Store) Reset() {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.messages = nil
}

// Snapshot returns the full ordered sequence, system message first.
// The returned slice is a copy; appending to or modifying it does not
// affect the store.
func (store *Store) Snapshot() []llm.Message {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	snapshot := make([]llm.Message, 0, len(store.messages)+1)
	if store.system != nil {
		snapshot = append(snapshot, *store.system)
	}
	for _, message := range store.messages {
		if assistant, ok := message.(llm.AssistantMessage); ok {
			message = assistant.Clone()
		}
		snapshot = append(snapshot, message)
	}
	return snapshot
}

// Len returns the number of messages, the system message included.
func (store *Store) Len() int {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if store.system != nil {
		return len(store.messages) + 1
	}
	return len(store.messages)
}

// CheckCorrelation verifies that every tool message in messages
// answers a tool call made by an earlier assistant message, that no
// call is answered twice, and that a system message appears only in
// first position.
func CheckCorrelation(messages []llm.Message) error {
	requested := make(map[string]bool)
	answered := make(map[string]bool)

	for index, message := range messages {
		switch message := message.(type) {
		case llm.SystemMessage:
			if index != 0 {
				return fmt.Errorf("transcript: system message at position %d", index)
			}
		case llm.AssistantMessage:
			for _, call := range message.ToolCalls {
				requested[call.ID] = true
			}
		case llm.ToolMessage:
			if !requested[message.ToolCallID] {
				return fmt.Errorf("transcript: tool message %d answers unknown call %q", index, message.ToolCallID)
			}
			if answered[message.ToolCallID] {
				return fmt.Errorf("transcript: tool message %d answers call %q twice", index, message.ToolCallID)
			}
			answered[message.ToolCallID] = true
		}
	}
	return nil
}
