// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/parley-dev/parley/lib/llm"
	"github.com/parley-dev/parley/lib/tooling"
)

// EventKind identifies a step of a run.
type EventKind string

const (
	// EventStarted opens a run. Content carries the query, empty for
	// a resumed run.
	EventStarted EventKind = "started"

	// EventModelRequest precedes each gateway call. ToolCatalog and
	// ToolsChanged describe the tool set offered for the whole run.
	EventModelRequest EventKind = "model_request"

	// EventModelReply carries the text, stop reason and usage of a
	// gateway reply.
	EventModelReply EventKind = "model_reply"

	// EventToolCall precedes each tool invocation.
	EventToolCall EventKind = "tool_call"

	// EventToolResult carries the stringified outcome of a tool call.
	EventToolResult EventKind = "tool_result"

	// EventFinished closes a run that ended with a reply without tool
	// calls.
	EventFinished EventKind = "finished"

	// EventCapped closes a run that hit the iteration cap.
	EventCapped EventKind = "capped"

	// EventFailed closes a run that returned an error.
	EventFailed EventKind = "failed"
)

// Event describes one step of a run. Fields not relevant to Kind are
// zero.
type Event struct {
	Kind EventKind

	// RunID is shared by every event of one Run or Resume call.
	RunID uuid.UUID

	Time time.Time

	// Iteration counts gateway calls within the run, starting at 1.
	// It is 0 for EventStarted.
	Iteration int

	Model string

	// Content is the query, the reply text, or the tool result text.
	Content string

	ToolCallID string
	ToolName   string
	Arguments  json.RawMessage

	// IsError marks a tool result that reports a failure.
	IsError bool

	StopReason llm.StopReason
	Usage      llm.Usage
	ToolCount  int

	// ToolCatalog fingerprints the tool list fetched at the start of
	// the run. ToolsChanged is set when it differs from the list the
	// previous run of the same loop saw.
	ToolCatalog  tooling.Fingerprint
	ToolsChanged bool

	// Err is set on EventFailed, and on EventToolResult when IsError
	// is set.
	Err error
}

// Observer receives the events of a run synchronously, on the
// goroutine running the loop. Observers must not call back into the
// loop.
type Observer interface {
	Observe(event Event)
}

// ObserverFunc adapts a function to [Observer].
type ObserverFunc func(event Event)

// Observe calls function(event).
func (function ObserverFunc) Observe(event Event) { function(event) }

// Observers fans each event out to every non-nil observer in order.
func Observers(observers ...Observer) Observer {
	var active multiObserver
	for _, observer := range observers {
		if observer != nil {
			active = append(active, observer)
		}
	}
	return active
}

type multiObserver []Observer

func (observers multiObserver) Observe(event Event) {
	for _, observer := range observers {
		observer.Observe(event)
	}
}
