// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package tracelog

import (
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/parley-dev/parley/lib/orchestrator"
)

// Record is the persisted form of one [orchestrator.Event]. Field
// keys are stable: tooling decodes them by name.
type Record struct {
	// Session identifies the writer that produced the record. Every
	// record in one file carries the same session.
	Session string `cbor:"session"`

	Run string `cbor:"run"`

	Kind orchestrator.EventKind `cbor:"kind"`

	// TimeNanos is the event time in Unix nanoseconds.
	TimeNanos int64 `cbor:"time_ns"`

	Iteration  int    `cbor:"iteration,omitempty"`
	Model      string `cbor:"model,omitempty"`
	Content    string `cbor:"content,omitempty"`
	ToolCallID string `cbor:"tool_call_id,omitempty"`
	ToolName   string `cbor:"tool_name,omitempty"`

	// Arguments is the raw JSON argument text of a tool call.
	Arguments string `cbor:"arguments,omitempty"`

	IsError    bool   `cbor:"is_error,omitempty"`
	StopReason string `cbor:"stop_reason,omitempty"`
	ToolCount  int    `cbor:"tool_count,omitempty"`
	Usage      Usage  `cbor:"usage,omitempty"`
	Error      string `cbor:"error,omitempty"`

	// ToolCatalog is the hex tool catalog fingerprint of a model
	// request.
	ToolCatalog  string `cbor:"tool_catalog,omitempty"`
	ToolsChanged bool   `cbor:"tools_changed,omitempty"`
}

// Usage mirrors [llm.Usage].
type Usage struct {
	InputTokens      int64 `cbor:"input,omitempty"`
	OutputTokens     int64 `cbor:"output,omitempty"`
	CacheReadTokens  int64 `cbor:"cache_read,omitempty"`
	CacheWriteTokens int64 `cbor:"cache_write,omitempty"`
}

// Time returns the event time.
func (record Record) Time() time.Time {
	return time.Unix(0, record.TimeNanos)
}

// newRecord converts event to its persisted form.
func newRecord(session string, event orchestrator.Event) Record {
	record := Record{
		Session:    session,
		Run:        event.RunID.String(),
		Kind:       event.Kind,
		TimeNanos:  event.Time.UnixNano(),
		Iteration:  event.Iteration,
		Model:      event.Model,
		Content:    event.Content,
		ToolCallID: event.ToolCallID,
		ToolName:   event.ToolName,
		Arguments:  string(event.Arguments),
		IsError:    event.IsError,
		StopReason: string(event.StopReason),
		ToolCount:  event.ToolCount,
		Usage: Usage{
			InputTokens:      event.Usage.InputTokens,
			OutputTokens:     event.Usage.OutputTokens,
			CacheReadTokens:  event.Usage.CacheReadTokens,
			CacheWriteTokens: event.Usage.CacheWriteTokens,
		},
	}
	if !event.ToolCatalog.IsZero() {
		record.ToolCatalog = event.ToolCatalog.String()
		record.ToolsChanged = event.ToolsChanged
	}
	if event.Err != nil {
		record.Error = event.Err.Error()
	}
	return record
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("tracelog: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("tracelog: CBOR decoder initialization failed: " + err.Error())
	}
}
