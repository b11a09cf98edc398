// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package tracelog

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/parley-dev/parley/lib/llm"
	"github.com/parley-dev/parley/lib/orchestrator"
	"github.com/parley-dev/parley/lib/provider"
	"github.com/parley-dev/parley/lib/tooling"
)

func sampleEvents() []orchestrator.Event {
	run := uuid.New()
	start := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	return []orchestrator.Event{
		{Kind: orchestrator.EventStarted, RunID: run, Time: start, Model: "test-model", Content: "weather in Chicago?"},
		{Kind: orchestrator.EventModelReply, RunID: run, Time: start.Add(time.Second), Iteration: 1, Model: "test-model",
			StopReason: llm.StopReasonToolUse, ToolCount: 1, Usage: llm.Usage{InputTokens: 120, OutputTokens: 30}},
		{Kind: orchestrator.EventToolCall, RunID: run, Time: start.Add(2 * time.Second), Iteration: 1,
			ToolCallID: "call_1", ToolName: "get_forecast", Arguments: json.RawMessage(`{"latitude":41.88,"longitude":-87.63}`)},
		{Kind: orchestrator.EventToolResult, RunID: run, Time: start.Add(3 * time.Second), Iteration: 1,
			ToolCallID: "call_1", ToolName: "get_forecast", Content: "Error: upstream timeout", IsError: true, Err: errors.New("upstream timeout")},
		{Kind: orchestrator.EventFinished, RunID: run, Time: start.Add(4 * time.Second), Iteration: 2, Content: "Sunny."},
	}
}

func TestCompressionFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Compression
	}{
		{"trace.cbor", CompressionNone},
		{"trace", CompressionNone},
		{"trace.cbor.zst", CompressionZstd},
		{"TRACE.ZST", CompressionZstd},
		{"trace.zstd", CompressionZstd},
		{"/var/log/parley/trace.cbor.lz4", CompressionLZ4},
	}
	for _, test := range tests {
		if got := CompressionFor(test.path); got != test.want {
			t.Errorf("CompressionFor(%q) = %s, want %s", test.path, got, test.want)
		}
	}
}

func TestRoundTripByExtension(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"trace.cbor", "trace.cbor.zst", "trace.cbor.lz4"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), name)
			writer, err := Create(path)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			events := sampleEvents()
			for _, event := range events {
				writer.Observe(event)
			}
			if err := writer.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			reader, err := Open(path)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer reader.Close()
			records, err := reader.All()
			if err != nil {
				t.Fatalf("All: %v", err)
			}
			if len(records) != len(events) {
				t.Fatalf("read %d records, want %d", len(records), len(events))
			}

			for i, record := range records {
				event := events[i]
				if record.Session != writer.Session() {
					t.Errorf("record %d session = %s, want %s", i, record.Session, writer.Session())
				}
				if record.Kind != event.Kind || record.Run != event.RunID.String() {
					t.Errorf("record %d = %s/%s, want %s/%s", i, record.Kind, record.Run, event.Kind, event.RunID)
				}
				if !record.Time().Equal(event.Time) {
					t.Errorf("record %d time = %s, want %s", i, record.Time(), event.Time)
				}
			}

			call := records[2]
			if call.ToolName != "get_forecast" || call.Arguments != `{"latitude":41.88,"longitude":-87.63}` {
				t.Errorf("tool call record = %+v", call)
			}
			result := records[3]
			if !result.IsError || result.Error != "upstream timeout" || result.Content != "Error: upstream timeout" {
				t.Errorf("tool result record = %+v", result)
			}
			reply := records[1]
			if reply.StopReason != "tool_use" || reply.ToolCount != 1 || reply.Usage.InputTokens != 120 || reply.Usage.OutputTokens != 30 {
				t.Errorf("model reply record = %+v", reply)
			}
		})
	}
}

func TestToolCatalogRecord(t *testing.T) {
	t.Parallel()

	catalog := tooling.CatalogFingerprint([]provider.ToolDescriptor{{Name: "get_alerts"}})
	run := uuid.New()
	var buffer bytes.Buffer
	writer, err := NewWriter(&buffer, CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	writer.Observe(orchestrator.Event{Kind: orchestrator.EventModelRequest, RunID: run, Iteration: 1, ToolCount: 1, ToolCatalog: catalog, ToolsChanged: true})
	writer.Observe(orchestrator.Event{Kind: orchestrator.EventFinished, RunID: run, Iteration: 1})
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	reader, err := NewReader(&buffer, CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	records, err := reader.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("read %d records, want 2", len(records))
	}
	if records[0].ToolCatalog != catalog.String() || !records[0].ToolsChanged || records[0].ToolCount != 1 {
		t.Errorf("model request record = %+v", records[0])
	}
	if records[1].ToolCatalog != "" || records[1].ToolsChanged {
		t.Errorf("finished record carries a catalog: %+v", records[1])
	}
}

func TestDeterministicEncoding(t *testing.T) {
	t.Parallel()

	event := sampleEvents()[2]
	encode := func() []byte {
		var buffer bytes.Buffer
		writer, err := NewWriter(&buffer, CompressionNone)
		if err != nil {
			t.Fatal(err)
		}
		writer.session = "fixed"
		writer.Observe(event)
		if err := writer.Close(); err != nil {
			t.Fatal(err)
		}
		return buffer.Bytes()
	}

	first, second := encode(), encode()
	if !bytes.Equal(first, second) {
		t.Error("the same event encoded to different bytes")
	}
}

func TestZstdCompresses(t *testing.T) {
	t.Parallel()

	write := func(compression Compression) int {
		var buffer bytes.Buffer
		writer, err := NewWriter(&buffer, compression)
		if err != nil {
			t.Fatal(err)
		}
		for range 50 {
			for _, event := range sampleEvents() {
				writer.Observe(event)
			}
		}
		if err := writer.Close(); err != nil {
			t.Fatal(err)
		}
		return buffer.Len()
	}

	plain, compressed := write(CompressionNone), write(CompressionZstd)
	if compressed >= plain {
		t.Errorf("zstd trace is %d bytes, plain is %d", compressed, plain)
	}
}

func TestTruncatedTrace(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	writer, err := NewWriter(&buffer, CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	writer.Observe(sampleEvents()[0])
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	data := buffer.Bytes()
	reader, err := NewReader(bytes.NewReader(data[:len(data)-3]), CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reader.Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Next on truncated record = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestEmptyTrace(t *testing.T) {
	t.Parallel()

	reader, err := NewReader(bytes.NewReader(nil), CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reader.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next on empty trace = %v, want io.EOF", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteFailureIsKept(t *testing.T) {
	t.Parallel()

	writer, err := NewWriter(failingWriter{}, CompressionNone)
	if err != nil {
		t.Fatal(err)
	}
	writer.Observe(sampleEvents()[0])
	writer.Observe(sampleEvents()[1])

	if err := writer.Err(); err == nil {
		t.Fatal("Err() = nil after a failed write")
	}
	if err := writer.Close(); err == nil {
		t.Error("Close() = nil after a failed write")
	}
	if err := writer.Close(); err == nil {
		t.Error("second Close() lost the failure")
	}
}

func TestObserveAfterClose(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trace.cbor")
	writer, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	writer.Observe(sampleEvents()[0])
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	writer.Observe(sampleEvents()[1])

	reader, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()
	records, err := reader.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("read %d records, want 1", len(records))
	}
}

func TestCreateFailure(t *testing.T) {
	t.Parallel()

	if _, err := Create(filepath.Join(t.TempDir(), "missing", "trace.cbor")); err == nil {
		t.Error("Create in a missing directory succeeded")
	}
	if _, err := Open(filepath.Join(t.TempDir(), "absent.cbor")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open(absent) = %v, want os.ErrNotExist", err)
	}
}
