// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package tooling

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/parley-dev/parley/lib/chaterr"
	"github.com/parley-dev/parley/lib/provider"
	"github.com/parley-dev/parley/lib/provider/providertest"
)

func weatherFake() *providertest.Fake {
	return &providertest.Fake{
		Handlers: map[string]providertest.ToolHandler{
			"get_forecast": func(ctx context.Context, arguments map[string]any) (*provider.CallResult, error) {
				return &provider.CallResult{Content: []provider.Content{
					{Kind: provider.ContentText, Text: "Tonight: clear"},
					{Kind: provider.ContentText, Text: "Tomorrow: rain"},
				}}, nil
			},
			"get_alerts": providertest.FailingTool("Unable to fetch alerts."),
			"silent":     providertest.FailingTool(""),
		},
	}
}

func TestInvokeSuccess(t *testing.T) {
	t.Parallel()

	fake := weatherFake()
	result, err := NewInvoker(fake).Invoke(context.Background(), "get_forecast",
		NormalizeArguments(json.RawMessage(`{"latitude": 40.7, "longitude": -74.0}`)))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result.IsError || result.Err != nil {
		t.Fatalf("result = %+v, want success", result)
	}
	if result.Content != "Tonight: clear\nTomorrow: rain" {
		t.Errorf("content = %q", result.Content)
	}

	calls := fake.Calls()
	if len(calls) != 1 || calls[0].Arguments["latitude"] != json.Number("40.7") {
		t.Errorf("calls = %+v", calls)
	}
}

func TestInvokeDegradesToolFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		tool        string
		arguments   Arguments
		wantKind    error
		wantContent string
		wantCalls   int
	}{
		{
			name:        "malformed arguments",
			tool:        "get_forecast",
			arguments:   NormalizeArguments(json.RawMessage(`{"latitude":`)),
			wantKind:    chaterr.ErrMalformedArguments,
			wantContent: `Error: invalid arguments for tool "get_forecast"`,
			wantCalls:   0,
		},
		{
			name:        "unknown tool",
			tool:        "nonexistent_tool",
			arguments:   Structured{},
			wantKind:    chaterr.ErrToolExecution,
			wantContent: `Error: tool "nonexistent_tool" failed: unknown tool`,
			wantCalls:   1,
		},
		{
			name:        "tool reports failure",
			tool:        "get_alerts",
			arguments:   Structured{"state": "CA"},
			wantKind:    chaterr.ErrToolExecution,
			wantContent: "Error: Unable to fetch alerts.",
			wantCalls:   1,
		},
		{
			name:        "tool reports failure without text",
			tool:        "silent",
			arguments:   nil,
			wantKind:    chaterr.ErrToolExecution,
			wantContent: `Error: tool "silent" reported an error`,
			wantCalls:   1,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			fake := weatherFake()
			arguments := test.arguments
			if arguments == nil {
				arguments = Structured(nil)
			}
			result, err := NewInvoker(fake).Invoke(context.Background(), test.tool, arguments)
			if err != nil {
				t.Fatalf("Invoke returned error %v, want error result", err)
			}
			if !result.IsError {
				t.Fatalf("result = %+v, want IsError", result)
			}
			if !strings.HasPrefix(result.Content, test.wantContent) {
				t.Errorf("content = %q, want prefix %q", result.Content, test.wantContent)
			}
			if !errors.Is(result.Err, test.wantKind) {
				t.Errorf("Err = %v, want kind %v", result.Err, test.wantKind)
			}
			if got := len(fake.Calls()); got != test.wantCalls {
				t.Errorf("provider calls = %d, want %d", got, test.wantCalls)
			}
		})
	}
}

func TestInvokeNilResultIsEmptySuccess(t *testing.T) {
	t.Parallel()

	fake := &providertest.Fake{Handlers: map[string]providertest.ToolHandler{
		"ping": func(context.Context, map[string]any) (*provider.CallResult, error) {
			return nil, nil
		},
	}}

	result, err := NewInvoker(fake).Invoke(context.Background(), "ping", Structured{})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result.IsError || result.Err != nil || result.Content != "" {
		t.Errorf("result = %+v, want an empty success", result)
	}
}

func TestInvokeSurfacesUnavailableSession(t *testing.T) {
	t.Parallel()

	fake := weatherFake()
	fake.Disconnected = true

	_, err := NewInvoker(fake).Invoke(context.Background(), "get_forecast", Structured{})
	if !errors.Is(err, chaterr.ErrProviderUnavailable) {
		t.Fatalf("Invoke error = %v, want ErrProviderUnavailable", err)
	}
}

func TestInvokeSurfacesCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	fake := &providertest.Fake{Handlers: map[string]providertest.ToolHandler{
		"slow": func(ctx context.Context, arguments map[string]any) (*provider.CallResult, error) {
			cancel()
			return nil, ctx.Err()
		},
	}}

	_, err := NewInvoker(fake).Invoke(ctx, "slow", Structured{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Invoke error = %v, want context.Canceled", err)
	}
}
