// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"

	"github.com/parley-dev/parley/lib/orchestrator"
)

// logObserver logs loop events. Progress is Debug; a changed tool
// catalog is Info; a tool that reports failure and a run cut off by
// the iteration cap are Warn.
func logObserver(logger *slog.Logger) orchestrator.Observer {
	return orchestrator.ObserverFunc(func(event orchestrator.Event) {
		run := slog.String("run", event.RunID.String())
		switch event.Kind {
		case orchestrator.EventStarted:
			logger.Debug("run started", run, "model", event.Model, "resumed", event.Content == "")
		case orchestrator.EventModelRequest:
			if event.Iteration == 1 && event.ToolsChanged {
				logger.Info("tool catalog changed", run, "tools", event.ToolCount, "catalog", event.ToolCatalog.Short())
			}
			logger.Debug("calling model", run, "iteration", event.Iteration, "model", event.Model, "catalog", event.ToolCatalog.Short())
		case orchestrator.EventModelReply:
			logger.Debug("model replied", run,
				"iteration", event.Iteration,
				"stop_reason", event.StopReason,
				"tool_calls", event.ToolCount,
				"input_tokens", event.Usage.InputTokens,
				"output_tokens", event.Usage.OutputTokens,
			)
		case orchestrator.EventToolCall:
			logger.Debug("calling tool", run, "tool", event.ToolName, "call_id", event.ToolCallID)
		case orchestrator.EventToolResult:
			if event.IsError {
				logger.Warn("tool call failed", run, "tool", event.ToolName, "call_id", event.ToolCallID, "result", event.Content)
				return
			}
			logger.Debug("tool returned", run, "tool", event.ToolName, "call_id", event.ToolCallID, "bytes", len(event.Content))
		case orchestrator.EventFinished:
			logger.Debug("run finished", run, "iterations", event.Iteration)
		case orchestrator.EventCapped:
			logger.Warn("run stopped at the iteration cap", run, "iterations", event.Iteration)
		case orchestrator.EventFailed:
			logger.Debug("run failed", run, "iteration", event.Iteration, "error", event.Err)
		}
	})
}
