// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package tooling

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/parley-dev/parley/lib/chaterr"
	"github.com/parley-dev/parley/lib/provider"
)

// errorPrefix starts the content of every error result.
const errorPrefix = "Error: "

// Result is the outcome of one tool call in transcript form.
type Result struct {
	// Content is the stringified tool output, or an error description
	// starting with "Error: " when IsError is set.
	Content string

	IsError bool

	// Err is the underlying failure for error results: a
	// *MalformedArguments or an error of kind chaterr.ErrToolExecution.
	// It is nil for successful calls.
	Err error
}

// Invoker runs tool calls against a provider session.
type Invoker struct {
	source provider.Tools
}

// NewInvoker returns an invoker backed by source.
func NewInvoker(source provider.Tools) *Invoker {
	return &Invoker{source: source}
}

// Invoke runs the named tool. Tool-level failures never produce an
// error: malformed arguments, an unknown tool, a rejected request,
// and a tool that reports failure all return a Result with IsError
// set. The error return is reserved for failures of the session
// itself (chaterr.ErrProviderUnavailable) and for cancellation of ctx.
func (invoker *Invoker) Invoke(ctx context.Context, name string, arguments Arguments) (Result, error) {
	var structured Structured
	switch arguments := arguments.(type) {
	case Structured:
		structured = arguments
	case *MalformedArguments:
		return Result{
			Content: fmt.Sprintf("%sinvalid arguments for tool %q: %v", errorPrefix, name, arguments.Cause),
			IsError: true,
			Err:     arguments,
		}, nil
	default:
		panic(fmt.Sprintf("tooling: unhandled arguments type %T", arguments))
	}

	if invoker.source == nil || !invoker.source.Connected() {
		return Result{}, chaterr.Newf(chaterr.ErrProviderUnavailable, "tooling.Invoke", "session not connected")
	}

	if structured == nil {
		structured = Structured{}
	}
	callResult, err := invoker.source.CallTool(ctx, name, map[string]any(structured))
	if err != nil {
		if errors.Is(err, chaterr.ErrProviderUnavailable) {
			return Result{}, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("tooling: calling %q: %w", name, ctxErr)
		}
		failure := chaterr.New(chaterr.ErrToolExecution, name, err)
		return Result{
			Content: fmt.Sprintf("%stool %q failed: %v", errorPrefix, name, err),
			IsError: true,
			Err:     failure,
		}, nil
	}

	if callResult == nil {
		callResult = &provider.CallResult{}
	}
	text := callResult.Text()
	if !callResult.IsError {
		return Result{Content: text}, nil
	}

	if text == "" {
		text = fmt.Sprintf("tool %q reported an error", name)
	}
	if !strings.HasPrefix(text, errorPrefix) {
		text = errorPrefix + text
	}
	return Result{
		Content: text,
		IsError: true,
		Err:     chaterr.New(chaterr.ErrToolExecution, name, errors.New(strings.TrimPrefix(text, errorPrefix))),
	}, nil
}
