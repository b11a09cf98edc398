// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/parley-dev/parley/lib/chaterr"
	"github.com/parley-dev/parley/lib/llm"
	"github.com/parley-dev/parley/lib/provider"
	"github.com/parley-dev/parley/lib/tooling"
	"github.com/parley-dev/parley/lib/transcript"
)

// DefaultMaxIterations bounds the gateway calls of one run when
// Config.MaxIterations is zero.
const DefaultMaxIterations = 10

// Config holds the dependencies of a [Loop].
type Config struct {
	// Gateway answers chat-completion requests.
	Gateway llm.Provider

	// Transcript is the conversation the loop appends to. It must not
	// be shared with another loop.
	Transcript *transcript.Store

	// Session provides the tools. The loop lists them at the start of
	// every run and calls them one at a time.
	Session provider.Tools

	// Model is the gateway model identifier.
	Model string

	// MaxTokens bounds each reply. Zero leaves the gateway default.
	MaxTokens int

	// Temperature is sent only when set.
	Temperature *float64

	// MaxIterations caps gateway calls per run. Zero means
	// DefaultMaxIterations.
	MaxIterations int

	// Observer, if non-nil, receives every event.
	Observer Observer

	// Now returns the event timestamp. Nil means time.Now.
	Now func() time.Time
}

// Loop runs queries against one conversation. A Loop runs at most one
// query at a time; a second concurrent Run or Resume fails with
// chaterr.ErrInvalidState.
type Loop struct {
	gateway       llm.Provider
	store         *transcript.Store
	session       provider.Tools
	directory     *tooling.Directory
	invoker       *tooling.Invoker
	maxTokens     int
	temperature   *float64
	maxIterations int
	observer      Observer
	now           func() time.Time

	running atomic.Bool

	mutex sync.Mutex
	model string
}

// New validates config and returns a loop.
func New(config Config) (*Loop, error) {
	var problems []error
	if config.Gateway == nil {
		problems = append(problems, errors.New("gateway is required"))
	}
	if config.Transcript == nil {
		problems = append(problems, errors.New("transcript is required"))
	}
	if config.Session == nil {
		problems = append(problems, errors.New("session is required"))
	}
	if config.Model == "" {
		problems = append(problems, errors.New("model is required"))
	}
	if config.MaxIterations < 0 {
		problems = append(problems, fmt.Errorf("max iterations must not be negative, got %d", config.MaxIterations))
	}
	if err := errors.Join(problems...); err != nil {
		return nil, fmt.Errorf("orchestrator: invalid config: %w", err)
	}

	maxIterations := config.MaxIterations
	if maxIterations == 0 {
		maxIterations = DefaultMaxIterations
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &Loop{
		gateway:       config.Gateway,
		store:         config.Transcript,
		session:       config.Session,
		directory:     tooling.NewDirectory(config.Session),
		invoker:       tooling.NewInvoker(config.Session),
		maxTokens:     config.MaxTokens,
		temperature:   config.Temperature,
		maxIterations: maxIterations,
		observer:      config.Observer,
		now:           now,
		model:         config.Model,
	}, nil
}

// Model returns the model used by the next run.
func (loop *Loop) Model() string {
	loop.mutex.Lock()
	defer loop.mutex.Unlock()
	return loop.model
}

// SetModel changes the model for subsequent runs. An empty name is
// ignored.
func (loop *Loop) SetModel(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	loop.mutex.Lock()
	defer loop.mutex.Unlock()
	loop.model = name
}

// Directory returns the tool directory as of the latest run.
func (loop *Loop) Directory() *tooling.Directory {
	return loop.directory
}

// Transcript returns the conversation the loop appends to.
func (loop *Loop) Transcript() *transcript.Store {
	return loop.store
}

// Run appends query as a user message and drives the conversation
// until the model answers without tool calls or the iteration cap is
// reached. It returns the reply texts and one trace line per tool
// call, joined by newlines, in the order they occurred. Reaching the
// cap is not an error.
func (loop *Loop) Run(ctx context.Context, query string) (string, error) {
	return loop.run(ctx, "orchestrator.Run", &query)
}

// Resume drives the conversation from the current transcript without
// appending a user message. It is used after prompt messages have
// been appended directly to the transcript, and fails with
// chaterr.ErrInvalidState when the transcript holds nothing to answer.
func (loop *Loop) Resume(ctx context.Context) (string, error) {
	return loop.run(ctx, "orchestrator.Resume", nil)
}

// run holds the state of one invocation: the iteration counter, the
// accumulated output, and the terminal flag implied by returning.
func (loop *Loop) run(ctx context.Context, op string, query *string) (string, error) {
	if !loop.running.CompareAndSwap(false, true) {
		return "", chaterr.Newf(chaterr.ErrInvalidState, op, "a run is already in progress on this conversation")
	}
	defer loop.running.Store(false)

	if !loop.session.Connected() {
		return "", chaterr.Newf(chaterr.ErrInvalidState, op, "provider session is not connected")
	}
	if query == nil && !hasConversation(loop.store.Snapshot()) {
		return "", chaterr.Newf(chaterr.ErrInvalidState, op, "transcript has no messages to answer")
	}

	run := &runState{
		loop:  loop,
		op:    op,
		id:    uuid.New(),
		model: loop.Model(),
	}
	started := Event{Kind: EventStarted}
	if query != nil {
		started.Content = *query
	}
	run.emit(started)

	output, err := run.drive(ctx, query)
	if err != nil {
		run.emit(Event{Kind: EventFailed, Iteration: run.iteration, Err: err})
		return output, err
	}
	return output, nil
}

// hasConversation reports whether messages holds anything beyond the
// system message.
func hasConversation(messages []llm.Message) bool {
	for _, message := range messages {
		if message.Role() != llm.RoleSystem {
			return true
		}
	}
	return false
}

type runState struct {
	loop      *Loop
	op        string
	id        uuid.UUID
	model     string
	iteration int
	output    []string
}

func (run *runState) emit(event Event) {
	if run.loop.observer == nil {
		return
	}
	event.RunID = run.id
	event.Time = run.loop.now()
	if event.Model == "" {
		event.Model = run.model
	}
	run.loop.observer.Observe(event)
}

func (run *runState) text() string {
	return strings.Join(run.output, "\n")
}

func (run *runState) drive(ctx context.Context, query *string) (string, error) {
	loop := run.loop

	// The tool set is fixed for the whole run.
	if _, err := loop.directory.Refresh(ctx); err != nil {
		return "", err
	}
	tools := loop.directory.ToModelSchema()
	catalog := loop.directory.Fingerprint()
	changed := loop.directory.Changed()

	if query != nil {
		loop.store.AppendUser(*query)
	}

	for run.iteration < loop.maxIterations {
		run.iteration++

		run.emit(Event{
			Kind:         EventModelRequest,
			Iteration:    run.iteration,
			ToolCount:    len(tools),
			ToolCatalog:  catalog,
			ToolsChanged: changed,
		})
		response, err := loop.gateway.Complete(ctx, llm.Request{
			Model:       run.model,
			Messages:    loop.store.Snapshot(),
			Tools:       tools,
			MaxTokens:   loop.maxTokens,
			Temperature: loop.temperature,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return run.text(), fmt.Errorf("orchestrator: iteration %d: %w", run.iteration, ctxErr)
			}
			return run.text(), chaterr.New(chaterr.ErrModelGateway, run.op, fmt.Errorf("iteration %d: %w", run.iteration, err))
		}

		reply := response.Message
		run.emit(Event{
			Kind:       EventModelReply,
			Iteration:  run.iteration,
			Model:      response.Model,
			Content:    reply.Text,
			StopReason: response.StopReason,
			Usage:      response.Usage,
			ToolCount:  len(reply.ToolCalls),
		})
		if reply.Text != "" {
			run.output = append(run.output, reply.Text)
		}

		// The reply is echoed back verbatim, tool calls included, before
		// any result that answers it.
		loop.store.AppendAssistant(reply)

		if !reply.HasToolCalls() {
			run.emit(Event{Kind: EventFinished, Iteration: run.iteration, Content: run.text()})
			return run.text(), nil
		}

		if err := run.dispatch(ctx, reply.ToolCalls); err != nil {
			return run.text(), err
		}
	}

	run.emit(Event{Kind: EventCapped, Iteration: run.iteration, Content: run.text()})
	return run.text(), nil
}

// dispatch runs calls sequentially in the order given. A fatal error
// stops dispatch; the calls not yet run still receive an error result
// so that every call in the transcript stays answered.
func (run *runState) dispatch(ctx context.Context, calls []llm.ToolCall) error {
	loop := run.loop
	for index, call := range calls {
		run.emit(Event{
			Kind:       EventToolCall,
			Iteration:  run.iteration,
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Arguments:  call.Arguments,
		})
		run.output = append(run.output, TraceLine(call.Name, call.Arguments))

		result, err := loop.invoker.Invoke(ctx, call.Name, tooling.NormalizeArguments(call.Arguments))
		if err != nil {
			for _, pending := range calls[index:] {
				loop.store.AppendToolResult(pending.ID, fmt.Sprintf("Error: tool call not executed: %v", err), true)
			}
			return err
		}

		loop.store.AppendToolResult(call.ID, result.Content, result.IsError)
		run.emit(Event{
			Kind:       EventToolResult,
			Iteration:  run.iteration,
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Content:    result.Content,
			IsError:    result.IsError,
			Err:        result.Err,
		})
	}
	return nil
}

// TraceLine returns the output line recording a tool call. Arguments
// that are valid JSON are compacted; anything else is shown as sent.
func TraceLine(name string, arguments json.RawMessage) string {
	return fmt.Sprintf("[Calling tool %s with args %s]", name, displayArguments(arguments))
}

func displayArguments(arguments json.RawMessage) string {
	trimmed := bytes.TrimSpace(arguments)
	if len(trimmed) == 0 {
		return "{}"
	}
	var compacted bytes.Buffer
	if err := json.Compact(&compacted, trimmed); err != nil {
		return string(trimmed)
	}
	return compacted.String()
}
