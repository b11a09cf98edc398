// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package providertest provides an in-process provider.Session for
// tests.
package providertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/parley-dev/parley/lib/chaterr"
	"github.com/parley-dev/parley/lib/provider"
)

// ToolHandler serves one tool of a [Fake].
type ToolHandler func(ctx context.Context, arguments map[string]any) (*provider.CallResult, error)

// PromptHandler expands one prompt of a [Fake].
type PromptHandler func(arguments map[string]string) (*provider.PromptResult, error)

// Call records one CallTool request.
type Call struct {
	Name      string
	Arguments map[string]any
}

// Fake implements provider.Session from fixed tables. Set the
// exported fields before use; they are read under the fake's lock.
type Fake struct {
	// Disconnected makes every request fail with
	// chaterr.ErrProviderUnavailable.
	Disconnected bool

	ToolList []provider.ToolDescriptor
	Handlers map[string]ToolHandler

	ResourceList     []provider.Resource
	ResourceContents map[string][]provider.ResourceContent

	PromptList     []provider.Prompt
	PromptHandlers map[string]PromptHandler

	mutex          sync.Mutex
	calls          []Call
	listToolsCount int
	inFlight       int
	maxInFlight    int
}

var _ provider.Session = (*Fake)(nil)

// TextTool returns a handler that always answers with text.
func TextTool(text string) ToolHandler {
	return func(context.Context, map[string]any) (*provider.CallResult, error) {
		return &provider.CallResult{Content: []provider.Content{{Kind: provider.ContentText, Text: text}}}, nil
	}
}

// FailingTool returns a handler whose tool runs and reports failure.
func FailingTool(message string) ToolHandler {
	return func(context.Context, map[string]any) (*provider.CallResult, error) {
		return &provider.CallResult{
			Content: []provider.Content{{Kind: provider.ContentText, Text: message}},
			IsError: true,
		}, nil
	}
}

// Tool returns a descriptor with an object schema.
func Tool(name, description string) provider.ToolDescriptor {
	return provider.ToolDescriptor{
		Name:        name,
		Description: description,
		InputSchema: []byte(`{"type":"object","properties":{}}`),
	}
}

func (fake *Fake) enter(op string) error {
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	if fake.Disconnected {
		return chaterr.New(chaterr.ErrProviderUnavailable, op, fmt.Errorf("fake session disconnected"))
	}
	fake.inFlight++
	if fake.inFlight > fake.maxInFlight {
		fake.maxInFlight = fake.inFlight
	}
	return nil
}

func (fake *Fake) leave() {
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	fake.inFlight--
}

// Connected reports whether the fake is accepting requests.
func (fake *Fake) Connected() bool {
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	return !fake.Disconnected
}

// ListTools returns ToolList.
func (fake *Fake) ListTools(ctx context.Context) ([]provider.ToolDescriptor, error) {
	if err := fake.enter("providertest.ListTools"); err != nil {
		return nil, err
	}
	defer fake.leave()

	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	fake.listToolsCount++
	return append([]provider.ToolDescriptor(nil), fake.ToolList...), nil
}

// CallTool records the call and dispatches to Handlers. A name with
// no handler fails the request the way an MCP server rejects an
// unknown tool.
func (fake *Fake) CallTool(ctx context.Context, name string, arguments map[string]any) (*provider.CallResult, error) {
	if err := fake.enter("providertest.CallTool"); err != nil {
		return nil, err
	}
	defer fake.leave()

	fake.mutex.Lock()
	fake.calls = append(fake.calls, Call{Name: name, Arguments: arguments})
	handler := fake.Handlers[name]
	fake.mutex.Unlock()

	if handler == nil {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	return handler(ctx, arguments)
}

// ListResources returns ResourceList.
func (fake *Fake) ListResources(ctx context.Context) ([]provider.Resource, error) {
	if err := fake.enter("providertest.ListResources"); err != nil {
		return nil, err
	}
	defer fake.leave()
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	return append([]provider.Resource(nil), fake.ResourceList...), nil
}

// ReadResource returns ResourceContents[uri].
func (fake *Fake) ReadResource(ctx context.Context, uri string) ([]provider.ResourceContent, error) {
	if err := fake.enter("providertest.ReadResource"); err != nil {
		return nil, err
	}
	defer fake.leave()
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	contents, ok := fake.ResourceContents[uri]
	if !ok {
		return nil, fmt.Errorf("resource %q not found", uri)
	}
	return contents, nil
}

// ListPrompts returns PromptList.
func (fake *Fake) ListPrompts(ctx context.Context) ([]provider.Prompt, error) {
	if err := fake.enter("providertest.ListPrompts"); err != nil {
		return nil, err
	}
	defer fake.leave()
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	return append([]provider.Prompt(nil), fake.PromptList...), nil
}

// GetPrompt dispatches to PromptHandlers.
func (fake *Fake) GetPrompt(ctx context.Context, name string, arguments map[string]string) (*provider.PromptResult, error) {
	if err := fake.enter("providertest.GetPrompt"); err != nil {
		return nil, err
	}
	defer fake.leave()
	fake.mutex.Lock()
	handler := fake.PromptHandlers[name]
	fake.mutex.Unlock()
	if handler == nil {
		return nil, fmt.Errorf("prompt %q not found", name)
	}
	return handler(arguments)
}

// Close marks the fake disconnected.
func (fake *Fake) Close() error {
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	fake.Disconnected = true
	return nil
}

// Calls returns every CallTool request in arrival order.
func (fake *Fake) Calls() []Call {
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	return append([]Call(nil), fake.calls...)
}

// CallNames returns the tool names of Calls.
func (fake *Fake) CallNames() []string {
	calls := fake.Calls()
	names := make([]string, len(calls))
	for index, call := range calls {
		names[index] = call.Name
	}
	return names
}

// ListToolsCount returns how many times ListTools was called.
func (fake *Fake) ListToolsCount() int {
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	return fake.listToolsCount
}

// MaxInFlight returns the largest number of simultaneous requests
// observed.
func (fake *Fake) MaxInFlight() int {
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	return fake.maxInFlight
}
