// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package mcpsession

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/parley-dev/parley/lib/chaterr"
	"github.com/parley-dev/parley/lib/provider"
)

// Options configures a session. The zero value is usable.
type Options struct {
	// ClientName and ClientVersion identify this client during the
	// initialization handshake.
	ClientName    string
	ClientVersion string

	// Stderr receives the server subprocess's stderr. Nil discards it.
	Stderr io.Writer

	// Logger receives session lifecycle records. Nil discards them.
	Logger *slog.Logger
}

func (options Options) implementation() *mcp.Implementation {
	name, version := options.ClientName, options.ClientVersion
	if name == "" {
		name = "parley"
	}
	if version == "" {
		version = "dev"
	}
	return &mcp.Implementation{Name: name, Version: version}
}

func (options Options) logger() *slog.Logger {
	if options.Logger != nil {
		return options.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Session is a connected MCP client session. It implements
// provider.Session.
type Session struct {
	session *mcp.ClientSession
	logger  *slog.Logger

	// requestMutex keeps at most one request outstanding.
	requestMutex sync.Mutex

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

var _ provider.Session = (*Session)(nil)

// Connect starts the server described by spec and completes the MCP
// handshake. The subprocess outlives ctx; it is stopped by Close.
func Connect(ctx context.Context, spec ServerSpec, options Options) (*Session, error) {
	command, err := spec.command()
	if err != nil {
		return nil, err
	}
	command.Stderr = options.Stderr
	if command.Stderr == nil {
		command.Stderr = io.Discard
	}

	logger := options.logger().With("server", spec.String())
	logger.Debug("starting MCP server")

	session, err := connect(ctx, &mcp.CommandTransport{Command: command}, options, logger)
	if err != nil {
		return nil, fmt.Errorf("mcpsession: starting %s: %w", spec, err)
	}
	return session, nil
}

// ConnectTransport completes the MCP handshake over transport.
func ConnectTransport(ctx context.Context, transport mcp.Transport, options Options) (*Session, error) {
	session, err := connect(ctx, transport, options, options.logger())
	if err != nil {
		return nil, fmt.Errorf("mcpsession: %w", err)
	}
	return session, nil
}

func connect(ctx context.Context, transport mcp.Transport, options Options, logger *slog.Logger) (*Session, error) {
	client := mcp.NewClient(options.implementation(), nil)
	clientSession, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, chaterr.New(chaterr.ErrProviderUnavailable, "mcpsession.Connect", err)
	}

	session := &Session{session: clientSession, logger: logger}
	go session.watch()
	logger.Debug("MCP session established")
	return session, nil
}

// watch marks the session disconnected once the connection ends,
// whether by Close or because the server went away.
func (session *Session) watch() {
	err := session.session.Wait()
	if session.closed.CompareAndSwap(false, true) {
		session.logger.Debug("MCP server disconnected", "error", err)
	}
}

// Connected reports whether the session can still serve requests.
func (session *Session) Connected() bool {
	return session != nil && !session.closed.Load()
}

// Close ends the session and stops the server subprocess, if any.
// Calling Close more than once returns the first result.
func (session *Session) Close() error {
	session.closeOnce.Do(func() {
		session.closed.Store(true)
		session.closeErr = session.session.Close()
		session.logger.Debug("MCP session closed", "error", session.closeErr)
	})
	return session.closeErr
}

// begin acquires the request slot, failing when the session is gone.
func (session *Session) begin(op string) error {
	session.requestMutex.Lock()
	if !session.Connected() {
		session.requestMutex.Unlock()
		return chaterr.Newf(chaterr.ErrProviderUnavailable, op, "session is not connected")
	}
	return nil
}

func (session *Session) end() {
	session.requestMutex.Unlock()
}

// classify maps a request failure to the error the caller sees.
// Transport failures disconnect the session.
func (session *Session) classify(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	if session.closed.Load() || isTransportFailure(err) {
		if session.closed.CompareAndSwap(false, true) {
			session.logger.Debug("MCP transport failed", "op", op, "error", err)
		}
		return chaterr.New(chaterr.ErrProviderUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isTransportFailure(err error) bool {
	return errors.Is(err, mcp.ErrConnectionClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed)
}

// ListTools returns every tool the server advertises, following
// pagination.
func (session *Session) ListTools(ctx context.Context) ([]provider.ToolDescriptor, error) {
	const op = "mcpsession.ListTools"
	if err := session.begin(op); err != nil {
		return nil, err
	}
	defer session.end()

	var tools []provider.ToolDescriptor
	for tool, err := range session.session.Tools(ctx, nil) {
		if err != nil {
			return nil, session.classify(ctx, op, err)
		}
		descriptor, err := toToolDescriptor(tool)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tools = append(tools, descriptor)
	}
	return tools, nil
}

// CallTool invokes the named tool. A tool that runs and fails is
// reported through CallResult.IsError; the error return covers
// requests the server rejects and transport failures.
func (session *Session) CallTool(ctx context.Context, name string, arguments map[string]any) (*provider.CallResult, error) {
	const op = "mcpsession.CallTool"
	if err := session.begin(op); err != nil {
		return nil, err
	}
	defer session.end()

	if arguments == nil {
		arguments = map[string]any{}
	}
	result, err := session.session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: arguments})
	if err != nil {
		return nil, session.classify(ctx, op, err)
	}
	return toCallResult(result), nil
}

// ListResources returns every resource the server advertises.
func (session *Session) ListResources(ctx context.Context) ([]provider.Resource, error) {
	const op = "mcpsession.ListResources"
	if err := session.begin(op); err != nil {
		return nil, err
	}
	defer session.end()

	var resources []provider.Resource
	for resource, err := range session.session.Resources(ctx, nil) {
		if err != nil {
			return nil, session.classify(ctx, op, err)
		}
		resources = append(resources, toResource(resource))
	}
	return resources, nil
}

// ReadResource returns the contents of the resource at uri.
func (session *Session) ReadResource(ctx context.Context, uri string) ([]provider.ResourceContent, error) {
	const op = "mcpsession.ReadResource"
	if err := session.begin(op); err != nil {
		return nil, err
	}
	defer session.end()

	result, err := session.session.ReadResource(ctx, &mcp.ReadResourceParams{URI: uri})
	if err != nil {
		return nil, session.classify(ctx, op, err)
	}
	contents := make([]provider.ResourceContent, 0, len(result.Contents))
	for _, content := range result.Contents {
		if content != nil {
			contents = append(contents, toResourceContent(content))
		}
	}
	return contents, nil
}

// ListPrompts returns every prompt template the server advertises.
func (session *Session) ListPrompts(ctx context.Context) ([]provider.Prompt, error) {
	const op = "mcpsession.ListPrompts"
	if err := session.begin(op); err != nil {
		return nil, err
	}
	defer session.end()

	var prompts []provider.Prompt
	for prompt, err := range session.session.Prompts(ctx, nil) {
		if err != nil {
			return nil, session.classify(ctx, op, err)
		}
		prompts = append(prompts, toPrompt(prompt))
	}
	return prompts, nil
}

// GetPrompt expands the named prompt with arguments.
func (session *Session) GetPrompt(ctx context.Context, name string, arguments map[string]string) (*provider.PromptResult, error) {
	const op = "mcpsession.GetPrompt"
	if err := session.begin(op); err != nil {
		return nil, err
	}
	defer session.end()

	result, err := session.session.GetPrompt(ctx, &mcp.GetPromptParams{Name: name, Arguments: arguments})
	if err != nil {
		return nil, session.classify(ctx, op, err)
	}
	return toPromptResult(result), nil
}

// Summary counts what a server offers.
type Summary struct {
	Tools     int
	Resources int
	Prompts   int
}

func (summary Summary) String() string {
	return fmt.Sprintf("%d tools, %d resources, %d prompts", summary.Tools, summary.Resources, summary.Prompts)
}

// Summarize lists the server's capabilities. Listing tools must
// succeed; servers that do not support resources or prompts count as
// offering none.
func Summarize(ctx context.Context, session provider.Session, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = Options{}.logger()
	}
	tools, err := session.ListTools(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Tools: len(tools)}

	if resources, err := session.ListResources(ctx); err != nil {
		if errors.Is(err, chaterr.ErrProviderUnavailable) {
			return Summary{}, err
		}
		logger.Debug("listing resources failed", "error", err)
	} else {
		summary.Resources = len(resources)
	}

	if prompts, err := session.ListPrompts(ctx); err != nil {
		if errors.Is(err, chaterr.ErrProviderUnavailable) {
			return Summary{}, err
		}
		logger.Debug("listing prompts failed", "error", err)
	} else {
		summary.Prompts = len(prompts)
	}
	return summary, nil
}
