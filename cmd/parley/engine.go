// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/parley-dev/parley/cmd/parley/cli"
	"github.com/parley-dev/parley/lib/config"
	"github.com/parley-dev/parley/lib/llm"
	"github.com/parley-dev/parley/lib/mcpsession"
	"github.com/parley-dev/parley/lib/orchestrator"
	"github.com/parley-dev/parley/lib/prompts"
	"github.com/parley-dev/parley/lib/resources"
	"github.com/parley-dev/parley/lib/tracelog"
	"github.com/parley-dev/parley/lib/transcript"
	"github.com/parley-dev/parley/lib/version"
)

// engine owns everything behind one chat: the server session, the
// loop, and the trace file.
type engine struct {
	session *mcpsession.Session
	summary mcpsession.Summary
	loop    *orchestrator.Loop
	trace   *tracelog.Writer
	logger  *slog.Logger
}

// openEngine connects to the server named by args (or the config's
// server) and assembles the loop.
func openEngine(ctx context.Context, cfg *config.Config, args []string, serverStderr io.Writer, logger *slog.Logger) (*engine, error) {
	gateway, err := newGateway(cfg)
	if err != nil {
		return nil, err
	}

	session, err := connect(ctx, cfg, args, serverStderr, logger)
	if err != nil {
		return nil, err
	}
	engine := &engine{session: session, logger: logger}

	engine.summary, err = mcpsession.Summarize(ctx, session, logger)
	if err != nil {
		engine.close()
		return nil, err
	}

	observer := logObserver(logger)
	if cfg.TraceFile != "" {
		engine.trace, err = tracelog.Create(cfg.TraceFile)
		if err != nil {
			engine.close()
			return nil, err
		}
		logger.Debug("recording trace", "path", cfg.TraceFile, "session", engine.trace.Session())
		observer = orchestrator.Observers(observer, engine.trace)
	}

	store := transcript.New(cfg.SystemPrompt)
	logger.Debug("conversation ready",
		"model", cfg.Model,
		"system_prompt", store.Initialized(),
		"system_prompt_bytes", len(store.SystemPrompt()),
	)
	engine.loop, err = orchestrator.New(orchestrator.Config{
		Gateway:       gateway,
		Transcript:    store,
		Session:       session,
		Model:         cfg.Model,
		MaxTokens:     cfg.MaxTokens,
		Temperature:   cfg.Temperature,
		MaxIterations: cfg.MaxIterations,
		Observer:      observer,
	})
	if err != nil {
		engine.close()
		return nil, err
	}
	return engine, nil
}

func (engine *engine) conversation() conversation {
	return conversation{
		loop:      engine.loop,
		resources: resources.NewManager(engine.session),
		prompts:   prompts.NewManager(engine.session),
	}
}

func (engine *engine) close() error {
	var errs []error
	if err := engine.session.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing server session: %w", err))
	}
	if engine.trace != nil {
		if err := engine.trace.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (engine *engine) closeAndLog() {
	if err := engine.close(); err != nil {
		engine.logger.Warn("shutdown incomplete", "error", err)
	}
}

// connect starts the MCP server and completes the handshake.
func connect(ctx context.Context, cfg *config.Config, args []string, serverStderr io.Writer, logger *slog.Logger) (*mcpsession.Session, error) {
	spec, err := serverSpec(cfg, args)
	if err != nil {
		return nil, err
	}
	logger.Debug("starting MCP server", "command", spec.String())
	return mcpsession.Connect(ctx, spec, mcpsession.Options{
		ClientName:    "parley",
		ClientVersion: version.Short(),
		Stderr:        serverStderr,
		Logger:        logger,
	})
}

// serverSpec resolves the server from the command line, falling back
// to the config file.
func serverSpec(cfg *config.Config, args []string) (mcpsession.ServerSpec, error) {
	if len(args) > 0 {
		return mcpsession.ServerCommand(args[0], args[1:]...)
	}
	if cfg.Server.Command == "" {
		return mcpsession.ServerSpec{}, cli.Usagef("no MCP server given: pass a server path or set server.command in the config")
	}
	spec, err := mcpsession.ServerCommand(cfg.Server.Command, cfg.Server.Args...)
	if err != nil {
		return mcpsession.ServerSpec{}, err
	}
	spec.Env = cfg.Server.Env
	spec.Dir = cfg.Server.Dir
	return spec, nil
}

// newGateway builds the model gateway client described by cfg.
func newGateway(cfg *config.Config) (llm.Provider, error) {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string)
	if cfg.Attribution.Referer != "" {
		headers["HTTP-Referer"] = cfg.Attribution.Referer
	}
	if cfg.Attribution.Title != "" {
		headers["X-Title"] = cfg.Attribution.Title
	}
	endpoint := llm.Endpoint{BaseURL: cfg.BaseURL, APIKey: apiKey, Headers: headers}
	httpClient := &http.Client{Timeout: cfg.Timeout()}

	switch cfg.Gateway {
	case config.GatewayAnthropic:
		return llm.NewAnthropic(httpClient, endpoint), nil
	case config.GatewayOpenAI:
		return llm.NewOpenAI(httpClient, endpoint), nil
	default:
		return nil, fmt.Errorf("unsupported gateway %q", cfg.Gateway)
	}
}
