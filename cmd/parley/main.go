// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Parley is a terminal chat client for Model Context Protocol servers.
// It starts an MCP server as a subprocess, offers the server's tools to
// a chat model behind an OpenAI-compatible or Anthropic gateway, and
// runs the tool calls the model requests until it produces an answer.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// The first interrupt cancels the running query; a second one
	// terminates the process.
	go func() {
		<-ctx.Done()
		stop()
	}()

	err := rootCommand().Execute(ctx, os.Args[1:])
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
