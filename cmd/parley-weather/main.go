// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// parley-weather is a sample MCP server over stdio. It serves weather
// alerts and forecasts from the US National Weather Service, reference
// resources for cities and state codes, and prompt templates for
// weather reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"

	"github.com/parley-dev/parley/cmd/parley/cli"
	"github.com/parley-dev/parley/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "parley-weather: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		apiBase     string
		verbose     bool
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("parley-weather", pflag.ContinueOnError)
	flagSet.StringVar(&apiBase, "api-base", defaultNWSBaseURL, "National Weather Service API root")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Printf("parley-weather %s\n", version.Full())
		return nil
	}

	// stdout carries the protocol; logs go to stderr.
	logger := cli.NewLogger(os.Stderr, verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := newServer(newNWSClient(apiBase, nil), logger, version.Short())
	logger.Debug("serving MCP on stdio", "api_base", apiBase)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
