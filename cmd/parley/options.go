// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/parley-dev/parley/cmd/parley/cli"
	"github.com/parley-dev/parley/lib/config"
)

// sessionOptions are the flags shared by commands that talk to a
// server.
type sessionOptions struct {
	configPath    string
	model         string
	trace         string
	verbose       bool
	plain         bool
	autoResources bool
}

func (options *sessionOptions) flagSet(name string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVarP(&options.configPath, "config", "c", "", "config file (default $PARLEY_CONFIG)")
	flagSet.StringVarP(&options.model, "model", "m", "", "model identifier, overriding the config")
	flagSet.StringVar(&options.trace, "trace", "", "record loop events to this CBOR file (.zst or .lz4 to compress)")
	flagSet.BoolVar(&options.autoResources, "auto-resources", false, "prepend relevant resources to each query")
	flagSet.BoolVar(&options.plain, "plain", false, "print answers without Markdown styling")
	flagSet.BoolVarP(&options.verbose, "verbose", "v", false, "debug logging, and show the server's stderr")
	// Server arguments often look like flags.
	flagSet.SetInterspersed(false)
	return flagSet
}

// load reads the config and applies the flag overrides.
func (options *sessionOptions) load() (*config.Config, error) {
	cfg, err := config.Load(options.configPath)
	if err != nil {
		return nil, err
	}
	if options.model != "" {
		cfg.Model = options.model
	}
	if options.trace != "" {
		cfg.TraceFile = options.trace
	}
	if options.autoResources {
		cfg.AutoResources = true
	}
	if options.plain {
		cfg.Render.Markdown = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (options *sessionOptions) logger() *slog.Logger {
	return cli.NewLogger(os.Stderr, options.verbose)
}

// serverStderr is where the server subprocess's stderr goes: the
// terminal in verbose mode, nowhere otherwise.
func (options *sessionOptions) serverStderr() io.Writer {
	if options.verbose {
		return os.Stderr
	}
	return nil
}
