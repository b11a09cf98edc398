// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/parley-dev/parley/cmd/parley/cli"
	"github.com/parley-dev/parley/lib/mcpsession"
	"github.com/parley-dev/parley/lib/version"
)

func rootCommand() *cli.Command {
	chat := chatCommand()
	return &cli.Command{
		Name: "parley",
		Description: `Parley: chat with a language model that can use the tools, resources,
and prompts of a Model Context Protocol server.

With no command, parley starts an interactive chat with the given server.`,
		Usage: "parley [command] [flags] [server [server-args...]]",
		Flags: chat.Flags,
		Run:   chat.Run,
		Subcommands: []*cli.Command{
			chat,
			askCommand(),
			toolsCommand(),
			keygenCommand(),
			sealCommand(),
			versionCommand(),
		},
	}
}

func chatCommand() *cli.Command {
	var options sessionOptions
	return &cli.Command{
		Name:    "chat",
		Summary: "Start an interactive chat with an MCP server",
		Description: `Connect to an MCP server and start an interactive chat.

The server is a Python script, a JavaScript file, or any executable;
remaining arguments are passed to it. Without a server argument the
server from the config file is used.`,
		Usage: "parley chat [flags] [server [server-args...]]",
		Examples: []cli.Example{
			{Description: "Chat with a Python weather server", Command: "parley chat ./weather.py"},
			{Description: "Chat using a different model", Command: "parley chat --model openai/gpt-4o ./weather.py"},
		},
		Flags: func() *pflag.FlagSet { return options.flagSet("chat") },
		Run: func(ctx context.Context, args []string) error {
			logger := options.logger()
			cfg, err := options.load()
			if err != nil {
				return err
			}
			engine, err := openEngine(ctx, cfg, args, options.serverStderr(), logger)
			if err != nil {
				return err
			}
			defer engine.closeAndLog()

			fmt.Printf("Connected to server with %s\n", engine.summary)
			repl := newREPL(engine.conversation(), os.Stdin, os.Stdout, cfg)
			return repl.Run(ctx)
		},
	}
}

func askCommand() *cli.Command {
	var options sessionOptions
	return &cli.Command{
		Name:    "ask",
		Summary: "Answer one query and exit",
		Usage:   "parley ask [flags] <server> <query...>",
		Examples: []cli.Example{
			{Command: `parley ask ./weather.py "Any weather alerts in California?"`},
		},
		Flags: func() *pflag.FlagSet { return options.flagSet("ask") },
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 2 {
				return cli.Usagef("ask needs a server and a query")
			}
			logger := options.logger()
			cfg, err := options.load()
			if err != nil {
				return err
			}
			engine, err := openEngine(ctx, cfg, args[:1], options.serverStderr(), logger)
			if err != nil {
				return err
			}
			defer engine.closeAndLog()

			repl := newREPL(engine.conversation(), strings.NewReader(""), os.Stdout, cfg)
			return repl.query(ctx, strings.Join(args[1:], " "))
		},
	}
}

func toolsCommand() *cli.Command {
	var options sessionOptions
	return &cli.Command{
		Name:    "tools",
		Summary: "List the tools, resources, and prompts of an MCP server",
		Usage:   "parley tools [flags] [server [server-args...]]",
		Flags:   func() *pflag.FlagSet { return options.flagSet("tools") },
		Run: func(ctx context.Context, args []string) error {
			logger := options.logger()
			cfg, err := options.load()
			if err != nil {
				return err
			}
			session, err := connect(ctx, cfg, args, options.serverStderr(), logger)
			if err != nil {
				return err
			}
			defer session.Close()

			tools, err := session.ListTools(ctx)
			if err != nil {
				return err
			}
			fmt.Println(formatTools(tools))
			summary, err := mcpsession.Summarize(ctx, session, logger)
			if err != nil {
				return err
			}
			fmt.Printf("\n%s\n", summary)
			return nil
		},
	}
}

func keygenCommand() *cli.Command {
	var output string
	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate an age keypair for sealing the API key",
		Description: `Generate an age X25519 keypair.

The identity (private key) is written to --output, or to stdout. The
public key is printed to stderr; pass it to "parley seal --recipient".`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
			flagSet.StringVarP(&output, "output", "o", "", "write the identity to this file (mode 0600)")
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Usagef("keygen takes no arguments")
			}
			return runKeygen(os.Stdout, os.Stderr, output)
		},
	}
}

func sealCommand() *cli.Command {
	var recipients []string
	return &cli.Command{
		Name:    "seal",
		Summary: "Encrypt an API key read from stdin for the config file",
		Description: `Encrypt an API key for the sealed_api_key config field.

The key is read from stdin and encrypted to every --recipient. Set
identity_file in the config to the matching identity.`,
		Usage: "parley seal --recipient <age1...> < key.txt",
		Examples: []cli.Example{
			{Description: "Seal the OpenRouter key", Command: `printf %s "$OPENROUTER_API_KEY" | parley seal --recipient age1...`},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("seal", pflag.ContinueOnError)
			flagSet.StringSliceVarP(&recipients, "recipient", "r", nil, "age public key to encrypt to (repeatable)")
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Usagef("seal reads the key from stdin and takes no arguments")
			}
			if len(recipients) == 0 {
				return cli.Usagef("at least one --recipient is required")
			}
			return runSeal(os.Stdin, os.Stdout, recipients)
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(context.Context, []string) error {
			fmt.Printf("parley %s\n", version.Full())
			return nil
		},
	}
}

// readSecret reads all of r and trims surrounding whitespace.
func readSecret(r io.Reader) (string, error) {
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return "", fmt.Errorf("reading key: %w", err)
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", errors.New("no key on stdin")
	}
	return secret, nil
}
