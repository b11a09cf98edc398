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

	"github.com/parley-dev/parley/cmd/parley/cli"
	"github.com/parley-dev/parley/lib/chaterr"
	"github.com/parley-dev/parley/lib/config"
	"github.com/parley-dev/parley/lib/llm"
	"github.com/parley-dev/parley/lib/orchestrator"
	"github.com/parley-dev/parley/lib/prompts"
	"github.com/parley-dev/parley/lib/provider"
	"github.com/parley-dev/parley/lib/render"
	"github.com/parley-dev/parley/lib/resources"
)

// conversation is what the REPL drives: one loop plus the managers for
// the same server.
type conversation struct {
	loop      *orchestrator.Loop
	resources *resources.Manager
	prompts   *prompts.Manager
}

// replHelp lists the REPL commands.
const replHelp = `Commands:
  - Type your queries for AI interaction
  - 'clear' to reset chat history
  - 'resources' to list available resources
  - 'read <uri>' to read a specific resource
  - 'prompts' to list available prompts
  - 'prompt <name>' to use a prompt
  - 'tools' to list available tools
  - 'model [name]' to show or change the model
  - 'auto-resources on/off' to toggle automatic resource inclusion
  - 'help' to show this list
  - 'quit' or 'exit' to leave`

// repl is the interactive command loop.
type repl struct {
	conversation

	input *bufio.Reader
	out   io.Writer
	asker prompts.Asker

	// renderer styles output; nil prints plain text.
	renderer *render.Renderer

	autoResources bool
}

// newREPL returns a REPL reading in and writing out. Markdown styling
// and the interactive argument form are used only when in and out are
// terminals.
func newREPL(conversation conversation, in io.Reader, out io.Writer, cfg *config.Config) *repl {
	input := bufio.NewReader(in)
	r := &repl{
		conversation:  conversation,
		input:         input,
		out:           out,
		asker:         prompts.NewLineAsker(input, out),
		autoResources: cfg.AutoResources,
	}
	if cfg.Render.Markdown && cli.IsTerminal(out) {
		width := cfg.Render.Width
		if width == 0 {
			width = cli.TerminalWidth(out)
		}
		r.renderer = render.New(render.DefaultTheme, width)
	}
	if file, ok := in.(*os.File); ok && cli.IsTerminal(file) && cli.IsTerminal(out) {
		r.asker = newFormAsker(file, out, render.DefaultTheme)
	}
	return r
}

// Run reads and handles lines until quit, end of input, or ctx is
// done. Command failures are printed and the loop continues.
func (r *repl) Run(ctx context.Context) error {
	fmt.Fprintf(r.out, "\n%s\n%s\n", r.accent("Parley started!"), replHelp)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintf(r.out, "\n%s", r.accent("Query: "))
		line, err := r.input.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}

		quit, err := r.handle(ctx, strings.TrimSpace(line))
		if quit {
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			r.printError(err)
		}
	}
}

// handle runs one line. It reports quit for quit and exit.
func (r *repl) handle(ctx context.Context, line string) (quit bool, err error) {
	if line == "" {
		return false, nil
	}
	fields := strings.Fields(line)
	command := strings.ToLower(fields[0])
	argument := strings.TrimSpace(line[len(fields[0]):])

	switch {
	case (command == "quit" || command == "exit") && len(fields) == 1:
		return true, nil
	case command == "clear" && len(fields) == 1:
		store := r.loop.Transcript()
		dropped := store.Len()
		if store.Initialized() {
			dropped--
		}
		store.Reset()
		r.println(fmt.Sprintf("Chat history cleared (%d messages dropped).", dropped))
		return false, nil
	case command == "help" && len(fields) == 1:
		r.println(replHelp)
		return false, nil
	case command == "resources" && len(fields) == 1:
		return false, r.listResources(ctx)
	case command == "read" && len(fields) <= 2:
		return false, r.readResource(ctx, argument)
	case command == "prompts" && len(fields) == 1:
		return false, r.listPrompts(ctx)
	case command == "prompt" && len(fields) <= 2:
		return false, r.usePrompt(ctx, argument)
	case command == "tools" && len(fields) == 1:
		return false, r.listTools(ctx)
	case command == "model" && len(fields) <= 2:
		r.model(argument)
		return false, nil
	case command == "auto-resources":
		r.setAutoResources(argument)
		return false, nil
	}
	return false, r.query(ctx, line)
}

// query sends free text to the model and prints the answer.
func (r *repl) query(ctx context.Context, query string) error {
	if r.autoResources {
		augmented, err := r.resources.AugmentQuery(ctx, query)
		if err != nil {
			return err
		}
		query = augmented
	}
	answer, err := r.loop.Run(ctx, query)
	r.printAnswer(answer)
	return err
}

func (r *repl) listResources(ctx context.Context) error {
	list, err := r.resources.List(ctx)
	if err != nil {
		return err
	}
	r.println("\n" + resources.FormatList(list))
	return nil
}

func (r *repl) readResource(ctx context.Context, uri string) error {
	if uri == "" {
		r.println("Please provide a resource URI. Usage: read <uri>")
		return nil
	}
	contents, err := r.resources.Read(ctx, uri)
	if err != nil {
		return err
	}
	r.println("\n" + resources.FormatContents(contents))
	return nil
}

func (r *repl) listPrompts(ctx context.Context) error {
	list, err := r.prompts.List(ctx)
	if err != nil {
		return err
	}
	r.println("\n" + prompts.FormatList(list))
	return nil
}

func (r *repl) listTools(ctx context.Context) error {
	tools, err := r.loop.Directory().Refresh(ctx)
	if err != nil {
		return err
	}
	r.println("\n" + formatTools(tools))
	return nil
}

// usePrompt expands a prompt template, appends its messages to the
// transcript, and lets the model answer them.
func (r *repl) usePrompt(ctx context.Context, name string) error {
	if name == "" {
		r.println("Please provide a prompt name. Usage: prompt <name>")
		return nil
	}
	prompt, found, err := r.prompts.Find(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		r.println(fmt.Sprintf("Prompt '%s' not found. Use 'prompts' to see available prompts.", name))
		return nil
	}

	if len(prompt.Arguments) > 0 {
		r.println(fmt.Sprintf("\nPrompt '%s' requires arguments:", name))
	}
	arguments, err := prompts.CollectArguments(ctx, prompt, r.asker)
	if err != nil {
		return err
	}
	result, err := r.prompts.Get(ctx, name, arguments)
	if err != nil {
		return err
	}
	messages, err := prompts.ToMessages(result)
	if err != nil {
		return err
	}

	r.println("\nUsing prompt: " + name)
	r.println("\nPrompt messages:")
	for _, message := range messages {
		r.println(fmt.Sprintf("\n%s: %s", message.Role(), llm.MessageText(message)))
	}

	if err := r.loop.Transcript().AppendMessages(messages...); err != nil {
		return err
	}
	answer, err := r.loop.Resume(ctx)
	r.printAnswer(answer)
	return err
}

func (r *repl) model(name string) {
	if name == "" {
		r.println("Current model: " + r.loop.Model())
		return
	}
	r.loop.SetModel(name)
	r.println("Model set to " + r.loop.Model())
}

func (r *repl) setAutoResources(setting string) {
	switch strings.ToLower(setting) {
	case "on", "true", "yes":
		r.autoResources = true
		r.println("Automatic resource inclusion enabled")
	case "off", "false", "no":
		r.autoResources = false
		r.println("Automatic resource inclusion disabled")
	default:
		r.println("Usage: auto-resources on/off")
	}
}

func (r *repl) printAnswer(answer string) {
	if answer == "" {
		return
	}
	if r.renderer != nil {
		answer = r.renderer.Answer(answer)
	}
	fmt.Fprintf(r.out, "\n%s\n", answer)
}

func (r *repl) printError(err error) {
	message := errorPrefix(err) + err.Error()
	if r.renderer != nil {
		message = r.renderer.Error(message)
	}
	fmt.Fprintf(r.out, "\n%s\n", message)
}

// errorPrefix names the side that failed when the error kind says so.
func errorPrefix(err error) string {
	switch chaterr.KindOf(err) {
	case chaterr.ErrModelGateway:
		return "Model error: "
	case chaterr.ErrProviderUnavailable:
		return "Server error: "
	default:
		return "Error: "
	}
}

func (r *repl) println(text string) {
	fmt.Fprintln(r.out, text)
}

func (r *repl) accent(text string) string {
	if r.renderer == nil {
		return text
	}
	return r.renderer.Accent(text)
}

// formatTools renders a numbered tool listing.
func formatTools(tools []provider.ToolDescriptor) string {
	if len(tools) == 0 {
		return "No tools available."
	}
	lines := []string{fmt.Sprintf("Available Tools (%d):", len(tools))}
	for i, tool := range tools {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, tool.Name))
		if tool.Description != "" {
			lines = append(lines, "   "+strings.ReplaceAll(strings.TrimSpace(tool.Description), "\n", "\n   "))
		}
	}
	return strings.Join(lines, "\n")
}
