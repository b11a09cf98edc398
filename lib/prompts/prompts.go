// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package prompts lists provider prompt templates, gathers their
// arguments from the user, and turns an expanded prompt into
// transcript messages.
package prompts

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/parley-dev/parley/lib/llm"
	"github.com/parley-dev/parley/lib/provider"
)

// RequiredRetry is shown when a required argument was left empty.
const RequiredRetry = "This argument is required. Please provide a value."

// Manager reads prompt templates from a provider session.
type Manager struct {
	source provider.Prompts
}

// NewManager returns a manager backed by source.
func NewManager(source provider.Prompts) *Manager {
	return &Manager{source: source}
}

// List returns every prompt the provider advertises.
func (manager *Manager) List(ctx context.Context) ([]provider.Prompt, error) {
	prompts, err := manager.source.ListPrompts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing prompts: %w", err)
	}
	return prompts, nil
}

// Find returns the prompt called name.
func (manager *Manager) Find(ctx context.Context, name string) (provider.Prompt, bool, error) {
	prompts, err := manager.List(ctx)
	if err != nil {
		return provider.Prompt{}, false, err
	}
	for _, prompt := range prompts {
		if prompt.Name == name {
			return prompt, true, nil
		}
	}
	return provider.Prompt{}, false, nil
}

// Get expands the prompt called name with arguments.
func (manager *Manager) Get(ctx context.Context, name string, arguments map[string]string) (*provider.PromptResult, error) {
	if arguments == nil {
		arguments = map[string]string{}
	}
	result, err := manager.source.GetPrompt(ctx, name, arguments)
	if err != nil {
		return nil, fmt.Errorf("getting prompt %s: %w", name, err)
	}
	return result, nil
}

// Question asks for one prompt argument.
type Question struct {
	Argument provider.PromptArgument

	// Label is the text shown before the answer, e.g.
	// "location (required) - City name".
	Label string

	// Retry explains why the question is being asked again. It is
	// empty on the first attempt.
	Retry string
}

// Asker obtains an answer from the user.
type Asker interface {
	Ask(ctx context.Context, question Question) (string, error)
}

// AskerFunc adapts a function to [Asker].
type AskerFunc func(ctx context.Context, question Question) (string, error)

// Ask calls function.
func (function AskerFunc) Ask(ctx context.Context, question Question) (string, error) {
	return function(ctx, question)
}

// Label renders the question text for argument.
func Label(argument provider.PromptArgument) string {
	label := argument.Name + " (optional)"
	if argument.Required {
		label = argument.Name + " (required)"
	}
	if argument.Description != "" {
		label += " - " + argument.Description
	}
	return label
}

// CollectArguments asks for every argument of prompt in declaration
// order. Answers are trimmed. An empty answer to a required argument
// is asked again; an empty answer to an optional one is left out of
// the result.
func CollectArguments(ctx context.Context, prompt provider.Prompt, asker Asker) (map[string]string, error) {
	arguments := make(map[string]string)
	for _, argument := range prompt.Arguments {
		question := Question{Argument: argument, Label: Label(argument)}
		for {
			answer, err := asker.Ask(ctx, question)
			if err != nil {
				return nil, fmt.Errorf("collecting argument %s: %w", argument.Name, err)
			}
			answer = strings.TrimSpace(answer)
			if answer == "" && argument.Required {
				question.Retry = RequiredRetry
				continue
			}
			if answer != "" {
				arguments[argument.Name] = answer
			}
			break
		}
	}
	return arguments, nil
}

// LineAsker asks questions on a line-oriented terminal.
type LineAsker struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLineAsker returns an asker reading answers from in and writing
// questions to out.
func NewLineAsker(in io.Reader, out io.Writer) *LineAsker {
	return &LineAsker{in: bufio.NewReader(in), out: out}
}

// Ask writes the retry message, if any, and the label, then reads one
// line. End of input with no answer returns io.EOF.
func (asker *LineAsker) Ask(ctx context.Context, question Question) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if question.Retry != "" {
		fmt.Fprintln(asker.out, question.Retry)
	}
	fmt.Fprintf(asker.out, "%s: ", question.Label)
	line, err := asker.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ToMessages converts an expanded prompt into transcript messages.
// Non-text content is rendered as a placeholder.
func ToMessages(result *provider.PromptResult) ([]llm.Message, error) {
	messages := make([]llm.Message, 0, len(result.Messages))
	for index, message := range result.Messages {
		text := message.Content.String()
		switch llm.Role(message.Role) {
		case llm.RoleUser:
			messages = append(messages, llm.UserMessage{Text: text})
		case llm.RoleAssistant:
			messages = append(messages, llm.AssistantMessage{Text: text})
		default:
			return nil, fmt.Errorf("prompt message %d has unsupported role %q", index, message.Role)
		}
	}
	return messages, nil
}

// FormatList renders prompts as a numbered listing.
func FormatList(prompts []provider.Prompt) string {
	if len(prompts) == 0 {
		return "No prompts available."
	}
	lines := []string{fmt.Sprintf("Available Prompts (%d):", len(prompts))}
	for i, prompt := range prompts {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, prompt.Name))
		if prompt.Description != "" {
			lines = append(lines, "   Description: "+prompt.Description)
		}
		if len(prompt.Arguments) > 0 {
			lines = append(lines, "   Arguments:")
			for _, argument := range prompt.Arguments {
				requirement := "optional"
				if argument.Required {
					requirement = "required"
				}
				description := argument.Description
				if description == "" {
					description = "No description"
				}
				lines = append(lines, fmt.Sprintf("     - %s (%s): %s", argument.Name, requirement, description))
			}
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
