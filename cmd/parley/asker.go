// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/parley-dev/parley/lib/prompts"
	"github.com/parley-dev/parley/lib/render"
)

// errAnswerCancelled is returned when the user abandons an argument
// form with Esc or Ctrl+C.
var errAnswerCancelled = errors.New("prompt cancelled")

// formAsker asks for prompt arguments with an inline text input on a
// terminal.
type formAsker struct {
	in    io.Reader
	out   io.Writer
	theme render.Theme
}

func newFormAsker(in io.Reader, out io.Writer, theme render.Theme) *formAsker {
	return &formAsker{in: in, out: out, theme: theme}
}

// Ask runs a one-field form and echoes the answer after the label.
func (asker *formAsker) Ask(ctx context.Context, question prompts.Question) (string, error) {
	program := tea.NewProgram(
		newFieldModel(question, asker.theme),
		tea.WithContext(ctx),
		tea.WithInput(asker.in),
		tea.WithOutput(asker.out),
	)
	final, err := program.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("reading %s: %w", question.Argument.Name, err)
	}

	field := final.(fieldModel)
	if field.cancelled {
		return "", errAnswerCancelled
	}
	fmt.Fprintf(asker.out, "%s: %s\n", question.Label, field.input.Value())
	return field.input.Value(), nil
}

// fieldModel is the bubbletea model of one argument question.
type fieldModel struct {
	question  prompts.Question
	input     textinput.Model
	label     lipgloss.Style
	retry     lipgloss.Style
	done      bool
	cancelled bool
}

func newFieldModel(question prompts.Question, theme render.Theme) fieldModel {
	input := textinput.New()
	input.Prompt = ""
	if !question.Argument.Required {
		input.Placeholder = "press Enter to skip"
	}
	input.Focus()
	return fieldModel{
		question: question,
		input:    input,
		label:    lipgloss.NewStyle().Foreground(theme.Accent).Bold(true),
		retry:    lipgloss.NewStyle().Foreground(theme.Error),
	}
}

func (model fieldModel) Init() tea.Cmd {
	return textinput.Blink
}

func (model fieldModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := message.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			model.done = true
			return model, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			model.cancelled = true
			return model, tea.Quit
		}
	}
	var command tea.Cmd
	model.input, command = model.input.Update(message)
	return model, command
}

// View clears itself once answered; Ask prints the final line.
func (model fieldModel) View() string {
	if model.done || model.cancelled {
		return ""
	}
	view := model.label.Render(model.question.Label+":") + " " + model.input.View()
	if model.question.Retry != "" {
		view = model.retry.Render(model.question.Retry) + "\n" + view
	}
	return view
}
