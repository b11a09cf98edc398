// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// DefaultWidth is the wrap width used when none is known.
const DefaultWidth = 80

// minimumWidth keeps deeply nested content from wrapping one word per
// line.
const minimumWidth = 20

var (
	markdownOnce   sync.Once
	markdownParser goldmark.Markdown
)

func parser() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParser
}

// Renderer styles text for a terminal of a fixed width. A Renderer is
// safe for concurrent use.
type Renderer struct {
	theme  Theme
	width  int
	styles *lipgloss.Renderer
}

// New returns a renderer wrapping at width columns. A width of zero or
// less means [DefaultWidth].
func New(theme Theme, width int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	// The renderer's output is never written to; forcing the profile
	// keeps styling independent of how the process was started.
	styles := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(termenv.ANSI256))
	styles.SetColorProfile(termenv.ANSI256)
	return &Renderer{theme: theme, width: width, styles: styles}
}

// Markdown renders text with theme at width. It is shorthand for
// New(theme, width).Markdown(text).
func Markdown(text string, theme Theme, width int) string {
	return New(theme, width).Markdown(text)
}

// Width returns the wrap width.
func (renderer *Renderer) Width() int {
	return renderer.width
}

// Markdown renders Markdown source as styled terminal text without a
// trailing newline.
func (renderer *Renderer) Markdown(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	input := []byte(source)
	document := parser().Parser().Parse(text.NewReader(input))

	walker := newWalker(renderer, input)
	walker.render(document)
	return strings.TrimRight(walker.output.String(), "\n")
}

// Answer renders the output of an orchestration run: tool trace lines
// are styled with [Renderer.Trace] and every run of other lines is
// rendered as Markdown.
func (renderer *Renderer) Answer(answer string) string {
	var sections []string
	var markdown []string
	flush := func() {
		if rendered := renderer.Markdown(strings.Join(markdown, "\n")); rendered != "" {
			sections = append(sections, rendered)
		}
		markdown = markdown[:0]
	}

	for _, line := range strings.Split(answer, "\n") {
		if IsTraceLine(line) {
			flush()
			sections = append(sections, renderer.Trace(line))
			continue
		}
		markdown = append(markdown, line)
	}
	flush()
	return strings.Join(sections, "\n")
}

// IsTraceLine reports whether line records a tool call.
func IsTraceLine(line string) bool {
	return strings.HasPrefix(line, "[Calling tool ") && strings.HasSuffix(line, "]")
}

// Trace styles a tool trace line.
func (renderer *Renderer) Trace(line string) string {
	return renderer.styles.NewStyle().Foreground(renderer.theme.Trace).Italic(true).Render(line)
}

// Error styles a failure message.
func (renderer *Renderer) Error(message string) string {
	return renderer.styles.NewStyle().Foreground(renderer.theme.Error).Bold(true).Render(message)
}

// Faint styles secondary text such as listings and hints.
func (renderer *Renderer) Faint(message string) string {
	return renderer.styles.NewStyle().Foreground(renderer.theme.Faint).Render(message)
}

// Accent styles prompts and banners.
func (renderer *Renderer) Accent(message string) string {
	return renderer.styles.NewStyle().Foreground(renderer.theme.Accent).Bold(true).Render(message)
}
