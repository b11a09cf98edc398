// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
)

// wrapBreakpoints are the characters after which ansi.Wrap may break a
// word that does not fit a line.
const wrapBreakpoints = " ,.;-+|/"

// walker renders one document. Inline content collects in inline and
// is wrapped as a unit when its block closes; blocks are written to
// output line by line behind the current prefixes.
type walker struct {
	renderer *Renderer
	source   []byte

	output strings.Builder
	inline strings.Builder

	// prefixes holds one entry per open blockquote or list item.
	prefixes []prefix

	// bullet replaces the prefix of the next written line.
	bullet string

	// gap requests a blank line before the next block.
	gap bool

	bold   int
	italic int
	strike int

	lists []listLevel
}

type prefix struct {
	text  string
	width int
}

type listLevel struct {
	ordered bool
	next    int
	tight   bool
}

func newWalker(renderer *Renderer, source []byte) *walker {
	return &walker{renderer: renderer, source: source}
}

func (w *walker) render(document ast.Node) {
	// visit never returns an error.
	_ = ast.Walk(document, w.visit)
}

func (w *walker) style() lipgloss.Style {
	return w.renderer.styles.NewStyle()
}

func (w *walker) theme() Theme {
	return w.renderer.theme
}

func (w *walker) linePrefix() string {
	var builder strings.Builder
	for _, level := range w.prefixes {
		builder.WriteString(level.text)
	}
	return builder.String()
}

// available is the content width left after the open prefixes.
func (w *walker) available() int {
	width := w.renderer.width
	for _, level := range w.prefixes {
		width -= level.width
	}
	return max(width, minimumWidth)
}

func (w *walker) push(text string, width int) {
	w.prefixes = append(w.prefixes, prefix{text: text, width: width})
}

func (w *walker) pop() {
	if len(w.prefixes) > 0 {
		w.prefixes = w.prefixes[:len(w.prefixes)-1]
	}
}

func (w *walker) tight() bool {
	return len(w.lists) > 0 && w.lists[len(w.lists)-1].tight
}

// block writes content as one block, prefixing every line.
func (w *walker) block(content string) {
	if content == "" {
		return
	}
	if w.gap && w.output.Len() > 0 {
		w.output.WriteString("\n")
	}
	w.gap = false

	linePrefix := w.linePrefix()
	for index, line := range strings.Split(content, "\n") {
		if index == 0 && w.bullet != "" {
			w.output.WriteString(w.bullet)
			w.bullet = ""
		} else {
			w.output.WriteString(linePrefix)
		}
		w.output.WriteString(line)
		w.output.WriteString("\n")
	}
}

// separated writes content as a block with blank lines around it.
func (w *walker) separated(content string) {
	w.gap = true
	w.block(content)
	w.gap = true
}

// takeInline returns and clears the collected inline content.
func (w *walker) takeInline() string {
	content := w.inline.String()
	w.inline.Reset()
	return content
}

// inlineOf renders the children of node as inline text without
// disturbing the surrounding inline state.
func (w *walker) inlineOf(node ast.Node) string {
	saved := w.takeInline()
	bold, italic, strike := w.bold, w.italic, w.strike
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		_ = ast.Walk(child, w.visit)
	}
	content := w.takeInline()
	w.inline.WriteString(saved)
	w.bold, w.italic, w.strike = bold, italic, strike
	return content
}

func (w *walker) text(value string) string {
	style := w.style().Foreground(w.theme().Text)
	if w.bold > 0 {
		style = style.Bold(true)
	}
	if w.italic > 0 {
		style = style.Italic(true)
	}
	if w.strike > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(value)
}

func (w *walker) lines(node ast.Node) string {
	var content strings.Builder
	segments := node.Lines()
	for index := range segments.Len() {
		segment := segments.At(index)
		content.Write(segment.Value(w.source))
	}
	return strings.TrimRight(content.String(), "\n")
}

func (w *walker) visit(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			w.inline.Reset()
			return ast.WalkContinue, nil
		}
		w.block(ansi.Wrap(w.takeInline(), w.available(), wrapBreakpoints))
		w.gap = !w.tight()

	case ast.KindHeading:
		if entering {
			w.inline.Reset()
			return ast.WalkContinue, nil
		}
		w.heading(node.(*ast.Heading))

	case ast.KindFencedCodeBlock:
		if !entering {
			break
		}
		fenced := node.(*ast.FencedCodeBlock)
		w.separated(w.highlight(w.lines(fenced), string(fenced.Language(w.source))))
		return ast.WalkSkipChildren, nil

	case ast.KindCodeBlock:
		if !entering {
			break
		}
		w.separated(w.highlight(w.lines(node), ""))
		return ast.WalkSkipChildren, nil

	case ast.KindHTMLBlock:
		if !entering {
			break
		}
		w.separated(paint(w.style().Foreground(w.theme().Faint), w.lines(node)))
		return ast.WalkSkipChildren, nil

	case ast.KindThematicBreak:
		if !entering {
			break
		}
		rule := strings.Repeat("─", w.available())
		w.separated(w.style().Foreground(w.theme().Border).Render(rule))

	case ast.KindBlockquote:
		if entering {
			w.gap = true
			w.push(w.style().Foreground(w.theme().Border).Render("│ "), 2)
		} else {
			w.pop()
			w.gap = true
		}

	case ast.KindList:
		w.list(node.(*ast.List), entering)

	case ast.KindListItem:
		w.listItem(entering)

	case ast.KindText:
		if entering {
			segment := node.(*ast.Text)
			w.inline.WriteString(w.text(string(segment.Segment.Value(w.source))))
			if segment.HardLineBreak() {
				w.inline.WriteString("\n")
			} else if segment.SoftLineBreak() {
				w.inline.WriteString(" ")
			}
		}

	case ast.KindString:
		if entering {
			w.inline.WriteString(w.text(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		counter := &w.italic
		if node.(*ast.Emphasis).Level >= 2 {
			counter = &w.bold
		}
		if entering {
			*counter++
		} else {
			*counter--
		}

	case ast.KindCodeSpan:
		if !entering {
			break
		}
		var code strings.Builder
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			switch inline := child.(type) {
			case *ast.Text:
				code.Write(inline.Segment.Value(w.source))
			case *ast.String:
				code.Write(inline.Value)
			}
		}
		w.inline.WriteString(w.style().Foreground(w.theme().Code).Render(code.String()))
		return ast.WalkSkipChildren, nil

	case ast.KindLink:
		if !entering {
			break
		}
		link := node.(*ast.Link)
		w.link(w.inlineOf(link), string(link.Destination))
		return ast.WalkSkipChildren, nil

	case ast.KindAutoLink:
		if entering {
			url := string(node.(*ast.AutoLink).URL(w.source))
			w.inline.WriteString(w.style().Foreground(w.theme().Link).Underline(true).Render(url))
		}

	case ast.KindImage:
		if !entering {
			break
		}
		image := node.(*ast.Image)
		faint := w.style().Foreground(w.theme().Faint)
		w.inline.WriteString(faint.Render("[image: " + ansi.Strip(w.inlineOf(image)) + "]"))
		if destination := string(image.Destination); destination != "" {
			w.inline.WriteString(" " + faint.Render("("+destination+")"))
		}
		return ast.WalkSkipChildren, nil

	case ast.KindRawHTML:
		return ast.WalkSkipChildren, nil

	case extast.KindStrikethrough:
		if entering {
			w.strike++
		} else {
			w.strike--
		}

	case extast.KindTaskCheckBox:
		if entering {
			if node.(*extast.TaskCheckBox).IsChecked {
				w.inline.WriteString(w.style().Foreground(w.theme().Accent).Render("[x]") + " ")
			} else {
				w.inline.WriteString(w.text("[ ] "))
			}
		}

	case extast.KindTable:
		if !entering {
			break
		}
		w.separated(w.table(node.(*extast.Table)))
		return ast.WalkSkipChildren, nil
	}

	return ast.WalkContinue, nil
}

func (w *walker) heading(heading *ast.Heading) {
	content := ansi.Strip(w.takeInline())
	if content == "" {
		return
	}
	style := w.style().Bold(true).Foreground(w.theme().Heading)
	switch {
	case heading.Level == 1:
		style = style.Underline(true)
	case heading.Level > 2:
		style = style.Foreground(w.theme().Text)
	}
	w.separated(ansi.Wrap(style.Render(content), w.available(), wrapBreakpoints))
}

// highlight colors code with chroma when language is known, and
// renders it in the code color otherwise.
func (w *walker) highlight(code, language string) string {
	plain := w.style().Foreground(w.theme().Code)
	if language == "" {
		return paint(plain, code)
	}
	var highlighted strings.Builder
	if err := quick.Highlight(&highlighted, code, language, "terminal256", w.theme().CodeStyle); err != nil {
		return paint(plain, code)
	}
	return strings.TrimRight(highlighted.String(), "\n")
}

// paint styles each line of content separately, so lipgloss does not
// pad the lines of a block to a common width.
func paint(style lipgloss.Style, content string) string {
	lines := strings.Split(content, "\n")
	for index, line := range lines {
		lines[index] = style.Render(line)
	}
	return strings.Join(lines, "\n")
}

func (w *walker) list(list *ast.List, entering bool) {
	if entering {
		w.lists = append(w.lists, listLevel{
			ordered: list.IsOrdered(),
			next:    list.Start,
			tight:   list.IsTight,
		})
		return
	}
	w.lists = w.lists[:len(w.lists)-1]
	w.gap = !w.tight()
}

func (w *walker) listItem(entering bool) {
	if len(w.lists) == 0 {
		return
	}
	if !entering {
		w.pop()
		w.bullet = ""
		return
	}

	level := &w.lists[len(w.lists)-1]
	marker := "- "
	if level.ordered {
		marker = fmt.Sprintf("%d. ", level.next)
		level.next++
	}
	w.bullet = w.linePrefix() + w.style().Foreground(w.theme().Faint).Render(marker)
	w.push(strings.Repeat(" ", len(marker)), len(marker))
}

func (w *walker) link(label, destination string) {
	linkStyle := w.style().Foreground(w.theme().Link).Underline(true)
	switch {
	case destination == "":
		w.inline.WriteString(label)
	case ansi.Strip(label) == destination || label == "":
		w.inline.WriteString(linkStyle.Render(destination))
	default:
		w.inline.WriteString(label + " " + w.style().Foreground(w.theme().Faint).Render("("+destination+")"))
	}
}

func (w *walker) table(node *extast.Table) string {
	var headers []string
	var rows [][]string
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		var cells []string
		for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, w.inlineOf(cell))
		}
		switch child.Kind() {
		case extast.KindTableHeader:
			headers = cells
		case extast.KindTableRow:
			rows = append(rows, cells)
		}
	}

	alignments := node.Alignments
	rendered := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(w.style().Foreground(w.theme().Border)).
		StyleFunc(func(row, column int) lipgloss.Style {
			style := w.style().Padding(0, 1)
			if column < len(alignments) {
				switch alignments[column] {
				case extast.AlignRight:
					style = style.Align(lipgloss.Right)
				case extast.AlignCenter:
					style = style.Align(lipgloss.Center)
				}
			}
			if row == table.HeaderRow {
				style = style.Bold(true).Foreground(w.theme().Heading)
			}
			return style
		}).
		Headers(headers...).
		Rows(rows...)

	output := rendered.String()
	if lipgloss.Width(output) > w.available() {
		output = rendered.Width(w.available()).String()
	}
	return output
}
