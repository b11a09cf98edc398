// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

// visible renders markdown and strips the styling.
func visible(input string, width int) string {
	return ansi.Strip(Markdown(input, DefaultTheme, width))
}

func TestMarkdownEmpty(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "  \n\n "} {
		if got := Markdown(input, DefaultTheme, 80); got != "" {
			t.Errorf("Markdown(%q) = %q, want empty", input, got)
		}
	}
}

func TestMarkdownReflowsParagraphs(t *testing.T) {
	t.Parallel()

	input := "The forecast for\nChicago calls for\nsunshine all week."
	if got := visible(input, 120); got != "The forecast for Chicago calls for sunshine all week." {
		t.Errorf("reflowed paragraph = %q", got)
	}

	narrow := visible("Tonight: mostly clear with a low around forty degrees and light winds from the west.", 30)
	for _, line := range strings.Split(narrow, "\n") {
		if ansi.StringWidth(line) > 30 {
			t.Errorf("line %q is wider than 30 columns", line)
		}
	}
	if !strings.Contains(narrow, "\n") {
		t.Error("long paragraph did not wrap at width 30")
	}
}

func TestMarkdownParagraphsSeparated(t *testing.T) {
	t.Parallel()

	if got := visible("First.\n\nSecond.", 80); got != "First.\n\nSecond." {
		t.Errorf("paragraphs = %q", got)
	}
}

func TestMarkdownHardLineBreak(t *testing.T) {
	t.Parallel()

	if got := visible("High: 75F  \nLow: 58F", 80); got != "High: 75F\nLow: 58F" {
		t.Errorf("hard break = %q", got)
	}
}

func TestMarkdownHeadings(t *testing.T) {
	t.Parallel()

	got := visible("# Forecast\n\nSunny.\n\n### Details\n\nWarm.", 80)
	want := "Forecast\n\nSunny.\n\nDetails\n\nWarm."
	if got != want {
		t.Errorf("headings = %q, want %q", got, want)
	}
}

func TestMarkdownStyled(t *testing.T) {
	t.Parallel()

	raw := Markdown("**Severe** thunderstorm *watch*", DefaultTheme, 80)
	if raw == ansi.Strip(raw) {
		t.Error("emphasis produced no styling")
	}
	if got := ansi.Strip(raw); got != "Severe thunderstorm watch" {
		t.Errorf("visible text = %q", got)
	}
}

func TestMarkdownLists(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unordered", "- rain\n- wind", "- rain\n- wind"},
		{"ordered", "3. pack\n4. leave", "3. pack\n4. leave"},
		{"nested", "- east\n  - Boston\n- west", "- east\n  - Boston\n- west"},
		{"loose", "- rain\n\n- wind", "- rain\n\n- wind"},
		{"task", "- [x] checked\n- [ ] open", "- [x] checked\n- [ ] open"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := visible(test.input, 80); got != test.want {
				t.Errorf("got %q, want %q", got, test.want)
			}
		})
	}
}

func TestMarkdownListFollowedByParagraph(t *testing.T) {
	t.Parallel()

	got := visible("Alerts:\n\n- flood\n- wind\n\nStay safe.", 80)
	want := "Alerts:\n\n- flood\n- wind\n\nStay safe."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMarkdownBlockquote(t *testing.T) {
	t.Parallel()

	got := visible("> Take shelter\n> immediately.", 80)
	if got != "│ Take shelter immediately." {
		t.Errorf("blockquote = %q", got)
	}
}

func TestMarkdownCode(t *testing.T) {
	t.Parallel()

	span := visible("Call `get_forecast` first.", 80)
	if span != "Call get_forecast first." {
		t.Errorf("code span = %q", span)
	}

	fenced := visible("Before\n\n```go\nfunc main() {\n\tprintln(\"hi\")\n}\n```\n\nAfter", 80)
	for _, want := range []string{"func main() {", "\tprintln(\"hi\")", "Before\n\n", "\n\nAfter"} {
		if !strings.Contains(fenced, want) {
			t.Errorf("fenced output missing %q:\n%s", want, fenced)
		}
	}

	highlighted := Markdown("```go\nfunc main() {}\n```", DefaultTheme, 80)
	if highlighted == ansi.Strip(highlighted) {
		t.Error("fenced Go code was not highlighted")
	}

	long := "```\n" + strings.Repeat("x", 50) + "\n```"
	if got := visible(long, 20); got != strings.Repeat("x", 50) {
		t.Errorf("code block was reflowed: %q", got)
	}
}

func TestMarkdownLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"See [NWS](https://weather.gov).", "See NWS (https://weather.gov)."},
		{"See [https://weather.gov](https://weather.gov).", "See https://weather.gov."},
		{"See <https://weather.gov>.", "See https://weather.gov."},
		{"![radar](https://example.com/radar.png)", "[image: radar] (https://example.com/radar.png)"},
	}
	for _, test := range tests {
		if got := visible(test.input, 80); got != test.want {
			t.Errorf("visible(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestMarkdownThematicBreak(t *testing.T) {
	t.Parallel()

	got := visible("Above\n\n---\n\nBelow", 30)
	want := "Above\n\n" + strings.Repeat("─", 30) + "\n\nBelow"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMarkdownTable(t *testing.T) {
	t.Parallel()

	input := "| City | High |\n|------|-----:|\n| Denver | 71 |\n| Miami | 88 |"
	got := visible(input, 80)
	for _, want := range []string{"City", "High", "Denver", "Miami", "88"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
	for _, line := range strings.Split(got, "\n") {
		if ansi.StringWidth(line) > 80 {
			t.Errorf("table line wider than 80 columns: %q", line)
		}
	}
}

func TestMarkdownStrikethrough(t *testing.T) {
	t.Parallel()

	if got := visible("~~cancelled~~ rescheduled", 80); got != "cancelled rescheduled" {
		t.Errorf("strikethrough = %q", got)
	}
}

func TestAnswerStylesTraceLines(t *testing.T) {
	t.Parallel()

	renderer := New(DefaultTheme, 80)
	answer := "Let me check.\n[Calling tool get_forecast with args {\"latitude\":40.7}]\nIt is **sunny**."

	got := ansi.Strip(renderer.Answer(answer))
	want := "Let me check.\n[Calling tool get_forecast with args {\"latitude\":40.7}]\nIt is sunny."
	if got != want {
		t.Errorf("Answer = %q, want %q", got, want)
	}

	traceOnly := renderer.Answer("[Calling tool get_alerts with args {\"state\":\"CA\"}]")
	if ansi.Strip(traceOnly) != "[Calling tool get_alerts with args {\"state\":\"CA\"}]" {
		t.Errorf("trace-only answer = %q", ansi.Strip(traceOnly))
	}
	if traceOnly == ansi.Strip(traceOnly) {
		t.Error("trace line was not styled")
	}
}

func TestIsTraceLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want bool
	}{
		{"[Calling tool get_alerts with args {}]", true},
		{"[Calling tool get_alerts with args {}] trailing", false},
		{"Calling tool get_alerts", false},
		{"[link](x)", false},
	}
	for _, test := range tests {
		if got := IsTraceLine(test.line); got != test.want {
			t.Errorf("IsTraceLine(%q) = %v, want %v", test.line, got, test.want)
		}
	}
}

func TestRendererWidth(t *testing.T) {
	t.Parallel()

	if got := New(DefaultTheme, 0).Width(); got != DefaultWidth {
		t.Errorf("Width() = %d, want %d", got, DefaultWidth)
	}
	renderer := New(DefaultTheme, 60)
	if renderer.Width() != 60 {
		t.Errorf("Width() = %d, want 60", renderer.Width())
	}
	for _, styled := range []string{renderer.Error("boom"), renderer.Faint("hint"), renderer.Accent("> ")} {
		if styled == ansi.Strip(styled) {
			t.Errorf("%q carries no styling", styled)
		}
	}
}
