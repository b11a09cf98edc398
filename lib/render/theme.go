// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package render

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette of rendered output, in ANSI 256-color
// codes.
type Theme struct {
	Text    lipgloss.Color
	Faint   lipgloss.Color
	Heading lipgloss.Color
	Border  lipgloss.Color
	Link    lipgloss.Color
	Code    lipgloss.Color

	// Trace colors tool-call trace lines.
	Trace lipgloss.Color

	// Error colors failures reported to the user.
	Error lipgloss.Color

	// Accent colors prompts and banners.
	Accent lipgloss.Color

	// CodeStyle is the chroma style name for fenced code.
	CodeStyle string
}

// DefaultTheme suits 256-color terminals with a dark background.
var DefaultTheme = Theme{
	Text:    lipgloss.Color("252"),
	Faint:   lipgloss.Color("245"),
	Heading: lipgloss.Color("255"),
	Border:  lipgloss.Color("240"),
	Link:    lipgloss.Color("75"),  // blue
	Code:    lipgloss.Color("180"), // tan
	Trace:   lipgloss.Color("109"), // muted teal
	Error:   lipgloss.Color("196"), // red
	Accent:  lipgloss.Color("114"), // green

	CodeStyle: "monokai",
}
