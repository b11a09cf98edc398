// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package render formats assistant answers for a terminal.
//
// Answers are Markdown. [Renderer.Markdown] parses them with goldmark
// (GFM extensions) and walks the AST directly, reflowing paragraphs to
// the output width, highlighting fenced code with chroma, and drawing
// tables with lipgloss. Output always uses the ANSI 256-color profile;
// callers decide whether the destination is a terminal and skip
// rendering when it is not.
//
// [Renderer.Answer] additionally recognizes the tool trace lines an
// orchestration run interleaves with the model's text and styles them
// apart from the Markdown around them.
package render
