// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package provider defines the boundary between the conversation
// packages and the process that serves tools, resources, and prompts.
//
// The interfaces are split by consumer: the tool directory and tool
// invoker need only [Tools], the resource manager only [Resources],
// the prompt manager only [Prompts]. [Session] combines them for code
// that owns the connection. lib/mcpsession implements Session over a
// Model Context Protocol subprocess; tests use providertest.Fake.
//
// Implementations serialize requests: at most one request is in
// flight on a session at a time.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Tools lists and calls the provider's tools.
type Tools interface {
	// Connected reports whether the session can serve requests.
	Connected() bool

	// ListTools returns the provider's current tool list. It fails
	// with chaterr.ErrProviderUnavailable when the session is not
	// connected.
	ListTools(ctx context.Context) ([]ToolDescriptor, error)

	// CallTool invokes a tool by name. A tool that ran and reported
	// failure returns a result with IsError set and a nil error. A
	// non-nil error means the request itself failed: unknown tool,
	// rejected arguments, or a broken transport (the last wraps
	// chaterr.ErrProviderUnavailable).
	CallTool(ctx context.Context, name string, arguments map[string]any) (*CallResult, error)
}

// Resources lists and reads the provider's resources.
type Resources interface {
	ListResources(ctx context.Context) ([]Resource, error)
	ReadResource(ctx context.Context, uri string) ([]ResourceContent, error)
}

// Prompts lists and expands the provider's prompt templates.
type Prompts interface {
	ListPrompts(ctx context.Context) ([]Prompt, error)
	GetPrompt(ctx context.Context, name string, arguments map[string]string) (*PromptResult, error)
}

// Session is a connection to one provider process.
type Session interface {
	Tools
	Resources
	Prompts

	// Close ends the session and stops the provider process.
	Close() error
}

// ToolDescriptor is a provider-advertised tool.
type ToolDescriptor struct {
	// Name is unique within a session.
	Name string

	Description string

	// InputSchema is the JSON Schema the tool accepts, passed to the
	// model API verbatim.
	InputSchema json.RawMessage
}

// ContentKind identifies the type of a [Content] item.
type ContentKind string

const (
	ContentText         ContentKind = "text"
	ContentImage        ContentKind = "image"
	ContentAudio        ContentKind = "audio"
	ContentResource     ContentKind = "resource"
	ContentResourceLink ContentKind = "resource_link"
)

// Content is one item of a tool result or prompt message.
type Content struct {
	Kind ContentKind

	// Text is set for text content and for embedded text resources.
	Text string

	// MIMEType is set for image, audio, and resource content.
	MIMEType string

	// Data holds decoded image or audio bytes, or an embedded binary
	// resource.
	Data []byte

	// URI is set for resource and resource_link content.
	URI string
}

// String renders the content as transcript text. Text renders as
// itself; binary content renders as a bracketed placeholder naming
// its type and size.
func (content Content) String() string {
	switch content.Kind {
	case ContentText:
		return content.Text
	case ContentImage, ContentAudio:
		return fmt.Sprintf("[%s %s, %d bytes]", content.Kind, content.MIMEType, len(content.Data))
	case ContentResource:
		if content.Text != "" {
			return content.Text
		}
		return fmt.Sprintf("[resource %s, %d bytes]", content.URI, len(content.Data))
	case ContentResourceLink:
		return fmt.Sprintf("[resource link %s]", content.URI)
	default:
		if content.Text != "" {
			return content.Text
		}
		return fmt.Sprintf("[%s]", content.Kind)
	}
}

// CallResult is the outcome of a tool call.
type CallResult struct {
	Content []Content
	IsError bool
}

// Text joins the string form of every content item with newlines.
func (result *CallResult) Text() string {
	parts := make([]string, 0, len(result.Content))
	for _, content := range result.Content {
		parts = append(parts, content.String())
	}
	return strings.Join(parts, "\n")
}

// Resource is a provider-advertised resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MIMEType    string

	// Size is the content length in bytes when the provider reports
	// it, zero otherwise.
	Size int64
}

// ResourceContent is one content item of a read resource. Exactly one
// of Text and Blob is meaningful.
type ResourceContent struct {
	URI      string
	MIMEType string
	Text     string
	Blob     []byte
}

// IsBinary reports whether the content is a blob rather than text.
func (content ResourceContent) IsBinary() bool {
	return content.Text == "" && content.Blob != nil
}

// Prompt is a provider-advertised prompt template.
type Prompt struct {
	Name        string
	Description string
	Arguments   []PromptArgument
}

// PromptArgument is one parameter of a prompt template.
type PromptArgument struct {
	Name        string
	Description string
	Required    bool
}

// PromptResult is an expanded prompt template.
type PromptResult struct {
	Description string
	Messages    []PromptMessage
}

// PromptMessage is one message of an expanded prompt. Role is "user"
// or "assistant".
type PromptMessage struct {
	Role    string
	Content Content
}
