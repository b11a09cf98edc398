// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/parley-dev/parley/lib/chaterr"
	"github.com/parley-dev/parley/lib/provider"
)

// DefaultRelevantLimit is how many resources AugmentQuery attaches.
const DefaultRelevantLimit = 3

const (
	contextRunes = 1000
	displayRunes = 2000
	separator    = "--------------------------------------------------"
)

// Manager reads resources from a provider session.
type Manager struct {
	source provider.Resources
}

// NewManager returns a manager backed by source.
func NewManager(source provider.Resources) *Manager {
	return &Manager{source: source}
}

// List returns every resource the provider advertises.
func (manager *Manager) List(ctx context.Context) ([]provider.Resource, error) {
	resources, err := manager.source.ListResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	return resources, nil
}

// Read returns the contents of the resource at uri.
func (manager *Manager) Read(ctx context.Context, uri string) ([]provider.ResourceContent, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.New("reading resource: URI is empty")
	}
	contents, err := manager.source.ReadResource(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("reading resource %s: %w", uri, err)
	}
	return contents, nil
}

// Relevant returns up to limit resources relevant to query.
func (manager *Manager) Relevant(ctx context.Context, query string, limit int) ([]provider.Resource, error) {
	resources, err := manager.List(ctx)
	if err != nil {
		return nil, err
	}
	return Rank(resources, query, limit), nil
}

// AugmentQuery prefixes query with the text of the relevant
// resources. It returns query unchanged when nothing relevant can be
// read. A resource that fails to read is skipped unless the session
// itself is gone.
func (manager *Manager) AugmentQuery(ctx context.Context, query string) (string, error) {
	relevant, err := manager.Relevant(ctx, query, DefaultRelevantLimit)
	if err != nil {
		return query, err
	}

	var parts []string
	for _, resource := range relevant {
		contents, err := manager.Read(ctx, resource.URI)
		if err != nil {
			if errors.Is(err, chaterr.ErrProviderUnavailable) || ctx.Err() != nil {
				return query, err
			}
			continue
		}
		for _, content := range contents {
			if content.Text == "" {
				continue
			}
			text := truncate(content.Text, contextRunes, "... (truncated)")
			parts = append(parts, fmt.Sprintf("Resource '%s' (%s):\n%s", resource.Name, resource.URI, text))
		}
	}
	if len(parts) == 0 {
		return query, nil
	}
	return fmt.Sprintf("Here are some relevant resources for context:\n\n%s\n\nUser query: %s",
		strings.Join(parts, "\n\n"), query), nil
}

// truncate cuts text to limit runes and appends marker when it cut.
func truncate(text string, limit int, marker string) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + marker
}

// FormatList renders resources as a numbered listing.
func FormatList(resources []provider.Resource) string {
	if len(resources) == 0 {
		return "No resources available."
	}
	lines := []string{fmt.Sprintf("Available Resources (%d):", len(resources))}
	for i, resource := range resources {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, resource.Name))
		lines = append(lines, "   URI: "+resource.URI)
		if resource.Description != "" {
			lines = append(lines, "   Description: "+resource.Description)
		}
		if resource.MIMEType != "" {
			lines = append(lines, "   MIME Type: "+resource.MIMEType)
		}
		if resource.Size > 0 {
			lines = append(lines, fmt.Sprintf("   Size: %d bytes", resource.Size))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// FormatContents renders resource contents for display. Long text is
// truncated; binary contents are summarized by their base64 length.
func FormatContents(contents []provider.ResourceContent) string {
	if len(contents) == 0 {
		return "No content available."
	}
	var lines []string
	for _, content := range contents {
		lines = append(lines, "Resource: "+content.URI)
		if content.MIMEType != "" {
			lines = append(lines, "MIME Type: "+content.MIMEType)
		}
		switch {
		case content.Text != "":
			lines = append(lines,
				"Content (text):",
				separator,
				truncate(content.Text, displayRunes, "\n... (truncated)"),
				separator,
			)
		case len(content.Blob) > 0:
			lines = append(lines,
				"Content (binary - base64 encoded):",
				fmt.Sprintf("Length: %d characters", base64.StdEncoding.EncodedLen(len(content.Blob))),
				"Use appropriate tools to decode this binary data.",
			)
		default:
			lines = append(lines, "No content available.")
		}
	}
	return strings.Join(lines, "\n")
}
