// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package mcpsession

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/parley-dev/parley/lib/provider"
)

func toToolDescriptor(tool *mcp.Tool) (provider.ToolDescriptor, error) {
	descriptor := provider.ToolDescriptor{Name: tool.Name, Description: tool.Description}
	if tool.InputSchema != nil {
		schema, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return provider.ToolDescriptor{}, fmt.Errorf("encoding input schema of tool %q: %w", tool.Name, err)
		}
		descriptor.InputSchema = schema
	}
	return descriptor, nil
}

func toContent(content mcp.Content) provider.Content {
	switch content := content.(type) {
	case *mcp.TextContent:
		return provider.Content{Kind: provider.ContentText, Text: content.Text}
	case *mcp.ImageContent:
		return provider.Content{Kind: provider.ContentImage, MIMEType: content.MIMEType, Data: content.Data}
	case *mcp.AudioContent:
		return provider.Content{Kind: provider.ContentAudio, MIMEType: content.MIMEType, Data: content.Data}
	case *mcp.ResourceLink:
		return provider.Content{Kind: provider.ContentResourceLink, URI: content.URI, MIMEType: content.MIMEType}
	case *mcp.EmbeddedResource:
		converted := provider.Content{Kind: provider.ContentResource}
		if content.Resource != nil {
			converted.URI = content.Resource.URI
			converted.MIMEType = content.Resource.MIMEType
			converted.Text = content.Resource.Text
			converted.Data = content.Resource.Blob
		}
		return converted
	default:
		return provider.Content{Kind: provider.ContentKind(fmt.Sprintf("%T", content))}
	}
}

func toCallResult(result *mcp.CallToolResult) *provider.CallResult {
	converted := &provider.CallResult{IsError: result.IsError}
	for _, content := range result.Content {
		if content == nil {
			continue
		}
		converted.Content = append(converted.Content, toContent(content))
	}
	return converted
}

func toResource(resource *mcp.Resource) provider.Resource {
	return provider.Resource{
		URI:         resource.URI,
		Name:        resource.Name,
		Description: resource.Description,
		MIMEType:    resource.MIMEType,
		Size:        resource.Size,
	}
}

func toResourceContent(contents *mcp.ResourceContents) provider.ResourceContent {
	return provider.ResourceContent{
		URI:      contents.URI,
		MIMEType: contents.MIMEType,
		Text:     contents.Text,
		Blob:     contents.Blob,
	}
}

func toPrompt(prompt *mcp.Prompt) provider.Prompt {
	converted := provider.Prompt{Name: prompt.Name, Description: prompt.Description}
	for _, argument := range prompt.Arguments {
		if argument == nil {
			continue
		}
		converted.Arguments = append(converted.Arguments, provider.PromptArgument{
			Name:        argument.Name,
			Description: argument.Description,
			Required:    argument.Required,
		})
	}
	return converted
}

func toPromptResult(result *mcp.GetPromptResult) *provider.PromptResult {
	converted := &provider.PromptResult{Description: result.Description}
	for _, message := range result.Messages {
		if message == nil {
			continue
		}
		var content provider.Content
		if message.Content != nil {
			content = toContent(message.Content)
		}
		converted.Messages = append(converted.Messages, provider.PromptMessage{
			Role:    string(message.Role),
			Content: content,
		})
	}
	return converted
}
