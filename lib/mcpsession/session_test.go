// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package mcpsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/parley-dev/parley/lib/chaterr"
	"github.com/parley-dev/parley/lib/provider"
)

func newTestServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "test-server", Version: "test"}, nil)

	server.AddTool(&mcp.Tool{
		Name:        "echo",
		Description: "Echo input",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"text": map[string]any{"type": "string"}},
			"required":   []any{"text"},
		},
	}, func(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(request.Params.Arguments, &payload); err != nil {
			return nil, err
		}
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "echo:" + payload.Text}}}, nil
	})

	server.AddTool(&mcp.Tool{
		Name:        "broken",
		Description: "Always fails",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	}, func(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: "upstream unavailable"}},
		}, nil
	})

	server.AddResource(&mcp.Resource{
		URI:         "weather://cities",
		Name:        "Major US Cities",
		Description: "Coordinates for major US cities",
		MIMEType:    "application/json",
	}, func(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     `{"New York":{"lat":40.7128,"lon":-74.006}}`,
		}}}, nil
	})

	server.AddPrompt(&mcp.Prompt{
		Name:        "weather_report",
		Description: "Generate a weather report",
		Arguments: []*mcp.PromptArgument{
			{Name: "location", Description: "City or state", Required: true},
		},
	}, func(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Description: "Weather report",
			Messages: []*mcp.PromptMessage{{
				Role:    "user",
				Content: &mcp.TextContent{Text: fmt.Sprintf("Report the weather for %s.", request.Params.Arguments["location"])},
			}},
		}, nil
	})
	return server
}

// connectTestSession wires a client session to newTestServer over
// in-memory transports.
func connectTestSession(t *testing.T) (*Session, *mcp.ServerSession) {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := newTestServer().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server Connect: %v", err)
	}
	session, err := ConnectTransport(ctx, clientTransport, Options{ClientName: "parley-test"})
	if err != nil {
		t.Fatalf("ConnectTransport: %v", err)
	}
	t.Cleanup(func() {
		session.Close()
		serverSession.Close()
	})
	return session, serverSession
}

func TestListAndCallTools(t *testing.T) {
	t.Parallel()

	session, _ := connectTestSession(t)
	ctx := context.Background()

	if !session.Connected() {
		t.Fatal("new session is not connected")
	}

	tools, err := session.ListTools(ctx)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	if strings.Join(names, ",") != "broken,echo" && strings.Join(names, ",") != "echo,broken" {
		t.Fatalf("tools = %v", names)
	}

	var echo provider.ToolDescriptor
	for _, tool := range tools {
		if tool.Name == "echo" {
			echo = tool
		}
	}
	var schema map[string]any
	if err := json.Unmarshal(echo.InputSchema, &schema); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	if schema["type"] != "object" {
		t.Errorf("schema = %v", schema)
	}

	result, err := session.CallTool(ctx, "echo", map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if result.IsError || result.Text() != "echo:hi" {
		t.Errorf("result = %+v", result)
	}

	result, err = session.CallTool(ctx, "broken", nil)
	if err != nil {
		t.Fatalf("CallTool broken: %v", err)
	}
	if !result.IsError || result.Text() != "upstream unavailable" {
		t.Errorf("broken result = %+v", result)
	}
}

func TestCallUnknownToolKeepsSession(t *testing.T) {
	t.Parallel()

	session, _ := connectTestSession(t)
	_, err := session.CallTool(context.Background(), "nonexistent_tool", map[string]any{})
	if err == nil {
		t.Fatal("CallTool accepted an unknown tool")
	}
	if errors.Is(err, chaterr.ErrProviderUnavailable) {
		t.Errorf("unknown tool reported as transport failure: %v", err)
	}
	if !session.Connected() {
		t.Error("session disconnected after a rejected request")
	}
}

func TestResourcesAndPrompts(t *testing.T) {
	t.Parallel()

	session, _ := connectTestSession(t)
	ctx := context.Background()

	resources, err := session.ListResources(ctx)
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(resources) != 1 || resources[0].URI != "weather://cities" || resources[0].Name != "Major US Cities" {
		t.Fatalf("resources = %+v", resources)
	}

	contents, err := session.ReadResource(ctx, "weather://cities")
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if len(contents) != 1 || !strings.Contains(contents[0].Text, "New York") || contents[0].IsBinary() {
		t.Errorf("contents = %+v", contents)
	}

	prompts, err := session.ListPrompts(ctx)
	if err != nil {
		t.Fatalf("ListPrompts: %v", err)
	}
	if len(prompts) != 1 || len(prompts[0].Arguments) != 1 || !prompts[0].Arguments[0].Required {
		t.Fatalf("prompts = %+v", prompts)
	}

	expanded, err := session.GetPrompt(ctx, "weather_report", map[string]string{"location": "Boston"})
	if err != nil {
		t.Fatalf("GetPrompt: %v", err)
	}
	if len(expanded.Messages) != 1 {
		t.Fatalf("messages = %+v", expanded.Messages)
	}
	message := expanded.Messages[0]
	if message.Role != "user" || message.Content.Text != "Report the weather for Boston." {
		t.Errorf("message = %+v", message)
	}

	summary, err := Summarize(ctx, session, nil)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary != (Summary{Tools: 2, Resources: 1, Prompts: 1}) {
		t.Errorf("summary = %+v", summary)
	}
	if summary.String() != "2 tools, 1 resources, 1 prompts" {
		t.Errorf("summary string = %q", summary.String())
	}
}

func TestClosedSessionIsUnavailable(t *testing.T) {
	t.Parallel()

	session, _ := connectTestSession(t)
	if err := session.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if session.Connected() {
		t.Error("closed session reports connected")
	}
	session.Close()

	_, err := session.CallTool(context.Background(), "echo", map[string]any{"text": "x"})
	if !errors.Is(err, chaterr.ErrProviderUnavailable) {
		t.Errorf("CallTool after Close = %v, want ErrProviderUnavailable", err)
	}
	_, err = session.ListTools(context.Background())
	if !errors.Is(err, chaterr.ErrProviderUnavailable) {
		t.Errorf("ListTools after Close = %v, want ErrProviderUnavailable", err)
	}
}

func TestServerExitDisconnects(t *testing.T) {
	t.Parallel()

	session, serverSession := connectTestSession(t)
	serverSession.Close()

	deadline := time.Now().Add(5 * time.Second)
	for session.Connected() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if session.Connected() {
		t.Fatal("session still connected after the server went away")
	}
	_, err := session.CallTool(context.Background(), "echo", map[string]any{"text": "x"})
	if !errors.Is(err, chaterr.ErrProviderUnavailable) {
		t.Errorf("CallTool after server exit = %v, want ErrProviderUnavailable", err)
	}
}

func TestServerCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		args    []string
		command string
		want    []string
	}{
		{"weather.py", nil, "python", []string{"weather.py"}},
		{"server/index.JS", []string{"--port", "0"}, "node", []string{"server/index.JS", "--port", "0"}},
		{"./parley-weather", []string{"-v"}, "./parley-weather", []string{"-v"}},
	}
	for _, test := range tests {
		spec, err := ServerCommand(test.path, test.args...)
		if err != nil {
			t.Fatalf("ServerCommand(%q): %v", test.path, err)
		}
		if spec.Command != test.command || strings.Join(spec.Args, " ") != strings.Join(test.want, " ") {
			t.Errorf("ServerCommand(%q) = %+v, want %s %v", test.path, spec, test.command, test.want)
		}
	}

	if _, err := ServerCommand("  "); err == nil {
		t.Error("ServerCommand accepted an empty path")
	}
}

func TestServerSpecEnvironment(t *testing.T) {
	t.Parallel()

	spec := ServerSpec{Command: "server", Env: map[string]string{"B": "2", "A": "1"}}
	if got := strings.Join(spec.environment(), " "); got != "A=1 B=2" {
		t.Errorf("environment = %q", got)
	}
	command, err := spec.command()
	if err != nil {
		t.Fatalf("command: %v", err)
	}
	if last := command.Env[len(command.Env)-1]; last != "B=2" {
		t.Errorf("last env entry = %q", last)
	}
	if _, err := (ServerSpec{}).command(); err == nil {
		t.Error("empty spec built a command")
	}
	if spec.String() != "server" {
		t.Errorf("String() = %q", spec.String())
	}
}

func TestConnectMissingBinary(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := Connect(ctx, ServerSpec{Command: "/nonexistent/parley-test-server"}, Options{})
	if !errors.Is(err, chaterr.ErrProviderUnavailable) {
		t.Errorf("Connect error = %v, want ErrProviderUnavailable", err)
	}
}
